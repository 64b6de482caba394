package main

import (
	"context"
	"cosmic-classifier/internal/core/types"
	"cosmic-classifier/pkg/api"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
)

type batchClient interface {
	PredictBatch(ctx context.Context, items []api.PredictRequest) (api.BatchPredictResponse, error)
}

// csvRow is one data line of an export. Err is set when a cell can never be classified.
type csvRow struct {
	Values types.PartialVector
	Err    error
}

// readRows parses a KOI table export. Columns are matched by header name so the export
// may carry any number of extra columns; '#' lines are the archive's preamble. A nan cell
// counts as empty and an infinite cell fails only its own row.
func readRows(r io.Reader) ([]csvRow, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading csv header: %w", err)
	}

	columns := make([]int, types.NumFeatures)
	for i := range columns {
		columns[i] = -1
	}
	for col, name := range header {
		if idx := types.FeatureIndex(strings.TrimSpace(name)); idx >= 0 {
			columns[idx] = col
		}
	}

	var missing []string
	for i, col := range columns {
		if col < 0 {
			missing = append(missing, types.FeatureSpecs[i].Name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv header is missing columns: %s", strings.Join(missing, ", "))
	}

	var rows []csvRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading csv row %d: %w", line, err)
		}

		var row csvRow
		var invalid []string
		for i, col := range columns {
			if col >= len(record) {
				continue
			}
			cell := strings.TrimSpace(record[col])
			if cell == "" {
				continue
			}
			value, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid value '%s' for %s", line, cell, types.FeatureSpecs[i].Name)
			}
			switch {
			case math.IsNaN(value):
			case math.IsInf(value, 0):
				invalid = append(invalid, types.FeatureSpecs[i].Name)
			default:
				row.Values[i] = &value
			}
		}
		if len(invalid) > 0 {
			row.Err = &types.InvalidInputError{Invalid: invalid}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func runBatch(ctx context.Context, c batchClient, in io.Reader, out io.Writer, batchSize int) error {
	rows, err := readRows(in)
	if err != nil {
		return err
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"row", "prediction", "confidence", "error"}); err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(rows),
		progressbar.OptionSetDescription("⏳ classifying"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))

		records := make([][]string, end-start)
		items := make([]api.PredictRequest, 0, end-start)
		sent := make([]int, 0, end-start)
		for i, row := range rows[start:end] {
			if row.Err != nil {
				records[i] = []string{strconv.Itoa(start + i), "", "", row.Err.Error()}
				continue
			}
			items = append(items, api.PredictRequestFromFields(row.Values))
			sent = append(sent, i)
		}

		if len(items) > 0 {
			res, err := c.PredictBatch(ctx, items)
			if err != nil {
				return fmt.Errorf("error classifying rows %d-%d: %w", start, end-1, err)
			}
			for _, result := range res.Results {
				if result.Index < 0 || result.Index >= len(sent) {
					return fmt.Errorf("server returned result for unknown item %d", result.Index)
				}
				i := sent[result.Index]
				records[i] = formatResult(start+i, result)
			}
		}

		for _, record := range records {
			if record == nil {
				continue
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		_ = bar.Add(end - start)
	}

	w.Flush()
	return w.Error()
}

func formatResult(row int, result api.BatchPredictResult) []string {
	record := []string{strconv.Itoa(row), "", "", ""}
	switch {
	case result.Prediction != nil:
		record[1] = result.Prediction.Prediction
		record[2] = result.Prediction.ConfidencePercent
	case len(result.Missing) > 0:
		record[3] = fmt.Sprintf("%s missing: %s", types.IncompleteInputMessage, strings.Join(result.Missing, ", "))
	default:
		record[3] = result.Error
	}
	return record
}
