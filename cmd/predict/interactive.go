package main

import (
	"bufio"
	"context"
	"cosmic-classifier/internal/form"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const helpText = `commands:
  set <field> <value>   enter a value, e.g. "set koi_period 9.48"
  clear <field>         remove a value
  reset                 set every field to 0.0
  show                  print the form
  predict               classify the entered values
  help                  print this message
  quit                  exit`

func runInteractive(ctx context.Context, in io.Reader, out io.Writer, predictor form.Predictor) error {
	f := form.New()

	fmt.Fprintln(out, "Cosmic Classifier")
	fmt.Fprintln(out, "Exoplanet Confirmation Prediction: predicts whether an exoplanet is confirmed, a candidate, or a false positive based on the features provided.")
	fmt.Fprintln(out, helpText)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "set":
			if len(fields) != 3 {
				fmt.Fprintln(out, "usage: set <field> <value>")
				continue
			}
			value, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				fmt.Fprintf(out, "invalid number '%s'\n", fields[2])
				continue
			}
			if err := f.Set(fields[1], value); err != nil {
				fmt.Fprintln(out, err)
			}
		case "clear":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: clear <field>")
				continue
			}
			if err := f.Clear(fields[1]); err != nil {
				fmt.Fprintln(out, err)
			}
		case "reset":
			f.Reset()
			fmt.Fprint(out, f)
		case "show":
			fmt.Fprint(out, f)
		case "predict":
			res, err := f.Submit(ctx, predictor)
			if err != nil {
				fmt.Fprintf(out, "prediction failed: %v\n", err)
				continue
			}
			fmt.Fprintln(out, res)
		case "help":
			fmt.Fprintln(out, helpText)
		case "quit", "exit":
			return nil
		default:
			fmt.Fprintf(out, "unknown command '%s', type help for a list of commands\n", fields[0])
		}
	}
}
