package main

import (
	"context"
	"cosmic-classifier/internal/core/types"
	"cosmic-classifier/pkg/api"
	"cosmic-classifier/pkg/client"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

// remotePredictor runs predictions through the REST server so the CLI and the web
// form share one model.
type remotePredictor struct {
	client *client.Client
}

func (p *remotePredictor) Predict(ctx context.Context, raw types.FeatureVector) (types.PredictionResult, error) {
	res, err := p.client.Predict(ctx, api.PredictRequestFromFields(types.PartialFromVector(raw)))
	if err != nil {
		return types.PredictionResult{}, err
	}
	return convertResponse(res), nil
}

func convertResponse(res api.PredictResponse) types.PredictionResult {
	var proba types.Distribution
	for i, name := range types.ClassNames {
		proba[i] = res.Probabilities[name]
	}
	return types.PredictionResult{
		Label:         types.Label(res.Label),
		Confidence:    res.Confidence,
		Probabilities: proba,
	}
}

func printModel(out io.Writer, info api.ModelInfo) {
	fmt.Fprintf(out, "deployment  %s (%s)\n", info.DeploymentId, info.Status)
	fmt.Fprintf(out, "scaler      %s %s sha256:%s\n", info.Scaler.Type, info.Scaler.Key, info.Scaler.Checksum)
	fmt.Fprintf(out, "classifier  %s %s sha256:%s\n", info.Classifier.Type, info.Classifier.Key, info.Classifier.Checksum)
	fmt.Fprintf(out, "loaded      %s in %dms\n", info.LoadedAt.Format(time.RFC3339), info.LoadDurationMs)

	if len(info.History) == 0 {
		return
	}
	fmt.Fprintln(out, "recent deployments:")
	for _, d := range info.History {
		line := fmt.Sprintf("  %s  %s  %-6s  %s", d.LoadedAt.Format(time.RFC3339), d.DeploymentId, d.Status, d.Classifier.Key)
		if d.Error != "" {
			line += "  error: " + d.Error
		}
		fmt.Fprintln(out, line)
	}
}

func main() {
	serverURL := flag.String("server", "http://localhost:8001", "base url of the classifier server")
	csvPath := flag.String("csv", "", "score every row of a KOI csv export instead of starting the interactive form")
	outPath := flag.String("out", "", "where to write batch results (default stdout)")
	batchSize := flag.Int("batch-size", 100, "rows sent per batch request")
	showModel := flag.Bool("model", false, "print the server's loaded model and recent deployments, then exit")
	history := flag.Int("history", 5, "deployments listed by -model")
	flag.Parse()

	c := client.New(*serverURL)
	ctx := context.Background()

	if err := c.Health(ctx); err != nil {
		log.Fatalf("classifier server at %s is not reachable: %v", *serverURL, err)
	}

	if *showModel {
		info, err := c.ModelHistory(ctx, *history)
		if err != nil {
			log.Fatalf("error loading model info: %v", err)
		}
		printModel(os.Stdout, info)
		return
	}

	if *csvPath == "" {
		if err := runInteractive(ctx, os.Stdin, os.Stdout, &remotePredictor{client: c}); err != nil {
			log.Fatalf("error: %v", err)
		}
		return
	}

	in, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("error opening csv file '%s': %v", *csvPath, err)
	}
	defer in.Close()

	out := os.Stdout
	if *outPath != "" {
		out, err = os.Create(*outPath)
		if err != nil {
			log.Fatalf("error creating output file '%s': %v", *outPath, err)
		}
		defer out.Close()
	}

	if err := runBatch(ctx, c, in, out, *batchSize); err != nil {
		log.Fatalf("error scoring csv: %v", err)
	}
}
