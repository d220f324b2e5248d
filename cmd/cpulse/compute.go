package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/communitypulse/internal/config"
	"github.com/rohankatakam/communitypulse/internal/ingestion"
	"github.com/rohankatakam/communitypulse/internal/models"
	"github.com/rohankatakam/communitypulse/internal/output"
	"github.com/rohankatakam/communitypulse/internal/window"
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute characteristics and patterns of a saved bundle",
	Long: `Compute the five characteristics and the nine patterns of a bundle saved
by 'cpulse fetch'. No network access is needed.

Examples:
  cpulse compute --bundle hello.json
  cpulse compute --bundle hello.json --format json`,
	RunE: runCompute,
}

var (
	computeBundle string
	computeFormat string
)

func init() {
	computeCmd.Flags().StringVar(&computeBundle, "bundle", "", "bundle file, - for stdin")
	computeCmd.Flags().StringVar(&computeFormat, "format", "", "output format: quiet, text, yaml, json")
	computeCmd.MarkFlagRequired("bundle")
}

func runCompute(cmd *cobra.Command, args []string) error {
	bundle, err := loadBundle(computeBundle)
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(consoleFormat(computeFormat))
	if err != nil {
		return err
	}

	result := cfg.Validate(config.ValidationContextCompute)
	if err := result.Err(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	orch := ingestion.NewOrchestrator(nil, nil, ingestion.Options{
		Window:      window.New(bundle.WindowEnd, cfg.Window.Days),
		Thresholds:  cfg.Thresholds,
		Concurrency: 1,
	}, logger)

	res := orch.Analyze(ctx, bundle)
	if err := formatter.Format(&res, os.Stdout); err != nil {
		return err
	}
	if res.Failed() {
		return stderrors.New(res.Err)
	}
	return nil
}

func loadBundle(path string) (*models.Bundle, error) {
	if path == "-" {
		return readBundle(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open bundle %s: %w", path, err)
	}
	defer f.Close()
	return readBundle(f)
}
