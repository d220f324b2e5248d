package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/communitypulse/internal/config"
	"github.com/rohankatakam/communitypulse/internal/models"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch OWNER/REPO",
	Short: "Fetch one community snapshot into a JSON bundle",
	Long: `Fetch the snapshot of one community from GitHub, geocode its member
locations and save the filtered bundle as JSON. The bundle can be analysed
offline and repeatedly with 'cpulse compute'.

Examples:
  cpulse fetch octocat/hello-world --out hello.json
  cpulse fetch github.com/rust-lang/rust --window-end 2024-06-30 --out -`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var (
	fetchOut       string
	fetchWindowEnd string
)

func init() {
	fetchCmd.Flags().StringVar(&fetchOut, "out", "bundle.json", "bundle file, - for stdout")
	fetchCmd.Flags().StringVar(&fetchWindowEnd, "window-end", "", "snapshot window end, YYYY-MM-DD (default: today)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	community, err := parseCommunity(args[0])
	if err != nil {
		return err
	}

	applyWindowEnd(fetchWindowEnd)

	ctx, cancel := signalContext()
	defer cancel()

	p, err := newPipeline(ctx, config.ValidationContextFetch)
	if err != nil {
		return err
	}
	defer p.Close()

	bundle, err := p.orchestrator.Fetch(ctx, community)
	if err != nil {
		return err
	}

	if fetchOut == "-" {
		return writeBundle(os.Stdout, bundle)
	}

	f, err := os.Create(fetchOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", fetchOut, err)
	}
	defer f.Close()
	if err := writeBundle(f, bundle); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "✓ Saved %s snapshot (%d members, %d coordinates) to %s\n",
		community, len(bundle.Members), len(bundle.Coordinates), fetchOut)
	return nil
}

func writeBundle(w io.Writer, b *models.Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("failed to encode bundle: %w", err)
	}
	return nil
}

func readBundle(r io.Reader) (*models.Bundle, error) {
	var b models.Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to decode bundle: %w", err)
	}
	return &b, nil
}
