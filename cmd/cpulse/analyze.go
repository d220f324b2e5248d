package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rohankatakam/communitypulse/internal/config"
	"github.com/rohankatakam/communitypulse/internal/models"
	"github.com/rohankatakam/communitypulse/internal/output"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse every community in a CSV list",
	Long: `Analyse every community listed in a CSV file with RepoOwner and RepoName
columns. Each community is fetched from GitHub over the snapshot window,
its member locations are geocoded, and the five characteristics and nine
patterns are computed.

One CSV row per community is written to the results file. A community that
fails (too few members, repository gone, ...) gets a row with its error and
does not stop the others.

Examples:
  cpulse analyze --input communities.csv
  cpulse analyze --input communities.csv --output results.csv --window-end 2024-06-30
  cpulse analyze --input communities.csv --format quiet`,
	RunE: runAnalyze,
}

var (
	analyzeInput     string
	analyzeOutput    string
	analyzeWindowEnd string
	analyzeFormat    string
	analyzeAppend    bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "input", "i", "", "CSV file listing the communities (RepoOwner,RepoName)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "results CSV file (default: output.results)")
	analyzeCmd.Flags().StringVar(&analyzeWindowEnd, "window-end", "", "snapshot window end, YYYY-MM-DD (default: today)")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "", "console format: quiet, text, yaml, json")
	analyzeCmd.Flags().BoolVar(&analyzeAppend, "append", false, "append to an existing results file")
	analyzeCmd.MarkFlagRequired("input")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	communities, err := output.ReadCommunitiesFile(analyzeInput)
	if err != nil {
		return err
	}

	formatter, err := output.NewFormatter(consoleFormat(analyzeFormat))
	if err != nil {
		return err
	}

	applyWindowEnd(analyzeWindowEnd)

	ctx, cancel := signalContext()
	defer cancel()

	p, err := newPipeline(ctx, config.ValidationContextAll)
	if err != nil {
		return err
	}
	defer p.Close()

	resultsPath := analyzeOutput
	if resultsPath == "" {
		resultsPath = cfg.Output.Results
	}
	out, header, err := openResults(resultsPath, analyzeAppend)
	if err != nil {
		return err
	}
	defer out.Close()

	fmt.Printf("🔍 Analysing %s communities (window %s)\n\n",
		humanize.Comma(int64(len(communities))), p.orchestrator.Window())

	start := time.Now()
	results, runErr := p.orchestrator.Run(ctx, communities)

	// Results are written even when the run stopped early: communities
	// that never started carry the reason.
	if err := output.NewResultWriter(out, header).WriteAll(results); err != nil {
		return err
	}

	for i := range results {
		if err := formatter.Format(&results[i], os.Stdout); err != nil {
			return err
		}
	}

	printRunSummary(os.Stdout, results, time.Since(start), resultsPath)
	return runErr
}

// openResults opens path for writing. When appending to a non-empty file
// the header is not written again.
func openResults(path string, appendMode bool) (*os.File, bool, error) {
	if !appendMode {
		f, err := os.Create(path)
		if err != nil {
			return nil, false, fmt.Errorf("failed to create %s: %w", path, err)
		}
		return f, true, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return f, info.Size() == 0, nil
}

func printRunSummary(w io.Writer, results []models.Result, elapsed time.Duration, resultsPath string) {
	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Fprintf(w, "✓ Analysed %s communities in %s\n",
		humanize.Comma(int64(len(results)-failed)), elapsed.Round(time.Second))
	if failed > 0 {
		fmt.Fprintf(w, "⚠️  %s failed (see the Error column)\n", humanize.Comma(int64(failed)))
	}
	fmt.Fprintf(w, "→ Results: %s\n", resultsPath)
}
