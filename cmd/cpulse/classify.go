package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/communitypulse/internal/models"
	"github.com/rohankatakam/communitypulse/internal/output"
	"github.com/rohankatakam/communitypulse/internal/pattern"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify characteristic values into community patterns",
	Long: `Map characteristic values computed elsewhere onto the nine community
patterns, using the configured thresholds.

Examples:
  cpulse classify --structure --dispersion 120 --formality 25 --engagement 4 --longevity 60
  cpulse classify --structure --dispersion 6000 --formality 0.05 --engagement 1 --format json`,
	RunE: runClassify,
}

var (
	classifyChars  models.Characteristics
	classifyFormat string
)

func init() {
	classifyCmd.Flags().BoolVar(&classifyChars.Structure, "structure", false, "the community has structure")
	classifyCmd.Flags().Float64Var(&classifyChars.Dispersion, "dispersion", 0, "mean geographical distance in km")
	classifyCmd.Flags().Float64Var(&classifyChars.Formality, "formality", 0, "formality")
	classifyCmd.Flags().Float64Var(&classifyChars.Engagement, "engagement", 0, "engagement")
	classifyCmd.Flags().Float64Var(&classifyChars.Longevity, "longevity", 0, "mean committer longevity in days")
	classifyCmd.Flags().StringVar(&classifyFormat, "format", "", "output format: text, yaml, json")
}

func runClassify(cmd *cobra.Command, args []string) error {
	if err := cfg.Thresholds.Validate(); err != nil {
		return err
	}

	chars := classifyChars
	p := pattern.NewClassifier(cfg.Thresholds).Classify(chars)

	switch format := consoleFormat(classifyFormat); format {
	case output.FormatYAML, output.FormatJSON:
		formatter, err := output.NewFormatter(format)
		if err != nil {
			return err
		}
		return formatter.Format(&models.Result{Characteristics: &chars, Pattern: &p}, os.Stdout)
	default:
		printPatterns(os.Stdout, p)
		return nil
	}
}

func printPatterns(w io.Writer, p models.Pattern) {
	names := p.Names()
	if len(names) == 0 {
		fmt.Fprintln(w, "➖ No community structure, no pattern applies")
		return
	}
	for _, name := range names {
		fmt.Fprintf(w, "✓ %s\n", name)
	}
}
