package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/rohankatakam/communitypulse/internal/models"
)

// StandardFormatter outputs characteristics, patterns and the metrics behind
// them (default)
type StandardFormatter struct {
	// Color forces ANSI colors on; without it output is plain.
	Color bool
}

func (f *StandardFormatter) paint(attr color.Attribute, s string) string {
	if !f.Color {
		return s
	}
	c := color.New(attr)
	c.EnableColor()
	return c.Sprint(s)
}

func (f *StandardFormatter) Format(result *models.Result, w io.Writer) error {
	// Header
	fmt.Fprintf(w, "🔍 CommunityPulse Analysis\n")
	fmt.Fprintf(w, "Community: %s\n", result.Community)
	if result.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", result.RunID)
	}

	if result.Failed() {
		fmt.Fprintf(w, "\n%s %s\n", f.paint(color.FgRed, "Failed:"), result.Err)
		return nil
	}

	if result.Characteristics != nil {
		fmt.Fprintf(w, "\nCharacteristics:\n%s\n", characteristicsTable(result.Characteristics))
	}

	// Patterns
	names := patternNames(result)
	fmt.Fprintf(w, "\nPatterns:\n")
	if len(names) == 0 {
		fmt.Fprintf(w, "- %s\n", f.paint(color.FgYellow, "none (no community structure)"))
	}
	for _, name := range names {
		fmt.Fprintf(w, "- %s\n", f.paint(color.FgGreen, name))
	}

	if result.Metrics != nil {
		fmt.Fprintf(w, "\nMetrics:\n%s\n", metricsTable(result.Metrics))
	}
	return nil
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateHeader = false
	return tbl
}

func characteristicsTable(c *models.Characteristics) string {
	tbl := newTable()
	tbl.AppendRow(table.Row{"Structure", yesNo(c.Structure)})
	tbl.AppendRow(table.Row{"Dispersion", fmt.Sprintf("%.2f km", c.Dispersion)})
	tbl.AppendRow(table.Row{"Formality", fmt.Sprintf("%.4f", c.Formality)})
	tbl.AppendRow(table.Row{"Engagement", fmt.Sprintf("%.4f", c.Engagement)})
	tbl.AppendRow(table.Row{"Longevity", fmt.Sprintf("%.1f days", c.Longevity)})
	return tbl.Render()
}

func metricsTable(m *models.Metrics) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Characteristic", "Metric", "Value"})

	s := m.Structure
	tbl.AppendRow(table.Row{"structure", "common projects", fmt.Sprintf("%s (%d)", yesNo(s.CommonProjects), s.CommonProjectConnections)})
	tbl.AppendRow(table.Row{"", "followers", fmt.Sprintf("%s (%d)", yesNo(s.Followers), s.FollowConnections)})
	tbl.AppendRow(table.Row{"", "pull request interaction", fmt.Sprintf("%s (%d)", yesNo(s.PullReqInteraction), s.PullReqConnections)})

	d := m.Dispersion
	tbl.AppendRow(table.Row{"dispersion", "coordinates", d.Coordinates})
	tbl.AppendRow(table.Row{"", "variance", fmt.Sprintf("%.2f", d.VarianceGeographicalDistance)})
	tbl.AppendRow(table.Row{"", "quartiles", fmt.Sprintf("%.2f / %.2f / %.2f", d.DistanceQuartiles[0], d.DistanceQuartiles[1], d.DistanceQuartiles[2])})
	if d.VincentyFallbacks > 0 {
		tbl.AppendRow(table.Row{"", "spherical fallbacks", d.VincentyFallbacks})
	}

	fm := m.Formality
	tbl.AppendRow(table.Row{"formality", "mean membership type", fmt.Sprintf("%.4f", fm.MeanMembershipType)})
	tbl.AppendRow(table.Row{"", "milestones", fm.Milestones})
	tbl.AppendRow(table.Row{"", "lifetime (days)", fm.Lifetime})
	tbl.AppendRow(table.Row{"", "contributors / collaborators", fmt.Sprintf("%d / %d", fm.Contributors, fm.Collaborators)})

	e := m.Engagement
	for i, row := range []struct {
		name  string
		value float64
	}{
		{"pull request comments", e.MedianNrPullReqComments},
		{"monthly comments", e.MedianMonthlyPullCommitCommentsDistribution},
		{"active member", e.MedianActiveMember},
		{"watcher", e.MedianWatcher},
		{"stargazer", e.MedianStargazer},
		{"commit distribution", e.MedianCommitDistribution},
		{"file collaboration", e.MedianFileCollabDistribution},
	} {
		label := ""
		if i == 0 {
			label = "engagement"
		}
		tbl.AppendRow(table.Row{label, "median " + row.name, fmt.Sprintf("%.4f", row.value)})
	}

	tbl.AppendRow(table.Row{"longevity", "committers", m.Longevity.Committers})
	return tbl.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// PatternSummary renders "name: pattern, pattern" for a list of results,
// failed communities included.
func PatternSummary(results []models.Result) string {
	var b strings.Builder
	for _, r := range results {
		switch {
		case r.Failed():
			fmt.Fprintf(&b, "%s: failed\n", r.Community)
		case len(patternNames(&r)) == 0:
			fmt.Fprintf(&b, "%s: -\n", r.Community)
		default:
			fmt.Fprintf(&b, "%s: %s\n", r.Community, strings.Join(patternNames(&r), ", "))
		}
	}
	return b.String()
}

func patternNames(r *models.Result) []string {
	if r.Pattern == nil {
		return nil
	}
	return r.Pattern.Names()
}
