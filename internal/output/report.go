package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/presage-dev/presage/pkg/models"
)

// AnalysisView is the Renderable presentation of an analysis report. Top
// limits how many flags the human-readable formats show; structured
// formats always carry the full report.
type AnalysisView struct {
	Report *models.AnalysisReport
	Top    int
}

// NewAnalysisView wraps a report for rendering. top <= 0 shows all flags.
func NewAnalysisView(report *models.AnalysisReport, top int) *AnalysisView {
	return &AnalysisView{Report: report, Top: top}
}

func (v *AnalysisView) RenderData() any {
	return v.Report
}

func (v *AnalysisView) topFlags() []models.RiskFlag {
	flags := v.Report.Flags
	if v.Top > 0 && len(flags) > v.Top {
		return flags[:v.Top]
	}
	return flags
}

func (v *AnalysisView) RenderText(w io.Writer, colored bool) error {
	r := v.Report

	title := "Change Risk Report"
	report := &Report{Title: title}

	if r.Base != "" || r.Head != "" {
		report.Sections = append(report.Sections, &Section{
			Content: fmt.Sprintf("Range: %s..%s", r.Base, r.Head),
		})
	}

	if len(r.Flags) == 0 {
		report.Sections = append(report.Sections, &Section{
			Content: "No risk flags raised.",
		})
	} else {
		report.Sections = append(report.Sections, v.flagTable(colored))
	}

	if len(r.Findings) > 0 {
		report.Sections = append(report.Sections, v.findingTable())
	}

	report.Sections = append(report.Sections, v.summarySection())

	if len(r.Warnings) > 0 {
		report.Sections = append(report.Sections, &Section{
			Title:   "Warnings",
			Content: "- " + strings.Join(r.Warnings, "\n- "),
		})
	}

	return report.RenderText(w, colored)
}

func (v *AnalysisView) RenderMarkdown(w io.Writer) error {
	r := v.Report

	fmt.Fprintln(w, "# Change Risk Report")
	fmt.Fprintln(w)
	if r.Base != "" || r.Head != "" {
		fmt.Fprintf(w, "Range: `%s..%s`\n\n", r.Base, r.Head)
	}

	if len(r.Flags) == 0 {
		fmt.Fprintln(w, "No risk flags raised.")
		fmt.Fprintln(w)
	} else {
		if err := v.flagTable(false).RenderMarkdown(w); err != nil {
			return err
		}
	}

	if len(r.Findings) > 0 {
		if err := v.findingTable().RenderMarkdown(w); err != nil {
			return err
		}
	}

	if err := v.summarySection().RenderMarkdown(w); err != nil {
		return err
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "## Warnings")
		fmt.Fprintln(w)
		for _, warning := range r.Warnings {
			fmt.Fprintf(w, "- %s\n", warning)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func (v *AnalysisView) flagTable(colored bool) *Table {
	rows := make([][]string, 0, len(v.Report.Flags))
	for _, flag := range v.topFlags() {
		score := fmt.Sprintf("%.2f", flag.Score)
		if colored {
			score = ScoreColor(flag.Score, score)
		}
		rows = append(rows, []string{
			flag.RuleKey,
			flag.FlagID,
			score,
			fmt.Sprintf("%.2f", flag.Confidence),
			fmt.Sprintf("%d", len(flag.RelatedFindingIDs)),
		})
	}
	return NewTable("Risk Flags",
		[]string{"Rule", "Flag", "Score", "Confidence", "Findings"},
		rows, nil, nil)
}

func (v *AnalysisView) findingTable() *Table {
	rows := make([][]string, 0, len(v.Report.Findings))
	for _, f := range v.Report.Findings {
		rows = append(rows, []string{
			string(f.Kind),
			f.FindingID,
			string(f.Confidence),
			findingDetail(f),
		})
	}
	return NewTable("Findings",
		[]string{"Kind", "ID", "Confidence", "Detail"},
		rows, nil, nil)
}

// findingDetail renders the kind-specific fields in one line.
func findingDetail(f models.Finding) string {
	switch f.Kind {
	case models.KindDependencyChange:
		from, to := f.FromVersion, f.ToVersion
		if from == "" {
			from = "(none)"
		}
		if to == "" {
			to = "(none)"
		}
		return fmt.Sprintf("%s: %s -> %s", f.Dependency, from, to)
	case models.KindLargeChange:
		return fmt.Sprintf("%d files, %d lines, spread %.2f",
			f.FilesTouched, f.LinesChanged, f.Spread)
	case models.KindRouteChange:
		return fmt.Sprintf("%s %s", f.RouteMethod, f.RoutePath)
	case models.KindSecretExposure:
		return f.Pattern
	default:
		if len(f.Evidence) > 0 {
			return f.Evidence[0].Excerpt
		}
		return ""
	}
}

func (v *AnalysisView) summarySection() *Section {
	s := v.Report.Summary
	c := v.Report.Cache
	lines := []string{
		fmt.Sprintf("Findings: %d  Flags: %d", s.TotalFindings, s.TotalFlags),
		fmt.Sprintf("Scores: max %.2f  p50 %.2f  p95 %.2f", s.MaxScore, s.P50Score, s.P95Score),
		fmt.Sprintf("Cache: %d hits, %d misses (%.0f%% hit rate)", c.Hits, c.Misses, c.HitRate*100),
	}
	return &Section{
		Title:   "Summary",
		Content: strings.Join(lines, "\n"),
	}
}

// CacheStatsView is the Renderable presentation of cache statistics.
type CacheStatsView struct {
	Stats models.CacheStats
	Dir   string
}

func (v *CacheStatsView) RenderData() any {
	return v.Stats
}

func (v *CacheStatsView) RenderText(w io.Writer, colored bool) error {
	return v.table().RenderText(w, colored)
}

func (v *CacheStatsView) RenderMarkdown(w io.Writer) error {
	return v.table().RenderMarkdown(w)
}

func (v *CacheStatsView) table() *Table {
	rows := [][]string{
		{"Directory", v.Dir},
		{"Entries", fmt.Sprintf("%d", v.Stats.Entries)},
		{"Size", formatBytes(v.Stats.SizeBytes)},
		{"Hits", fmt.Sprintf("%d", v.Stats.Hits)},
		{"Misses", fmt.Sprintf("%d", v.Stats.Misses)},
		{"Hit rate", fmt.Sprintf("%.0f%%", v.Stats.HitRate*100)},
	}
	return NewTable("Cache", []string{"Field", "Value"}, rows, nil, v.Stats)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
