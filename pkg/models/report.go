package models

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// CacheStats summarizes cache behavior for operational reporting.
type CacheStats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Entries   int     `json:"entries"`
	SizeBytes int64   `json:"size_bytes"`
	HitRate   float64 `json:"hit_rate"`
}

// ReportSummary provides aggregate statistics over the flags of a run.
type ReportSummary struct {
	TotalFindings int     `json:"total_findings"`
	TotalFlags    int     `json:"total_flags"`
	MaxScore      float64 `json:"max_score"`
	P50Score      float64 `json:"p50_score"`
	P95Score      float64 `json:"p95_score"`
}

// AnalysisReport is the full result of one pipeline run.
type AnalysisReport struct {
	GeneratedAt time.Time     `json:"generated_at"`
	Base        string        `json:"base,omitempty"`
	Head        string        `json:"head,omitempty"`
	Findings    []Finding     `json:"findings"`
	Flags       []RiskFlag    `json:"flags"`
	Cache       CacheStats    `json:"cache"`
	Summary     ReportSummary `json:"summary"`
	// Warnings collects non-fatal degradations (failed cache writes and
	// the like); analyzer results are still complete when set.
	Warnings []string `json:"warnings,omitempty"`
}

// NewAnalysisReport creates an initialized report.
func NewAnalysisReport(base, head string) *AnalysisReport {
	return &AnalysisReport{
		GeneratedAt: time.Now().UTC(),
		Base:        base,
		Head:        head,
		Findings:    make([]Finding, 0),
		Flags:       make([]RiskFlag, 0),
	}
}

// CalculateSummary fills in the summary block from findings and flags.
func (r *AnalysisReport) CalculateSummary() {
	r.Summary = ReportSummary{
		TotalFindings: len(r.Findings),
		TotalFlags:    len(r.Flags),
	}
	if len(r.Flags) == 0 {
		return
	}

	scores := make([]float64, 0, len(r.Flags))
	for _, f := range r.Flags {
		scores = append(scores, f.Score)
		if f.Score > r.Summary.MaxScore {
			r.Summary.MaxScore = f.Score
		}
	}
	sort.Float64s(scores)
	r.Summary.P50Score = stat.Quantile(0.5, stat.Empirical, scores, nil)
	r.Summary.P95Score = stat.Quantile(0.95, stat.Empirical, scores, nil)
}
