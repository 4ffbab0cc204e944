package analyzer

import (
	"context"
	"fmt"

	"github.com/presage-dev/presage/internal/cache"
	"github.com/presage-dev/presage/internal/identity"
	"github.com/presage-dev/presage/internal/signature"
	"github.com/presage-dev/presage/pkg/models"
)

// ProgressFunc is called after each analyzer completes.
type ProgressFunc func()

// Runner owns one run's mutable state: the cache store handle and the
// registered analyzers. It is constructed at run start and passed by
// handle; there is no ambient singleton.
type Runner struct {
	store      *cache.Store
	analyzers  []Analyzer
	weights    map[string]float64
	onProgress ProgressFunc
}

// RunnerOption is a functional option for configuring a Runner.
type RunnerOption func(*Runner)

// WithWeights sets custom rule weights for flag scoring.
func WithWeights(weights map[string]float64) RunnerOption {
	return func(r *Runner) {
		if len(weights) > 0 {
			r.weights = weights
		}
	}
}

// WithProgress sets a callback invoked after each analyzer completes.
func WithProgress(fn ProgressFunc) RunnerOption {
	return func(r *Runner) {
		r.onProgress = fn
	}
}

// NewRunner creates a runner over the given cache store.
func NewRunner(store *cache.Store, opts ...RunnerOption) *Runner {
	r := &Runner{
		store:   store,
		weights: DefaultWeights(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds analyzers to the run, preserving registration order for
// the findings sequence (identity does not depend on it).
func (r *Runner) Register(analyzers ...Analyzer) {
	r.analyzers = append(r.analyzers, analyzers...)
}

// Run executes every registered analyzer against the change set, serving
// unchanged inputs from the cache, and returns the stamped findings and
// aggregated flags. Degradations (cache write failures, individual
// analyzer errors, invalid rule sets) are reported as warnings; they never
// prevent the run from returning results.
func (r *Runner) Run(ctx context.Context, cs *models.ChangeSet) (*models.AnalysisReport, error) {
	report := models.NewAnalysisReport(cs.Base, cs.Head)

	for _, a := range r.analyzers {
		findings, err := r.runOne(ctx, a, cs)
		if err != nil {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", a.Name(), err))
		}
		for _, f := range findings {
			if f.Category == "" {
				f.Category = a.Name()
			}
			report.Findings = append(report.Findings, identity.AssignFindingID(f))
		}
		if r.onProgress != nil {
			r.onProgress()
		}
	}

	report.Flags = AggregateFlags(report.Findings, r.weights)
	report.Cache = statsModel(r.store.GetStats())
	report.CalculateSummary()

	if err := r.store.Flush(); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("cache index flush: %v", err))
	}
	return report, nil
}

// runOne resolves one analyzer through the cache. A hit returns the
// decoded findings; a miss (or an undecodable entry) recomputes and
// overwrites. The returned error is advisory; findings are valid whenever
// non-nil.
func (r *Runner) runOne(ctx context.Context, a Analyzer, cs *models.ChangeSet) ([]models.Finding, error) {
	key, err := signature.ForAnalyzer(a.Rules(), cs)
	if err != nil {
		// Invalid rule set is a configuration error; skip the analyzer
		// without touching the cache.
		return nil, err
	}

	var cached []models.Finding
	if r.store.ReadJSON(a.Name(), key, &cached) {
		return cached, nil
	}

	findings, err := a.Analyze(ctx, cs)
	if err != nil {
		return nil, err
	}
	if findings == nil {
		findings = []models.Finding{}
	}
	if err := r.store.WriteJSON(a.Name(), key, findings); err != nil {
		// Uncached operation beats failure; surface the write error as a
		// warning alongside the findings.
		return findings, err
	}
	return findings, nil
}

func statsModel(st cache.Stats) models.CacheStats {
	return models.CacheStats{
		Hits:      st.Hits,
		Misses:    st.Misses,
		Entries:   st.Entries,
		SizeBytes: st.SizeBytes,
		HitRate:   st.HitRate,
	}
}
