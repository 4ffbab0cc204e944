// Package analyzer contains the analyzer runtime: the interface detectors
// implement, the cache-aware runner that executes them over a change set,
// and the aggregation of findings into risk flags.
package analyzer

import (
	"context"

	"github.com/presage-dev/presage/internal/pathmatch"
	"github.com/presage-dev/presage/pkg/models"
)

// Analyzer is one independent, pure detector over a change set. Analyzers
// must be deterministic: the same change set yields the same findings, in
// any order. They never assign finding IDs; the runner does that.
type Analyzer interface {
	// Name is the cache category and the default finding category.
	Name() string
	// Rules declares which files the analyzer's output depends on. An
	// empty include list declares a whole-change-set dependency.
	Rules() *pathmatch.RuleSet
	// Analyze inspects the change set and returns findings.
	Analyze(ctx context.Context, cs *models.ChangeSet) ([]models.Finding, error)
}
