package analyzer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/presage-dev/presage/internal/pathmatch"
	"github.com/presage-dev/presage/pkg/models"
)

// SurfaceAnalyzer flags change sets whose sheer surface makes them risky
// to review: too many lines, too many files, or changes smeared evenly
// across the tree. Its output depends on every file, so its rule set has
// no include patterns.
type SurfaceAnalyzer struct {
	maxLines int
	maxFiles int
	rules    *pathmatch.RuleSet
}

// SurfaceOption is a functional option for configuring SurfaceAnalyzer.
type SurfaceOption func(*SurfaceAnalyzer)

// WithSurfaceMaxLines sets the changed-line threshold.
func WithSurfaceMaxLines(n int) SurfaceOption {
	return func(a *SurfaceAnalyzer) {
		if n > 0 {
			a.maxLines = n
		}
	}
}

// WithSurfaceMaxFiles sets the touched-file threshold.
func WithSurfaceMaxFiles(n int) SurfaceOption {
	return func(a *SurfaceAnalyzer) {
		if n > 0 {
			a.maxFiles = n
		}
	}
}

// NewSurfaceAnalyzer creates a change-surface analyzer.
func NewSurfaceAnalyzer(opts ...SurfaceOption) *SurfaceAnalyzer {
	a := &SurfaceAnalyzer{
		maxLines: 400,
		maxFiles: 20,
		rules:    &pathmatch.RuleSet{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *SurfaceAnalyzer) Name() string { return "surface" }

func (a *SurfaceAnalyzer) Rules() *pathmatch.RuleSet { return a.rules }

func (a *SurfaceAnalyzer) Analyze(ctx context.Context, cs *models.ChangeSet) ([]models.Finding, error) {
	perFile := make(map[string]int, len(cs.Files))
	total := 0
	for i := range cs.Files {
		f := &cs.Files[i]
		// Added lines via the line-number set, deletions counted directly.
		changed := int(f.AddedLineSet().GetCardinality()) + f.LinesDeleted()
		if changed == 0 {
			continue
		}
		perFile[f.Path] = changed
		total += changed
	}

	if total <= a.maxLines && len(perFile) <= a.maxFiles {
		return nil, nil
	}

	confidence := models.ConfidenceMedium
	if total > 2*a.maxLines || len(perFile) > 2*a.maxFiles {
		confidence = models.ConfidenceHigh
	}

	return []models.Finding{{
		Kind:         models.KindLargeChange,
		Category:     "surface",
		Confidence:   confidence,
		FilesTouched: len(perFile),
		LinesChanged: total,
		Spread:       changeEntropy(perFile, total),
		Evidence:     topFileEvidence(perFile, 5),
	}}, nil
}

// changeEntropy measures how evenly the change is distributed across
// files, in bits. A single-file change scores 0; a change touching n
// files evenly scores log2(n).
func changeEntropy(perFile map[string]int, total int) float64 {
	if total == 0 {
		return 0
	}
	entropy := 0.0
	for _, lines := range perFile {
		p := float64(lines) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

func topFileEvidence(perFile map[string]int, limit int) []models.Evidence {
	type fileCount struct {
		path  string
		lines int
	}
	files := make([]fileCount, 0, len(perFile))
	for path, lines := range perFile {
		files = append(files, fileCount{path, lines})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].lines != files[j].lines {
			return files[i].lines > files[j].lines
		}
		return files[i].path < files[j].path
	})

	if len(files) > limit {
		files = files[:limit]
	}
	evidence := make([]models.Evidence, 0, len(files))
	for _, fc := range files {
		evidence = append(evidence, models.Evidence{
			File:    fc.path,
			Excerpt: fmt.Sprintf("%d changed lines", fc.lines),
		})
	}
	return evidence
}
