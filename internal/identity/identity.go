// Package identity derives stable identifiers for findings and risk
// flags. Two runs over an identical change set produce identical IDs even
// when analyzers execute in a different order or findings surface in a
// different sequence.
package identity

import (
	"encoding/hex"
	"sort"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/presage-dev/presage/pkg/models"
)

const (
	findingPrefix = "finding."
	flagPrefix    = "flag."
	digestLen     = 12
	sep           = "\x00"
)

func shortDigest(parts []string) string {
	sum := blake3.Sum256([]byte(strings.Join(parts, sep)))
	return hex.EncodeToString(sum[:])[:digestLen]
}

// AssignFindingID returns a copy of f with FindingID set. The ID hashes a
// canonical projection of the finding's semantically identifying fields:
// the kind, the sorted evidence file paths, and the kind-specific
// discriminating fields. Evidence order, excerpts, line numbers, and
// anything that varies run to run without a semantic change stay out of
// the projection.
func AssignFindingID(f models.Finding) models.Finding {
	f.FindingID = findingPrefix + string(f.Kind) + "#" + shortDigest(projection(f))
	return f
}

// projection switches exhaustively over the finding kinds so that adding
// a kind forces a decision about its identifying fields.
func projection(f models.Finding) []string {
	parts := []string{string(f.Kind), f.Category}
	parts = append(parts, evidenceFiles(f.Evidence)...)

	switch f.Kind {
	case models.KindDependencyChange:
		parts = append(parts, f.Dependency, f.FromVersion, f.ToVersion)
	case models.KindLargeChange:
		// Identified purely by the touched files; the magnitude fields
		// restate what the evidence already pins down.
	case models.KindRouteChange:
		parts = append(parts, f.RouteMethod, f.RoutePath)
	case models.KindSecretExposure:
		parts = append(parts, f.Pattern)
	}
	return parts
}

func evidenceFiles(evidence []models.Evidence) []string {
	seen := make(map[string]struct{}, len(evidence))
	files := make([]string, 0, len(evidence))
	for _, e := range evidence {
		if _, ok := seen[e.File]; ok {
			continue
		}
		seen[e.File] = struct{}{}
		files = append(files, e.File)
	}
	sort.Strings(files)
	return files
}

// BuildFlagID derives a flag identifier from its rule key and the sorted
// set of contributing finding IDs. Input order is irrelevant; the input
// slice is not mutated.
func BuildFlagID(ruleKey string, findingIDs []string) string {
	ids := append([]string(nil), findingIDs...)
	sort.Strings(ids)
	parts := append([]string{ruleKey}, ids...)
	return flagPrefix + ruleKey + "#" + shortDigest(parts)
}
