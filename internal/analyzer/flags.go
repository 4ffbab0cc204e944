package analyzer

import (
	"sort"

	"github.com/presage-dev/presage/internal/identity"
	"github.com/presage-dev/presage/pkg/models"
)

// Rule keys group finding kinds for flag aggregation.
const (
	RuleDependencyRisk = "dependency-risk"
	RuleLargeSurface   = "large-surface"
	RuleRouteSurface   = "route-surface"
	RuleSecretLeak     = "secret-leak"
)

// DefaultWeights returns the scoring weight per rule key.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		RuleDependencyRisk: 0.5,
		RuleLargeSurface:   0.4,
		RuleRouteSurface:   0.6,
		RuleSecretLeak:     0.9,
	}
}

// ruleForKind maps every finding kind onto its aggregation rule. The
// switch is exhaustive over the closed kind set; a new kind fails here
// first when it lacks a rule.
func ruleForKind(kind models.FindingKind) string {
	switch kind {
	case models.KindDependencyChange:
		return RuleDependencyRisk
	case models.KindLargeChange:
		return RuleLargeSurface
	case models.KindRouteChange:
		return RuleRouteSurface
	case models.KindSecretExposure:
		return RuleSecretLeak
	default:
		return string(kind)
	}
}

const maxFlagEvidence = 10

// AggregateFlags merges all findings sharing a rule key into one flag
// each. RelatedFindingIDs is the sorted, de-duplicated union, so the flag
// identity is independent of discovery order.
func AggregateFlags(findings []models.Finding, weights map[string]float64) []models.RiskFlag {
	groups := make(map[string][]models.Finding)
	for _, f := range findings {
		rule := ruleForKind(f.Kind)
		groups[rule] = append(groups[rule], f)
	}

	rules := make([]string, 0, len(groups))
	for rule := range groups {
		rules = append(rules, rule)
	}
	sort.Strings(rules)

	flags := make([]models.RiskFlag, 0, len(rules))
	for _, rule := range rules {
		flags = append(flags, buildFlag(rule, groups[rule], weights[rule]))
	}
	return flags
}

func buildFlag(rule string, findings []models.Finding, weight float64) models.RiskFlag {
	idSet := make(map[string]struct{}, len(findings))
	ids := make([]string, 0, len(findings))
	var confSum float64
	var evidence []models.Evidence

	for _, f := range findings {
		if _, ok := idSet[f.FindingID]; !ok {
			idSet[f.FindingID] = struct{}{}
			ids = append(ids, f.FindingID)
		}
		confSum += f.Confidence.Factor()
		if len(evidence) < maxFlagEvidence && len(f.Evidence) > 0 {
			evidence = append(evidence, f.Evidence[0])
		}
	}
	sort.Strings(ids)

	confidence := confSum / float64(len(findings))
	score := weight * confidence * (1 + 0.1*float64(len(ids)-1))
	if score > 1 {
		score = 1
	}

	return models.RiskFlag{
		RuleKey:           rule,
		FlagID:            identity.BuildFlagID(rule, ids),
		RelatedFindingIDs: ids,
		Score:             score,
		Confidence:        confidence,
		Evidence:          evidence,
	}
}
