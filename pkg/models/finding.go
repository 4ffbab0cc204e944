package models

// FindingKind discriminates the closed set of finding variants. Adding a
// kind requires extending the identity projection and the rule table, both
// of which switch exhaustively over this type.
type FindingKind string

const (
	KindDependencyChange FindingKind = "dependency-change"
	KindLargeChange      FindingKind = "large-change"
	KindRouteChange      FindingKind = "route-change"
	KindSecretExposure   FindingKind = "secret-exposure"
)

// ConfidenceLevel expresses how certain an analyzer is about a finding.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// Factor maps a confidence level onto the unit interval for scoring.
func (c ConfidenceLevel) Factor() float64 {
	switch c {
	case ConfidenceHigh:
		return 0.9
	case ConfidenceMedium:
		return 0.65
	default:
		return 0.35
	}
}

// Evidence points at the diff content that triggered a finding.
type Evidence struct {
	File    string `json:"file"`
	Excerpt string `json:"excerpt"`
	Line    int    `json:"line,omitempty"`
}

// Finding is one discrete observation produced by an analyzer. Kind selects
// the variant; the optional fields below the common block are only set for
// the kinds that use them. FindingID is assigned after analysis, never by
// the analyzer itself.
type Finding struct {
	Kind       FindingKind     `json:"kind"`
	Category   string          `json:"category"`
	Confidence ConfidenceLevel `json:"confidence"`
	Evidence   []Evidence      `json:"evidence"`
	FindingID  string          `json:"finding_id,omitempty"`

	// dependency-change
	Dependency  string `json:"dependency,omitempty"`
	FromVersion string `json:"from_version,omitempty"`
	ToVersion   string `json:"to_version,omitempty"`

	// large-change
	FilesTouched int     `json:"files_touched,omitempty"`
	LinesChanged int     `json:"lines_changed,omitempty"`
	Spread       float64 `json:"spread,omitempty"`

	// route-change
	RoutePath   string `json:"route_path,omitempty"`
	RouteMethod string `json:"route_method,omitempty"`

	// secret-exposure
	Pattern string `json:"pattern,omitempty"`
}

// RiskFlag aggregates one or more related findings under a single rule.
// It is never mutated after creation.
type RiskFlag struct {
	RuleKey           string     `json:"rule_key"`
	FlagID            string     `json:"flag_id"`
	RelatedFindingIDs []string   `json:"related_finding_ids"`
	Score             float64    `json:"score"`
	Confidence        float64    `json:"confidence"`
	Evidence          []Evidence `json:"evidence,omitempty"`
}
