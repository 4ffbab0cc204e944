package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/presage-dev/presage/internal/pathmatch"
	"github.com/presage-dev/presage/pkg/models"
)

// packageJSONSchema is the minimal shape a manifest must satisfy before
// its dependency maps are trusted at full confidence.
const packageJSONSchema = `{
	"type": "object",
	"properties": {
		"dependencies": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		},
		"devDependencies": {
			"type": "object",
			"additionalProperties": {"type": "string"}
		}
	}
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func manifestSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(packageJSONSchema))
		if err != nil {
			schemaErr = err
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("package.schema.json", doc); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = c.Compile("package.schema.json")
	})
	return compiledSchema, schemaErr
}

// DependencyAnalyzer detects dependency manifest changes between the base
// and head snapshots of a change set.
type DependencyAnalyzer struct {
	rules *pathmatch.RuleSet
}

// DependencyOption is a functional option for configuring DependencyAnalyzer.
type DependencyOption func(*DependencyAnalyzer)

// WithDependencyExcludes adds exclude patterns on top of the defaults.
func WithDependencyExcludes(patterns ...string) DependencyOption {
	return func(a *DependencyAnalyzer) {
		a.rules.Exclude = append(a.rules.Exclude, patterns...)
	}
}

// NewDependencyAnalyzer creates a dependency-change analyzer.
func NewDependencyAnalyzer(opts ...DependencyOption) *DependencyAnalyzer {
	a := &DependencyAnalyzer{
		rules: &pathmatch.RuleSet{
			Include: []string{"**/package.json", "**/go.mod"},
			Exclude: []string{"**/node_modules/**"},
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *DependencyAnalyzer) Name() string { return "deps" }

func (a *DependencyAnalyzer) Rules() *pathmatch.RuleSet { return a.rules }

// Analyze diffs the manifest snapshots. Head snapshots that fail schema
// validation still produce findings, at reduced confidence.
func (a *DependencyAnalyzer) Analyze(ctx context.Context, cs *models.ChangeSet) ([]models.Finding, error) {
	var findings []models.Finding

	if base, head, ok := snapshotPair(cs, "package.json"); ok {
		findings = append(findings, a.diffPackageJSON(base, head)...)
	}
	if base, head, ok := snapshotPair(cs, "go.mod"); ok {
		findings = append(findings, a.diffGoMod(base, head)...)
	}
	return findings, nil
}

// snapshotPair returns the base and head snapshots of a manifest when the
// change set carries either side.
func snapshotPair(cs *models.ChangeSet, path string) (string, string, bool) {
	base, okBase := cs.Manifests.Base[path]
	head, okHead := cs.Manifests.Head[path]
	return base, head, okBase || okHead
}

type packageManifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func (a *DependencyAnalyzer) diffPackageJSON(base, head string) []models.Finding {
	confidence := models.ConfidenceHigh
	if !validManifest(head) {
		confidence = models.ConfidenceLow
	}

	baseDeps := parsePackageDeps(base)
	headDeps := parsePackageDeps(head)
	return diffDeps("package.json", baseDeps, headDeps, confidence)
}

// validManifest reports whether raw satisfies the manifest schema. An
// empty snapshot (file absent at that ref) is trivially valid.
func validManifest(raw string) bool {
	if raw == "" {
		return true
	}
	sch, err := manifestSchema()
	if err != nil {
		return false
	}
	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		return false
	}
	return sch.Validate(inst) == nil
}

func parsePackageDeps(raw string) map[string]string {
	deps := make(map[string]string)
	if raw == "" {
		return deps
	}
	var m packageManifest
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return deps
	}
	for name, ver := range m.Dependencies {
		deps[name] = ver
	}
	for name, ver := range m.DevDependencies {
		deps[name] = ver
	}
	return deps
}

// parseGoModRequires extracts module path to version mappings from both
// single-line and block require directives.
func parseGoModRequires(raw string) map[string]string {
	deps := make(map[string]string)
	inBlock := false
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "require (":
			inBlock = true
		case inBlock && line == ")":
			inBlock = false
		case inBlock, strings.HasPrefix(line, "require "):
			fields := strings.Fields(strings.TrimPrefix(line, "require "))
			if len(fields) >= 2 && !strings.HasPrefix(fields[0], "//") {
				deps[fields[0]] = fields[1]
			}
		}
	}
	return deps
}

func (a *DependencyAnalyzer) diffGoMod(base, head string) []models.Finding {
	return diffDeps("go.mod", parseGoModRequires(base), parseGoModRequires(head), models.ConfidenceHigh)
}

func diffDeps(file string, base, head map[string]string, confidence models.ConfidenceLevel) []models.Finding {
	names := make(map[string]struct{}, len(base)+len(head))
	for name := range base {
		names[name] = struct{}{}
	}
	for name := range head {
		names[name] = struct{}{}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var findings []models.Finding
	for _, name := range sorted {
		from, to := base[name], head[name]
		if from == to {
			continue
		}
		findings = append(findings, models.Finding{
			Kind:        models.KindDependencyChange,
			Category:    "deps",
			Confidence:  confidence,
			Dependency:  name,
			FromVersion: from,
			ToVersion:   to,
			Evidence: []models.Evidence{{
				File:    file,
				Excerpt: fmt.Sprintf("%s: %s -> %s", name, orNone(from), orNone(to)),
			}},
		})
	}
	return findings
}

func orNone(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}
