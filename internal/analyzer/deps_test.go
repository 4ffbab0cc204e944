package analyzer

import (
	"context"
	"testing"

	"github.com/presage-dev/presage/pkg/models"
)

func findingFor(findings []models.Finding, dep string) *models.Finding {
	for i := range findings {
		if findings[i].Dependency == dep {
			return &findings[i]
		}
	}
	return nil
}

func TestDependencyAnalyzerPackageJSON(t *testing.T) {
	cs := &models.ChangeSet{
		Manifests: models.ManifestPair{
			Base: map[string]string{
				"package.json": `{"dependencies": {"express": "^4.18.0", "lodash": "^4.17.0"}}`,
			},
			Head: map[string]string{
				"package.json": `{"dependencies": {"express": "^5.0.0", "helmet": "^7.0.0"}, "devDependencies": {"jest": "^29.0.0"}}`,
			},
		},
	}

	findings, err := NewDependencyAnalyzer().Analyze(context.Background(), cs)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if len(findings) != 4 {
		t.Fatalf("got %d findings, want 4 (upgrade, removal, two additions)", len(findings))
	}

	upgraded := findingFor(findings, "express")
	if upgraded == nil || upgraded.FromVersion != "^4.18.0" || upgraded.ToVersion != "^5.0.0" {
		t.Errorf("express upgrade not detected: %+v", upgraded)
	}
	removed := findingFor(findings, "lodash")
	if removed == nil || removed.ToVersion != "" {
		t.Errorf("lodash removal not detected: %+v", removed)
	}
	added := findingFor(findings, "helmet")
	if added == nil || added.FromVersion != "" {
		t.Errorf("helmet addition not detected: %+v", added)
	}
	if dev := findingFor(findings, "jest"); dev == nil {
		t.Error("devDependencies addition not detected")
	}

	for _, f := range findings {
		if f.Kind != models.KindDependencyChange {
			t.Errorf("finding kind = %q, want dependency-change", f.Kind)
		}
		if f.Confidence != models.ConfidenceHigh {
			t.Errorf("valid manifest should yield high confidence, got %q", f.Confidence)
		}
	}
}

func TestDependencyAnalyzerInvalidManifestLowersConfidence(t *testing.T) {
	cs := &models.ChangeSet{
		Manifests: models.ManifestPair{
			Base: map[string]string{"package.json": `{"dependencies": {"express": "^4.18.0"}}`},
			// dependencies must map names to strings per the schema
			Head: map[string]string{"package.json": `{"dependencies": {"weird": 123}}`},
		},
	}

	findings, err := NewDependencyAnalyzer().Analyze(context.Background(), cs)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if len(findings) == 0 {
		t.Fatal("expected at least the express removal finding")
	}
	for _, f := range findings {
		if f.Confidence != models.ConfidenceLow {
			t.Errorf("schema-invalid manifest should yield low confidence, got %q", f.Confidence)
		}
	}
}

func TestDependencyAnalyzerGoMod(t *testing.T) {
	baseMod := `module example.com/app

go 1.22

require (
	github.com/fatih/color v1.17.0
	github.com/spf13/cobra v1.8.0
)
`
	headMod := `module example.com/app

go 1.22

require (
	github.com/fatih/color v1.18.0
	github.com/spf13/cobra v1.8.0
)

require gopkg.in/yaml.v3 v3.0.1
`
	cs := &models.ChangeSet{
		Manifests: models.ManifestPair{
			Base: map[string]string{"go.mod": baseMod},
			Head: map[string]string{"go.mod": headMod},
		},
	}

	findings, err := NewDependencyAnalyzer().Analyze(context.Background(), cs)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if len(findings) != 2 {
		t.Fatalf("got %d findings, want 2 (bump + addition)", len(findings))
	}

	bumped := findingFor(findings, "github.com/fatih/color")
	if bumped == nil || bumped.FromVersion != "v1.17.0" || bumped.ToVersion != "v1.18.0" {
		t.Errorf("color bump not detected: %+v", bumped)
	}
	if added := findingFor(findings, "gopkg.in/yaml.v3"); added == nil {
		t.Error("single-line require addition not detected")
	}
}

func TestDependencyAnalyzerNoManifests(t *testing.T) {
	findings, err := NewDependencyAnalyzer().Analyze(context.Background(), &models.ChangeSet{})
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("got %d findings for an empty change set, want 0", len(findings))
	}
}

func TestDependencyAnalyzerRules(t *testing.T) {
	rules := NewDependencyAnalyzer().Rules()
	if !rules.Relevant("web/package.json") {
		t.Error("nested package.json should be relevant")
	}
	if rules.Relevant("web/node_modules/x/package.json") {
		t.Error("node_modules manifests must be excluded")
	}
	if rules.Relevant("src/app.js") {
		t.Error("non-manifest files should be irrelevant")
	}
}
