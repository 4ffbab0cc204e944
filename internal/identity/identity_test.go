package identity

import (
	"regexp"
	"testing"

	"github.com/presage-dev/presage/pkg/models"
)

func depFinding() models.Finding {
	return models.Finding{
		Kind:       models.KindDependencyChange,
		Category:   "deps",
		Confidence: models.ConfidenceHigh,
		Evidence: []models.Evidence{
			{File: "package.json", Excerpt: `+    "helmet": "^7.0.0",`, Line: 4},
		},
		Dependency:  "helmet",
		FromVersion: "",
		ToVersion:   "^7.0.0",
	}
}

func TestAssignFindingIDFormat(t *testing.T) {
	f := AssignFindingID(depFinding())
	pattern := regexp.MustCompile(`^finding\.dependency-change#[a-f0-9]{12}$`)
	if !pattern.MatchString(f.FindingID) {
		t.Errorf("FindingID %q does not match expected format", f.FindingID)
	}
}

func TestAssignFindingIDStable(t *testing.T) {
	a := AssignFindingID(depFinding())
	b := AssignFindingID(depFinding())
	if a.FindingID != b.FindingID {
		t.Errorf("structurally identical findings got %q and %q", a.FindingID, b.FindingID)
	}
}

func TestAssignFindingIDIgnoresEvidenceOrder(t *testing.T) {
	f1 := depFinding()
	f1.Evidence = []models.Evidence{
		{File: "a/package.json", Excerpt: "x"},
		{File: "b/package.json", Excerpt: "y"},
	}
	f2 := depFinding()
	f2.Evidence = []models.Evidence{
		{File: "b/package.json", Excerpt: "different excerpt"},
		{File: "a/package.json", Excerpt: "z", Line: 99},
	}

	if AssignFindingID(f1).FindingID != AssignFindingID(f2).FindingID {
		t.Error("evidence order, excerpts, and line numbers must not affect the ID")
	}
}

func TestAssignFindingIDDiscriminates(t *testing.T) {
	base := AssignFindingID(depFinding())

	other := depFinding()
	other.Dependency = "express"
	if AssignFindingID(other).FindingID == base.FindingID {
		t.Error("different dependency must yield a different ID")
	}

	moved := depFinding()
	moved.Evidence[0].File = "web/package.json"
	if AssignFindingID(moved).FindingID == base.FindingID {
		t.Error("different evidence file must yield a different ID")
	}

	route := models.Finding{
		Kind:        models.KindRouteChange,
		Category:    "routes",
		RoutePath:   "/api/users",
		RouteMethod: "POST",
		Evidence:    []models.Evidence{{File: "src/routes.js"}},
	}
	id1 := AssignFindingID(route).FindingID
	route.RouteMethod = "DELETE"
	if AssignFindingID(route).FindingID == id1 {
		t.Error("route method must discriminate route-change findings")
	}
}

func TestAssignFindingIDDoesNotMutateInput(t *testing.T) {
	f := depFinding()
	AssignFindingID(f)
	if f.FindingID != "" {
		t.Error("AssignFindingID must return a copy, not mutate its argument")
	}
}

func TestBuildFlagIDOrderIndependent(t *testing.T) {
	idA := "finding.dependency-change#aaaaaaaaaaaa"
	idB := "finding.dependency-change#bbbbbbbbbbbb"

	f1 := BuildFlagID("risky-deps", []string{idB, idA})
	f2 := BuildFlagID("risky-deps", []string{idA, idB})
	if f1 != f2 {
		t.Errorf("finding ID order changed the flag ID: %q vs %q", f1, f2)
	}

	if BuildFlagID("other-rule", []string{idA, idB}) == f1 {
		t.Error("different rule keys must yield different flag IDs")
	}

	pattern := regexp.MustCompile(`^flag\.risky-deps#[a-f0-9]{12}$`)
	if !pattern.MatchString(f1) {
		t.Errorf("flag ID %q does not match expected format", f1)
	}
}

func TestBuildFlagIDDoesNotMutateInput(t *testing.T) {
	ids := []string{"z", "a"}
	BuildFlagID("rule", ids)
	if ids[0] != "z" || ids[1] != "a" {
		t.Errorf("input mutated: %v", ids)
	}
}
