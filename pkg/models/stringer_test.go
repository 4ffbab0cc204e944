package models

import (
	"testing"
)

func TestStringerMethods(t *testing.T) {
	t.Run("ConfidenceLevel", func(t *testing.T) {
		c := ConfidenceLevel("high")
		if c.String() != "high" {
			t.Errorf("ConfidenceLevel.String() = %q, want %q", c.String(), "high")
		}
	})

	t.Run("FileStatus", func(t *testing.T) {
		s := FileStatus("modified")
		if s.String() != "modified" {
			t.Errorf("FileStatus.String() = %q, want %q", s.String(), "modified")
		}
	})

	t.Run("LineKind", func(t *testing.T) {
		k := LineKind("added")
		if k.String() != "added" {
			t.Errorf("LineKind.String() = %q, want %q", k.String(), "added")
		}
	})

	t.Run("FindingKind", func(t *testing.T) {
		k := FindingKind("large_hunk")
		if k.String() != "large_hunk" {
			t.Errorf("FindingKind.String() = %q, want %q", k.String(), "large_hunk")
		}
	})
}
