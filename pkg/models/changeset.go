package models

import (
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// FileStatus describes how a file changed between the base and head refs.
type FileStatus string

const (
	StatusAdded       FileStatus = "added"
	StatusModified    FileStatus = "modified"
	StatusDeleted     FileStatus = "deleted"
	StatusRenamed     FileStatus = "renamed"
	StatusCopied      FileStatus = "copied"
	StatusTypeChanged FileStatus = "type-changed"
	StatusUnmerged    FileStatus = "unmerged"
	StatusUntracked   FileStatus = "untracked"
	StatusUnknown     FileStatus = "unknown"
)

// LineKind classifies a single diff line.
type LineKind string

const (
	LineAdd     LineKind = "add"
	LineDel     LineKind = "del"
	LineContext LineKind = "context"
)

// Line is one classified line of a hunk, without its +/-/space prefix.
type Line struct {
	Kind LineKind `json:"kind"`
	Text string   `json:"text"`
}

// Hunk is a contiguous block of changes within a file diff.
// Range fields hold the parsed "@@ -old[,len] +new[,len] @@" values;
// RangeValid is false when the header did not match the grammar, in
// which case the numeric fields are unset.
type Hunk struct {
	Header     string `json:"header"`
	OldStart   int    `json:"old_start,omitempty"`
	OldLines   int    `json:"old_lines,omitempty"`
	NewStart   int    `json:"new_start,omitempty"`
	NewLines   int    `json:"new_lines,omitempty"`
	RangeValid bool   `json:"range_valid"`
	Lines      []Line `json:"lines"`
}

// NewSideLines returns the add and context lines in diff order, which is
// the new-file line sequence covered by this hunk.
func (h *Hunk) NewSideLines() []string {
	lines := make([]string, 0, len(h.Lines))
	for _, l := range h.Lines {
		if l.Kind == LineAdd || l.Kind == LineContext {
			lines = append(lines, l.Text)
		}
	}
	return lines
}

// FileDiff is the parsed diff for a single file.
type FileDiff struct {
	Path    string     `json:"path"`
	OldPath string     `json:"old_path,omitempty"`
	Status  FileStatus `json:"status"`
	// Preamble holds the metadata lines between the file marker and the
	// first hunk header, verbatim, for passthrough rendering.
	Preamble []string `json:"preamble,omitempty"`
	Hunks    []Hunk   `json:"hunks,omitempty"`
	// Raw is the file's complete diff text as it appeared in the input.
	Raw string `json:"raw,omitempty"`
}

// NewSideContent reconstructs the new-file content covered by the hunks,
// joined with newlines. Empty when the file has no hunks.
func (f *FileDiff) NewSideContent() string {
	var b strings.Builder
	for i := range f.Hunks {
		for _, line := range f.Hunks[i].NewSideLines() {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// AddedLineSet returns the set of new-file line numbers introduced by this
// diff. Hunks without a valid range contribute nothing.
func (f *FileDiff) AddedLineSet() *roaring.Bitmap {
	set := roaring.New()
	for i := range f.Hunks {
		h := &f.Hunks[i]
		if !h.RangeValid {
			continue
		}
		n := h.NewStart
		for _, l := range h.Lines {
			switch l.Kind {
			case LineAdd:
				set.Add(uint32(n))
				n++
			case LineContext:
				n++
			}
		}
	}
	return set
}

// LinesAdded counts add lines across all hunks.
func (f *FileDiff) LinesAdded() int {
	n := 0
	for i := range f.Hunks {
		for _, l := range f.Hunks[i].Lines {
			if l.Kind == LineAdd {
				n++
			}
		}
	}
	return n
}

// LinesDeleted counts del lines across all hunks.
func (f *FileDiff) LinesDeleted() int {
	n := 0
	for i := range f.Hunks {
		for _, l := range f.Hunks[i].Lines {
			if l.Kind == LineDel {
				n++
			}
		}
	}
	return n
}

// ManifestPair carries dependency manifest snapshots at the base and head
// refs, keyed by repository-relative path. The pipeline passes these
// through to analyzers unmodified.
type ManifestPair struct {
	Base map[string]string `json:"base,omitempty"`
	Head map[string]string `json:"head,omitempty"`
}

// ChangeSet is the structured representation of everything that differs
// between two refs. It is constructed once per invocation and immutable
// thereafter; only analyzer outputs are cached, never the set itself.
type ChangeSet struct {
	Base      string       `json:"base,omitempty"`
	Head      string       `json:"head,omitempty"`
	Files     []FileDiff   `json:"files"`
	Manifests ManifestPair `json:"manifests,omitempty"`
}

// File returns the diff for path, or nil if the change set does not touch it.
func (c *ChangeSet) File(path string) *FileDiff {
	for i := range c.Files {
		if c.Files[i].Path == path {
			return &c.Files[i]
		}
	}
	return nil
}
