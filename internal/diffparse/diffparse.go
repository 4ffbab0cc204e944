// Package diffparse turns raw unified diff text into a structured change set.
//
// Parsing is deliberately lossless and non-failing: a hunk header that does
// not match the "@@ -old[,len] +new[,len] @@" grammar still opens a hunk so
// its content is kept, it just carries no parsed range. Truncated input
// yields whatever files and hunks were complete up to that point.
package diffparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/presage-dev/presage/pkg/models"
)

const (
	fileMarker      = "diff --git "
	hunkMarker      = "@@"
	noNewlineMarker = "\\ No newline at end of file"
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// Parse splits raw unified diff text into per-file diffs, in input order.
// It never fails; malformed sections degrade to raw passthrough content.
func Parse(text string) []models.FileDiff {
	var files []models.FileDiff
	lines := strings.Split(text, "\n")

	start := -1
	for i, line := range lines {
		if !strings.HasPrefix(line, fileMarker) {
			continue
		}
		if start >= 0 {
			files = append(files, parseFile(lines[start:i]))
		}
		start = i
	}
	if start >= 0 {
		files = append(files, parseFile(lines[start:]))
	}
	return files
}

// ParseChangeSet parses text and wraps the result with its ref endpoints.
func ParseChangeSet(base, head, text string) *models.ChangeSet {
	return &models.ChangeSet{
		Base:  base,
		Head:  head,
		Files: Parse(text),
	}
}

// parseFile parses one file section. lines[0] is the "diff --git" marker.
func parseFile(lines []string) models.FileDiff {
	oldPath, newPath := splitMarkerPaths(lines[0])

	fd := models.FileDiff{
		Path:   newPath,
		Status: models.StatusModified,
		Raw:    strings.Join(lines, "\n"),
	}
	if oldPath != newPath && oldPath != "" && newPath != "" {
		fd.OldPath = oldPath
		fd.Status = models.StatusRenamed
	}

	var hunk *models.Hunk
	for _, line := range lines[1:] {
		switch {
		case strings.HasPrefix(line, hunkMarker):
			if hunk != nil {
				fd.Hunks = append(fd.Hunks, *hunk)
			}
			hunk = parseHunkHeader(line)
		case hunk == nil:
			fd.Preamble = append(fd.Preamble, line)
			fd.Status = refineStatus(fd.Status, line)
		case strings.HasPrefix(line, noNewlineMarker):
			// marker line, not file content
		case line == "":
			// blank separator from trailing newline splits, not hunk content
		default:
			hunk.Lines = append(hunk.Lines, classifyLine(line))
		}
	}
	if hunk != nil {
		fd.Hunks = append(fd.Hunks, *hunk)
	}
	return fd
}

// splitMarkerPaths extracts the a/ and b/ paths from a file marker line.
func splitMarkerPaths(marker string) (oldPath, newPath string) {
	rest := strings.TrimPrefix(marker, fileMarker)
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return "", strings.TrimPrefix(rest, "b/")
	}
	return strings.TrimPrefix(fields[0], "a/"), strings.TrimPrefix(fields[1], "b/")
}

// parseHunkHeader opens a hunk from a header line. A header that fails the
// grammar still opens a hunk so no content is lost; its range stays unset.
func parseHunkHeader(line string) *models.Hunk {
	h := &models.Hunk{Header: line}
	m := hunkHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return h
	}
	h.OldStart = atoiOr(m[1], 0)
	h.OldLines = atoiOr(m[2], 1)
	h.NewStart = atoiOr(m[3], 0)
	h.NewLines = atoiOr(m[4], 1)
	h.RangeValid = true
	return h
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func classifyLine(line string) models.Line {
	switch {
	case strings.HasPrefix(line, "+"):
		return models.Line{Kind: models.LineAdd, Text: line[1:]}
	case strings.HasPrefix(line, "-"):
		return models.Line{Kind: models.LineDel, Text: line[1:]}
	case strings.HasPrefix(line, " "):
		return models.Line{Kind: models.LineContext, Text: line[1:]}
	default:
		// Context line with a stripped leading space (some producers).
		return models.Line{Kind: models.LineContext, Text: line}
	}
}

// refineStatus upgrades the default modified status from preamble metadata.
func refineStatus(current models.FileStatus, line string) models.FileStatus {
	switch {
	case strings.HasPrefix(line, "new file mode"):
		return models.StatusAdded
	case strings.HasPrefix(line, "deleted file mode"):
		return models.StatusDeleted
	case strings.HasPrefix(line, "rename from"), strings.HasPrefix(line, "rename to"):
		return models.StatusRenamed
	case strings.HasPrefix(line, "copy from"), strings.HasPrefix(line, "copy to"):
		return models.StatusCopied
	case strings.HasPrefix(line, "old mode"), strings.HasPrefix(line, "new mode"):
		return models.StatusTypeChanged
	default:
		return current
	}
}

// ParseNameStatus parses "git diff --name-status" style output into a
// path to status mapping. Rename and copy entries map the new path.
func ParseNameStatus(listing string) map[string]models.FileStatus {
	statuses := make(map[string]models.FileStatus)
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		status := statusFromLetter(fields[0])
		path := fields[len(fields)-1]
		statuses[path] = status
	}
	return statuses
}

func statusFromLetter(letter string) models.FileStatus {
	switch letter[0] {
	case 'A':
		return models.StatusAdded
	case 'M':
		return models.StatusModified
	case 'D':
		return models.StatusDeleted
	case 'R':
		return models.StatusRenamed
	case 'C':
		return models.StatusCopied
	case 'T':
		return models.StatusTypeChanged
	case 'U':
		return models.StatusUnmerged
	case '?':
		return models.StatusUntracked
	default:
		return models.StatusUnknown
	}
}

// ApplyNameStatus overrides parsed file statuses with the authoritative
// listing from the version control layer, where present.
func ApplyNameStatus(files []models.FileDiff, statuses map[string]models.FileStatus) {
	for i := range files {
		if s, ok := statuses[files[i].Path]; ok {
			files[i].Status = s
		}
	}
}
