// Package vcs provides version control system abstractions.
package vcs

import (
	"context"

	"github.com/presage-dev/presage/pkg/models"
)

// Repository provides the git operations the pipeline needs: raw diff
// text, a file-status listing, and file content at a ref.
type Repository interface {
	// ResolveRef resolves a revision (branch, tag, SHA, "HEAD") to a
	// commit hash in hex.
	ResolveRef(name string) (string, error)
	// DiffText returns the unified diff text between two resolved refs.
	DiffText(ctx context.Context, base, head string) (string, error)
	// NameStatus returns the per-file change status between two refs.
	NameStatus(base, head string) (map[string]models.FileStatus, error)
	// FileContentAt returns the content of path at ref. ErrFileNotFound
	// is returned when the file does not exist at that ref.
	FileContentAt(ref, path string) (string, error)
	// RepoPath returns the root path of the repository.
	RepoPath() string
}

// Opener opens git repositories.
type Opener interface {
	// PlainOpen opens an existing git repository.
	PlainOpen(path string) (Repository, error)
	// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
	PlainOpenWithDetect(path string) (Repository, error)
}

// DefaultOpener returns the go-git backed opener.
func DefaultOpener() Opener {
	return NewGitOpener()
}
