package vcs

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"

	"github.com/presage-dev/presage/pkg/models"
)

// ErrFileNotFound is returned when a file does not exist at the given ref.
var ErrFileNotFound = errors.New("file not found at ref")

// GitOpener opens git repositories using go-git.
type GitOpener struct{}

// NewGitOpener creates a new GitOpener.
func NewGitOpener() *GitOpener {
	return &GitOpener{}
}

// PlainOpen opens an existing git repository.
func (o *GitOpener) PlainOpen(path string) (Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, err
	}
	return &gitRepository{repo: repo, path: path}, nil
}

// PlainOpenWithDetect opens a git repository, detecting .git in parent directories.
func (o *GitOpener) PlainOpenWithDetect(path string) (Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, err
	}
	return &gitRepository{repo: repo, path: path}, nil
}

// gitRepository wraps go-git Repository.
type gitRepository struct {
	repo *git.Repository
	path string
}

func (r *gitRepository) RepoPath() string {
	return r.path
}

func (r *gitRepository) ResolveRef(name string) (string, error) {
	if name == "" {
		name = "HEAD"
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(name))
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

func (r *gitRepository) treeAt(ref string) (*object.Tree, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, err
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}

func (r *gitRepository) DiffText(ctx context.Context, base, head string) (string, error) {
	fromTree, err := r.treeAt(base)
	if err != nil {
		return "", err
	}
	toTree, err := r.treeAt(head)
	if err != nil {
		return "", err
	}
	changes, err := object.DiffTreeWithOptions(ctx, fromTree, toTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return "", err
	}
	patch, err := changes.PatchContext(ctx)
	if err != nil {
		return "", err
	}
	return patch.String(), nil
}

func (r *gitRepository) NameStatus(base, head string) (map[string]models.FileStatus, error) {
	fromTree, err := r.treeAt(base)
	if err != nil {
		return nil, err
	}
	toTree, err := r.treeAt(head)
	if err != nil {
		return nil, err
	}
	changes, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]models.FileStatus, len(changes))
	for _, ch := range changes {
		action, err := ch.Action()
		if err != nil {
			continue
		}
		switch action {
		case merkletrie.Insert:
			statuses[ch.To.Name] = models.StatusAdded
		case merkletrie.Delete:
			statuses[ch.From.Name] = models.StatusDeleted
		case merkletrie.Modify:
			if ch.From.Name != ch.To.Name {
				statuses[ch.To.Name] = models.StatusRenamed
			} else {
				statuses[ch.To.Name] = models.StatusModified
			}
		}
	}
	return statuses, nil
}

func (r *gitRepository) FileContentAt(ref, path string) (string, error) {
	tree, err := r.treeAt(ref)
	if err != nil {
		return "", err
	}
	file, err := tree.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return "", ErrFileNotFound
		}
		return "", err
	}
	return file.Contents()
}
