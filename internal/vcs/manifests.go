package vcs

import (
	"context"
	"errors"

	"github.com/presage-dev/presage/internal/fetch"
	"github.com/presage-dev/presage/pkg/models"
)

// DefaultManifestPaths are the dependency manifests snapshotted for
// analyzers when present at either ref.
var DefaultManifestPaths = []string{"package.json", "go.mod"}

// LoadManifests fetches manifest snapshots at the base and head refs,
// reading all files concurrently under the given limit. Files absent at a
// ref are simply omitted from that side's map.
func LoadManifests(ctx context.Context, repo Repository, base, head string, paths []string, limit int) (models.ManifestPair, error) {
	type slot struct {
		ref  string
		path string
	}
	slots := make([]slot, 0, 2*len(paths))
	for _, p := range paths {
		slots = append(slots, slot{ref: base, path: p}, slot{ref: head, path: p})
	}

	tasks := make([]fetch.Task[*string], len(slots))
	for i, sl := range slots {
		tasks[i] = func(ctx context.Context) (*string, error) {
			content, err := repo.FileContentAt(sl.ref, sl.path)
			if err != nil {
				if errors.Is(err, ErrFileNotFound) {
					return nil, nil
				}
				return nil, err
			}
			return &content, nil
		}
	}

	results, err := fetch.Map(ctx, tasks, limit)
	if err != nil {
		return models.ManifestPair{}, err
	}

	pair := models.ManifestPair{
		Base: make(map[string]string),
		Head: make(map[string]string),
	}
	for i, content := range results {
		if content == nil {
			continue
		}
		if i%2 == 0 {
			pair.Base[slots[i].path] = *content
		} else {
			pair.Head[slots[i].path] = *content
		}
	}
	return pair, nil
}
