package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/presage-dev/presage/pkg/config"
	"github.com/presage-dev/presage/pkg/models"
)

const basePackageJSON = `{
  "name": "fixture",
  "dependencies": {
    "express": "^4.18.0"
  }
}
`

const headPackageJSON = `{
  "name": "fixture",
  "dependencies": {
    "express": "^4.18.0",
    "helmet": "^7.0.0"
  }
}
`

// initRepo builds a repo with two commits and returns (path, baseSHA, headSHA).
func initRepo(t *testing.T) (string, string, string) {
	t.Helper()
	repoPath := t.TempDir()
	repo, err := git.PlainInit(repoPath, false)
	require.NoError(t, err)
	w, err := repo.Worktree()
	require.NoError(t, err)

	writeFile := func(name, content string) {
		t.Helper()
		require.NoError(t, os.WriteFile(filepath.Join(repoPath, name), []byte(content), 0o644))
		_, err := w.Add(name)
		require.NoError(t, err)
	}
	commit := func(msg string) string {
		t.Helper()
		hash, err := w.Commit(msg, &git.CommitOptions{
			Author: &object.Signature{
				Name:  "Test",
				Email: "test@example.com",
				When:  time.Now(),
			},
		})
		require.NoError(t, err)
		return hash.String()
	}

	writeFile("package.json", basePackageJSON)
	base := commit("Initial commit")

	writeFile("package.json", headPackageJSON)
	head := commit("Add helmet dependency")

	return repoPath, base, head
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Cache.Dir = filepath.Join(t.TempDir(), "cache")
	return cfg
}

func TestNew(t *testing.T) {
	svc := New()
	if svc == nil {
		t.Fatal("New() returned nil")
	}
	if svc.Config() == nil {
		t.Error("service should carry a config")
	}
}

func TestAnalyzeChangeSetFromRepo(t *testing.T) {
	repoPath, base, head := initRepo(t)
	svc := New(WithConfig(testConfig(t)))

	report, err := svc.AnalyzeChangeSet(context.Background(), RunOptions{
		Path: repoPath,
		Base: base,
		Head: head,
	})
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Equal(t, base, report.Base)
	require.Equal(t, head, report.Head)

	var helmet *models.Finding
	for i := range report.Findings {
		if report.Findings[i].Dependency == "helmet" {
			helmet = &report.Findings[i]
		}
	}
	require.NotNil(t, helmet, "helmet addition should be found")
	require.Equal(t, models.KindDependencyChange, helmet.Kind)
	require.NotEmpty(t, helmet.FindingID)
	require.NotEmpty(t, report.Flags)
}

func TestAnalyzeChangeSetCachesAcrossRuns(t *testing.T) {
	repoPath, base, head := initRepo(t)
	svc := New(WithConfig(testConfig(t)))

	opts := RunOptions{Path: repoPath, Base: base, Head: head}
	ctx := context.Background()

	first, err := svc.AnalyzeChangeSet(ctx, opts)
	require.NoError(t, err)

	second, err := svc.AnalyzeChangeSet(ctx, opts)
	require.NoError(t, err)

	require.Greater(t, second.Cache.Hits, int64(0), "second run should hit the cache")
	require.Equal(t, len(first.Findings), len(second.Findings))
	for i := range first.Findings {
		require.Equal(t, first.Findings[i].FindingID, second.Findings[i].FindingID)
	}
}

func TestAnalyzeChangeSetFromDiffText(t *testing.T) {
	diff := `diff --git a/package.json b/package.json
@@ -1,3 +1,4 @@
 {
+  "added": true,
   "name": "x"
 }
`
	svc := New(WithConfig(testConfig(t)))

	report, err := svc.AnalyzeChangeSet(context.Background(), RunOptions{
		DiffText: diff,
		Base:     "BASE",
		Head:     "HEAD",
	})
	require.NoError(t, err)
	require.Equal(t, "BASE", report.Base)
	require.Equal(t, "HEAD", report.Head)
}

func TestAnalyzeChangeSetNoCache(t *testing.T) {
	repoPath, base, head := initRepo(t)
	cfg := testConfig(t)
	svc := New(WithConfig(cfg))

	_, err := svc.AnalyzeChangeSet(context.Background(), RunOptions{
		Path:    repoPath,
		Base:    base,
		Head:    head,
		NoCache: true,
	})
	require.NoError(t, err)

	_, statErr := os.Stat(cfg.Cache.Dir)
	require.True(t, os.IsNotExist(statErr), "no-cache run must not create the cache dir")
}

func TestAnalyzeChangeSetBadRef(t *testing.T) {
	repoPath, base, _ := initRepo(t)
	svc := New(WithConfig(testConfig(t)))

	_, err := svc.AnalyzeChangeSet(context.Background(), RunOptions{
		Path: repoPath,
		Base: base,
		Head: "does-not-exist",
	})
	require.Error(t, err)
}

func TestAnalyzeChangeSetNotARepo(t *testing.T) {
	svc := New(WithConfig(testConfig(t)))

	_, err := svc.AnalyzeChangeSet(context.Background(), RunOptions{
		Path: t.TempDir(),
		Base: "a",
		Head: "b",
	})
	require.Error(t, err)
}

func TestAnalyzerCountFollowsConfig(t *testing.T) {
	cfg := testConfig(t)
	svc := New(WithConfig(cfg))
	require.Equal(t, 2, svc.AnalyzerCount())

	cfg.Analyzers.Surface = false
	require.Equal(t, 1, svc.AnalyzerCount())
}

func TestCacheDirResolution(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Dir = ".presage/cache"
	svc := New(WithConfig(cfg))

	require.Equal(t, filepath.Join("/repo", ".presage/cache"), svc.CacheDir("/repo"))

	cfg.Cache.Dir = "/abs/cache"
	require.Equal(t, "/abs/cache", svc.CacheDir("/repo"))
}
