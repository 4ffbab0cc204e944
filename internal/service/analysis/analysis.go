package analysis

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/presage-dev/presage/internal/analyzer"
	"github.com/presage-dev/presage/internal/cache"
	"github.com/presage-dev/presage/internal/diffparse"
	"github.com/presage-dev/presage/internal/vcs"
	"github.com/presage-dev/presage/pkg/config"
	"github.com/presage-dev/presage/pkg/models"
)

// Service orchestrates the analysis pipeline: change-set construction,
// cache session, analyzer run.
type Service struct {
	config *config.Config
	opener vcs.Opener
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithOpener sets the VCS opener (for testing).
func WithOpener(opener vcs.Opener) Option {
	return func(s *Service) {
		s.opener = opener
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		opener: vcs.DefaultOpener(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the service's effective configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// RunOptions configures one analysis run.
type RunOptions struct {
	// Path is the repository root. Defaults to the current directory.
	Path string
	// Base and Head are the refs to compare. Ignored when DiffText is set.
	Base string
	Head string
	// DiffText, when non-empty, is analyzed directly instead of reading
	// from a repository (e.g. a diff piped on stdin). Manifest-level
	// analysis is skipped since there are no snapshots to load.
	DiffText string
	// NoCache disables cache reads and writes for this run.
	NoCache bool
	// OnProgress is called after each analyzer completes.
	OnProgress func()
}

// AnalyzeChangeSet builds the change set and runs all enabled analyzers.
func (s *Service) AnalyzeChangeSet(ctx context.Context, opts RunOptions) (*models.AnalysisReport, error) {
	cs, err := s.buildChangeSet(ctx, opts)
	if err != nil {
		return nil, err
	}

	store, err := s.openStore(opts.Path, opts.NoCache)
	if err != nil {
		return nil, err
	}

	runner := analyzer.NewRunner(store,
		analyzer.WithWeights(s.config.Rules),
		analyzer.WithProgress(opts.OnProgress),
	)
	runner.Register(s.buildAnalyzers()...)

	return runner.Run(ctx, cs)
}

// AnalyzerCount reports how many analyzers a run will execute, for
// progress sizing.
func (s *Service) AnalyzerCount() int {
	return len(s.buildAnalyzers())
}

// OpenStore opens the configured cache store rooted at the given
// repository path. Cache commands share this with analysis runs.
func (s *Service) OpenStore(path string) (*cache.Store, error) {
	return s.openStore(path, false)
}

// CacheDir resolves the cache directory for the given repository path.
func (s *Service) CacheDir(path string) string {
	dir := s.config.Cache.Dir
	if filepath.IsAbs(dir) || path == "" {
		return dir
	}
	return filepath.Join(path, dir)
}

func (s *Service) openStore(path string, noCache bool) (*cache.Store, error) {
	enabled := s.config.Cache.Enabled && !noCache
	return cache.Open(s.CacheDir(path), enabled)
}

func (s *Service) buildChangeSet(ctx context.Context, opts RunOptions) (*models.ChangeSet, error) {
	if opts.DiffText != "" {
		return diffparse.ParseChangeSet(opts.Base, opts.Head, opts.DiffText), nil
	}

	path := opts.Path
	if path == "" {
		path = "."
	}
	repo, err := s.opener.PlainOpenWithDetect(path)
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}

	base, err := repo.ResolveRef(opts.Base)
	if err != nil {
		return nil, fmt.Errorf("resolving base %q: %w", opts.Base, err)
	}
	head, err := repo.ResolveRef(opts.Head)
	if err != nil {
		return nil, fmt.Errorf("resolving head %q: %w", opts.Head, err)
	}

	diffText, err := repo.DiffText(ctx, base, head)
	if err != nil {
		return nil, fmt.Errorf("diffing %s..%s: %w", base, head, err)
	}

	cs := diffparse.ParseChangeSet(base, head, diffText)

	// Name-status is authoritative for file statuses; the textual diff
	// only hints at them through preamble lines.
	if statuses, err := repo.NameStatus(base, head); err == nil {
		diffparse.ApplyNameStatus(cs.Files, statuses)
	}

	manifests, err := vcs.LoadManifests(ctx, repo, base, head,
		vcs.DefaultManifestPaths, s.config.Fetch.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("loading manifests: %w", err)
	}
	cs.Manifests = manifests

	return cs, nil
}

func (s *Service) buildAnalyzers() []analyzer.Analyzer {
	var analyzers []analyzer.Analyzer
	if s.config.Analyzers.Deps {
		analyzers = append(analyzers, analyzer.NewDependencyAnalyzer(
			analyzer.WithDependencyExcludes(s.config.Analyzers.DepsExcludes...),
		))
	}
	if s.config.Analyzers.Surface {
		analyzers = append(analyzers, analyzer.NewSurfaceAnalyzer(
			analyzer.WithSurfaceMaxLines(s.config.Analyzers.SurfaceMaxLines),
			analyzer.WithSurfaceMaxFiles(s.config.Analyzers.SurfaceMaxFiles),
		))
	}
	return analyzers
}
