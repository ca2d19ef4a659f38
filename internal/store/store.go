package store

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/sunhs/consult.code/internal/host"
)

// Default capacities.
const (
	DefaultProjectLimit     = 100
	DefaultProjectFileLimit = 50
	DefaultRecentLimit      = 200
)

// Config configures a Store.
type Config struct {
	// Dir is the cache directory. Defaults to Dir().
	Dir              string
	ProjectLimit     int
	ProjectFileLimit int
	RecentLimit      int
	// Exists reports whether a cached path still exists. Defaults to the
	// local filesystem.
	Exists  func(path string) bool
	OnPrune PruneFunc
	Logger  *slog.Logger
}

// Store owns the three persisted caches. The caches themselves are not safe
// for concurrent use; callers running background work (autosave, file
// watching) hold the store lock via Do.
type Store struct {
	mu  sync.Mutex
	dir string

	Projects     *ProjectList
	ProjectFiles *ProjectFiles
	Recent       *RecentFiles

	logger *slog.Logger
}

// New creates a store with empty caches. Call LoadAll to read the files.
func New(cfg Config) *Store {
	if cfg.Dir == "" {
		cfg.Dir = Dir()
	}
	if cfg.ProjectLimit <= 0 {
		cfg.ProjectLimit = DefaultProjectLimit
	}
	if cfg.ProjectFileLimit <= 0 {
		cfg.ProjectFileLimit = DefaultProjectFileLimit
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = DefaultRecentLimit
	}
	if cfg.Exists == nil {
		cfg.Exists = host.Exists
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "store")

	projects := newProjectList(filepath.Join(cfg.Dir, ProjectListFile), cfg.ProjectLimit, cfg.Exists, cfg.OnPrune, logger)
	return &Store{
		dir:          cfg.Dir,
		Projects:     projects,
		ProjectFiles: newProjectFiles(filepath.Join(cfg.Dir, ProjectFilesFile), cfg.ProjectFileLimit, projects, cfg.Exists, cfg.OnPrune, logger),
		Recent:       newRecentFiles(filepath.Join(cfg.Dir, RecentFilesFile), cfg.RecentLimit, cfg.Exists, cfg.OnPrune, logger),
		logger:       logger,
	}
}

// Dir returns the cache directory.
func (s *Store) Dir() string { return s.dir }

// Files returns the paths of the cache files.
func (s *Store) Files() []string {
	return []string{s.Projects.Path(), s.ProjectFiles.Path(), s.Recent.Path()}
}

// IsCacheFile reports whether path is one of the store's own files.
func (s *Store) IsCacheFile(path string) bool {
	return slices.Contains(s.Files(), filepath.Clean(path))
}

// Do runs fn while holding the store lock.
func (s *Store) Do(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// LoadAll creates the cache directory and loads every cache. The project
// list is loaded first so project file ranking can be checked against it.
func (s *Store) LoadAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := EnsureDir(s.dir); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	if err := s.Projects.Load(); err != nil {
		return err
	}
	if err := s.ProjectFiles.Load(); err != nil {
		return err
	}
	return s.Recent.Load()
}

// SaveAll writes every cache. All caches are attempted; errors are joined.
func (s *Store) SaveAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := EnsureDir(s.dir); err != nil {
		return fmt.Errorf("creating cache dir: %w", err)
	}
	return errors.Join(
		s.Projects.Save(),
		s.ProjectFiles.Save(),
		s.Recent.Save(),
	)
}

// RevalidateAll prunes stale entries from every cache and returns what was
// dropped.
func (s *Store) RevalidateAll() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pruned []string
	pruned = append(pruned, s.Projects.Revalidate()...)
	pruned = append(pruned, s.ProjectFiles.Revalidate()...)
	pruned = append(pruned, s.Recent.Revalidate()...)
	return pruned
}
