package project

import (
	"context"
	"log/slog"

	"github.com/sunhs/consult.code/internal/store"
)

// Tracker feeds editor and workspace events into the caches.
type Tracker struct {
	resolver *Resolver
	store    *store.Store
	logger   *slog.Logger
}

// NewTracker creates a tracker.
func NewTracker(r *Resolver, st *store.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{resolver: r, store: st, logger: logger.With("component", "tracker")}
}

// FileOpened records path as recently opened and, unless it is one of the
// cache files, registers its project and ranks it within that project.
func (t *Tracker) FileOpened(ctx context.Context, path string) {
	t.store.Recent.Put(path)
	if t.store.IsCacheFile(path) {
		return
	}

	root, ok, err := t.resolver.AddOrUpdate(ctx, path)
	if err != nil {
		t.logger.Warn("registering project", "path", path, "error", err)
	}
	if !ok {
		return
	}
	t.store.ProjectFiles.Put(Name(root), path)
}

// FoldersAdded registers the project of every added workspace folder.
func (t *Tracker) FoldersAdded(ctx context.Context, folders []string) {
	for _, folder := range folders {
		if _, _, err := t.resolver.AddOrUpdate(ctx, folder); err != nil {
			t.logger.Warn("registering project", "folder", folder, "error", err)
		}
	}
}
