package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/sunhs/consult.code/internal/config"
	"github.com/sunhs/consult.code/internal/consult"
	"github.com/sunhs/consult.code/internal/filebrowser"
	"github.com/sunhs/consult.code/internal/grep"
	"github.com/sunhs/consult.code/internal/host"
	"github.com/sunhs/consult.code/internal/picker"
	"github.com/sunhs/consult.code/internal/project"
	"github.com/sunhs/consult.code/internal/recentf"
	"github.com/sunhs/consult.code/internal/store"
)

// Options configures an App.
type Options struct {
	Config *config.Config
	// ConfigFile is where workspace folder changes are written back. Empty
	// disables the write.
	ConfigFile string
	Logger     *slog.Logger
	// Out receives notifications once the picker has exited.
	Out io.Writer
	// Active is the initially focused document or directory.
	Active string
	Home   string
	// FS and Searcher replace the local filesystem and ripgrep in tests.
	FS       host.FS
	Searcher grep.Searcher
}

// App owns the caches, the terminal host and one session per picker kind.
type App struct {
	cfg        *config.Config
	configFile string
	logger     *slog.Logger

	Store     *store.Store
	Host      *picker.Host
	Workspace *host.MemoryWorkspace
	Editor    *host.ExecEditor
	Resolver  *project.Resolver
	Tracker   *project.Tracker
	Browser   *filebrowser.Browser
	Projects  *project.Manager
	Recent    *recentf.Picker
	Grep      *grep.Picker

	console  *host.ConsoleNotifier
	reported int
	folders  []string

	autosaver *store.Autosaver
	watcher   *store.Watcher
}

// NewApp builds every component and loads the caches.
func NewApp(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if opts.Home == "" {
		opts.Home, _ = os.UserHomeDir()
	}

	a := &App{
		cfg:        cfg,
		configFile: opts.ConfigFile,
		logger:     logger,
		Host:       picker.New(picker.Config{Logger: logger}),
		Workspace:  host.NewMemoryWorkspace(cfg.Consult.WorkspaceFolders...),
		console:    host.NewConsoleNotifier(out, logger),
	}
	a.folders = a.Workspace.Folders()

	a.Store = store.New(store.Config{
		Dir:              cfg.Cache.Dir,
		ProjectLimit:     cfg.Cache.ProjectLimit,
		ProjectFileLimit: cfg.Cache.ProjectFileLimit,
		RecentLimit:      cfg.Cache.RecentLimit,
		OnPrune: func(file string, pruned []string) {
			a.Host.Info(fmt.Sprintf("removed %d missing entries from %s", len(pruned), file))
		},
		Logger: logger,
	})
	if err := a.Store.LoadAll(); err != nil {
		return nil, fmt.Errorf("loading caches: %w", err)
	}

	editor, err := host.NewExecEditor(host.ExecEditorConfig{
		Command:       cfg.Editor.Command,
		LineArgFormat: cfg.Editor.LineArgFormat,
		Active:        opts.Active,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	a.Editor = editor

	fsys := opts.FS
	if fsys == nil {
		fsys = host.LocalFS{}
	}
	a.Resolver = project.NewResolver(a.Store, fsys, a.Workspace, project.Config{
		MarkerFiles:      cfg.Consult.ProjectMarkerFiles,
		DotIgnoreFiles:   cfg.Consult.ProjectDotIgnoreFiles,
		FilterGlobs:      cfg.Consult.FilterGlobPatterns,
		ExcludeAsProject: cfg.Consult.ExcludeAsProject,
		FileItemLimit:    cfg.Cache.FileItemLimit,
		Home:             opts.Home,
	}, logger)

	a.Tracker = project.NewTracker(a.Resolver, a.Store, logger)
	a.Editor.OnFileOpened(func(path string) { a.Tracker.FileOpened(context.Background(), path) })
	a.Workspace.OnFoldersAdded(func(folders []string) { a.Tracker.FoldersAdded(context.Background(), folders) })

	a.Browser, err = filebrowser.New(a.Host.NewWidget, filebrowser.Config{
		FS:          fsys,
		Editor:      a.Editor,
		Context:     a.Host,
		Notifier:    a.Host,
		Filters:     consult.DefaultFilters(),
		FilterGlobs: cfg.Consult.FilterGlobPatterns,
		Home:        opts.Home,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	a.Projects = project.NewManager(a.Host.NewWidget, project.ManagerConfig{
		Store:     a.Store,
		Resolver:  a.Resolver,
		Browser:   a.Browser,
		Workspace: a.Workspace,
		Editor:    a.Editor,
		Context:   a.Host,
		Notifier:  a.Host,
		Home:      opts.Home,
		Logger:    logger,
	})

	a.Recent = recentf.New(a.Host.NewWidget, recentf.Config{
		Store:    a.Store,
		Editor:   a.Editor,
		Context:  a.Host,
		Notifier: a.Host,
		Home:     opts.Home,
		Logger:   logger,
	})

	searcher := opts.Searcher
	if searcher == nil {
		searcher, err = grep.NewRipgrep(grep.RipgrepConfig{
			Command:   cfg.Grep.Command,
			ExtraArgs: cfg.Grep.ExtraArgs,
			MaxOutput: cfg.Grep.MaxOutputBytes,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
	}
	a.Grep = grep.New(a.Host.NewWidget, grep.Config{
		Searcher:       searcher,
		Resolver:       a.Resolver,
		Browser:        a.Browser,
		Workspace:      a.Workspace,
		Editor:         a.Editor,
		Notifier:       a.Host,
		Loop:           a.Host,
		FilterGlobs:    cfg.Consult.FilterGlobPatterns,
		DotIgnoreFiles: cfg.Consult.ProjectDotIgnoreFiles,
		Debounce:       cfg.Debounce(),
		MinQueryLen:    cfg.Grep.MinQueryLen,
		Home:           opts.Home,
		Logger:         logger,
	})

	a.Host.Bind(a.bindings()...)
	return a, nil
}

// bindings are the picker keys that drive session commands.
func (a *App) bindings() []picker.Binding {
	run := func(fn func(context.Context) error) func() {
		return func() {
			if err := fn(context.Background()); err != nil {
				a.Host.Error(err.Error())
			}
		}
	}
	inBrowser := []consult.Flag{consult.FlagInFileBrowser}
	return []picker.Binding{
		{Key: "ctrl+u", When: inBrowser, Run: run(a.Browser.GoUp), Help: "parent directory"},
		{Key: "backspace", When: []consult.Flag{consult.FlagInFileBrowser, consult.FlagFileBrowserEmpty}, Run: run(a.Browser.GoUp), Help: "parent directory"},
		{Key: "ctrl+g", When: inBrowser, Run: run(a.Browser.GoHome), Help: "home directory"},
		{Key: "ctrl+r", When: inBrowser, Run: run(a.Browser.GoRoot), Help: "filesystem root"},
		{Key: "tab", When: inBrowser, Run: run(a.Browser.IntoDir), Help: "enter directory"},
		{Key: "ctrl+o", When: inBrowser, Run: run(a.Browser.ToggleHidden), Help: "toggle hidden files"},
		{Key: "ctrl+f", When: inBrowser, Run: run(a.Browser.ToggleFilter), Help: "toggle filtered files"},
		{Key: "ctrl+y", When: []consult.Flag{consult.FlagInFileBrowser, consult.FlagInProjectManager}, Run: run(a.Projects.ConfirmAddProject), Help: "add directory as project"},
	}
}

// Start posts start to the loop without running the terminal program.
func (a *App) Start(ctx context.Context, start func(context.Context) error) {
	a.Host.Post(func() { a.invoke(ctx, start) })
}

func (a *App) invoke(ctx context.Context, start func(context.Context) error) {
	if err := start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.Host.Error(err.Error())
	}
}

// Run shows a picker started by start and blocks until it closes. Files
// accepted in the picker are then opened in the editor.
func (a *App) Run(ctx context.Context, start func(context.Context) error) error {
	if err := a.startBackground(); err != nil {
		return err
	}
	err := a.Host.Run(ctx, func() { a.invoke(ctx, start) })
	a.stopBackground()
	a.Report()
	if err != nil {
		return err
	}
	return a.Editor.Flush(ctx)
}

// Report prints notifications raised since the last report.
func (a *App) Report() {
	msgs := a.Host.Messages()
	for _, m := range msgs[a.reported:] {
		switch m.Level {
		case picker.LevelError:
			a.console.Error(m.Text)
		case picker.LevelWarn:
			a.console.Warn(m.Text)
		default:
			a.console.Info(m.Text)
		}
	}
	a.reported = len(msgs)
}

func (a *App) startBackground() error {
	if d := a.cfg.AutosaveDuration(); d > 0 {
		as, err := store.NewAutosaver(a.Store, d, a.Host.Post, a.logger)
		if err != nil {
			return err
		}
		as.Start()
		a.autosaver = as
	}
	if a.cfg.Cache.Watch {
		w, err := store.NewWatcher(a.Store, a.Host.Post, nil, a.logger)
		if err != nil {
			a.logger.Warn("project list watcher unavailable", "error", err)
			return nil
		}
		if err := w.Start(); err != nil {
			a.logger.Warn("starting project list watcher", "error", err)
			_ = w.Stop()
			return nil
		}
		a.watcher = w
	}
	return nil
}

func (a *App) stopBackground() {
	if a.autosaver != nil {
		if err := a.autosaver.Stop(); err != nil {
			a.logger.Warn("autosave failed", "error", err)
		}
		a.autosaver = nil
	}
	if a.watcher != nil {
		if err := a.watcher.Stop(); err != nil {
			a.logger.Warn("stopping watcher", "error", err)
		}
		a.watcher = nil
	}
}

// Close stops background work, saves the caches and writes changed
// workspace folders back to the config file.
func (a *App) Close() error {
	a.stopBackground()
	err := a.Store.SaveAll()
	if folders := a.Workspace.Folders(); a.configFile != "" && !slices.Equal(folders, a.folders) {
		a.cfg.Consult.WorkspaceFolders = folders
		if serr := a.cfg.SaveToFile(a.configFile); serr != nil {
			err = errors.Join(err, serr)
		} else {
			a.folders = folders
		}
	}
	return err
}
