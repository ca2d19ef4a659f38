package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/sunhs/consult.code/internal/consult"
	"github.com/sunhs/consult.code/internal/filebrowser"
	"github.com/sunhs/consult.code/internal/filter"
	"github.com/sunhs/consult.code/internal/host"
	"github.com/sunhs/consult.code/internal/item"
	"github.com/sunhs/consult.code/internal/store"
)

// Picker titles and messages.
const (
	TitleSelectProject          = "select project"
	TitleSelectWorkspaceProject = "select project from workspace"
	MsgProjectAdded             = "project added"
	MsgCannotInferProject       = "cannot infer current project, choose a project"
)

// ManagerConfig wires a Manager to its host.
type ManagerConfig struct {
	Store     *store.Store
	Resolver  *Resolver
	Browser   *filebrowser.Browser
	Workspace host.Workspace
	Editor    host.Editor
	Context   consult.ContextSetter
	Notifier  consult.Notifier
	Home      string
	Logger    *slog.Logger
}

// Manager provides the project pickers. Its session lists projects first and
// may switch to the files of the accepted project.
type Manager struct {
	s        *consult.Session[item.Item]
	store    *store.Store
	resolver *Resolver
	browser  *filebrowser.Browser
	ws       host.Workspace
	editor   host.Editor
	ctx      consult.ContextSetter
	notifier consult.Notifier
	home     string
	logger   *slog.Logger
}

// NewManager creates an idle manager.
func NewManager(factory consult.WidgetFactory, cfg ManagerConfig) *Manager {
	if cfg.Context == nil {
		cfg.Context = consult.NopContext
	}
	if cfg.Notifier == nil {
		cfg.Notifier = consult.NopNotifier
	}
	if cfg.Workspace == nil {
		cfg.Workspace = host.NewMemoryWorkspace()
	}
	if cfg.Home == "" {
		cfg.Home, _ = os.UserHomeDir()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Manager{
		s:        consult.New[item.Item]("projects", factory, consult.WithLogger(cfg.Logger), consult.WithNotifier(cfg.Notifier)),
		store:    cfg.Store,
		resolver: cfg.Resolver,
		browser:  cfg.Browser,
		ws:       cfg.Workspace,
		editor:   cfg.Editor,
		ctx:      cfg.Context,
		notifier: cfg.Notifier,
		home:     cfg.Home,
		logger:   cfg.Logger,
	}
}

// Session exposes the underlying session.
func (m *Manager) Session() *consult.Session[item.Item] { return m.s }

// ProjectListFile is the file `project edit` opens.
func (m *Manager) ProjectListFile() string { return m.store.Projects.Path() }

// OpenProject lists registered projects; accepting one adds it to the
// workspace and marks it most recent.
func (m *Manager) OpenProject(ctx context.Context) error {
	return m.create(ctx, m.allProjects, m.onAcceptOpenProject)
}

// FindFileFromAllProjects lists registered projects, then the files of the
// accepted one.
func (m *Manager) FindFileFromAllProjects(ctx context.Context) error {
	return m.create(ctx, m.allProjects, m.onAcceptSearchProject)
}

// FindFileFromWorkspaceProjects lists workspace folders, then the files of
// the accepted one.
func (m *Manager) FindFileFromWorkspaceProjects(ctx context.Context) error {
	return m.create(ctx, m.workspaceProjects, m.onAcceptSearchProject)
}

// FindFileFromCurrentProject lists the files of the active document's
// project, or of the only workspace folder. Otherwise it reports the failure
// and falls back to FindFileFromAllProjects.
func (m *Manager) FindFileFromCurrentProject(ctx context.Context) error {
	p, err := m.CurrentProject(ctx)
	if err != nil {
		return err
	}
	if p == nil {
		m.notifier.Error(MsgCannotInferProject)
		return m.FindFileFromAllProjects(ctx)
	}

	m.ctx.SetContext(map[consult.Flag]bool{consult.FlagInProjectManager: true})
	m.reloadProjects()
	return m.s.Create(ctx, consult.Options[item.Item]{
		ItemGenerator: func(ctx context.Context, s *consult.Session[item.Item]) ([]item.Item, error) {
			return m.projectFiles(ctx, s, p)
		},
		ItemSelectors: consult.ShowAll[item.Item](),
		OnChangeValue: []consult.ChangeFunc[item.Item]{m.onChangeValue},
		OnAcceptItems: []consult.ActionFunc[item.Item]{m.onAcceptOpenFile},
		OnHide:        []consult.ActionFunc[item.Item]{m.onHide},
	})
}

// DeleteWorkspaceProject lists workspace folders; accepting one removes it
// from the workspace. It does nothing when the workspace is empty.
func (m *Manager) DeleteWorkspaceProject(ctx context.Context) error {
	if len(m.ws.Folders()) == 0 {
		return nil
	}
	return m.create(ctx, m.workspaceProjects, m.onAcceptDeleteProject)
}

// AddProject opens the file browser; ConfirmAddProject registers the
// highlighted directory.
func (m *Manager) AddProject(ctx context.Context) error {
	m.reloadProjects()
	return m.browser.Show(ctx, filebrowser.ShowOptions{
		Flags: []consult.Flag{consult.FlagInProjectManager},
	})
}

// ConfirmAddProject registers the directory highlighted in the file browser
// and closes it.
func (m *Manager) ConfirmAddProject(ctx context.Context) error {
	bs := m.browser.Session()
	active := bs.ActiveItems()
	if len(active) == 0 {
		return nil
	}
	dir := active[0].Path
	if !active[0].Kind.IsDir() {
		m.notifier.Warn(fmt.Sprintf("%s is not a directory", dir))
		return nil
	}
	if err := m.resolver.Register(dir); err != nil {
		return err
	}
	m.notifier.Info(MsgProjectAdded)
	bs.Hide()
	return nil
}

// CurrentProject infers the project of the active document, falling back to
// the only workspace folder. It returns nil when neither applies.
func (m *Manager) CurrentProject(ctx context.Context) (*item.Project, error) {
	if doc, ok := m.editor.ActiveDocument(); ok {
		root, found, err := m.resolver.Resolve(ctx, doc)
		if err != nil {
			return nil, err
		}
		if found {
			return item.NewProject(root, m.home)
		}
	}
	if folders := m.ws.Folders(); len(folders) == 1 {
		return item.NewProject(folders[0], m.home)
	}
	return nil, nil
}

func (m *Manager) create(ctx context.Context, gen consult.Op[item.Item], accept consult.ActionFunc[item.Item]) error {
	m.ctx.SetContext(map[consult.Flag]bool{consult.FlagInProjectManager: true})
	m.reloadProjects()
	return m.s.Create(ctx, consult.Options[item.Item]{
		ItemGenerator: gen,
		ItemSelectors: consult.ShowAll[item.Item](),
		OnChangeValue: []consult.ChangeFunc[item.Item]{m.onChangeValue},
		OnAcceptItems: []consult.ActionFunc[item.Item]{accept},
		OnHide:        []consult.ActionFunc[item.Item]{m.onHide},
	})
}

func (m *Manager) reloadProjects() {
	if _, err := m.store.Projects.ReloadIfNewer(); err != nil {
		m.logger.Warn("reloading project list", "error", err)
	}
}

func (m *Manager) allProjects(_ context.Context, s *consult.Session[item.Item]) ([]item.Item, error) {
	s.SetTitle(TitleSelectProject)
	var items []item.Item
	for _, root := range m.store.Projects.Roots() {
		p, err := item.NewProject(root, m.home)
		if err != nil {
			continue
		}
		items = append(items, p)
	}
	return items, nil
}

func (m *Manager) workspaceProjects(_ context.Context, s *consult.Session[item.Item]) ([]item.Item, error) {
	s.SetTitle(TitleSelectWorkspaceProject)
	var items []item.Item
	for _, folder := range m.ws.Folders() {
		p, err := item.NewProject(folder, m.home)
		if err != nil {
			continue
		}
		items = append(items, p)
	}
	return items, nil
}

// projectFiles marks p most recent and lists its files.
func (m *Manager) projectFiles(ctx context.Context, s *consult.Session[item.Item], p *item.Project) ([]item.Item, error) {
	if err := m.resolver.Register(p.Root); err != nil {
		m.logger.Warn("registering project", "root", p.Root, "error", err)
	}
	s.SetTitle(p.Name())

	active, _ := m.editor.ActiveDocument()
	files, err := m.resolver.ListFiles(ctx, p, active)
	if err != nil {
		return nil, err
	}
	items := make([]item.Item, len(files))
	for i, f := range files {
		items[i] = f
	}
	return items, nil
}

// onChangeValue narrows the list: projects by name, files by their path
// relative to the project.
func (m *Manager) onChangeValue(ctx context.Context, s *consult.Session[item.Item], oldValue, newValue string) error {
	if filter.Normalize(oldValue) == filter.Normalize(newValue) {
		return nil
	}
	re := filter.Query(newValue)
	if re == nil {
		return s.Update(ctx, consult.Options[item.Item]{ItemSelectors: consult.ShowAll[item.Item]()})
	}
	return s.Update(ctx, consult.Options[item.Item]{
		ItemSelectors: []consult.Op[item.Item]{
			func(_ context.Context, s *consult.Session[item.Item]) ([]item.Item, error) {
				var out []item.Item
				for _, it := range s.Items() {
					text := it.Label()
					if f, ok := it.(*item.ProjectFile); ok {
						text = f.Description()
					}
					if filter.MatchLabel(re, text) {
						out = append(out, it)
					}
				}
				return out, nil
			},
		},
	})
}

func (m *Manager) selectedProject(s *consult.Session[item.Item]) (*item.Project, bool) {
	selected := s.Selected()
	if len(selected) == 0 {
		return nil, false
	}
	p, ok := selected[0].(*item.Project)
	return p, ok
}

func (m *Manager) onAcceptOpenProject(_ context.Context, s *consult.Session[item.Item]) error {
	p, ok := m.selectedProject(s)
	if !ok {
		return nil
	}
	if folder, in := m.ws.FolderFor(p.Root); !in || folder != p.Root {
		if err := m.ws.Add(p.Root); err != nil {
			return fmt.Errorf("adding %s to workspace: %w", p.Root, err)
		}
	}
	if err := m.resolver.Register(p.Root); err != nil {
		return err
	}
	s.Hide()
	return nil
}

func (m *Manager) onAcceptSearchProject(ctx context.Context, s *consult.Session[item.Item]) error {
	p, ok := m.selectedProject(s)
	if !ok {
		return nil
	}
	s.SetValue("")
	return s.Update(ctx, consult.Options[item.Item]{
		ItemGenerator: func(ctx context.Context, s *consult.Session[item.Item]) ([]item.Item, error) {
			return m.projectFiles(ctx, s, p)
		},
		ItemSelectors: consult.ShowAll[item.Item](),
		OnAcceptItems: []consult.ActionFunc[item.Item]{m.onAcceptOpenFile},
	})
}

func (m *Manager) onAcceptOpenFile(ctx context.Context, s *consult.Session[item.Item]) error {
	selected := s.Selected()
	if len(selected) == 0 {
		return nil
	}
	f, ok := selected[0].(*item.ProjectFile)
	if !ok {
		return nil
	}
	if _, err := m.editor.Open(ctx, f.Path, host.OpenOptions{}); err != nil {
		return fmt.Errorf("opening %s: %w", f.Path, err)
	}
	s.Hide()
	return nil
}

func (m *Manager) onAcceptDeleteProject(_ context.Context, s *consult.Session[item.Item]) error {
	p, ok := m.selectedProject(s)
	if !ok {
		return nil
	}
	folder, in := m.ws.FolderFor(p.Root)
	if in {
		if err := m.ws.Remove(folder); err != nil && !errors.Is(err, host.ErrNotInWorkspace) {
			return err
		}
	}
	s.Hide()
	return nil
}

func (m *Manager) onHide(context.Context, *consult.Session[item.Item]) error {
	m.ctx.SetContext(map[consult.Flag]bool{consult.FlagInProjectManager: false})
	return nil
}

