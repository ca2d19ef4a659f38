package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sunhs/consult.code/internal/filebrowser"
	"github.com/sunhs/consult.code/internal/host"
)

var grepPickDir bool

var filesCmd = &cobra.Command{
	Use:   "files [dir]",
	Short: "Browse directories and open a file",
	Long: `Browse one directory at a time, starting from the focused document's
directory. Enter opens a file or descends into a directory.

Keys:
  ctrl+u, backspace on empty query   parent directory
  ctrl+g / ctrl+r                    home / filesystem root
  tab                                enter the highlighted directory
  ctrl+o                             toggle dot files
  ctrl+f                             toggle filtered files`,
	GroupID: groupPickers,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			activeFile = args[0]
		}
		return runPicker(cmd, func(app *App) func(context.Context) error {
			return func(ctx context.Context) error {
				return app.Browser.Show(ctx, filebrowser.ShowOptions{})
			}
		})
	},
}

var recentCmd = &cobra.Command{
	Use:     "recent",
	Short:   "Open a recently opened file",
	GroupID: groupPickers,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPicker(cmd, func(app *App) func(context.Context) error {
			return app.Recent.Show
		})
	},
}

var grepCmd = &cobra.Command{
	Use:   "grep [dir]",
	Short: "Search as you type with ripgrep",
	Long: `Search the current project, or dir, as you type. Searches start once the
query reaches grep.min_query_len characters and run at most once per
grep.debounce_ms. Moving through results previews the match.`,
	GroupID: groupPickers,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dir string
		if len(args) == 1 {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			dir = abs
		}
		return runPicker(cmd, func(app *App) func(context.Context) error {
			switch {
			case grepPickDir:
				return app.Grep.GrepDir
			case dir != "":
				return func(ctx context.Context) error { return app.Grep.GrepIn(ctx, dir) }
			default:
				return app.Grep.GrepProject
			}
		})
	},
}

var projectCmd = &cobra.Command{
	Use:     "project",
	Short:   "Open projects and find files in them",
	GroupID: groupPickers,
}

var projectOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Add a registered project to the workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPicker(cmd, func(app *App) func(context.Context) error {
			return app.Projects.OpenProject
		})
	},
}

var projectFindCmd = &cobra.Command{
	Use:   "find",
	Short: "Pick a registered project, then one of its files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPicker(cmd, func(app *App) func(context.Context) error {
			return app.Projects.FindFileFromAllProjects
		})
	},
}

var projectFindWorkspaceCmd = &cobra.Command{
	Use:   "find-ws",
	Short: "Pick a workspace folder, then one of its files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPicker(cmd, func(app *App) func(context.Context) error {
			return app.Projects.FindFileFromWorkspaceProjects
		})
	},
}

var projectFindCurrentCmd = &cobra.Command{
	Use:   "find-current",
	Short: "Find a file in the focused document's project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPicker(cmd, func(app *App) func(context.Context) error {
			return app.Projects.FindFileFromCurrentProject
		})
	},
}

var projectAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Browse to a directory and register it as a project (ctrl+y)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPicker(cmd, func(app *App) func(context.Context) error {
			return app.Projects.AddProject
		})
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove a folder from the workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPicker(cmd, func(app *App) func(context.Context) error {
			return app.Projects.DeleteWorkspaceProject
		})
	},
}

var projectEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the project list file in the editor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, closeApp, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp()

		ctx := cmd.Context()
		path := app.Projects.ProjectListFile()
		if err := app.Store.Projects.Save(); err != nil {
			return err
		}
		if _, err := app.Editor.Open(ctx, path, host.OpenOptions{}); err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		return app.Editor.Flush(ctx)
	},
}

func init() {
	grepCmd.Flags().BoolVar(&grepPickDir, "pick-dir", false, "choose the directory to search with the file browser")

	projectCmd.AddCommand(projectOpenCmd)
	projectCmd.AddCommand(projectFindCmd)
	projectCmd.AddCommand(projectFindWorkspaceCmd)
	projectCmd.AddCommand(projectFindCurrentCmd)
	projectCmd.AddCommand(projectAddCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	projectCmd.AddCommand(projectEditCmd)
}

// runPicker builds the app, runs the picker chosen by pick and saves the
// caches.
func runPicker(cmd *cobra.Command, pick func(app *App) func(context.Context) error) (err error) {
	app, closeApp, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeApp(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return app.Run(cmd.Context(), pick(app))
}
