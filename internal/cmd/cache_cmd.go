package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sunhs/consult.code/internal/picker"
	"github.com/sunhs/consult.code/internal/store"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the recency caches",
	Long: `Inspect and maintain the recency caches.

The caches live in ~/.consult (or $CONSULT_CACHE_DIR, or cache.dir):
  projects.json       registered projects, most recent first
  projectfiles.json   most used files per project
  recentf.json        recently opened files`,
	GroupID: groupSetup,
}

var cacheLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the caches and report what they hold",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(out io.Writer, app *App) error {
			printCounts(out, app.Store)
			return nil
		})
	},
}

var cacheSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Write the caches back to disk",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(out io.Writer, app *App) error {
			if err := app.Store.SaveAll(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%sSaved%s %s\n", colorGreen, colorReset, app.Store.Dir())
			return nil
		})
	},
}

var cacheRevalidateCmd = &cobra.Command{
	Use:   "revalidate",
	Short: "Drop cached paths that no longer exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(out io.Writer, app *App) error {
			pruned := app.Store.RevalidateAll()
			if len(pruned) == 0 {
				fmt.Fprintln(out, "Nothing to prune")
				return nil
			}
			for _, p := range pruned {
				fmt.Fprintf(out, "  %s-%s %s\n", colorRed, colorReset, p)
			}
			fmt.Fprintf(out, "Pruned %d entries\n", len(pruned))
			return app.Store.SaveAll()
		})
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cache contents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(out io.Writer, app *App) error {
			showCaches(out, app.Store, picker.TermWidth(os.Stdout))
			return nil
		})
	},
}

func init() {
	cacheCmd.AddCommand(cacheLoadCmd)
	cacheCmd.AddCommand(cacheSaveCmd)
	cacheCmd.AddCommand(cacheRevalidateCmd)
	cacheCmd.AddCommand(cacheShowCmd)
}

// withCache opens the app without a picker, runs fn and prints any
// notifications the caches raised.
func withCache(cmd *cobra.Command, fn func(out io.Writer, app *App) error) (err error) {
	app, closeApp, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		app.Report()
		if cerr := closeApp(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(cmd.OutOrStdout(), app)
}

func printCounts(out io.Writer, s *store.Store) {
	fmt.Fprintf(out, "%sCache%s %s\n", colorBold, colorReset, s.Dir())
	fmt.Fprintln(out, strings.Repeat("-", 40))
	fmt.Fprintf(out, "  projects:      %d\n", s.Projects.Len())
	fmt.Fprintf(out, "  project files: %d projects\n", len(s.ProjectFiles.Projects()))
	fmt.Fprintf(out, "  recent files:  %d\n", s.Recent.Len())
}

func showCaches(out io.Writer, s *store.Store, width int) {
	fit := func(path string, indent int) string {
		return picker.MiddleTruncate(path, width-indent)
	}

	fmt.Fprintf(out, "%sProjects%s (%s)\n", colorBold, colorReset, s.Projects.Path())
	for _, e := range s.Projects.Entries() {
		fmt.Fprintf(out, "  %s%s%s %s\n", colorCyan, e.Key, colorReset, fit(e.Value, len(e.Key)+3))
	}

	fmt.Fprintf(out, "\n%sProject files%s (%s)\n", colorBold, colorReset, s.ProjectFiles.Path())
	for _, name := range s.ProjectFiles.Projects() {
		fmt.Fprintf(out, "  %s%s%s\n", colorCyan, name, colorReset)
		for _, f := range s.ProjectFiles.Files(name) {
			fmt.Fprintf(out, "    %s\n", fit(f, 4))
		}
	}

	fmt.Fprintf(out, "\n%sRecent files%s (%s)\n", colorBold, colorReset, s.Recent.Path())
	for _, f := range s.Recent.Newest() {
		fmt.Fprintf(out, "  %s\n", fit(f, 2))
	}
}
