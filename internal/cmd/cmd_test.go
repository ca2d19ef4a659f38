package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/sunhs/consult.code/internal/config"
)

// testEnv points the command line at a temporary config, cache and log.
type testEnv struct {
	dir      string
	cfgFile  string
	cacheDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("CONSULT_CACHE_DIR", "")
	t.Setenv("CONSULT_LOG_LEVEL", "")
	t.Setenv("CONSULT_DEBUG", "")
	t.Setenv("COLUMNS", "300")

	e := &testEnv{
		dir:      dir,
		cfgFile:  filepath.Join(dir, "config", "consult", "config.yaml"),
		cacheDir: filepath.Join(dir, "cache"),
	}
	cfg := config.DefaultConfig()
	cfg.Log.File = filepath.Join(dir, "consult.log")
	if err := cfg.SaveToFile(e.cfgFile); err != nil {
		t.Fatalf("saving config: %v", err)
	}
	return e
}

// run executes the root command with args and returns its output.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile, cacheDir, debug, activeFile, colorMode = "", "", false, "", "never"
	t.Cleanup(func() { colorMode = "auto" })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", e.cfgFile, "--cache-dir", e.cacheDir, "--color", "never"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}
