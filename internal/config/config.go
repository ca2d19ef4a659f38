package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the consult configuration.
type Config struct {
	Consult ConsultConfig `yaml:"consult"`
	Cache   CacheConfig   `yaml:"cache"`
	Grep    GrepConfig    `yaml:"grep"`
	Editor  EditorConfig  `yaml:"editor"`
	Log     LogConfig     `yaml:"log"`
}

// ConsultConfig holds picker and project settings.
type ConsultConfig struct {
	FilterGlobPatterns    []string `yaml:"filter_glob_patterns"`     // Hidden from listings and searches
	ProjectMarkerFiles    []string `yaml:"project_marker_files"`     // Files that mark a project root
	ProjectDotIgnoreFiles []string `yaml:"project_dot_ignore_files"` // Per-project ignore files
	ExcludeAsProject      []string `yaml:"exclude_as_project"`       // Directories never treated as projects
	WorkspaceFolders      []string `yaml:"workspace_folders"`        // Folders open at startup
}

// CacheConfig holds persistence settings.
type CacheConfig struct {
	Dir              string `yaml:"dir"`                // Cache directory (empty = ~/.consult)
	ProjectLimit     int    `yaml:"project_limit"`      // Max registered projects
	ProjectFileLimit int    `yaml:"project_file_limit"` // Max remembered files per project
	RecentLimit      int    `yaml:"recent_limit"`       // Max recent files
	FileItemLimit    int    `yaml:"file_item_limit"`    // Max shared project file items
	AutosaveInterval string `yaml:"autosave_interval"`  // Go duration, "0" disables
	Watch            bool   `yaml:"watch"`              // Reload projects.json on external change
}

// GrepConfig holds live search settings.
type GrepConfig struct {
	Command        string `yaml:"command"`          // ripgrep binary
	ExtraArgs      string `yaml:"extra_args"`       // Extra rg flags, shell-split
	DebounceMs     int    `yaml:"debounce_ms"`      // Min spacing between searches
	MinQueryLen    int    `yaml:"min_query_len"`    // Shortest query that searches
	MaxOutputBytes int64  `yaml:"max_output_bytes"` // rg stdout allowance
}

// EditorConfig holds how files are opened.
type EditorConfig struct {
	Command       string `yaml:"command"`         // Editor command (empty = $VISUAL, $EDITOR, vi)
	LineArgFormat string `yaml:"line_arg_format"` // Argument template with {path}, {line}, {column}
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Log file path (overrides default)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Consult: ConsultConfig{
			FilterGlobPatterns:    []string{".git", ".svn", ".hg", "node_modules", "__pycache__", "*.pyc", ".DS_Store"},
			ProjectMarkerFiles:    []string{".git", ".svn", ".hg", ".projectile", "go.mod", "package.json"},
			ProjectDotIgnoreFiles: []string{".gitignore", ".ignore", ".rgignore"},
			ExcludeAsProject:      []string{},
			WorkspaceFolders:      []string{},
		},
		Cache: CacheConfig{
			Dir:              "", // Use default from store.Dir
			ProjectLimit:     100,
			ProjectFileLimit: 50,
			RecentLimit:      200,
			FileItemLimit:    1000,
			AutosaveInterval: "5m",
			Watch:            true,
		},
		Grep: GrepConfig{
			Command:        "rg",
			DebounceMs:     1000,
			MinQueryLen:    3,
			MaxOutputBytes: 10 << 20,
		},
		Editor: EditorConfig{
			LineArgFormat: "+{line} {path}",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFromFile loads configuration from path. A missing file yields the
// defaults.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves the configuration to path.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get returns the value of a "section.key" setting. Lists are
// comma-separated.
func (c *Config) Get(key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "consult":
		return c.getConsultField(field)
	case "cache":
		return c.getCacheField(field)
	case "grep":
		return c.getGrepField(field)
	case "editor":
		return c.getEditorField(field)
	case "log":
		return c.getLogField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set updates a "section.key" setting from its string form.
func (c *Config) Set(key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "consult":
		return c.setConsultField(field, value)
	case "cache":
		return c.setCacheField(field, value)
	case "grep":
		return c.setGrepField(field, value)
	case "editor":
		return c.setEditorField(field, value)
	case "log":
		return c.setLogField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func splitKey(key string) (section, field string, err error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", errors.New("key must be in format 'section.key'")
	}
	return parts[0], parts[1], nil
}

func (c *Config) getConsultField(field string) (string, error) {
	switch field {
	case "filter_glob_patterns":
		return joinList(c.Consult.FilterGlobPatterns), nil
	case "project_marker_files":
		return joinList(c.Consult.ProjectMarkerFiles), nil
	case "project_dot_ignore_files":
		return joinList(c.Consult.ProjectDotIgnoreFiles), nil
	case "exclude_as_project":
		return joinList(c.Consult.ExcludeAsProject), nil
	case "workspace_folders":
		return joinList(c.Consult.WorkspaceFolders), nil
	default:
		return "", fmt.Errorf("unknown field: consult.%s", field)
	}
}

func (c *Config) setConsultField(field, value string) error {
	switch field {
	case "filter_glob_patterns":
		c.Consult.FilterGlobPatterns = splitList(value)
	case "project_marker_files":
		c.Consult.ProjectMarkerFiles = splitList(value)
	case "project_dot_ignore_files":
		c.Consult.ProjectDotIgnoreFiles = splitList(value)
	case "exclude_as_project":
		c.Consult.ExcludeAsProject = splitList(value)
	case "workspace_folders":
		folders := splitList(value)
		for _, f := range folders {
			if !filepath.IsAbs(f) {
				return fmt.Errorf("invalid workspace folder %q: must be absolute", f)
			}
		}
		c.Consult.WorkspaceFolders = folders
	default:
		return fmt.Errorf("unknown field: consult.%s", field)
	}
	return nil
}

func (c *Config) getCacheField(field string) (string, error) {
	switch field {
	case "dir":
		return c.Cache.Dir, nil
	case "project_limit":
		return strconv.Itoa(c.Cache.ProjectLimit), nil
	case "project_file_limit":
		return strconv.Itoa(c.Cache.ProjectFileLimit), nil
	case "recent_limit":
		return strconv.Itoa(c.Cache.RecentLimit), nil
	case "file_item_limit":
		return strconv.Itoa(c.Cache.FileItemLimit), nil
	case "autosave_interval":
		return c.Cache.AutosaveInterval, nil
	case "watch":
		return strconv.FormatBool(c.Cache.Watch), nil
	default:
		return "", fmt.Errorf("unknown field: cache.%s", field)
	}
}

func (c *Config) setCacheField(field, value string) error {
	switch field {
	case "dir":
		c.Cache.Dir = value
	case "project_limit":
		return setPositive(&c.Cache.ProjectLimit, field, value)
	case "project_file_limit":
		return setPositive(&c.Cache.ProjectFileLimit, field, value)
	case "recent_limit":
		return setPositive(&c.Cache.RecentLimit, field, value)
	case "file_item_limit":
		return setPositive(&c.Cache.FileItemLimit, field, value)
	case "autosave_interval":
		if _, err := parseInterval(value); err != nil {
			return fmt.Errorf("invalid value for autosave_interval: %w", err)
		}
		c.Cache.AutosaveInterval = value
	case "watch":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for watch: %w", err)
		}
		c.Cache.Watch = v
	default:
		return fmt.Errorf("unknown field: cache.%s", field)
	}
	return nil
}

func (c *Config) getGrepField(field string) (string, error) {
	switch field {
	case "command":
		return c.Grep.Command, nil
	case "extra_args":
		return c.Grep.ExtraArgs, nil
	case "debounce_ms":
		return strconv.Itoa(c.Grep.DebounceMs), nil
	case "min_query_len":
		return strconv.Itoa(c.Grep.MinQueryLen), nil
	case "max_output_bytes":
		return strconv.FormatInt(c.Grep.MaxOutputBytes, 10), nil
	default:
		return "", fmt.Errorf("unknown field: grep.%s", field)
	}
}

func (c *Config) setGrepField(field, value string) error {
	switch field {
	case "command":
		if value == "" {
			return errors.New("invalid grep.command: must not be empty")
		}
		c.Grep.Command = value
	case "extra_args":
		c.Grep.ExtraArgs = value
	case "debounce_ms":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for debounce_ms: %w", err)
		}
		if v < 0 {
			return fmt.Errorf("invalid debounce_ms: must be non-negative")
		}
		c.Grep.DebounceMs = v
	case "min_query_len":
		return setPositive(&c.Grep.MinQueryLen, field, value)
	case "max_output_bytes":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value for max_output_bytes: %w", err)
		}
		if v <= 0 {
			return fmt.Errorf("invalid max_output_bytes: must be positive")
		}
		c.Grep.MaxOutputBytes = v
	default:
		return fmt.Errorf("unknown field: grep.%s", field)
	}
	return nil
}

func (c *Config) getEditorField(field string) (string, error) {
	switch field {
	case "command":
		return c.Editor.Command, nil
	case "line_arg_format":
		return c.Editor.LineArgFormat, nil
	default:
		return "", fmt.Errorf("unknown field: editor.%s", field)
	}
}

func (c *Config) setEditorField(field, value string) error {
	switch field {
	case "command":
		c.Editor.Command = value
	case "line_arg_format":
		if !strings.Contains(value, "{path}") {
			return fmt.Errorf("invalid line_arg_format: must contain {path}")
		}
		c.Editor.LineArgFormat = value
	default:
		return fmt.Errorf("unknown field: editor.%s", field)
	}
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	case "file":
		return c.Log.File, nil
	default:
		return "", fmt.Errorf("unknown field: log.%s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid log.level: %s (must be debug, info, warn, or error)", value)
		}
		c.Log.Level = value
	case "file":
		c.Log.File = value
	default:
		return fmt.Errorf("unknown field: log.%s", field)
	}
	return nil
}

func setPositive(dst *int, field, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", field, err)
	}
	if v <= 0 {
		return fmt.Errorf("invalid %s: must be positive", field)
	}
	*dst = v
	return nil
}

func joinList(items []string) string {
	return strings.Join(items, ",")
}

func splitList(value string) []string {
	out := []string{}
	for _, s := range strings.Split(value, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Cache.ProjectLimit <= 0 {
		return errors.New("cache.project_limit must be > 0")
	}
	if c.Cache.ProjectFileLimit <= 0 {
		return errors.New("cache.project_file_limit must be > 0")
	}
	if c.Cache.RecentLimit <= 0 {
		return errors.New("cache.recent_limit must be > 0")
	}
	if c.Cache.FileItemLimit <= 0 {
		return errors.New("cache.file_item_limit must be > 0")
	}
	if _, err := parseInterval(c.Cache.AutosaveInterval); err != nil {
		return fmt.Errorf("cache.autosave_interval: %w", err)
	}

	if c.Grep.Command == "" {
		return errors.New("grep.command must not be empty")
	}
	if c.Grep.DebounceMs < 0 {
		return errors.New("grep.debounce_ms must be >= 0")
	}
	if c.Grep.MinQueryLen <= 0 {
		return errors.New("grep.min_query_len must be > 0")
	}
	if c.Grep.MaxOutputBytes <= 0 {
		return errors.New("grep.max_output_bytes must be > 0")
	}

	if c.Editor.LineArgFormat != "" && !strings.Contains(c.Editor.LineArgFormat, "{path}") {
		return errors.New("editor.line_arg_format must contain {path}")
	}

	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}

	for _, f := range c.Consult.WorkspaceFolders {
		if !filepath.IsAbs(f) {
			return fmt.Errorf("consult.workspace_folders: %q is not absolute", f)
		}
	}

	return nil
}

// AutosaveDuration returns the parsed autosave interval. Zero disables
// autosave.
func (c *Config) AutosaveDuration() time.Duration {
	d, _ := parseInterval(c.Cache.AutosaveInterval)
	return d
}

// Debounce returns the grep debounce interval.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Grep.DebounceMs) * time.Millisecond
}

func parseInterval(s string) (time.Duration, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.New("must be non-negative")
	}
	return d, nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CONSULT_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("CONSULT_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
	if v := os.Getenv("CONSULT_CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}
}

// ListKeys returns user-facing configuration keys.
func ListKeys() []string {
	return []string{
		"consult.filter_glob_patterns",
		"consult.project_marker_files",
		"consult.project_dot_ignore_files",
		"consult.exclude_as_project",
		"consult.workspace_folders",
		"cache.dir",
		"cache.project_limit",
		"cache.project_file_limit",
		"cache.recent_limit",
		"cache.file_item_limit",
		"cache.autosave_interval",
		"cache.watch",
		"grep.command",
		"grep.extra_args",
		"grep.debounce_ms",
		"grep.min_query_len",
		"grep.max_output_bytes",
		"editor.command",
		"editor.line_arg_format",
		"log.level",
		"log.file",
	}
}
