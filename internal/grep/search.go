// Package grep runs ripgrep for the live search picker and parses its output.
package grep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"golang.org/x/sys/execabs"
)

// DefaultMaxOutput is how much search output is accepted before giving up.
const DefaultMaxOutput = 10 << 20

// ErrOutputTooLarge is returned when a search prints more than the allowed
// output.
var ErrOutputTooLarge = errors.New("search output too large")

// Request describes one search.
type Request struct {
	Query string
	Dir   string
	// Exclude globs are passed as negated --glob flags.
	Exclude []string
	// IgnoreFiles are passed as --ignore-file flags.
	IgnoreFiles []string
}

// Match is one line of search output. Line and Column are 1-based.
type Match struct {
	Path   string
	Line   int
	Column int
	Text   string
}

// Searcher runs a search.
type Searcher interface {
	Search(ctx context.Context, req Request) ([]Match, error)
}

// RipgrepConfig configures Ripgrep.
type RipgrepConfig struct {
	// Command is the ripgrep binary. Defaults to "rg".
	Command string
	// ExtraArgs is split with shell rules and inserted before the query.
	ExtraArgs string
	// MaxOutput bounds stdout in bytes. Defaults to DefaultMaxOutput.
	MaxOutput int64
	Logger    *slog.Logger
}

// Ripgrep runs the rg binary.
type Ripgrep struct {
	command   string
	extra     []string
	maxOutput int64
	logger    *slog.Logger
}

var _ Searcher = (*Ripgrep)(nil)

// NewRipgrep creates a searcher.
func NewRipgrep(cfg RipgrepConfig) (*Ripgrep, error) {
	if cfg.Command == "" {
		cfg.Command = "rg"
	}
	if cfg.MaxOutput <= 0 {
		cfg.MaxOutput = DefaultMaxOutput
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	extra, err := shlex.Split(cfg.ExtraArgs)
	if err != nil {
		return nil, fmt.Errorf("splitting extra args %q: %w", cfg.ExtraArgs, err)
	}
	return &Ripgrep{
		command:   cfg.Command,
		extra:     extra,
		maxOutput: cfg.MaxOutput,
		logger:    cfg.Logger,
	}, nil
}

// Args builds the argument list for req.
func (r *Ripgrep) Args(req Request) []string {
	args := []string{"-i", "--color=never", "--no-heading", "--column", "--hidden", "--null"}
	args = append(args, r.extra...)
	for _, g := range req.Exclude {
		args = append(args, "--glob", "!"+g)
	}
	for _, f := range req.IgnoreFiles {
		args = append(args, "--ignore-file", f)
	}
	return append(args, "--", req.Query, req.Dir)
}

// Search runs rg. No match is an empty result, not an error.
func (r *Ripgrep) Search(ctx context.Context, req Request) ([]Match, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := r.Args(req)
	r.logger.Debug("rg command", "command", r.command, "args", args)

	cmd := execabs.CommandContext(ctx, r.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", r.command, err)
	}

	out, readErr := io.ReadAll(io.LimitReader(stdout, r.maxOutput+1))
	if int64(len(out)) > r.maxOutput {
		cancel()
		_ = cmd.Wait()
		return nil, fmt.Errorf("%w: more than %d bytes", ErrOutputTooLarge, r.maxOutput)
	}
	waitErr := cmd.Wait()
	if readErr != nil {
		return nil, readErr
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = waitErr.Error()
		}
		return nil, fmt.Errorf("%s: %s", r.command, msg)
	}
	return Parse(out), nil
}

// Parse reads search output lines. With --null a line is
// path NUL line:column:text, so the path may contain colons. Without it the
// first :line:column: after the path ends the path. The text may itself
// contain colons. Malformed lines are skipped.
func Parse(out []byte) []Match {
	var matches []Match
	for _, line := range strings.Split(string(out), "\n") {
		if m, ok := parseLine(strings.TrimSuffix(line, "\r")); ok {
			matches = append(matches, m)
		}
	}
	return matches
}

var (
	positionRE = regexp.MustCompile(`^(\d+):(\d+):(.*)$`)
	lineRE     = regexp.MustCompile(`^(.+?):(\d+):(\d+):(.*)$`)
)

func parseLine(line string) (Match, bool) {
	var path, lineNum, col, text string
	if p, rest, ok := strings.Cut(line, "\x00"); ok {
		g := positionRE.FindStringSubmatch(rest)
		if g == nil {
			return Match{}, false
		}
		path, lineNum, col, text = p, g[1], g[2], g[3]
	} else {
		g := lineRE.FindStringSubmatch(line)
		if g == nil {
			return Match{}, false
		}
		path, lineNum, col, text = g[1], g[2], g[3], g[4]
	}
	if path == "" {
		return Match{}, false
	}
	n, err := strconv.Atoi(lineNum)
	if err != nil {
		return Match{}, false
	}
	c, err := strconv.Atoi(col)
	if err != nil {
		return Match{}, false
	}
	return Match{Path: path, Line: n, Column: c, Text: text}, true
}
