// Package logging formats engine diagnostics for a terminal, detecting
// color support the same way an interactive CLI would: check NO_COLOR,
// confirm the process's stdout is actually a TTY, and fall back to plain
// text otherwise. The check is made once per process against os.Stdout,
// also for a Logger writing to os.Stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/sqlfront/sqlfront/internal/diagnostics"
)

// colorLevel mirrors the ANSI support tiers a terminal can advertise.
type colorLevel int

const (
	colorNone colorLevel = iota
	colorBasic
)

var (
	levelOnce sync.Once
	levelVal  colorLevel
)

// detectColorLevel inspects the process environment and os.Stdout's file
// descriptor once per process. NO_COLOR (https://no-color.org/) always
// wins; otherwise color is only enabled when stdout is an actual terminal
// and TERM isn't "dumb".
func detectColorLevel() colorLevel {
	levelOnce.Do(func() {
		levelVal = computeColorLevel()
	})
	return levelVal
}

func computeColorLevel() colorLevel {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return colorNone
	}
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return colorNone
	}
	if os.Getenv("TERM") == "dumb" {
		return colorNone
	}
	return colorBasic
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiDim    = "\x1b[2m"
)

// Logger writes engine diagnostics to Out, one line per error, colorized
// when Out is os.Stdout or os.Stderr and detectColorLevel reports color
// support (a check of stdout, not of Out). RunID tags every line so a
// host aggregating logs from many concurrent Engine runs (§5: an Engine
// itself isn't concurrency-safe, but a process typically drives many of
// them) can tell which run a line belongs to.
type Logger struct {
	Out   io.Writer
	RunID string
}

// New constructs a Logger writing to os.Stderr under the given run ID.
func New(runID string) *Logger {
	return &Logger{Out: os.Stderr, RunID: runID}
}

func (l *Logger) colorEnabled() bool {
	if l.Out != os.Stdout && l.Out != os.Stderr {
		return false
	}
	return detectColorLevel() != colorNone
}

func (l *Logger) paint(code string, msg string) string {
	if !l.colorEnabled() {
		return fmt.Sprintf("[%s] %s: %s", l.RunID, code, msg)
	}
	return fmt.Sprintf("%s[%s]%s %s%s%s: %s", ansiDim, l.RunID, ansiReset, ansiRed, code, ansiReset, msg)
}

// LexErrors writes one line per lexer error.
func (l *Logger) LexErrors(errs []diagnostics.LexError) {
	for _, e := range errs {
		fmt.Fprintln(l.Out, l.paint(e.Code, e.Message))
	}
}

// ParseErrors writes one line per parser error.
func (l *Logger) ParseErrors(errs []diagnostics.ParseError) {
	for _, e := range errs {
		fmt.Fprintln(l.Out, l.paint(e.Code, e.Message))
	}
}

// AnalysisErrors writes one line per analysis error, using yellow instead
// of red for warning-severity diagnostics when color is enabled.
func (l *Logger) AnalysisErrors(errs []diagnostics.AnalysisError) {
	for _, e := range errs {
		if !l.colorEnabled() || e.Severity != diagnostics.SeverityWarning {
			fmt.Fprintln(l.Out, l.paint(e.Code, e.Message))
			continue
		}
		fmt.Fprintf(l.Out, "%s[%s]%s %s%s%s: %s\n", ansiDim, l.RunID, ansiReset, ansiYellow, e.Code, ansiReset, e.Message)
	}
}

// Errors writes one line per generic error, e.g. a PipelineContext's
// merged Errors slice, which interleaves lex/parse/analysis diagnostics
// that have already lost their typed shape.
func (l *Logger) Errors(errs []error) {
	for _, err := range errs {
		if !l.colorEnabled() {
			fmt.Fprintf(l.Out, "[%s] %s\n", l.RunID, err)
			continue
		}
		fmt.Fprintf(l.Out, "%s[%s]%s %s%s%s\n", ansiDim, l.RunID, ansiReset, ansiRed, err, ansiReset)
	}
}

// Summary writes a one-line "N error(s), M warning(s)" tally.
func (l *Logger) Summary(errs []diagnostics.AnalysisError) {
	var critical, warnings int
	for _, e := range errs {
		if e.Severity == diagnostics.SeverityWarning {
			warnings++
		} else {
			critical++
		}
	}
	parts := make([]string, 0, 2)
	if critical > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", critical))
	}
	if warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", warnings))
	}
	if len(parts) == 0 {
		parts = append(parts, "no issues")
	}
	fmt.Fprintf(l.Out, "[%s] %s\n", l.RunID, strings.Join(parts, ", "))
}
