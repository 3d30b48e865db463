package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"apod/internal/config"
)

// LogFileName is the file written inside the configured log directory.
const LogFileName = "apod.log"

// Options describes logger construction parameters.
type Options struct {
	// Level is one of debug, info, warn or error. Anything else means info.
	Level string
	// Format is "console" (default) or "json".
	Format string
	// OutputPaths lists "stdout", "stderr" or file paths. Empty means stderr.
	OutputPaths []string
	// Color forces level colors on or off. When nil, colors are used only
	// when every output is a terminal.
	Color *bool
}

// New constructs a slog logger using the provided options. Debug level also
// enables caller information.
func New(opts Options) (*slog.Logger, error) {
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	if format != "console" && format != "json" {
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	out, err := openOutputs(opts.OutputPaths)
	if err != nil {
		return nil, err
	}

	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))
	withSource := level.Level() <= slog.LevelDebug

	if format == "json" {
		return slog.New(newJSONHandler(out.writer(), level, withSource)), nil
	}
	colorize := out.allTerminals
	if opts.Color != nil {
		colorize = *opts.Color
	}
	return slog.New(newConsoleHandler(out.writer(), level, withSource, colorize)), nil
}

// NewFromConfig builds the application logger. Log lines go to stderr so that
// command output on stdout stays machine-readable; a configured log directory
// additionally receives LogFileName.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{})
	}
	paths := []string{"stderr"}
	if dir := strings.TrimSpace(cfg.Paths.LogDir); dir != "" {
		paths = append(paths, filepath.Join(dir, LogFileName))
	}
	return New(Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: paths,
	})
}

func parseLevel(level string) slog.Level {
	var lvl slog.Level
	name := strings.TrimSpace(level)
	if strings.EqualFold(name, "warning") {
		name = "warn"
	}
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

type outputs struct {
	writers      []io.Writer
	allTerminals bool
}

func (o outputs) writer() io.Writer {
	if len(o.writers) == 1 {
		return o.writers[0]
	}
	return io.MultiWriter(o.writers...)
}

// openOutputs resolves each target once. Files are opened for append and
// their parent directory is created on demand.
func openOutputs(paths []string) (outputs, error) {
	out := outputs{allTerminals: true}
	seen := make(map[string]bool, len(paths))
	for _, raw := range paths {
		target := strings.TrimSpace(raw)
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true

		var f *os.File
		switch target {
		case "stdout":
			f = os.Stdout
		case "stderr":
			f = os.Stderr
		default:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return outputs{}, fmt.Errorf("create log directory for %s: %w", target, err)
			}
			file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return outputs{}, fmt.Errorf("open log file %s: %w", target, err)
			}
			out.writers = append(out.writers, file)
			out.allTerminals = false
			continue
		}
		out.writers = append(out.writers, f)
		out.allTerminals = out.allTerminals && isTerminal(f)
	}
	if len(out.writers) == 0 {
		out.writers = []io.Writer{os.Stderr}
		out.allTerminals = isTerminal(os.Stderr)
	}
	return out, nil
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
