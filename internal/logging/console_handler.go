package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// consoleHashWidth is how much of a content hash the console shows.
const consoleHashWidth = 12

// consoleSink serialises writes from every handler derived from one root.
type consoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *consoleSink) write(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(line)
	return err
}

type levelStyle struct {
	label string
	color *color.Color
}

// consoleHandler renders one human-readable line per record:
//
//	2024-03-01 12:00:00 INFO imagecache: stored image record_id=3 title="Orion"
type consoleHandler struct {
	sink      *consoleSink
	level     slog.Leveler
	addSource bool
	colorize  bool
	keyColor  *color.Color

	component string
	prefix    string // group path for attributes added from now on
	fields    string // pre-rendered attributes, each with a leading space
}

func newConsoleHandler(w io.Writer, lvl slog.Leveler, addSource, colorize bool) slog.Handler {
	keyColor := color.New(color.FgHiBlack)
	setColor(keyColor, colorize)
	return &consoleHandler{
		sink:      &consoleSink{w: w},
		level:     lvl,
		addSource: addSource,
		colorize:  colorize,
		keyColor:  keyColor,
	}
}

func setColor(c *color.Color, on bool) {
	if on {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	component := h.component
	var attrs strings.Builder
	record.Attrs(func(a slog.Attr) bool {
		if a.Key == FieldComponent && h.prefix == "" {
			component = a.Value.Resolve().String()
			return true
		}
		h.appendAttr(&attrs, h.prefix, a)
		return true
	})

	var line strings.Builder
	line.WriteString(ts.Format(time.DateTime))
	line.WriteByte(' ')
	line.WriteString(h.styleLevel(record.Level))
	line.WriteByte(' ')
	if component != "" {
		line.WriteString(component)
		line.WriteString(": ")
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}
	line.WriteString(msg)
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&line, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	line.WriteString(h.fields)
	line.WriteString(attrs.String())
	line.WriteByte('\n')

	return h.sink.write([]byte(line.String()))
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	var b strings.Builder
	b.WriteString(h.fields)
	for _, a := range attrs {
		if a.Key == FieldComponent && h.prefix == "" {
			next.component = a.Value.Resolve().String()
			continue
		}
		h.appendAttr(&b, h.prefix, a)
	}
	next.fields = b.String()
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = joinKey(h.prefix, name)
	return &next
}

func (h *consoleHandler) appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = joinKey(prefix, a.Key)
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(b, inner, ga)
		}
		return
	}
	key := joinKey(prefix, a.Key)
	if key == "" {
		return
	}
	b.WriteByte(' ')
	b.WriteString(h.keyColor.Sprint(key + "="))
	b.WriteString(renderValue(a.Key, a.Value))
}

func (h *consoleHandler) styleLevel(level slog.Level) string {
	style := styleFor(level)
	if !h.colorize {
		return style.label
	}
	setColor(style.color, true)
	return style.color.Sprint(style.label)
}

func styleFor(level slog.Level) levelStyle {
	switch {
	case level >= slog.LevelError:
		return levelStyle{"ERROR", color.New(color.FgRed, color.Bold)}
	case level >= slog.LevelWarn:
		return levelStyle{"WARN", color.New(color.FgYellow)}
	case level >= slog.LevelInfo:
		return levelStyle{"INFO", color.New(color.FgCyan)}
	default:
		return levelStyle{"DEBUG", color.New(color.FgHiBlack)}
	}
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

// renderValue formats v for the console. Content hashes are shortened since
// the full digest is available from the index and the JSON output.
func renderValue(key string, v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
		if key == FieldContentHash && len(s) > consoleHashWidth {
			s = s[:consoleHashWidth]
		}
	case slog.KindInt64, slog.KindUint64, slog.KindFloat64, slog.KindBool, slog.KindDuration:
		return v.String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		if err, ok := v.Any().(error); ok {
			s = err.Error()
		} else {
			s = fmt.Sprint(v.Any())
		}
	}
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
