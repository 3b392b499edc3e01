package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiGray   = "\x1b[90m"
)

type field struct {
	key   string
	value slog.Value
}

// consoleHandler writes one line per record:
//
//	2026-01-02T15:04:05Z INFO api-server [<request id>]: message key=value
//
// The component and correlation id are lifted out of the attributes into the
// line prefix. Colour is used only when writing straight to a terminal.
type consoleHandler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	source bool
	color  bool
	fields []field
	group  string
}

func newConsoleHandler(w io.Writer, level slog.Leveler, source bool) *consoleHandler {
	return &consoleHandler{
		mu:     &sync.Mutex{},
		w:      w,
		level:  level,
		source: source,
		color:  isTerminal(w),
	}
}

// isTerminal is false for multi-writers so log files never get escape codes.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]field, 0, len(h.fields)+r.NumAttrs())
	fields = append(fields, h.fields...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendField(fields, h.group, a)
		return true
	})

	var component, requestID string
	rest := fields[:0]
	for _, f := range fields {
		switch {
		case f.key == FieldComponent && component == "":
			component = f.value.String()
		case f.key == FieldCorrelationID && requestID == "":
			requestID = f.value.String()
		case f.key == FieldComponent, f.key == FieldCorrelationID:
		default:
			rest = append(rest, f)
		}
	}

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var b strings.Builder
	b.WriteString(ts.UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(h.levelText(r.Level))
	if component != "" {
		b.WriteByte(' ')
		b.WriteString(component)
	}
	if requestID != "" {
		b.WriteString(" [")
		b.WriteString(requestID)
		b.WriteByte(']')
	}
	if component != "" || requestID != "" {
		b.WriteByte(':')
	}
	b.WriteByte(' ')
	if msg := strings.TrimSpace(r.Message); msg != "" {
		b.WriteString(msg)
	} else {
		b.WriteString("(no message)")
	}
	if h.source && r.PC != 0 {
		if src := r.Source(); src != nil {
			b.WriteString(" [")
			b.WriteString(shortSource(src))
			b.WriteByte(']')
		}
	}
	for _, f := range rest {
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(renderValue(f.value))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = append([]field(nil), h.fields...)
	for _, a := range attrs {
		next.fields = appendField(next.fields, h.group, a)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = joinKey(h.group, name)
	return &next
}

func (h *consoleHandler) levelText(level slog.Level) string {
	text := level.String()
	if !h.color {
		return text
	}
	color := ansiGray
	switch {
	case level >= slog.LevelError:
		color = ansiRed
	case level >= slog.LevelWarn:
		color = ansiYellow
	case level >= slog.LevelInfo:
		color = ansiBlue
	}
	return color + text + ansiReset
}

// appendField flattens groups into dotted keys.
func appendField(dst []field, group string, a slog.Attr) []field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	if a.Value.Kind() == slog.KindGroup {
		prefix := group
		if a.Key != "" {
			prefix = joinKey(group, a.Key)
		}
		for _, ga := range a.Value.Group() {
			dst = appendField(dst, prefix, ga)
		}
		return dst
	}
	return append(dst, field{key: joinKey(group, a.Key), value: a.Value})
}

func joinKey(group, key string) string {
	switch {
	case group == "":
		return key
	case key == "":
		return group
	default:
		return group + "." + key
	}
}

func renderValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindTime:
		s = v.Time().UTC().Format(time.RFC3339)
	case slog.KindFloat64:
		s = strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			s = x.Error()
		default:
			s = fmt.Sprint(x)
		}
	default:
		s = v.String()
	}
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
