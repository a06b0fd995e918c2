package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// consoleFieldLimit caps the fields listed under info and higher lines.
// Debug lines list everything.
const consoleFieldLimit = 6

// field is a flattened attribute with its group path folded into the key.
type field struct {
	key   string
	value slog.Value
}

// consoleSink serializes writes from every handler derived from one logger.
type consoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *consoleSink) write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(p)
	return err
}

// consoleHandler prints a one-line header followed by an indented field
// list. Component, run and playlist attributes move into the header.
type consoleHandler struct {
	sink      *consoleSink
	level     *slog.LevelVar
	addSource bool
	group     string
	bound     []field
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{sink: &consoleSink{w: w}, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.bound = appendFields(append([]field(nil), h.bound...), h.group, attrs)
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

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	fields := append([]field(nil), h.bound...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendFields(fields, h.group, []slog.Attr{attr})
		return true
	})
	fields = lastValueWins(fields)

	var component, runID, playlist string
	listed := fields[:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = plainValue(f.value)
		case FieldRunID:
			runID = plainValue(f.value)
		case FieldPlaylist:
			playlist = plainValue(f.value)
		default:
			listed = append(listed, f)
		}
	}

	var b strings.Builder
	b.WriteString(consoleTime(record.Time))
	b.WriteByte(' ')
	b.WriteString(levelName(record.Level))
	if component != "" {
		fmt.Fprintf(&b, " [%s]", component)
	}
	if runID != "" {
		fmt.Fprintf(&b, " run %.8s", runID)
	}
	if playlist != "" {
		fmt.Fprintf(&b, " (%s)", playlist)
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}
	b.WriteString(": ")
	b.WriteString(message)
	if h.addSource {
		if src := shortSource(record.Source()); src != "" {
			fmt.Fprintf(&b, " [%s]", src)
		}
	}
	b.WriteByte('\n')

	shown := listed
	if record.Level >= slog.LevelInfo && len(shown) > consoleFieldLimit {
		shown = shown[:consoleFieldLimit]
	}
	for _, f := range shown {
		fmt.Fprintf(&b, "    - %s: %s\n", f.key, fieldValue(f.value))
	}
	switch hidden := len(listed) - len(shown); {
	case hidden == 1:
		b.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		fmt.Fprintf(&b, "    + %d more fields hidden\n", hidden)
	}

	return h.sink.write([]byte(b.String()))
}

func appendFields(dst []field, group string, attrs []slog.Attr) []field {
	for _, attr := range attrs {
		if attr.Equal(slog.Attr{}) {
			continue
		}
		value := attr.Value.Resolve()
		if value.Kind() == slog.KindGroup {
			// Inline groups (empty key) keep the enclosing prefix.
			dst = appendFields(dst, joinKey(group, attr.Key), value.Group())
			continue
		}
		if attr.Key == "" {
			continue
		}
		dst = append(dst, field{key: joinKey(group, attr.Key), value: value})
	}
	return dst
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

// lastValueWins collapses repeated keys onto the first position, keeping the
// most recent value.
func lastValueWins(fields []field) []field {
	if len(fields) < 2 {
		return fields
	}
	index := make(map[string]int, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if i, ok := index[f.key]; ok {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	}
	return "DEBUG"
}
