package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogEntry is one JSON log line. Dispatch identifiers are lifted out of Fields so log
// pipelines can index them without parsing nested objects.
type LogEntry struct {
	Level     string         `json:"level"`
	Timestamp string         `json:"timestamp"`
	Component string         `json:"component,omitempty"`
	Channel   string         `json:"channel,omitempty"`
	PeerID    int64          `json:"peer_id,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
	Caller    string         `json:"caller,omitempty"`
}

type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lineWriter) writeLine(line []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.w.Write(append(line, '\n'))
	return err
}

// entryHandler renders records as LogEntry lines. Attributes added through WithAttrs are
// folded into base and fields once, not per record.
type entryHandler struct {
	level     slog.Level
	addSource bool
	out       *lineWriter

	base   LogEntry
	fields map[string]any
	prefix string
}

func newEntryHandler(w io.Writer, s settings) *entryHandler {
	return &entryHandler{level: s.level, addSource: s.addSource, out: &lineWriter{w: w}}
}

func (h *entryHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *entryHandler) Handle(_ context.Context, record slog.Record) error {
	at := record.Time
	if at.IsZero() {
		at = time.Now()
	}

	entry := h.base
	entry.Level = strings.ToLower(record.Level.String())
	entry.Timestamp = at.UTC().Format(time.RFC3339Nano)
	entry.Message = record.Message

	fields := maps.Clone(h.fields)
	record.Attrs(func(attr slog.Attr) bool {
		fields = collect(&entry, fields, h.prefix, attr)
		return true
	})
	if len(fields) > 0 {
		entry.Fields = fields
	}

	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			entry.Caller = fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line)
		}
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return h.out.writeLine(line)
}

func (h *entryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = maps.Clone(h.fields)
	for _, attr := range attrs {
		next.fields = collect(&next.base, next.fields, h.prefix, attr)
	}

	return &next
}

// WithGroup qualifies attributes added after it; earlier ones keep their keys.
func (h *entryHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// collect promotes attr onto entry or stores it in fields under its qualified key, and
// returns fields, allocating it on first use.
func collect(entry *LogEntry, fields map[string]any, prefix string, attr slog.Attr) map[string]any {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return fields
	}

	if attr.Key == "" && attr.Value.Kind() == slog.KindGroup {
		for _, inner := range attr.Value.Group() {
			fields = collect(entry, fields, prefix, inner)
		}
		return fields
	}

	key := prefix + attr.Key
	if promote(entry, key, attr.Value) {
		return fields
	}

	if fields == nil {
		fields = make(map[string]any)
	}
	fields[key] = jsonValue(attr.Value)
	return fields
}

func promote(entry *LogEntry, key string, value slog.Value) bool {
	switch {
	case key == "component" && value.Kind() == slog.KindString:
		entry.Component = value.String()
	case key == "channel" && value.Kind() == slog.KindString:
		entry.Channel = value.String()
	case key == "request_id" && value.Kind() == slog.KindString:
		entry.RequestID = value.String()
	case key == "peer_id" && value.Kind() == slog.KindInt64:
		entry.PeerID = value.Int64()
	default:
		return false
	}

	return true
}

// jsonValue converts a resolved value to something encoding/json renders readably.
func jsonValue(value slog.Value) any {
	switch value.Kind() {
	case slog.KindDuration:
		return value.Duration().String()
	case slog.KindTime:
		return value.Time().UTC().Format(time.RFC3339Nano)
	case slog.KindGroup:
		group := make(map[string]any, len(value.Group()))
		for _, attr := range value.Group() {
			group[attr.Key] = jsonValue(attr.Value.Resolve())
		}
		return group
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return err.Error()
		}
		return value.Any()
	default:
		return value.Any()
	}
}
