package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// LogRecord is one captured log call. Attribute values are resolved, so
// slog.Int attributes appear as int64.
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// BufferedSlogHandler keeps every record in memory. Handlers derived with
// WithAttrs or WithGroup write into the same buffer as their parent, so a
// component logger built with logger.With(...) is still observable.
type BufferedSlogHandler struct {
	store *logStore
	attrs []slog.Attr
	group string
}

type logStore struct {
	mu      sync.Mutex
	records []LogRecord
}

func NewBufferedSlogHandler(t *testing.T) *BufferedSlogHandler {
	t.Helper()
	return &BufferedSlogHandler{store: &logStore{}}
}

// NewTestLogger returns a logger backed by a fresh BufferedSlogHandler.
func NewTestLogger(t *testing.T) (*slog.Logger, *BufferedSlogHandler) {
	h := NewBufferedSlogHandler(t)
	return slog.New(h), h
}

func (h *BufferedSlogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *BufferedSlogHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Resolve().Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		key := a.Key
		if h.group != "" {
			key = h.group + "." + key
		}
		attrs[key] = a.Value.Resolve().Any()
		return true
	})

	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.store.records = append(h.store.records, LogRecord{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	return nil
}

func (h *BufferedSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &BufferedSlogHandler{store: h.store, attrs: merged, group: h.group}
}

// WithGroup flattens grouped record attributes to "group.key".
func (h *BufferedSlogHandler) WithGroup(name string) slog.Handler {
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &BufferedSlogHandler{store: h.store, attrs: h.attrs, group: group}
}

// Records returns a copy of the captured records. With levels given, only
// records at one of those levels are returned.
func (h *BufferedSlogHandler) Records(levels ...slog.Level) []LogRecord {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()

	out := make([]LogRecord, 0, len(h.store.records))
	for _, r := range h.store.records {
		if len(levels) == 0 || containsLevel(levels, r.Level) {
			out = append(out, r)
		}
	}
	return out
}

// ContainsMessage reports whether any record's message contains substr.
func (h *BufferedSlogHandler) ContainsMessage(substr string) bool {
	for _, r := range h.Records() {
		if strings.Contains(r.Message, substr) {
			return true
		}
	}
	return false
}

// ContainsAttr reports whether any record carries key with value. Values
// are compared as slog values, so 418 matches an slog.Int("status", 418).
func (h *BufferedSlogHandler) ContainsAttr(key string, value any) bool {
	want := slog.AnyValue(value)
	for _, r := range h.Records() {
		if got, ok := r.Attrs[key]; ok && slog.AnyValue(got).Equal(want) {
			return true
		}
	}
	return false
}

func (h *BufferedSlogHandler) Clear() {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.store.records = nil
}

func (h *BufferedSlogHandler) Count() int {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return len(h.store.records)
}

// dump renders the captured records for failure messages.
func (h *BufferedSlogHandler) dump() string {
	var b strings.Builder
	for _, r := range h.Records() {
		b.WriteString("\n  ")
		b.WriteString(r.Level.String())
		b.WriteString(" ")
		b.WriteString(r.Message)
		for k, v := range r.Attrs {
			b.WriteString(" ")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(slog.AnyValue(v).String())
		}
	}
	return b.String()
}

// AssertLogContains fails t unless a record at level contains message.
func AssertLogContains(t *testing.T, h *BufferedSlogHandler, level slog.Level, message string) bool {
	t.Helper()
	for _, r := range h.Records(level) {
		if strings.Contains(r.Message, message) {
			return true
		}
	}
	return assert.Fail(t, "log message not found",
		"want %s %q, captured:%s", level, message, h.dump())
}

// AssertLogAttr fails t unless some record carries key=value.
func AssertLogAttr(t *testing.T, h *BufferedSlogHandler, key string, value any) bool {
	t.Helper()
	if h.ContainsAttr(key, value) {
		return true
	}
	return assert.Fail(t, "log attribute not found",
		"want %s=%v, captured:%s", key, value, h.dump())
}

// AssertNoErrors fails t if anything was logged at error level.
func AssertNoErrors(t *testing.T, h *BufferedSlogHandler) bool {
	t.Helper()
	if errs := h.Records(slog.LevelError); len(errs) > 0 {
		return assert.Fail(t, "unexpected error logs", "captured:%s", h.dump())
	}
	return true
}

func containsLevel(levels []slog.Level, l slog.Level) bool {
	for _, lv := range levels {
		if lv == l {
			return true
		}
	}
	return false
}
