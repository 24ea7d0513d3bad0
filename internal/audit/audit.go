// Package audit records one tamper-evident entry per tool invocation
// attempt, success or failure. Entries are appended before the gateway
// responds and are never mutated or deleted.
package audit

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/flemzord/gatehouse/internal/security"
)

// Outcome is the recorded result of an invocation attempt.
type Outcome string

// Outcome values.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// Entry is a single audit record.
type Entry struct {
	Timestamp  time.Time       `json:"timestamp"`
	RequestID  string          `json:"request_id"`
	Tool       string          `json:"tool"`
	Intent     string          `json:"intent,omitempty"`
	Inputs     json.RawMessage `json:"inputs,omitempty"`
	Result     Outcome         `json:"result"`
	DryRun     bool            `json:"dry_run"`
	DurationMs int64           `json:"duration_ms"`
	Error      string          `json:"error,omitempty"`
}

// Sink is a secondary append-only destination for audit entries.
type Sink interface {
	Append(Entry) error
}

// RecorderConfig configures the audit recorder.
type RecorderConfig struct {
	// Writer is the destination for JSONL output. If nil, entries are only
	// dispatched to Store, OnEntry, and subscribers.
	Writer io.Writer

	// Store, if non-nil, receives every entry in addition to the writer.
	Store Sink

	// Redactor, if non-nil, is applied to the Error field before writing.
	Redactor *security.Redactor

	// OnEntry, if non-nil, is called for every entry (used in tests).
	OnEntry func(Entry)

	// Now overrides time.Now for testing.
	Now func() time.Time
}

// Recorder appends audit entries as JSONL with optional redaction, mirrors
// them into an optional store, and fans them out to live subscribers.
type Recorder struct {
	mu       sync.Mutex
	writer   io.Writer
	store    Sink
	redactor *security.Redactor
	onEntry  func(Entry)
	now      func() time.Time
	subs     map[chan Entry]struct{}
}

// NewRecorder creates an audit recorder with the given configuration.
func NewRecorder(cfg RecorderConfig) *Recorder {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		writer:   cfg.Writer,
		store:    cfg.Store,
		redactor: cfg.Redactor,
		onEntry:  cfg.OnEntry,
		now:      now,
		subs:     make(map[chan Entry]struct{}),
	}
}

// Append records an entry. A zero timestamp is filled in. The write, the
// store append, and subscriber dispatch happen under one lock so entries
// are observed in a single consistent order. The first error encountered
// is returned; the entry is still dispatched everywhere it can be.
func (r *Recorder) Append(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}
	if r.redactor != nil {
		entry.Error = r.redactor.Redact(entry.Error)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	if r.writer != nil {
		if err := json.NewEncoder(r.writer).Encode(entry); err != nil {
			firstErr = err
		}
	}
	if r.store != nil {
		if err := r.store.Append(entry); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.onEntry != nil {
		r.onEntry(entry)
	}
	for ch := range r.subs {
		select {
		case ch <- entry:
		default: // slow subscriber, drop rather than block the gateway
		}
	}
	return firstErr
}

// Subscribe returns a channel receiving future entries and a cancel
// function. Subscribers that fall behind miss entries instead of blocking
// the append path.
func (r *Recorder) Subscribe() (<-chan Entry, func()) {
	ch := make(chan Entry, 64)

	r.mu.Lock()
	r.subs[ch] = struct{}{}
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		delete(r.subs, ch)
		r.mu.Unlock()
	}
	return ch, cancel
}
