// Package journal provides a JSONL record of the change sets applied to the
// store. Every batch, whether it committed or failed, is appended as one
// structured event so the history of the store can be audited and tailed.
package journal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Event kinds identify the type of journal event.
const (
	KindChangeSetApplied = "changeset_applied"
	KindChangeSetFailed  = "changeset_failed"
	KindStoreRebalanced  = "store_rebalanced"
)

// Event is a single journal record. Types lists the change types of the
// batch in order; Failed is the index of the change that aborted it.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	Changes   int       `json:"changes,omitempty"`
	Types     []string  `json:"types,omitempty"`
	Failed    *int      `json:"failed,omitempty"`
	Error     string    `json:"error,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter appends journal events to a JSONL file. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
}

// NewEmitter opens the journal at path for appending, creating the file and
// its directory if needed.
func NewEmitter(path string) (*Emitter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal: create dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	return &Emitter{
		file: f,
		enc:  json.NewEncoder(f),
	}, nil
}

// Emit writes a single event. A zero Timestamp is set to the current time.
// Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("journal: encode event: %w", err)
	}
	return nil
}

// Close closes the underlying file. Calling Close on a nil Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("journal: close: %w", err)
	}
	return nil
}

// ErrMalformed marks a journal line that is not a valid event.
var ErrMalformed = errors.New("journal: malformed line")

// Decode parses one JSONL line.
func Decode(line []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(line, &evt); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if evt.Kind == "" {
		return Event{}, fmt.Errorf("%w: missing kind", ErrMalformed)
	}
	return evt, nil
}

// Scan calls fn for every line in r, passing the decoded event or the decode
// error. Blank lines are skipped. Scan stops early when fn returns an error.
func Scan(r io.Reader, fn func(Event, error) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(Decode(line)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("journal: read: %w", err)
	}
	return nil
}
