package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/variational-research/variational-go/pkg/variational/polling"
)

// Entry is one recorded poll attempt.
type Entry struct {
	At         time.Time `msgpack:"at"`
	ObjectType string    `msgpack:"object_type"`
	ObjectID   string    `msgpack:"object_id"`
	Attempt    int       `msgpack:"attempt"`
	Status     string    `msgpack:"status,omitempty"`
	Outcome    string    `msgpack:"outcome"`
}

func entryFrom(obs polling.Observation) Entry {
	return Entry{
		At:         obs.At.UTC(),
		ObjectType: obs.ObjectType,
		ObjectID:   obs.ObjectID,
		Attempt:    obs.Attempt,
		Status:     obs.Status,
		Outcome:    string(obs.Outcome),
	}
}

// Writer appends entries to a msgpack stream. It implements polling.Observer
// and is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	enc    *msgpack.Encoder
	closer io.Closer
	path   string
}

// NewWriter creates dir if needed and opens a new timestamped journal file in it.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "journal"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create %s: %w", dir, err)
	}
	name := fmt.Sprintf("polls_%s_%d.msgpack", time.Now().UTC().Format("20060102_150405"), os.Getpid())
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	return &Writer{enc: msgpack.NewEncoder(f), closer: f, path: path}, nil
}

// NewStreamWriter writes to w; closing the Writer does not close w.
func NewStreamWriter(w io.Writer) *Writer {
	return &Writer{enc: msgpack.NewEncoder(w)}
}

// Path is the journal file, or "" for stream writers.
func (w *Writer) Path() string { return w.path }

func (w *Writer) Write(e Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.enc == nil {
		return errors.New("journal: writer closed")
	}
	if err := w.enc.Encode(&e); err != nil {
		return fmt.Errorf("journal: encode: %w", err)
	}
	return nil
}

// Observe records a poll observation. Write failures are logged, never
// surfaced to the poller.
func (w *Writer) Observe(ctx context.Context, obs polling.Observation) {
	if err := w.Write(entryFrom(obs)); err != nil {
		logx.WithContext(ctx).Errorf("journal: record %s '%s': %v", obs.ObjectType, obs.ObjectID, err)
	}
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enc = nil
	if w.closer == nil {
		return nil
	}
	err := w.closer.Close()
	w.closer = nil
	return err
}

// ReadAll decodes every entry in r.
func ReadAll(r io.Reader) ([]Entry, error) {
	dec := msgpack.NewDecoder(r)
	var out []Entry
	for {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("journal: decode entry %d: %w", len(out), err)
		}
		out = append(out, e)
	}
}

// ReadFile decodes a journal written by NewWriter.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadAll(f)
}
