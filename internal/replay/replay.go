// Package replay stores the ownership event log of a run so it can be
// inspected or stepped through later without re-running the program.
package replay

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"ownlab/internal/own"
	"ownlab/internal/version"
)

// SchemaVersion must be incremented whenever Recording changes shape.
const SchemaVersion uint16 = 1

// Ext is the conventional recording file extension.
const Ext = ".mp"

var (
	// ErrSchema is returned for recordings written by an incompatible version.
	ErrSchema = errors.New("replay: unsupported schema")
	// ErrCorrupt is returned when the event sequence is not well formed.
	ErrCorrupt = errors.New("replay: corrupt recording")
)

// Header describes where a recording came from.
type Header struct {
	Schema     uint16    `msgpack:"schema"`
	Session    string    `msgpack:"session"`
	Tool       string    `msgpack:"tool"`
	Source     string    `msgpack:"source"`
	SourceHash [32]byte  `msgpack:"source_hash"`
	Created    time.Time `msgpack:"created"`
	// Outcome is "ok" or the diagnostic code that stopped the run.
	Outcome string `msgpack:"outcome"`
}

// Recording is a header followed by every event of one run in order.
type Recording struct {
	Header Header      `msgpack:"header"`
	Events []own.Event `msgpack:"events"`
}

// Recorder is an own.EventSink that collects events for a Recording.
type Recorder struct {
	header Header
	events []own.Event
}

// NewRecorder starts a recording session for the named source.
func NewRecorder(source string, hash [32]byte) *Recorder {
	return &Recorder{header: Header{
		Schema:     SchemaVersion,
		Session:    uuid.NewString(),
		Tool:       version.Version,
		Source:     source,
		SourceHash: hash,
		Created:    time.Now().UTC(),
	}}
}

func (r *Recorder) Record(ev own.Event) {
	r.events = append(r.events, ev)
}

// Session returns the session id of the recording.
func (r *Recorder) Session() string { return r.header.Session }

// Finish seals the recording with the outcome of the run.
func (r *Recorder) Finish(runErr error) *Recording {
	h := r.header
	h.Outcome = "ok"
	if runErr != nil {
		if code := own.CodeOf(runErr); code != 0 {
			h.Outcome = code.ID()
		} else {
			h.Outcome = "error"
		}
	}
	return &Recording{Header: h, Events: append([]own.Event(nil), r.events...)}
}

// Encode writes rec to w.
func Encode(w io.Writer, rec *Recording) error {
	return msgpack.NewEncoder(w).Encode(rec)
}

// Decode reads and validates a recording from r.
func Decode(r io.Reader) (*Recording, error) {
	var rec Recording
	if err := msgpack.NewDecoder(r).Decode(&rec); err != nil {
		return nil, fmt.Errorf("replay: decode: %w", err)
	}
	if err := Validate(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Write stores rec at path, replacing any existing file atomically.
func Write(path string, rec *Recording) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "tmp-*"+Ext)
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()
	if err := Encode(f, rec); err != nil {
		_ = f.Close()
		return fmt.Errorf("replay: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Read loads and validates the recording at path.
func Read(path string) (*Recording, error) {
	// #nosec G304 -- path is provided by the caller
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Validate checks the schema, the session id and the event order.
func Validate(rec *Recording) error {
	if rec == nil {
		return fmt.Errorf("%w: nil recording", ErrCorrupt)
	}
	if rec.Header.Schema != SchemaVersion {
		return fmt.Errorf("%w: schema %d, want %d", ErrSchema, rec.Header.Schema, SchemaVersion)
	}
	if _, err := uuid.Parse(rec.Header.Session); err != nil {
		return fmt.Errorf("%w: session id: %w", ErrCorrupt, err)
	}
	var prev uint64
	for i, ev := range rec.Events {
		if ev.Seq <= prev {
			return fmt.Errorf("%w: event %d has seq %d after %d", ErrCorrupt, i, ev.Seq, prev)
		}
		prev = ev.Seq
		if ev.Kind < own.EvCreate || ev.Kind > own.EvReject {
			return fmt.Errorf("%w: event %d has unknown kind %d", ErrCorrupt, i, ev.Kind)
		}
	}
	return nil
}

// Summary counts the events of a recording by kind.
type Summary struct {
	Events  int
	Counts  map[own.EventKind]int
	Live    int // values allocated but never released or dropped
	Rejects int
}

// Summarize tallies rec.Events.
func Summarize(rec *Recording) Summary {
	s := Summary{Events: len(rec.Events), Counts: make(map[own.EventKind]int)}
	for _, ev := range rec.Events {
		s.Counts[ev.Kind]++
		switch ev.Kind {
		case own.EvCreate, own.EvClone:
			s.Live++
		case own.EvRelease, own.EvDrop:
			s.Live--
		case own.EvReject:
			s.Rejects++
		}
	}
	return s
}
