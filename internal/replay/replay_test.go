package replay

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ownlab/internal/diag"
	"ownlab/internal/own"
)

func sampleRecording(t *testing.T) *Recording {
	t.Helper()
	rec := NewRecorder("lesson:ch4", [32]byte{1, 2, 3})
	tr := own.NewTracker(own.WithSink(rec))
	root := tr.Root()
	s, err := root.Create("s", "hello")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := root.Move("t", s); err != nil {
		t.Fatalf("move: %v", err)
	}
	_, readErr := s.Text()
	if readErr == nil {
		t.Fatalf("expected use after move")
	}
	if err := root.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return rec.Finish(readErr)
}

func TestWriteReadRoundTrip(t *testing.T) {
	rec := sampleRecording(t)
	path := filepath.Join(t.TempDir(), "nested", "run"+Ext)
	if err := Write(path, rec); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Header.Outcome != diag.OwnUseAfterMove.ID() {
		t.Errorf("outcome = %q", got.Header.Outcome)
	}
	if !got.Header.Created.Equal(rec.Header.Created) {
		t.Errorf("created = %v, want %v", got.Header.Created, rec.Header.Created)
	}
	got.Header.Created = rec.Header.Created
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "tmp-*"))
	if len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Recording)
		want   error
	}{
		{"schema", func(r *Recording) { r.Header.Schema = SchemaVersion + 1 }, ErrSchema},
		{"session", func(r *Recording) { r.Header.Session = "not-a-uuid" }, ErrCorrupt},
		{"order", func(r *Recording) { r.Events[1].Seq = r.Events[0].Seq }, ErrCorrupt},
		{"kind", func(r *Recording) { r.Events[0].Kind = 0 }, ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sampleRecording(t)
			tt.mutate(rec)
			if err := Validate(rec); !errors.Is(err, tt.want) {
				t.Fatalf("Validate = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeValidates(t *testing.T) {
	rec := sampleRecording(t)
	rec.Header.Schema = 0
	var buf bytes.Buffer
	if err := Encode(&buf, rec); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := Decode(&buf); !errors.Is(err, ErrSchema) {
		t.Fatalf("Decode = %v, want ErrSchema", err)
	}
}

func TestSummarize(t *testing.T) {
	rec := sampleRecording(t)
	sum := Summarize(rec)
	if sum.Counts[own.EvCreate] != 1 || sum.Counts[own.EvMove] != 1 {
		t.Errorf("unexpected counts: %v", sum.Counts)
	}
	if sum.Rejects != 1 {
		t.Errorf("rejects = %d, want 1", sum.Rejects)
	}
	if sum.Live != 0 {
		t.Errorf("live = %d, want 0", sum.Live)
	}
	if sum.Events != len(rec.Events) {
		t.Errorf("events = %d, want %d", sum.Events, len(rec.Events))
	}
}

func TestRecorderSessionsAreUnique(t *testing.T) {
	a := NewRecorder("a", [32]byte{})
	b := NewRecorder("a", [32]byte{})
	if a.Session() == b.Session() {
		t.Fatalf("session ids collide: %s", a.Session())
	}
	if rec := a.Finish(nil); rec.Header.Outcome != "ok" || len(rec.Events) != 0 {
		t.Fatalf("unexpected empty recording: %+v", rec.Header)
	}
}
