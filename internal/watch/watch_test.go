package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunReportsChangedScripts(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "a.own")
	if err := os.WriteFile(script, []byte("fn main() {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	w, err := New([]string{dir}, ".own", 20*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	batches := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(paths []string) {
			batches <- paths
			cancel()
		})
	}()

	// Non-script writes are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(script, []byte("fn main() { let x = 1; }\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-batches:
		if len(got) != 1 || got[0] != script {
			t.Fatalf("batch = %v, want [%s]", got, script)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	<-done
}

func TestNewMissingPath(t *testing.T) {
	if _, err := New([]string{filepath.Join(t.TempDir(), "missing")}, ".own", 0, nil); err == nil {
		t.Fatal("expected error")
	}
}
