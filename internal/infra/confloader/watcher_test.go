package confloader

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// recorder collects change notifications.
type recorder struct {
	mu    sync.Mutex
	paths []string
	ch    chan string
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan string, 16)}
}

func (r *recorder) record(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.ch <- path
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func (r *recorder) wait(t *testing.T, timeout time.Duration) string {
	t.Helper()
	select {
	case p := <-r.ch:
		return p
	case <-time.After(timeout):
		t.Fatal("no change reported")
		return ""
	}
}

func startWatcher(t *testing.T, path string, opts ...WatcherOption) (*Watcher, *recorder) {
	t.Helper()
	w, err := NewWatcher(opts...)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	t.Cleanup(func() { w.Stop() })

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	rec := newRecorder()
	w.OnChange(rec.record)
	w.StartAsync()
	return w, rec
}

func TestWatcher_Watch_MissingDir(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	if err := w.Watch(filepath.Join(t.TempDir(), "missing", "cli.yaml")); err == nil {
		t.Error("Watch() expected error for missing directory")
	}
}

func TestWatcher_ReportsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte("output: table\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, rec := startWatcher(t, path, WithSettle(10*time.Millisecond))

	if err := os.WriteFile(path, []byte("output: json\n"), 0600); err != nil {
		t.Fatal(err)
	}
	got := rec.wait(t, 2*time.Second)

	want, _ := filepath.Abs(path)
	if got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestWatcher_FileCreatedLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	_, rec := startWatcher(t, path, WithSettle(0))

	if err := os.WriteFile(path, []byte("server: http://localhost\n"), 0600); err != nil {
		t.Fatal(err)
	}
	rec.wait(t, 2*time.Second)
}

func TestWatcher_ReplacedByRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cli.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: warn\n"), 0600); err != nil {
		t.Fatal(err)
	}
	_, rec := startWatcher(t, path, WithSettle(10*time.Millisecond))

	tmp := filepath.Join(dir, ".cli.yaml.swp")
	if err := os.WriteFile(tmp, []byte("log:\n  level: debug\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	rec.wait(t, 2*time.Second)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cli.yaml")
	_, rec := startWatcher(t, path, WithSettle(0))

	if err := os.WriteFile(filepath.Join(dir, "history"), []byte("list\n"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := rec.count(); n != 0 {
		t.Errorf("callbacks = %d, want 0 for an unwatched file", n)
	}
}

func TestWatcher_CoalescesBursts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, nil, 0600); err != nil {
		t.Fatal(err)
	}
	_, rec := startWatcher(t, path, WithSettle(150*time.Millisecond))

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte{byte('a' + i)}, 0600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	rec.wait(t, 2*time.Second)
	time.Sleep(300 * time.Millisecond)

	if n := rec.count(); n != 1 {
		t.Errorf("callbacks = %d, want one per burst", n)
	}
}

func TestWatcher_StopDropsPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	w, rec := startWatcher(t, path, WithSettle(200*time.Millisecond))

	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	if n := rec.count(); n != 0 {
		t.Errorf("callbacks = %d after Stop, want 0", n)
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("first Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatcher_MultipleCallbacks(t *testing.T) {
	w, err := NewWatcher(WithSettle(0))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	var mu sync.Mutex
	calls := 0
	for i := 0; i < 3; i++ {
		w.OnChange(func(string) {
			mu.Lock()
			calls++
			mu.Unlock()
		})
	}
	w.notify("/tmp/cli.yaml")

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}
