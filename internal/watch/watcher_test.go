package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	changes [][]string
}

func (r *recorder) record(files []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, files)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

// waitFor polls until cond holds or the deadline passes
func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestFileWatcher_DetectsChanges(t *testing.T) {
	tmpDir := t.TempDir()
	template := filepath.Join(tmpDir, "greeting.txt")
	other := filepath.Join(tmpDir, "other.txt")
	if err := os.WriteFile(template, []byte("hello {name}"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	rec := &recorder{}
	watcher, err := NewFileWatcher([]string{template}, rec.record, WithDebounce(30*time.Millisecond))
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	// Files outside the watched set are ignored
	if err := os.WriteFile(other, []byte("noise"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(template, []byte("goodbye {name}"), 0644); err != nil {
		t.Fatalf("Failed to modify file: %v", err)
	}

	if !waitFor(t, func() bool { return rec.count() > 0 }) {
		t.Fatal("Expected changes to be detected")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for _, batch := range rec.changes {
		for _, file := range batch {
			if filepath.Base(file) != "greeting.txt" {
				t.Errorf("unexpected file reported: %s", file)
			}
		}
	}
}

func TestFileWatcher_IgnoresIdenticalContent(t *testing.T) {
	tmpDir := t.TempDir()
	template := filepath.Join(tmpDir, "same.txt")
	if err := os.WriteFile(template, []byte("{x}"), 0644); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	watcher, err := NewFileWatcher([]string{template}, rec.record, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()
	if err := watcher.Start(); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(template, []byte("{x}"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)

	if n := rec.count(); n != 0 {
		t.Errorf("expected an unchanged save to be ignored, got %d callbacks", n)
	}
}

func TestFileWatcher_Errors(t *testing.T) {
	if _, err := NewFileWatcher(nil, func([]string) error { return nil }); err == nil {
		t.Error("expected an error with no files")
	}

	watcher, err := NewFileWatcher([]string{filepath.Join(t.TempDir(), "missing.txt")}, func([]string) error { return nil })
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	defer watcher.Stop()

	if err := watcher.Start(); err == nil {
		t.Error("expected Start to fail for a missing file")
	}
}

func TestFileWatcher_Stop(t *testing.T) {
	file := filepath.Join(t.TempDir(), "t.txt")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	watcher, err := NewFileWatcher([]string{file}, func(files []string) error { return nil })
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	if err := watcher.Start(); err != nil {
		t.Fatalf("Failed to start watcher: %v", err)
	}

	if err := watcher.Stop(); err != nil {
		t.Errorf("Stop() returned error: %v", err)
	}
	// Second stop is a no-op
	if err := watcher.Stop(); err != nil {
		t.Errorf("second Stop() returned error: %v", err)
	}
}

func TestDebouncer_Add(t *testing.T) {
	var mu sync.Mutex
	var calls [][]string

	debouncer := NewDebouncer(30 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, f)
	})

	debouncer.Add("b.txt")
	debouncer.Add("a.txt")
	debouncer.Add("b.txt")

	if !waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return len(calls) > 0 }) {
		t.Fatal("Expected callback to be called")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls[0]) != 2 || calls[0][0] != "a.txt" || calls[0][1] != "b.txt" {
		t.Errorf("Expected sorted unique files, got %v", calls[0])
	}
}

func TestDebouncer_MultipleFlushes(t *testing.T) {
	var mu sync.Mutex
	var callCount int

	debouncer := NewDebouncer(20 * time.Millisecond)
	debouncer.SetCallback(func(f []string) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
	})

	debouncer.Add("file1.txt")
	time.Sleep(80 * time.Millisecond)
	debouncer.Add("file2.txt")
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if callCount != 2 {
		t.Errorf("Expected 2 callback calls, got %d", callCount)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	var mu sync.Mutex
	called := false

	debouncer := NewDebouncer(20 * time.Millisecond)
	debouncer.SetCallback(func([]string) {
		mu.Lock()
		defer mu.Unlock()
		called = true
	})

	debouncer.Add("file.txt")
	debouncer.Stop()
	debouncer.Add("later.txt")
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if called {
		t.Error("Expected no callback after Stop")
	}
}

func BenchmarkDebouncer_Add(b *testing.B) {
	debouncer := NewDebouncer(100 * time.Millisecond)
	debouncer.SetCallback(func(files []string) {})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		debouncer.Add("file.txt")
	}
}
