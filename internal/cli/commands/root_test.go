package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
)

// syncBuffer is a bytes.Buffer safe for the watch goroutine to write to
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type result struct {
	stdout string
	stderr string
	err    error
}

// inTempDir runs the test from an empty directory so no fyeah.yaml is picked up
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	oldWd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(oldWd) })
	return dir
}

func testApp() *app {
	return &app{
		ask: func(name string) (string, error) {
			return "", errors.New("unexpected prompt for " + name)
		},
	}
}

func run(ctx context.Context, a *app, stdin string, args ...string) result {
	cmd := newRootCommand(a)
	var stdout, stderr syncBuffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--no-color"}, args...))

	err := cmd.ExecuteContext(ctx)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func runCLI(t *testing.T, args ...string) result {
	t.Helper()
	return run(context.Background(), testApp(), "", args...)
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "fyeah" {
		t.Errorf("expected Use to be 'fyeah', got %s", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("expected Short description to be set")
	}

	if cmd.Long == "" {
		t.Error("expected Long description to be set")
	}

	// Check subcommands are registered
	expectedCommands := []string{
		"version",
		"render",
		"check",
		"repl",
		"completion",
	}

	for _, expected := range expectedCommands {
		found := false
		for _, cmd := range cmd.Commands() {
			if cmd.Name() == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected command %s to be registered", expected)
		}
	}
}

func TestNewVersionCommand(t *testing.T) {
	inTempDir(t)

	oldVersion, oldCommit := Version, GitCommit
	Version = "1.0.0-test"
	GitCommit = "abc123"
	defer func() { Version, GitCommit = oldVersion, oldCommit }()

	res := runCLI(t, "version")
	if res.err != nil {
		t.Fatalf("version failed: %v", res.err)
	}

	for _, expected := range []string{"fyeah version:", "1.0.0-test", "Git commit:", "abc123", "Go version:"} {
		if !strings.Contains(res.stdout, expected) {
			t.Errorf("expected version output to contain %q, got %q", expected, res.stdout)
		}
	}
}

func TestInvalidConfiguration(t *testing.T) {
	inTempDir(t)
	if err := os.WriteFile("fyeah.yaml", []byte("max_depth: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	res := runCLI(t, "render", "{1}")
	if res.err == nil {
		t.Fatal("expected an error for invalid configuration")
	}

	var reported *reportedError
	if !errors.As(res.err, &reported) {
		t.Errorf("expected the error to be reported by the command, got %T", res.err)
	}
	if !strings.Contains(res.stderr, "CONFIGURATION ERROR") {
		t.Errorf("expected configuration error output, got %q", res.stderr)
	}
}

func TestConfigurationAppliesToEngine(t *testing.T) {
	inTempDir(t)
	if err := os.WriteFile("fyeah.yaml", []byte("max_length: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if res := runCLI(t, "render", "{1+1}"); res.err != nil || res.stdout != "2\n" {
		t.Fatalf("expected short template to render, got %q, %v", res.stdout, res.err)
	}

	res := runCLI(t, "render", "{1 + 1}")
	if res.err == nil {
		t.Fatal("expected template longer than max_length to fail")
	}
	if !strings.Contains(res.stderr, "OVERFLOWERROR") {
		t.Errorf("expected an OverflowError report, got %q", res.stderr)
	}
}

func TestCompletionCommand(t *testing.T) {
	inTempDir(t)

	res := runCLI(t, "completion", "bash")
	if res.err != nil {
		t.Fatalf("completion failed: %v", res.err)
	}
	if !strings.Contains(res.stdout, "fyeah") {
		t.Error("expected the bash completion script to mention fyeah")
	}
}
