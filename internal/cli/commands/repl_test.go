package commands

import (
	"context"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/peterh/liner"
)

// scriptedReader replays lines and then reports end of input
type scriptedReader struct {
	lines   []string
	history []string
	closed  bool
}

func (r *scriptedReader) Prompt(string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	if line == "^C" {
		return "", liner.ErrPromptAborted
	}
	return line, nil
}

func (r *scriptedReader) AppendHistory(item string) { r.history = append(r.history, item) }

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

func runRepl(t *testing.T, lines ...string) (string, *scriptedReader) {
	t.Helper()
	inTempDir(t)

	reader := &scriptedReader{lines: lines}
	a := testApp()
	a.newReader = func() lineReader { return reader }

	res := run(context.Background(), a, "", "repl")
	if res.err != nil {
		t.Fatalf("repl failed: %v", res.err)
	}
	return res.stdout, reader
}

func TestRepl_Session(t *testing.T) {
	out, reader := runRepl(t,
		":let name = 'world'",
		"hello {name}",
		":let n = 2 ** 10",
		"{n:,}",
		":let d = {'a': [1, 2]}",
		"{d['a'][-1]}",
		"",
		"^C",
		":vars",
		":quit",
		"never rendered",
	)

	for _, expected := range []string{
		"hello world\n",
		"1,024\n",
		"2\n",
		"^C\n",
		"d:    {'a': [1, 2]}",
		"n:    1024",
		"name: 'world'",
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("expected REPL output to contain %q, got:\n%s", expected, out)
		}
	}
	if strings.Contains(out, "never rendered") {
		t.Error("expected :quit to end the session")
	}
	if !reader.closed {
		t.Error("expected the line reader to be closed")
	}
	if len(reader.history) != 8 {
		t.Errorf("expected 8 history entries, got %d: %v", len(reader.history), reader.history)
	}
}

func TestRepl_Errors(t *testing.T) {
	out, _ := runRepl(t,
		"{missing}",
		":lte x = 1",
		":unset nope",
		":let 1x = 2",
		":let y = 1 +",
		":let len = 3",
		"{len}",
	)

	for _, expected := range []string{
		"NAMEERROR [FNM101]",
		"unknown command :lte",
		"Did you mean: :let?",
		"nope is not bound",
		"usage: :let name = expr",
		"SYNTAXERROR",
		"len shadows the builtin len()",
		"3\n",
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("expected REPL output to contain %q, got:\n%s", expected, out)
		}
	}
}

func TestRepl_UnsetAndEmptyVars(t *testing.T) {
	out, _ := runRepl(t,
		":vars",
		":let x = 1",
		":unset x",
		"{x}",
		":help",
	)

	if !strings.Contains(out, "no variables bound") {
		t.Errorf("expected empty variable listing, got:\n%s", out)
	}
	if !strings.Contains(out, "NAMEERROR") {
		t.Errorf("expected x to be unbound after :unset, got:\n%s", out)
	}
	if !strings.Contains(out, ":let name = expr") {
		t.Errorf("expected help text, got:\n%s", out)
	}
}

func TestComplete(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{":v", []string{":vars"}},
		{":", replCommands},
		{"{le", []string{"{len"}},
		{"x {re", []string{"x {repr", "x {reversed"}},
		{"{x ", nil},
	}

	for _, tt := range tests {
		if got := complete(tt.line); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("complete(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
