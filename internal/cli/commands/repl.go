package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/fyeah-lang/fyeah/internal/cli/ui"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
	"github.com/fyeah-lang/fyeah/pkg/fyeah"
)

const replPrompt = ">> "

var replCommands = []string{":help", ":let", ":quit", ":unset", ":vars"}

// lineReader is the part of liner.State the REPL uses
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

func newReplCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Render templates interactively",
		Long: `Start an interactive session. Each line is rendered as a template
against the variables bound so far.

Commands:
  :let name = expr   bind name to the value of a template expression
  :unset name        remove a binding
  :vars              list bindings
  :help              show this help
  :quit              leave (or Ctrl+D)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRepl(cmd)
		},
	}
}

// replSession holds the bindings of one REPL run
type replSession struct {
	app  *app
	out  io.Writer
	vars map[string]interface{}
}

func (a *app) runRepl(cmd *cobra.Command) error {
	reader := a.newReader()
	defer reader.Close()

	s := &replSession{app: a, out: cmd.OutOrStdout(), vars: make(map[string]interface{})}

	ui.Header(s.out, fmt.Sprintf("fyeah %s", Version), a.cfg.NoColor)
	fmt.Fprintln(s.out, "Type :help for commands, Ctrl+D to quit")

	for {
		line, err := reader.Prompt(replPrompt)
		if err == liner.ErrPromptAborted {
			fmt.Fprintln(s.out, "^C")
			continue
		}
		if err == io.EOF {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		reader.AppendHistory(line)

		if strings.HasPrefix(trimmed, ":") {
			if quit := s.command(trimmed); quit {
				return nil
			}
			continue
		}
		s.render(line)
	}
}

func (s *replSession) render(line string) {
	out, err := s.app.engine.F(line, fyeah.Vars(s.vars))
	if err != nil {
		fmt.Fprint(s.out, ui.TemplateError(err, s.app.cfg.NoColor))
		return
	}
	fmt.Fprintln(s.out, out)
}

// command runs a ':' command and reports whether the session should end
func (s *replSession) command(line string) bool {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case ":quit", ":q", ":exit":
		return true
	case ":help":
		fmt.Fprintln(s.out, strings.TrimSpace(`
:let name = expr   bind name to the value of a template expression
:unset name        remove a binding
:vars              list bindings
:quit              leave`))
	case ":vars":
		s.listVars()
	case ":let":
		s.let(rest)
	case ":unset":
		if _, ok := s.vars[rest]; !ok {
			s.fail(fmt.Sprintf("%s is not bound", rest), nil)
			return false
		}
		delete(s.vars, rest)
	default:
		var suggestions []string
		if match := errors.ClosestMatch(name, replCommands); match != "" {
			suggestions = []string{match}
		}
		s.fail(fmt.Sprintf("unknown command %s", name), suggestions)
	}
	return false
}

// let evaluates expr as a single interpolation site and binds its value
func (s *replSession) let(assignment string) {
	name, expr, ok := strings.Cut(assignment, "=")
	name = strings.TrimSpace(name)
	if !ok || !isIdentifier(name) || strings.TrimSpace(expr) == "" {
		s.fail("usage: :let name = expr", nil)
		return
	}

	// the spaces keep a leading '{' in expr from reading as an escaped brace
	result, err := s.app.engine.T("{ "+strings.TrimSpace(expr)+" }", fyeah.Vars(s.vars))
	if err != nil {
		fmt.Fprint(s.out, ui.TemplateError(err, s.app.cfg.NoColor))
		return
	}
	if len(result.Interpolations) != 1 {
		s.fail("usage: :let name = expr", nil)
		return
	}
	for _, builtin := range fyeah.Builtins() {
		if builtin == name {
			fmt.Fprint(s.out, ui.Warning(fmt.Sprintf("%s shadows the builtin %s()", name, name), s.app.cfg.NoColor))
			break
		}
	}
	s.vars[name] = result.Interpolations[0].Value
}

func (s *replSession) listVars() {
	if len(s.vars) == 0 {
		fmt.Fprintln(s.out, "no variables bound")
		return
	}
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)

	table := ui.NewKeyValueTable(s.out, s.app.cfg.NoColor)
	for _, name := range names {
		table.AddRow(name, fyeah.Repr(s.vars[name]))
	}
	table.Render()
}

func (s *replSession) fail(message string, suggestions []string) {
	ui.WriteError(s.out, ui.ErrorOptions{
		Level:       ui.ErrorLevelError,
		Problem:     message,
		Suggestions: suggestions,
		NoColor:     s.app.cfg.NoColor,
	})
}

// linerReader adds a history file to liner
type linerReader struct {
	*liner.State
	history string
}

func newLinerReader() lineReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(complete)

	r := &linerReader{State: state}
	if home, err := os.UserHomeDir(); err == nil {
		r.history = filepath.Join(home, ".fyeah_history")
		if f, err := os.Open(r.history); err == nil {
			state.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *linerReader) Close() error {
	if r.history != "" {
		if f, err := os.Create(r.history); err == nil {
			r.WriteHistory(f)
			f.Close()
		}
	}
	return r.State.Close()
}

// complete offers REPL commands at the start of a line and builtin names
// after it
func complete(line string) []string {
	if strings.HasPrefix(line, ":") && !strings.Contains(line, " ") {
		return withPrefix(line, "", replCommands)
	}

	start := len(line)
	for start > 0 && isIdentByte(line[start-1]) {
		start--
	}
	if start == len(line) {
		return nil
	}
	return withPrefix(line[start:], line[:start], fyeah.Builtins())
}

func withPrefix(word, head string, candidates []string) []string {
	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(c, word) {
			out = append(out, head+c)
		}
	}
	return out
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
