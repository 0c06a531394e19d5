package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyeah-lang/fyeah/internal/cli/ui"
	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
	"github.com/fyeah-lang/fyeah/internal/watch"
	"github.com/fyeah-lang/fyeah/pkg/fyeah"
)

type renderOptions struct {
	file        string
	vars        []string
	varsFile    string
	json        bool
	interactive bool
	watch       bool
}

func newRenderCommand(a *app) *cobra.Command {
	opts := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render [template]",
		Short: "Render a template",
		Long: `Render an f-string template and print the result.

The template is taken from the argument, from --file, or from standard input.
Variables come from --var flags and an optional --vars file; --var wins.
Values given with --var are read as YAML scalars, so 3 is an int and
true a bool.

Examples:
  fyeah render 'hello {name!r}' -v name=world
  fyeah render -f greeting.txt --vars vars.yaml
  fyeah render -f greeting.txt --watch
  fyeah render '{price * qty:,.2f}' -v price=9.99 -v qty=1200 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRender(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read the template from a file")
	cmd.Flags().StringArrayVarP(&opts.vars, "var", "v", nil, "Bind a variable (name=value, repeatable)")
	cmd.Flags().StringVar(&opts.varsFile, "vars", "", "Load variables from a YAML or JSON file")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print errors as JSON")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Prompt for undefined names")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-render when the template or vars file changes")
	_ = cmd.MarkFlagFilename("vars", "yaml", "yml", "json")

	return cmd
}

func (a *app) runRender(cmd *cobra.Command, args []string, opts *renderOptions) error {
	if len(args) == 1 && opts.file != "" {
		return fmt.Errorf("give the template as an argument or with --file, not both")
	}
	if opts.watch && opts.file == "" {
		return fmt.Errorf("--watch needs a template file (--file)")
	}
	if opts.watch && opts.interactive {
		return fmt.Errorf("--watch and --interactive cannot be combined")
	}

	if err := a.renderOnce(cmd, args, opts); err != nil && !opts.watch {
		return err
	}
	if !opts.watch {
		return nil
	}
	return a.watchRender(cmd, args, opts)
}

// renderOnce loads the template and variables, renders, and reports the
// result or the error
func (a *app) renderOnce(cmd *cobra.Command, args []string, opts *renderOptions) error {
	source, err := readTemplate(cmd, args, opts.file)
	if err != nil {
		return err
	}

	vars, err := a.collectVars(opts)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.VarsError(err.Error(), a.cfg.NoColor))
		return &reportedError{err: err}
	}

	out, err := a.render(source, vars, opts.interactive)
	if err != nil {
		return a.reportTemplateError(cmd, err, opts.file, opts.json)
	}

	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func (a *app) collectVars(opts *renderOptions) (map[string]interface{}, error) {
	vars := make(map[string]interface{})
	if opts.varsFile != "" {
		loaded, err := loadVarsFile(opts.varsFile)
		if err != nil {
			return nil, err
		}
		vars = loaded
	}
	for _, assignment := range opts.vars {
		name, value, err := parseAssignment(assignment)
		if err != nil {
			return nil, err
		}
		vars[name] = value
	}
	return vars, nil
}

// render renders source against vars. In interactive mode each undefined
// name is prompted for and bound before retrying.
func (a *app) render(source string, vars map[string]interface{}, interactive bool) (string, error) {
	tpl, err := a.engine.Compile(source)
	if err != nil {
		return "", err
	}

	asked := make(map[string]bool)
	for {
		out, err := tpl.Render(fyeah.Vars(vars))
		if err == nil || !interactive {
			return out, err
		}

		e, ok := errors.As(err)
		if !ok || e.Kind != errors.KindName || e.Name == "" || asked[e.Name] {
			return "", err
		}
		asked[e.Name] = true

		answer, askErr := a.ask(e.Name)
		if askErr != nil {
			return "", fmt.Errorf("prompt for %s: %w", e.Name, askErr)
		}
		vars[e.Name] = parseScalar(answer)
		a.logger.Debug("bound prompted name", zap.String("name", e.Name))
	}
}

func (a *app) reportTemplateError(cmd *cobra.Command, err error, file string, asJSON bool) error {
	e, ok := errors.As(err)
	if !ok {
		return err
	}
	if file != "" {
		e.WithFile(file)
	}

	if asJSON {
		out, jsonErr := e.ToJSON()
		if jsonErr != nil {
			return fmt.Errorf("failed to encode error: %w", jsonErr)
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	} else {
		fmt.Fprint(cmd.ErrOrStderr(), ui.TemplateError(e, a.cfg.NoColor))
	}
	return &reportedError{err: err}
}

// watchRender re-renders on every change to the template or vars file until
// the context is cancelled or the process is interrupted
func (a *app) watchRender(cmd *cobra.Command, args []string, opts *renderOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	files := []string{opts.file}
	if opts.varsFile != "" {
		files = append(files, opts.varsFile)
	}

	divider := color.New(color.FgHiBlack)
	watcher, err := watch.NewFileWatcher(files, func(changed []string) error {
		divider.Fprintf(cmd.ErrOrStderr(), "── %s changed\n", changed[0])
		// errors are already reported; keep watching
		_ = a.renderOnce(cmd, args, opts)
		return nil
	}, watch.WithLogger(a.logger))
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		watcher.Stop()
		return err
	}
	defer watcher.Stop()

	fmt.Fprint(cmd.ErrOrStderr(), ui.Info(fmt.Sprintf("watching %s (Ctrl+C to stop)", opts.file), a.cfg.NoColor))
	<-ctx.Done()
	return nil
}

// readTemplate returns the template from the argument, the file, or stdin
func readTemplate(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read template: %w", err)
		}
		return trimFinalNewline(string(data)), nil
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read template from stdin: %w", err)
		}
		return trimFinalNewline(string(data)), nil
	}
}

// trimFinalNewline drops the newline editors add at the end of a file
func trimFinalNewline(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		s = s[:n-1]
		if n := len(s); n > 0 && s[n-1] == '\r' {
			s = s[:n-1]
		}
	}
	return s
}

// surveyPrompt asks for the value of name on the terminal
func surveyPrompt(name string) (string, error) {
	var answer string
	prompt := &survey.Input{
		Message: fmt.Sprintf("%s is not defined. Value for %s:", name, name),
		Help:    "Read as YAML: 3 is an int, true a bool, [1, 2] a list",
	}
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", err
	}
	return answer, nil
}
