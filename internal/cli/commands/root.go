package commands

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyeah-lang/fyeah/internal/cli/config"
	"github.com/fyeah-lang/fyeah/internal/cli/ui"
	"github.com/fyeah-lang/fyeah/pkg/fyeah"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// app is the state shared by the subcommands of one invocation. It is filled
// in by the root command's PersistentPreRunE.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	engine *fyeah.Engine

	verbose bool
	noColor bool

	// ask prompts for the value of an unbound name
	ask func(name string) (string, error)
	// newReader opens the line editor for the REPL
	newReader func() lineReader
}

// reportedError is a failure the command has already written out
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{
		ask:       surveyPrompt,
		newReader: newLinerReader,
	})
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fyeah",
		Short: "Render Python-style f-strings from the command line",
		Long: color.CyanString(`fyeah - f-strings, evaluated at runtime

fyeah parses templates such as "hello {name!r:>10}" and renders them
against variables given on the command line or in a YAML/JSON file.

Features:
  • Python f-string syntax: conversions, nested format specs, '=' debugging
  • Python-compatible expressions, builtins and string methods
  • Structured errors with source context
  • Watch mode and an interactive REPL`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Log cache and render diagnostics")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newRenderCommand(a))
	rootCmd.AddCommand(newCheckCommand(a))
	rootCmd.AddCommand(newReplCommand(a))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// setup loads the configuration and builds the logger and engine
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err.Error(), a.noColor))
		return &reportedError{err: err}
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}
	if a.noColor {
		cfg.NoColor = true
	}
	if cfg.NoColor {
		color.NoColor = true
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.engine = fyeah.NewEngine(cfg.EngineOptions(logger)...)
	return nil
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the fyeah version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			table := ui.NewKeyValueTable(cmd.OutOrStdout(), color.NoColor)
			table.AddRow("fyeah version", Version)
			table.AddRow("Git commit", GitCommit)
			table.AddRow("Build date", BuildDate)
			table.AddRow("Go version", goVer)
			table.Render()
		},
	}
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			errorColor := color.New(color.FgRed, color.Bold)
			errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		}
		return err
	}
	return nil
}
