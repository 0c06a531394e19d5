package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Details      []string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ NAMEERROR [FNM101]: name 'nme' is not defined. Did you mean: 'name'?
//	   1 | hello {nme}
//	     |        ^
//
//	   did you mean 'name'?
//
//	   → Pass a value: fyeah render --var name=value
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	headerColor, bodyColor, symbol := levelStyle(opts.Level)
	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	for _, line := range opts.Details {
		bodyColor.Fprintf(&b, "   %s\n", line)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		yellow := color.New(color.FgYellow)
		if opts.NoColor {
			yellow.DisableColor()
		}
		yellow.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := color.New(color.FgCyan)
		if opts.NoColor {
			cyan.DisableColor()
		}
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

func levelStyle(level ErrorLevel) (*color.Color, *color.Color, string) {
	switch level {
	case ErrorLevelWarning:
		return color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "⚠️"
	case ErrorLevelInfo:
		return color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "ℹ️"
	default:
		return color.New(color.FgRed, color.Bold), color.New(color.FgRed), "❌"
	}
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// TemplateError formats a template error with the offending source line and a
// caret under the error column. Errors that are not template errors get a
// plain header.
func TemplateError(err error, noColor bool) string {
	e, ok := errors.As(err)
	if !ok {
		return FormatError(ErrorOptions{
			Level:   ErrorLevelError,
			Problem: err.Error(),
			NoColor: noColor,
		})
	}

	var details []string
	if e.File != "" {
		details = append(details, fmt.Sprintf("--> %s:%d:%d", e.File, e.Location.Line, e.Location.Column))
	}
	details = append(details, sourceDetails(e)...)

	opts := ErrorOptions{
		Level:        ErrorLevelError,
		Context:      fmt.Sprintf("%s [%s]", e.Kind, e.Code),
		Problem:      e.Message,
		Details:      details,
		HelpCommands: helpFor(e),
		NoColor:      noColor,
	}
	if e.Suggestion != "" {
		opts.Details = append(opts.Details, "", e.Suggestion)
	}
	if cause := e.Unwrap(); cause != nil {
		opts.Details = append(opts.Details, "", "Caused by: "+cause.Error())
	}
	return FormatError(opts)
}

// sourceDetails renders the error line with a caret under the column
func sourceDetails(e *errors.Error) []string {
	if e.Context == nil || e.Context.Current == "" {
		return nil
	}

	gutter := fmt.Sprintf("%d | ", e.Location.Line)
	pad := strings.Repeat(" ", len(gutter)-2) + "| "
	caret := ""
	if e.Location.Column > 1 {
		caret = strings.Repeat(" ", e.Location.Column-1)
	}
	return []string{gutter + e.Context.Current, pad + caret + "^"}
}

func helpFor(e *errors.Error) []string {
	switch e.Kind {
	case errors.KindName:
		return []string{"Pass a value: fyeah render --var name=value", "Prompt for missing names: fyeah render --interactive"}
	case errors.KindSyntax:
		return []string{"Inspect the template: fyeah check"}
	default:
		return nil
	}
}

// VarsError creates a standardized error for a bad --var or --vars value
func VarsError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "INVALID VARIABLES",
		Problem: message,
		HelpCommands: []string{
			"Bind a value: fyeah render --var name=value",
			"Load a file: fyeah render --vars vars.yaml",
		},
		NoColor: noColor,
	})
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "CONFIGURATION ERROR",
		Problem: message,
		HelpCommands: []string{
			"View config: cat fyeah.yaml",
			"Get help: fyeah --help",
		},
		NoColor: noColor,
	})
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelWarning,
		Problem: message,
		NoColor: noColor,
	})
}

// Info creates a standardized info message
func Info(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelInfo,
		Problem: message,
		NoColor: noColor,
	})
}
