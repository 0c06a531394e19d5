package errors

import (
	"fmt"
	"strings"
)

// FormatError returns a human-readable error report for terminal output
func FormatError(e *Error) string {
	var b strings.Builder

	file := e.File
	if file == "" {
		file = "<template>"
	}

	fmt.Fprintf(&b, "%s %s in %s [%s]\n", categoryIcon(e.Category), e.Kind, file, e.Code)
	fmt.Fprintf(&b, "Line %d, Column %d", e.Location.Line, e.Location.Column)
	if e.Segment >= 0 {
		fmt.Fprintf(&b, " (segment %d)", e.Segment)
	}
	b.WriteString(":\n")

	if e.Context != nil && len(e.Context.SourceLines) > 0 {
		for i, line := range e.Context.SourceLines {
			lineNum := e.Location.Line - 1 + i
			if lineNum < 1 {
				continue
			}
			fmt.Fprintf(&b, "%s  %s\n", formatLineNumber(lineNum), line)
			if i == 1 {
				fmt.Fprintf(&b, "%s  %s^ %s\n", strings.Repeat(" ", 5), caretPadding(line, e.Location.Column), e.Message)
			}
		}
	} else {
		fmt.Fprintf(&b, "  %s\n", e.Message)
	}

	if e.Expected != "" || e.Actual != "" {
		b.WriteString("\n")
		if e.Expected != "" {
			fmt.Fprintf(&b, "  Expected: %s\n", e.Expected)
		}
		if e.Actual != "" {
			fmt.Fprintf(&b, "  Actual:   %s\n", e.Actual)
		}
	}

	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n💡 %s\n", e.Suggestion)
	}

	if e.cause != nil {
		fmt.Fprintf(&b, "\nCaused by: %v\n", e.cause)
	}

	return b.String()
}

// FormatCompact returns a compact one-line error format
func FormatCompact(e *Error) string {
	file := e.File
	if file == "" {
		file = "<template>"
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s [%s]",
		file, e.Location.Line, e.Location.Column,
		e.Kind, e.Message, e.Code)
}

// caretPadding returns the whitespace that puts a caret under the given
// 1-indexed byte column, keeping tabs so the caret lines up in terminals.
func caretPadding(line string, column int) string {
	if column <= 1 {
		return ""
	}
	prefix := line
	if column-1 < len(line) {
		prefix = line[:column-1]
	}

	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	if column-1 > len(line) {
		b.WriteString(strings.Repeat(" ", column-1-len(line)))
	}
	return b.String()
}

// categoryIcon returns the icon for an error category
func categoryIcon(category ErrorCategory) string {
	switch category {
	case CategorySyntax:
		return "❌"
	case CategoryName, CategoryAccess:
		return "🔍"
	case CategoryType:
		return "⚠️ "
	case CategoryArithmetic:
		return "🧮"
	default:
		return "❓"
	}
}

// formatLineNumber formats a line number for display
func formatLineNumber(lineNum int) string {
	return fmt.Sprintf("%3d |", lineNum)
}
