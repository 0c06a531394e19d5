package ui

import (
	"bytes"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/fyeah-lang/fyeah/pkg/fyeah"
)

func TestFormatError(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		opts     ErrorOptions
		contains []string
	}{
		{
			name: "basic error",
			opts: ErrorOptions{
				Level:   ErrorLevelError,
				Context: "invalid variables",
				Problem: "expected name=value",
			},
			contains: []string{
				"❌",
				"INVALID VARIABLES",
				"expected name=value",
			},
		},
		{
			name: "error with suggestions",
			opts: ErrorOptions{
				Level:       ErrorLevelError,
				Problem:     "unknown command :lte",
				Suggestions: []string{":let"},
			},
			contains: []string{
				"Did you mean: :let?",
			},
		},
		{
			name: "error with details and help commands",
			opts: ErrorOptions{
				Level:        ErrorLevelError,
				Problem:      "bad template",
				Details:      []string{"1 | {", "  | ^"},
				HelpCommands: []string{"Inspect the template: fyeah check"},
			},
			contains: []string{
				"   1 | {",
				"→ Inspect the template: fyeah check",
			},
		},
		{
			name: "warning message",
			opts: ErrorOptions{
				Level:   ErrorLevelWarning,
				Problem: "vars file is empty",
			},
			contains: []string{
				"⚠️",
				"vars file is empty",
			},
		},
		{
			name: "info message",
			opts: ErrorOptions{
				Level:   ErrorLevelInfo,
				Problem: "watching template.txt",
			},
			contains: []string{
				"ℹ️",
				"watching template.txt",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatError(tt.opts)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("FormatError() output missing expected string:\nExpected to contain: %q\nGot: %q", expected, result)
				}
			}
		})
	}
}

func TestTemplateError(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	_, err := fyeah.F("hello {nme}", fyeah.Vars(map[string]interface{}{"name": "world"}))
	if err == nil {
		t.Fatal("expected a NameError")
	}

	result := TemplateError(err, true)

	expected := []string{
		"NAMEERROR [FNM101]",
		"name 'nme' is not defined",
		"1 | hello {nme}",
		"^",
		"did you mean 'name'?",
		"fyeah render --var name=value",
	}
	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("TemplateError() missing expected string: %q\nGot: %q", exp, result)
		}
	}
}

func TestTemplateError_SyntaxAndPlainErrors(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	_, err := fyeah.F("{", nil)
	if err == nil {
		t.Fatal("expected a SyntaxError")
	}
	if result := TemplateError(err, true); !strings.Contains(result, "fyeah check") {
		t.Errorf("expected syntax help, got %q", result)
	}

	plain := TemplateError(stderrors.New("disk on fire"), true)
	if !strings.Contains(plain, "❌ disk on fire") {
		t.Errorf("expected plain header, got %q", plain)
	}
}

func TestTemplateError_Cause(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	fail := fyeah.Func("fail", func([]interface{}, map[string]interface{}) (interface{}, error) {
		return nil, stderrors.New("boom")
	})
	_, err := fyeah.F("{fail()}", fyeah.Vars(map[string]interface{}{"fail": fail}))
	if err == nil {
		t.Fatal("expected an error")
	}

	if result := TemplateError(err, true); !strings.Contains(result, "Caused by: boom") {
		t.Errorf("expected cause in output, got %q", result)
	}
}

func TestVarsAndConfigErrors(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	vars := VarsError("expected name=value, got \"x\"", true)
	for _, exp := range []string{"INVALID VARIABLES", "expected name=value", "fyeah render --vars vars.yaml"} {
		if !strings.Contains(vars, exp) {
			t.Errorf("VarsError() missing expected string: %q", exp)
		}
	}

	cfg := ConfigError("max_depth must be positive, got: 0", true)
	for _, exp := range []string{"CONFIGURATION ERROR", "max_depth must be positive", "cat fyeah.yaml"} {
		if !strings.Contains(cfg, exp) {
			t.Errorf("ConfigError() missing expected string: %q", exp)
		}
	}
}

func TestWriteErrorAndSuccess(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	var buf bytes.Buffer
	WriteError(&buf, ErrorOptions{Level: ErrorLevelError, Problem: "nope", NoColor: true})
	WriteSuccess(&buf, "template is valid", true)

	output := buf.String()
	if !strings.Contains(output, "❌ nope") {
		t.Errorf("WriteError() output missing message, got %q", output)
	}
	if !strings.Contains(output, "✓ template is valid\n") {
		t.Errorf("WriteSuccess() output missing message, got %q", output)
	}
}

func TestWarningAndInfo(t *testing.T) {
	if got := Warning("careful", true); !strings.Contains(got, "⚠️ careful") {
		t.Errorf("Warning() = %q", got)
	}
	if got := Info("fyi", true); !strings.Contains(got, "ℹ️ fyi") {
		t.Errorf("Info() = %q", got)
	}
}
