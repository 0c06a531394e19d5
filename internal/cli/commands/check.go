package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fyeah-lang/fyeah/internal/cli/ui"
	"github.com/fyeah-lang/fyeah/internal/compiler/ast"
	"github.com/fyeah-lang/fyeah/pkg/fyeah"
)

type checkOptions struct {
	file string
	json bool
}

// segmentInfo is one row of the check report
type segmentInfo struct {
	Index      int    `json:"index"`
	Kind       string `json:"kind"`
	Text       string `json:"text"`
	Conversion string `json:"conversion,omitempty"`
	FormatSpec string `json:"format_spec,omitempty"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
}

func newCheckCommand(a *app) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [template]",
		Short: "Parse a template without rendering it",
		Long: `Parse a template and print its segments, or the syntax error.

Nothing is evaluated, so no variables are needed.

Examples:
  fyeah check 'hello {name!r:>{width}}'
  fyeah check -f greeting.txt --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read the template from a file")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print segments or errors as JSON")

	return cmd
}

func (a *app) runCheck(cmd *cobra.Command, args []string, opts *checkOptions) error {
	if len(args) == 1 && opts.file != "" {
		return fmt.Errorf("give the template as an argument or with --file, not both")
	}
	source, err := readTemplate(cmd, args, opts.file)
	if err != nil {
		return err
	}

	tpl, err := a.engine.Compile(source)
	if err != nil {
		return a.reportTemplateError(cmd, err, opts.file, opts.json)
	}

	segments := describeSegments(tpl.AST())
	out := cmd.OutOrStdout()

	if opts.json {
		data, err := json.MarshalIndent(segments, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode segments: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	ui.Header(out, "Segments", a.cfg.NoColor)
	table := ui.NewTable(out, []string{"#", "Kind", "Text", "Conv", "Spec", "Position"}, &ui.TableOptions{NoColor: a.cfg.NoColor})
	for _, s := range segments {
		table.AddRow(strconv.Itoa(s.Index), s.Kind, s.Text, s.Conversion, s.FormatSpec, fmt.Sprintf("%d:%d", s.Line, s.Column))
	}
	table.Render()
	fmt.Fprintln(out)

	ui.WriteSuccess(out, fmt.Sprintf("template is valid (%d interpolation sites)", len(tpl.Expressions())), a.cfg.NoColor)
	return nil
}

func describeSegments(tpl *ast.Template) []segmentInfo {
	infos := make([]segmentInfo, 0, len(tpl.Segments))
	for i, seg := range tpl.Segments {
		loc := seg.Location()
		info := segmentInfo{Index: i, Line: loc.Line, Column: loc.Column}

		switch s := seg.(type) {
		case *ast.LiteralSegment:
			info.Kind = "literal"
			info.Text = fyeah.Repr(s.Text)
		case *ast.InterpolationSegment:
			info.Kind = "interpolation"
			if s.HasDebug() {
				info.Kind = "debug"
			}
			info.Text = s.Source
			info.Conversion = s.Conversion.Flag()
			if s.FormatSpec != nil {
				info.FormatSpec = s.FormatSpec.Reconstruct()
			}
		}
		infos = append(infos, info)
	}
	return infos
}
