// Package report renders analysis results as HTML or Markdown documents.
package report

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/flosch/pongo2"

	"github.com/ironsheep/color-validator-mcp/internal/analysis"
)

// Format is an output document format.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// ParseFormat converts a format name to a Format. "md" is accepted for
// Markdown and the empty string selects HTML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown report format %q (want html or markdown)", s)
}

//go:embed templates/report.html.tpl
var htmlSource string

//go:embed templates/report.md.tpl
var markdownSource string

var templates = map[Format]*pongo2.Template{
	FormatHTML:     pongo2.Must(pongo2.FromString(htmlSource)),
	FormatMarkdown: pongo2.Must(pongo2.FromString(markdownSource)),
}

// row is one comparison, pre-formatted for the templates.
type row struct {
	SampleHex   string
	SampleText  string
	Area        string
	ClosestName string
	ClosestHex  string
	ClosestText string
	DeltaE      string
	Tolerance   string
	Pass        bool
}

// Render produces the report for result in the requested format.
func Render(result *analysis.Result, format Format) (string, error) {
	if result == nil {
		return "", fmt.Errorf("no analysis result to render")
	}

	tpl, ok := templates[format]
	if !ok {
		return "", fmt.Errorf("unknown report format %q", format)
	}

	escape := func(s string) string { return s }
	if format == FormatMarkdown {
		escape = markdownCell
	}

	rows := make([]row, 0, len(result.Comparisons))
	for _, c := range result.Comparisons {
		rows = append(rows, row{
			SampleHex:   c.Sample.Hex,
			SampleText:  c.Sample.RGB.ContrastText(),
			Area:        formatFloat(c.Sample.AreaWeight, 0),
			ClosestName: escape(c.Closest.Name),
			ClosestHex:  c.Closest.Hex,
			ClosestText: c.Closest.RGB.ContrastText(),
			DeltaE:      formatFloat(c.DeltaE, 2),
			Tolerance:   formatFloat(c.Tolerance, 2),
			Pass:        c.IsWithinTolerance,
		})
	}

	out, err := tpl.Execute(pongo2.Context{
		"file_name":    escape(result.FileName),
		"profile_name": escape(result.ProfileName),
		"tolerance":    formatFloat(result.Tolerance, 1),
		"compliance":   result.Compliance,
		"passed":       result.Passed,
		"total":        len(result.Comparisons),
		"status":       string(result.Status),
		"rows":         rows,
		"created_at":   result.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render %s report: %w", format, err)
	}
	return out, nil
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// markdownCell keeps user text from breaking table cells.
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
