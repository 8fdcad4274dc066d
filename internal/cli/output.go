package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ironsheep/color-validator-mcp/internal/colorspace"
	"github.com/ironsheep/color-validator-mcp/internal/matcher"
)

var titleCaser = cases.Title(language.Und, cases.NoLower)

func (a *app) printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(cmd *cobra.Command, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cells ...interface{}) {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

// passFail renders a comparison verdict.
func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}

func printComparisons(cmd *cobra.Command, results []matcher.ComparisonResult) error {
	tw := newTable(cmd, "SAMPLE", "AREA", "CLOSEST", "DELTA E", "TOLERANCE", "RESULT")
	for _, r := range results {
		row(tw,
			r.Sample.Hex,
			fmt.Sprintf("%.0f%%", r.Sample.AreaWeight),
			fmt.Sprintf("%s %s", r.Closest.Name, r.Closest.Hex),
			fmt.Sprintf("%.2f", r.DeltaE),
			fmt.Sprintf("%.2f", r.Tolerance),
			passFail(r.IsWithinTolerance),
		)
	}
	return tw.Flush()
}

// parseRef parses a NAME=HEX reference color flag. The name may itself
// contain '='.
func parseRef(s string) (matcher.ReferenceColor, error) {
	i := strings.LastIndex(s, "=")
	if i <= 0 {
		return matcher.ReferenceColor{}, fmt.Errorf("invalid color %q (want NAME=HEX)", s)
	}
	name := strings.TrimSpace(s[:i])
	rgb, err := colorspace.ParseHex(strings.TrimSpace(s[i+1:]))
	if err != nil {
		return matcher.ReferenceColor{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return matcher.NewReferenceColor(name, rgb), nil
}
