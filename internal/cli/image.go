package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/color-validator-mcp/internal/analysis"
	"github.com/ironsheep/color-validator-mcp/internal/imaging"
	"github.com/ironsheep/color-validator-mcp/internal/report"
)

// extractFlags are the extraction overrides shared by extract and analyze.
type extractFlags struct {
	count     int
	method    string
	threshold int
	maxSize   int
	region    string
}

func (f *extractFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.count, "count", 0, "maximum number of colors (default from config)")
	cmd.Flags().StringVar(&f.method, "method", "", "extraction method: group, kmeans or quantize (default from config)")
	cmd.Flags().IntVar(&f.threshold, "threshold", 0, "RGB distance that joins a pixel to a group (default from config)")
	cmd.Flags().IntVar(&f.maxSize, "max-size", 0, "downscale so the longer side is at most this many pixels (default from config)")
	cmd.Flags().StringVar(&f.region, "region", "", "only sample the region x1,y1,x2,y2")
}

func (f *extractFlags) options() (imaging.ExtractOptions, error) {
	opts := imaging.ExtractOptions{
		Count:     f.count,
		Threshold: f.threshold,
		MaxSize:   f.maxSize,
	}
	if f.method != "" {
		method, err := imaging.ParseMethod(f.method)
		if err != nil {
			return opts, err
		}
		opts.Method = method
	}
	if f.region != "" {
		region, err := parseRegion(f.region)
		if err != nil {
			return opts, err
		}
		opts.Region = region
	}
	return opts, nil
}

func parseRegion(s string) (*imaging.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid region %q (want x1,y1,x2,y2)", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid region %q: %w", s, err)
		}
		v[i] = n
	}
	return &imaging.Region{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
}

func (a *app) extractCmd() *cobra.Command {
	var flags extractFlags

	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Print the dominant colors of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			img, err := imaging.NewImageCache().Load(args[0])
			if err != nil {
				return err
			}

			result, err := imaging.ExtractColors(img, a.cfg.ExtractOptions().Merge(opts))
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return a.printJSON(cmd, result)
			}

			tw := newTable(cmd, "HEX", "PERCENT", "PIXELS")
			for _, c := range result.Colors {
				row(tw, c.Hex, fmt.Sprintf("%.0f%%", c.Percentage), c.Pixels)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s: %d pixels sampled from %dx%d\n",
				result.Method, result.SampledPixels, result.Width, result.Height)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func (a *app) analyzeCmd() *cobra.Command {
	var (
		flags      extractFlags
		profileID  string
		reportName string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "analyze <image>...",
		Short: "Check images against a brand profile",
		Long: NewTermWrap(80, 24).Paragraph("Extracts the dominant colors of every image, matches them against " +
			"the profile and prints the compliance of each. Several images are analyzed concurrently. " +
			"Every analysis is added to the history."),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			var format report.Format
			if reportName != "" {
				if format, err = report.ParseFormat(reportName); err != nil {
					return err
				}
			}
			if outPath != "" && (reportName == "" || len(args) != 1) {
				return fmt.Errorf("--output needs --report and a single image")
			}

			analyzer, err := a.openAnalyzer()
			if err != nil {
				return err
			}

			reqs := make([]analysis.Request, len(args))
			for i, path := range args {
				reqs[i] = analysis.Request{Path: path, ProfileID: profileID, Extract: opts}
			}

			var items []analysis.BatchItem
			if len(reqs) == 1 {
				result, err := analyzer.Analyze(cmd.Context(), reqs[0])
				if err != nil {
					return err
				}
				items = []analysis.BatchItem{{Request: reqs[0], Result: result}}
			} else {
				items = analyzer.AnalyzeBatch(cmd.Context(), reqs)
			}

			if format != "" {
				return a.writeReports(cmd, items, format, outPath)
			}
			if a.jsonOutput {
				return a.printJSON(cmd, items)
			}
			return printAnalyses(cmd, items)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&profileID, "profile", "", "ID of the brand profile to check against")
	cmd.Flags().StringVar(&reportName, "report", "", "print a report instead of a summary: html or markdown")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the report to this file")
	_ = cmd.MarkFlagRequired("profile")

	return cmd
}

func (a *app) writeReports(cmd *cobra.Command, items []analysis.BatchItem, format report.Format, outPath string) error {
	failed := 0
	for _, item := range items {
		if item.Err != nil {
			cmd.PrintErrf("%s: %v\n", item.Request.Path, item.Err)
			failed++
			continue
		}

		content, err := report.Render(item.Result, format)
		if err != nil {
			return err
		}

		if outPath != "" {
			if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), content)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(items))
	}
	return nil
}

func printAnalyses(cmd *cobra.Command, items []analysis.BatchItem) error {
	out := cmd.OutOrStdout()
	failed := 0

	for i, item := range items {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if item.Err != nil {
			fmt.Fprintf(out, "%s: %v\n", item.Request.Path, item.Err)
			failed++
			continue
		}

		r := item.Result
		fmt.Fprintf(out, "%s against %s: %d%% %s (%d of %d colors pass)\n",
			r.FileName, r.ProfileName, r.Compliance, r.Status, r.Passed, len(r.Comparisons))
		if err := printComparisons(cmd, r.Comparisons); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(items))
	}
	return nil
}
