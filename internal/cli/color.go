package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/color-validator-mcp/internal/colorspace"
	"github.com/ironsheep/color-validator-mcp/internal/deltae"
	"github.com/ironsheep/color-validator-mcp/internal/matcher"
	"github.com/ironsheep/color-validator-mcp/internal/store"
)

func (a *app) labCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lab <hex>",
		Short: "Convert a hex color to XYZ and CIELAB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rgb, err := colorspace.ParseHex(args[0])
			if err != nil {
				return err
			}
			xyz := colorspace.ToXYZ(rgb)
			lab := colorspace.ToLab(rgb)

			if a.jsonOutput {
				return a.printJSON(cmd, map[string]interface{}{
					"hex": rgb.Hex(),
					"rgb": rgb,
					"xyz": xyz,
					"lab": lab,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "hex  %s\n", rgb.Hex())
			fmt.Fprintf(out, "rgb  %d, %d, %d\n", rgb.R, rgb.G, rgb.B)
			fmt.Fprintf(out, "xyz  %.4f, %.4f, %.4f\n", xyz.X, xyz.Y, xyz.Z)
			fmt.Fprintf(out, "lab  %.4f, %.4f, %.4f\n", lab.L, lab.A, lab.B)
			return nil
		},
	}
}

func (a *app) deltaECmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deltae <hex> <hex>",
		Short: "Print the CIEDE2000 difference of two colors",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c1, err := colorspace.ParseHex(args[0])
			if err != nil {
				return err
			}
			c2, err := colorspace.ParseHex(args[1])
			if err != nil {
				return err
			}
			d := deltae.BetweenRGB(c1, c2)

			if a.jsonOutput {
				return a.printJSON(cmd, map[string]interface{}{"hex1": c1.Hex(), "hex2": c2.Hex(), "delta_e": d})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.4f\n", d)
			return nil
		},
	}
}

func (a *app) matchCmd() *cobra.Command {
	var (
		sample    string
		area      float64
		refs      []string
		tolerance float64
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match a sample color against reference colors",
		Long: NewTermWrap(80, 24).Paragraph("Finds the reference color closest to the sample and checks the " +
			"distance against the tolerance. Samples covering at least the policy's area threshold get a " +
			"stricter tolerance, smaller ones a more lenient one. The first reference wins ties."),
		Example: "  color-validator-mcp match --sample '#0000FF' --area 10 --ref Red=#FF0000 --ref Blue=#0000C8 --tolerance 7",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rgb, err := colorspace.ParseHex(sample)
			if err != nil {
				return fmt.Errorf("--sample: %w", err)
			}
			if area < 0 || area > 100 {
				return fmt.Errorf("--area must be within 0-100, got %g", area)
			}

			references := make([]matcher.ReferenceColor, 0, len(refs))
			for _, r := range refs {
				ref, err := parseRef(r)
				if err != nil {
					return err
				}
				references = append(references, ref)
			}

			if !cmd.Flags().Changed("tolerance") {
				tolerance = a.cfg.DefaultTolerance
			}
			if tolerance < 0 {
				return fmt.Errorf("--tolerance must not be negative, got %g", tolerance)
			}

			result, err := a.cfg.Policy().Match(matcher.NewSampleColor(rgb, area), references, tolerance)
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return a.printJSON(cmd, result)
			}
			return printComparisons(cmd, []matcher.ComparisonResult{result})
		},
	}

	cmd.Flags().StringVar(&sample, "sample", "", "sample hex color")
	cmd.Flags().Float64Var(&area, "area", 0, "share of the image covered by the sample, 0-100")
	cmd.Flags().StringArrayVar(&refs, "ref", nil, "reference color as NAME=HEX (repeatable)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", store.DefaultTolerance, "base Delta E tolerance (default-tolerance from config when not given)")
	_ = cmd.MarkFlagRequired("sample")

	return cmd
}
