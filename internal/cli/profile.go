package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/color-validator-mcp/internal/store"
)

func (a *app) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage brand profiles",
	}
	cmd.AddCommand(
		a.profileListCmd(),
		a.profileShowCmd(),
		a.profileCreateCmd(),
		a.profileUpdateCmd(),
		a.profileDeleteCmd(),
	)
	return cmd
}

func (a *app) profileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List brand profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			profiles := st.ListProfiles()

			if a.jsonOutput {
				if profiles == nil {
					profiles = []store.BrandProfile{}
				}
				return a.printJSON(cmd, profiles)
			}

			tw := newTable(cmd, "ID", "NAME", "TOLERANCE", "COLORS")
			for _, p := range profiles {
				row(tw, p.ID, titleCaser.String(p.Name), fmt.Sprintf("%.1f", p.Tolerance), len(p.Colors))
			}
			return tw.Flush()
		},
	}
}

func (a *app) profileShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a brand profile and its colors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			p, err := st.GetProfile(args[0])
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(cmd, p)
			}
			return printProfile(cmd, p)
		},
	}
}

func printProfile(cmd *cobra.Command, p *store.BrandProfile) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(out, "tolerance %.1f, updated %s\n\n", p.Tolerance, p.UpdatedAt.Format("2006-01-02 15:04"))

	tw := newTable(cmd, "COLOR", "HEX", "DESCRIPTION")
	for _, c := range p.Colors {
		row(tw, c.Name, c.Hex, c.Description)
	}
	return tw.Flush()
}

// profileFlags are the editable fields of create and update.
type profileFlags struct {
	name      string
	tolerance float64
	colors    []string
}

func (f *profileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "profile name")
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", 0, fmt.Sprintf("base Delta E tolerance (default-tolerance from config, %.1f unless set)", store.DefaultTolerance))
	cmd.Flags().StringArrayVar(&f.colors, "color", nil, "brand color as NAME=HEX (repeatable)")
}

func (f *profileFlags) brandColors() ([]store.BrandColor, error) {
	colors := make([]store.BrandColor, 0, len(f.colors))
	for _, s := range f.colors {
		ref, err := parseRef(s)
		if err != nil {
			return nil, err
		}
		colors = append(colors, store.BrandColor{Name: ref.Name, Hex: ref.Hex})
	}
	return colors, nil
}

func (a *app) profileCreateCmd() *cobra.Command {
	var flags profileFlags

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Create a brand profile",
		Example: "  color-validator-mcp profile create --name Acme --tolerance 2.5 --color Red=#E31837 --color Navy=#002855",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			colors, err := flags.brandColors()
			if err != nil {
				return err
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			p, err := st.CreateProfile(store.ProfileInput{Name: flags.name, Tolerance: flags.tolerance, Colors: colors})
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(cmd, p)
			}
			return printProfile(cmd, p)
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) profileUpdateCmd() *cobra.Command {
	var flags profileFlags

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a brand profile",
		Long: NewTermWrap(80, 24).Paragraph("Changes the given fields of a profile. When any --color is given " +
			"the colors replace the existing ones."),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			current, err := st.GetProfile(args[0])
			if err != nil {
				return err
			}

			in := store.ProfileInput{Name: current.Name, Tolerance: current.Tolerance, Colors: current.Colors}
			if cmd.Flags().Changed("name") {
				in.Name = flags.name
			}
			if cmd.Flags().Changed("tolerance") {
				in.Tolerance = flags.tolerance
			}
			if cmd.Flags().Changed("color") {
				if in.Colors, err = flags.brandColors(); err != nil {
					return err
				}
			}

			p, err := st.UpdateProfile(args[0], in)
			if err != nil {
				return err
			}
			if a.jsonOutput {
				return a.printJSON(cmd, p)
			}
			return printProfile(cmd, p)
		},
	}

	flags.register(cmd)
	return cmd
}

func (a *app) profileDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a brand profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			if err := st.DeleteProfile(args[0]); err != nil {
				return err
			}
			cmd.Printf("deleted %s\n", args[0])
			return nil
		},
	}
}
