package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/color-validator-mcp/internal/store"
)

func (a *app) historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", limit)
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			records := st.ListHistory(limit)

			if a.jsonOutput {
				if records == nil {
					records = []store.AnalysisRecord{}
				}
				return a.printJSON(cmd, records)
			}

			tw := newTable(cmd, "ID", "DATE", "FILE", "PROFILE", "COMPLIANCE", "STATUS")
			for _, r := range records {
				row(tw,
					r.ID,
					r.CreatedAt.Local().Format("2006-01-02 15:04"),
					r.FileName,
					titleCaser.String(r.ProfileName),
					fmt.Sprintf("%d%% (%d/%d)", r.Compliance, r.Passed, r.ColorCount),
					r.Status,
				)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries, 0 for all")
	return cmd
}
