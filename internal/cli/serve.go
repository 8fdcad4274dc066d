package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ironsheep/color-validator-mcp/internal/config"
	"github.com/ironsheep/color-validator-mcp/internal/logging"
	"github.com/ironsheep/color-validator-mcp/internal/server"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tools over stdin and stdout",
		Long: NewTermWrap(80, 24).Paragraph("Runs the MCP server. Requests are read from stdin one per line and " +
			"responses written to stdout, so logs go to stderr, syslog or a file. The store is reloaded " +
			"whenever another process changes it."),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.LogDst == logging.DstStdout {
				return fmt.Errorf("%s %s would mix logs into the MCP responses: use stderr, syslog or a file",
					config.KeyLogDst, logging.DstStdout)
			}

			analyzer, err := a.openAnalyzer()
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			go func() {
				err := a.store.Watch(ctx, func() {
					log.Info().Int("profiles", len(a.store.ListProfiles())).Msg("store changed on disk")
				})
				if err != nil {
					log.Warn().Err(err).Msg("store changes will not be picked up")
				}
			}()

			srv := server.New(server.Config{
				Analyzer: analyzer,
				Store:    a.store,
				Cache:    a.cache,
				Extract:  a.cfg.ExtractOptions(),
				Version:  a.build.Version,

				DefaultTolerance: a.cfg.DefaultTolerance,
			})

			log.Info().
				Str("version", a.build.Version).
				Str("store", a.store.Path()).
				Int("workers", a.cfg.WorkerCount()).
				Msg("serving MCP on stdio")

			return srv.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.jsonOutput {
				return a.printJSON(cmd, a.build)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", AppName, a.build.Version)
			fmt.Fprintf(out, "  Build time: %s\n", a.build.BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", a.build.GitCommit)
			return nil
		},
	}
}
