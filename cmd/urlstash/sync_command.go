package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ratchetapps/urlstash/internal/config"
	"github.com/ratchetapps/urlstash/internal/scanner"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync <side.db>",
		Short: "Push scene URL assignments from a side database into the catalog",
		Long: "Reads (scene_id, url) rows from the side database's " +
			"scene_file_summary table and attaches each URL to its scene. URLs " +
			"a scene already carries are skipped, so re-running a sync is safe.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			catalog, err := ctx.newCatalog()
			if err != nil {
				return err
			}

			sidePath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			pairs, err := scanner.ReadSceneSummary(runCtx, sidePath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(pairs) == 0 {
				fmt.Fprintln(out, "Side database has no URL assignments.")
				return nil
			}

			report, err := scanner.Sync(runCtx, catalog, pairs, cfg.Scan.Tag, logger)
			if report != nil {
				fmt.Fprintf(out, "Synced %d, skipped %d, failed %d\n",
					len(report.Committed), len(report.Skipped), len(report.Failures))
				for sceneID, sceneErr := range report.Failures {
					fmt.Fprintf(out, "Scene %d failed: %v\n", sceneID, sceneErr)
				}
			}
			return err
		},
	}
}
