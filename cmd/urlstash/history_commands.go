package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ratchetapps/urlstash/internal/browser"
	"github.com/ratchetapps/urlstash/internal/config"
	"github.com/ratchetapps/urlstash/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Manage the browser-history store",
	}

	historyCmd.AddCommand(newHistoryImportCommand(ctx))
	historyCmd.AddCommand(newHistorySaveCommand(ctx))
	historyCmd.AddCommand(newHistoryCleanseCommand(ctx))
	historyCmd.AddCommand(newHistoryStatsCommand(ctx))

	return historyCmd
}

func newHistoryImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Extract history rows from a browser database into staging",
		Long: "Reads a browser history database (Firefox, Chromium, or a prior " +
			"urlstash export), extracts URL and title rows, and merges them into " +
			"the staging store. Review or cleanse the staging store, then run " +
			"`urlstash history save` to promote it.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sourcePath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			snapshot, err := browser.Read(cmd.Context(), sourcePath)
			if err != nil {
				return err
			}

			staging, err := history.Open(cfg.StagingPath())
			if err != nil {
				return err
			}
			defer staging.Close()

			result, err := staging.Ingest(cmd.Context(), snapshot.Rows)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Read %d rows from %s (%s layout)\n", len(snapshot.Rows), snapshot.Path, snapshot.Source)
			fmt.Fprintf(out, "Staged %d new, %d duplicate, %d skipped\n", result.Added, result.Duplicates, result.Skipped)
			fmt.Fprintf(out, "Staging store: %s\n", cfg.StagingPath())
			return nil
		},
	}
}

func newHistorySaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Promote the staging store into the persistent history store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			result, err := history.Promote(cmd.Context(), cfg.StagingPath(), cfg.StorePath())
			if err != nil {
				if errors.Is(err, history.ErrNoStaging) {
					return fmt.Errorf("nothing staged; run `urlstash history import` first")
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Merged %d new records into %s (%d already present)\n",
				result.Added, cfg.StorePath(), result.Duplicates)
			return nil
		},
	}
}

func newHistoryCleanseCommand(ctx *commandContext) *cobra.Command {
	var extraFilters []string
	var keepUntitled bool

	cmd := &cobra.Command{
		Use:   "cleanse",
		Short: "Purge unwanted records from the history store",
		Long: "Removes every stored record whose URL contains one of the " +
			"configured filter substrings (case-insensitive), drops records " +
			"without a title, and applies configured host rewrites. The store " +
			"is rewritten through a temp copy; keep a backup if the filters are " +
			"in doubt.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			filters := append(append([]string(nil), cfg.History.CleanseFilters...), extraFilters...)
			result, err := history.CleanseStore(cmd.Context(), cfg.StorePath(), history.CleanseOptions{
				Substrings:    filters,
				Rewrites:      cfg.History.URLRewrites,
				PurgeUntitled: !keepUntitled,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"Cleansed: %d filtered, %d untitled, %d rewritten, %d remaining\n",
				result.Filtered, result.Untitled, result.Rewritten, result.Remaining)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&extraFilters, "filter", nil, "Additional URL substring to purge (repeatable)")
	cmd.Flags().BoolVar(&keepUntitled, "keep-untitled", false, "Keep records that have no title")
	return cmd
}

func newHistoryStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show history store record counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.StorePath())
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Records", strconv.Itoa(stats.Records)},
				{"Distinct keys", strconv.Itoa(stats.DistinctKeys)},
				{"Ambiguous keys", strconv.Itoa(stats.AmbiguousKeys)},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]tableColumn{{name: "Metric"}, {name: "Value", alignRight: true}},
				rows,
			))
			fmt.Fprintf(out, "Store: %s\n", cfg.StorePath())
			return nil
		},
	}
}
