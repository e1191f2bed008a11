package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ratchetapps/urlstash/internal/history"
	"github.com/ratchetapps/urlstash/internal/match"
	"github.com/ratchetapps/urlstash/internal/scanner"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var startID int
	var skipOrganized bool
	var batchSize int
	var acceptAll bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan catalog scenes for history URL matches",
		Long: "Walks scenes in ascending ID order, matches each filename " +
			"against the history store, and surfaces candidates in batches for " +
			"review. Accepted candidates are written back to the catalog; " +
			"existing scene URLs are never removed.",
		Args: cobra.NoArgs,
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

			store, err := history.Open(cfg.StorePath())
			if err != nil {
				return err
			}
			defer store.Close()

			opts := scanner.Options{
				StartSceneID:  startID,
				SkipOrganized: cfg.Scan.SkipOrganized,
				BatchSize:     cfg.Scan.BatchSize,
				RequestDelay:  time.Duration(cfg.Scan.RequestDelayMS) * time.Millisecond,
				Tag:           cfg.Scan.Tag,
			}
			if cmd.Flags().Changed("skip-organized") {
				opts.SkipOrganized = skipOrganized
			}
			if cmd.Flags().Changed("batch-size") {
				opts.BatchSize = batchSize
			}

			controller := scanner.New(catalog, match.NewEngine(store, logger), logger, opts)

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			session := &scanSession{
				controller:  controller,
				out:         cmd.OutOrStdout(),
				in:          cmd.InOrStdin(),
				interactive: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
				acceptAll:   acceptAll,
			}
			return session.run(runCtx)
		},
	}

	cmd.Flags().IntVar(&startID, "start-id", 0, "Scene ID to start scanning from (default: lowest)")
	cmd.Flags().BoolVar(&skipOrganized, "skip-organized", true, "Skip scenes marked organized")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "Candidates per review batch")
	cmd.Flags().BoolVarP(&acceptAll, "yes", "y", false, "Commit every batch without prompting")
	return cmd
}

type scanSession struct {
	controller  *scanner.Controller
	out         io.Writer
	in          io.Reader
	interactive bool
	acceptAll   bool
}

func (s *scanSession) run(ctx context.Context) error {
	reader := bufio.NewScanner(s.in)

	for {
		batch, err := s.controller.Scan(ctx)
		if err != nil {
			return err
		}

		if len(batch.Candidates) == 0 {
			// A batch is only empty when the catalog ran out.
			fmt.Fprintln(s.out, "Catalog exhausted; no more candidates.")
			fmt.Fprintf(s.out, "Next start id: %d\n", batch.NextCursor)
			return nil
		}

		s.renderBatch(batch)

		action, err := s.review(reader, batch)
		if err != nil {
			return err
		}

		switch action {
		case reviewAccept:
			report, err := s.controller.Commit(ctx)
			if err != nil {
				return err
			}
			s.renderReport(report)
		case reviewSkip:
			if err := s.controller.Abandon(); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "Batch skipped.")
		case reviewQuit:
			if err := s.controller.Abandon(); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "Next start id: %d\n", batch.NextCursor)
			return nil
		}

		if batch.Exhausted {
			fmt.Fprintln(s.out, "Catalog exhausted.")
			fmt.Fprintf(s.out, "Next start id: %d\n", batch.NextCursor)
			return nil
		}
	}
}

// review collects decisions for the current batch. Non-interactive runs
// never prompt: with --yes every batch commits as-is, otherwise the batch
// is abandoned so a piped invocation cannot write by accident.
func (s *scanSession) review(reader *bufio.Scanner, batch *scanner.Batch) (reviewAction, error) {
	if s.acceptAll {
		return reviewAccept, nil
	}
	if !s.interactive {
		fmt.Fprintln(s.out, "Not a terminal; pass --yes to commit without review.")
		return reviewQuit, nil
	}

	for {
		fmt.Fprint(s.out, "[a]ccept  [s]kip batch  [q]uit  all  none  <scene id> toggles> ")
		if !reader.Scan() {
			if err := reader.Err(); err != nil {
				return reviewQuit, err
			}
			return reviewQuit, nil
		}

		action, sceneID, err := parseReviewInput(reader.Text())
		if err != nil {
			fmt.Fprintln(s.out, err)
			continue
		}

		switch action {
		case reviewToggle:
			if err := s.controller.Toggle(sceneID); err != nil {
				fmt.Fprintln(s.out, err)
				continue
			}
			s.renderBatch(batch)
		case reviewAll:
			if err := s.controller.SetAll(true); err != nil {
				return reviewQuit, err
			}
			s.renderBatch(batch)
		case reviewNone:
			if err := s.controller.SetAll(false); err != nil {
				return reviewQuit, err
			}
			s.renderBatch(batch)
		default:
			return action, nil
		}
	}
}

type reviewAction int

const (
	reviewAccept reviewAction = iota
	reviewSkip
	reviewQuit
	reviewToggle
	reviewAll
	reviewNone
)

// parseReviewInput maps one review prompt line to an action. A bare
// number toggles that scene's decision.
func parseReviewInput(line string) (reviewAction, int, error) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "a", "accept", "":
		return reviewAccept, 0, nil
	case "s", "skip":
		return reviewSkip, 0, nil
	case "q", "quit":
		return reviewQuit, 0, nil
	case "all":
		return reviewAll, 0, nil
	case "none":
		return reviewNone, 0, nil
	}

	sceneID, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return reviewToggle, 0, fmt.Errorf("unrecognized input %q (scene id, a, s, q, all, or none)", strings.TrimSpace(line))
	}
	return reviewToggle, sceneID, nil
}

func (s *scanSession) renderBatch(batch *scanner.Batch) {
	decisions := s.controller.Decisions()
	rows := make([][]string, 0, len(batch.Candidates))
	for _, candidate := range batch.Candidates {
		rows = append(rows, []string{
			strconv.Itoa(candidate.SceneID),
			candidate.Filename,
			candidate.MatchedURL,
			yesNo(decisions[candidate.SceneID]),
		})
	}
	fmt.Fprintln(s.out, renderTable(
		[]tableColumn{
			{name: "Scene", alignRight: true},
			{name: "Filename", maxWidth: 48},
			{name: "Matched URL", maxWidth: 64},
			{name: "Accept"},
		},
		rows,
	))
}

func (s *scanSession) renderReport(report *scanner.CommitReport) {
	fmt.Fprintf(s.out, "Committed %d, skipped %d already present, rejected %d\n",
		len(report.Committed), len(report.Skipped), len(report.Rejected))
	for sceneID, err := range report.Failures {
		fmt.Fprintf(s.out, "Scene %d failed: %v\n", sceneID, err)
	}
}
