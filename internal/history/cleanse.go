package history

import (
	"context"
	"fmt"
	"strings"
)

// CleanseOptions controls one cleanse pass.
type CleanseOptions struct {
	// Substrings are literal, case-insensitive URL fragments; any record
	// whose URL contains one is removed. An empty list removes nothing.
	Substrings []string
	// Rewrites substitutes URL fragments before filtering, e.g. mirror
	// hosts folded back to the canonical domain.
	Rewrites map[string]string
	// PurgeUntitled removes records whose title is empty. Ingestion already
	// skips those, so this only matters for stores written by older tools.
	PurgeUntitled bool
}

// CleanseResult summarizes one cleanse pass.
type CleanseResult struct {
	Filtered  int
	Untitled  int
	Rewritten int
	Remaining int
}

// Cleanse removes records matching the options from the store. The caller is
// assumed to hold a backup; removal is irreversible here. An empty option set
// is a no-op, not an error.
func (s *Store) Cleanse(ctx context.Context, opts CleanseOptions) (CleanseResult, error) {
	var result CleanseResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin cleanse tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for from, to := range opts.Rewrites {
		res, err := tx.ExecContext(ctx,
			`UPDATE OR IGNORE history_records SET url = REPLACE(url, ?, ?)
             WHERE instr(url, ?) > 0`, from, to, from)
		if err != nil {
			return result, fmt.Errorf("rewrite %q: %w", from, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return result, fmt.Errorf("rows affected: %w", err)
		}
		result.Rewritten += int(affected)

		// A row the update skipped collided with an existing
		// (canonical_key, url) pair, so its rewritten form is already
		// stored. Fold it into that record by dropping the original.
		res, err = tx.ExecContext(ctx,
			`DELETE FROM history_records WHERE instr(url, ?) > 0`, from)
		if err != nil {
			return result, fmt.Errorf("drop colliding rewrite %q: %w", from, err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return result, fmt.Errorf("rows affected: %w", err)
		}
		result.Rewritten += int(affected)
	}

	if opts.PurgeUntitled {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM history_records WHERE title IS NULL OR trim(title) = ''`)
		if err != nil {
			return result, fmt.Errorf("purge untitled: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return result, fmt.Errorf("rows affected: %w", err)
		}
		result.Untitled = int(affected)
	}

	for _, substring := range opts.Substrings {
		needle := strings.ToLower(strings.TrimSpace(substring))
		if needle == "" {
			continue
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM history_records WHERE instr(lower(url), ?) > 0`, needle)
		if err != nil {
			return result, fmt.Errorf("filter %q: %w", substring, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return result, fmt.Errorf("rows affected: %w", err)
		}
		result.Filtered += int(affected)
	}

	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM history_records`).Scan(&result.Remaining); err != nil {
		return result, fmt.Errorf("count remaining: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("commit cleanse: %w", err)
	}
	return result, nil
}
