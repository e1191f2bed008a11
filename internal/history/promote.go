package history

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// ErrNoStaging indicates a promote was requested without a staging database.
var ErrNoStaging = errors.New("no staging history to save")

// Promote merges the staging database into the persisted store. The store
// file is never modified in place: the merge happens on a temp copy that
// atomically replaces the store on success, under a file lock, so a crash
// mid-merge leaves the previously saved history intact. The staging file is
// removed once promoted.
func Promote(ctx context.Context, stagingPath, storePath string) (IngestResult, error) {
	if _, err := os.Stat(stagingPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return IngestResult{}, ErrNoStaging
		}
		return IngestResult{}, fmt.Errorf("stat staging: %w", err)
	}

	staging, err := Open(stagingPath)
	if err != nil {
		return IngestResult{}, fmt.Errorf("open staging: %w", err)
	}
	records, err := staging.Records(ctx)
	closeErr := staging.Close()
	if err != nil {
		return IngestResult{}, fmt.Errorf("read staging: %w", err)
	}
	if closeErr != nil {
		return IngestResult{}, fmt.Errorf("close staging: %w", closeErr)
	}

	rows := make([]Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, Row{URL: record.URL, Title: record.Title, Source: record.Source})
	}

	var result IngestResult
	err = withStoreCopy(storePath, func(store *Store) error {
		var ingestErr error
		result, ingestErr = store.Ingest(ctx, rows)
		if ingestErr != nil {
			return ingestErr
		}
		return store.Vacuum(ctx)
	})
	if err != nil {
		return IngestResult{}, err
	}

	removeDatabase(stagingPath)
	return result, nil
}

// CleanseStore runs a cleanse pass against the persisted store using the same
// temp-copy-then-replace discipline as Promote.
func CleanseStore(ctx context.Context, storePath string, opts CleanseOptions) (CleanseResult, error) {
	var result CleanseResult
	err := withStoreCopy(storePath, func(store *Store) error {
		var cleanseErr error
		result, cleanseErr = store.Cleanse(ctx, opts)
		if cleanseErr != nil {
			return cleanseErr
		}
		return store.Vacuum(ctx)
	})
	if err != nil {
		return CleanseResult{}, err
	}
	return result, nil
}

// withStoreCopy locks the store, clones it to a temp file, hands the clone to
// fn, and promotes the clone over the store when fn succeeds.
func withStoreCopy(storePath string, fn func(*Store) error) error {
	lock := flock.New(storePath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire store lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmpPath := storePath + ".tmp"
	removeDatabase(tmpPath)

	if _, err := os.Stat(storePath); err == nil {
		if err := cloneDatabase(storePath, tmpPath); err != nil {
			return fmt.Errorf("clone store: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat store: %w", err)
	}

	tmp, err := Open(tmpPath)
	if err != nil {
		removeDatabase(tmpPath)
		return fmt.Errorf("open store copy: %w", err)
	}

	if err := fn(tmp); err != nil {
		_ = tmp.Close()
		removeDatabase(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		removeDatabase(tmpPath)
		return fmt.Errorf("close store copy: %w", err)
	}

	if err := os.Rename(tmpPath, storePath); err != nil {
		removeDatabase(tmpPath)
		return fmt.Errorf("replace store: %w", err)
	}
	// Sidecar journals belong to the pre-replace file.
	os.Remove(storePath + "-wal")
	os.Remove(storePath + "-shm")
	return nil
}

// removeDatabase deletes a SQLite database file and its sidecar journals.
func removeDatabase(path string) {
	os.Remove(path)
	os.Remove(path + "-wal")
	os.Remove(path + "-shm")
}

// cloneDatabase copies a SQLite database through VACUUM INTO, which folds any
// pending WAL content into the copy.
func cloneDatabase(sourcePath, targetPath string) error {
	source, err := Open(sourcePath)
	if err != nil {
		return err
	}
	_, execErr := source.db.Exec("VACUUM INTO ?", targetPath)
	closeErr := source.Close()
	if execErr != nil {
		return execErr
	}
	return closeErr
}
