package history_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ratchetapps/urlstash/internal/history"
	"github.com/ratchetapps/urlstash/internal/textutil"
)

func seedDatabase(t *testing.T, path string, rows []history.Row) {
	t.Helper()
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer store.Close()
	if _, err := store.Ingest(context.Background(), rows); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
}

func TestPromoteMergesStaging(t *testing.T) {
	dir := t.TempDir()
	stagingPath := filepath.Join(dir, "history.staging.db")
	storePath := filepath.Join(dir, "history.db")
	ctx := context.Background()

	seedDatabase(t, storePath, []history.Row{
		{URL: "https://example.net/a", Title: "Existing"},
	})
	seedDatabase(t, stagingPath, []history.Row{
		{URL: "https://example.net/a", Title: "Existing"},
		{URL: "https://example.net/b", Title: "Fresh"},
	})

	result, err := history.Promote(ctx, stagingPath, storePath)
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if result.Added != 1 || result.Duplicates != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if _, err := os.Stat(stagingPath); !os.IsNotExist(err) {
		t.Fatal("staging database should be removed after promotion")
	}

	store, err := history.Open(storePath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 records after promotion, got %d", count)
	}
}

func TestPromoteCreatesStoreWhenMissing(t *testing.T) {
	dir := t.TempDir()
	stagingPath := filepath.Join(dir, "history.staging.db")
	storePath := filepath.Join(dir, "history.db")
	ctx := context.Background()

	seedDatabase(t, stagingPath, []history.Row{
		{URL: "https://example.net/a", Title: "First Ever"},
	})

	result, err := history.Promote(ctx, stagingPath, storePath)
	if err != nil {
		t.Fatalf("Promote: %v", err)
	}
	if result.Added != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	store, err := history.Open(storePath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	urls, err := store.Lookup(ctx, textutil.CanonicalKey("First Ever"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(urls) != 1 {
		t.Fatalf("expected promoted record, got %v", urls)
	}
}

func TestPromoteWithoutStaging(t *testing.T) {
	dir := t.TempDir()
	_, err := history.Promote(context.Background(), filepath.Join(dir, "missing.db"), filepath.Join(dir, "history.db"))
	if !errors.Is(err, history.ErrNoStaging) {
		t.Fatalf("expected ErrNoStaging, got %v", err)
	}
}

func TestCleanseStoreReplacesInPlace(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "history.db")
	ctx := context.Background()

	seedDatabase(t, storePath, []history.Row{
		{URL: "https://ads.example/1", Title: "Noise"},
		{URL: "https://example.net/2", Title: "Signal"},
	})

	result, err := history.CleanseStore(ctx, storePath, history.CleanseOptions{Substrings: []string{"ads.example"}})
	if err != nil {
		t.Fatalf("CleanseStore: %v", err)
	}
	if result.Filtered != 1 || result.Remaining != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}

	if _, err := os.Stat(storePath + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp database should not linger")
	}

	store, err := history.Open(storePath)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer store.Close()
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record after cleanse, got %d", count)
	}
}
