package testsupport

import (
	"context"
	"testing"

	"github.com/ratchetapps/urlstash/internal/config"
	"github.com/ratchetapps/urlstash/internal/history"
)

// MustOpenStore opens the config's history store for tests and registers
// cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.StorePath())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedRows ingests rows into the store, failing the test on any error.
func SeedRows(t testing.TB, store *history.Store, rows ...history.Row) history.IngestResult {
	t.Helper()

	result, err := store.Ingest(context.Background(), rows)
	if err != nil {
		t.Fatalf("store.Ingest: %v", err)
	}
	return result
}
