package main

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/ratchetapps/urlstash/internal/history"
	"github.com/ratchetapps/urlstash/internal/textutil"
)

func createBrowserFixture(t *testing.T, rows map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "places.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE moz_places (id INTEGER PRIMARY KEY, url TEXT, title TEXT)`); err != nil {
		t.Fatalf("create fixture table: %v", err)
	}
	for url, title := range rows {
		if _, err := db.Exec(`INSERT INTO moz_places (url, title) VALUES (?, ?)`, url, title); err != nil {
			t.Fatalf("seed fixture: %v", err)
		}
	}
	return path
}

func TestHistoryImportSaveStats(t *testing.T) {
	configPath := writeTestConfig(t, "http://localhost:9999")
	fixture := createBrowserFixture(t, map[string]string{
		"https://example.net/a": "Scene One",
		"https://example.net/b": "Scene Two",
	})

	out, _, err := runCLI(t, configPath, "", "history", "import", fixture)
	if err != nil {
		t.Fatalf("history import: %v", err)
	}
	requireContains(t, out, "Staged 2 new")

	out, _, err = runCLI(t, configPath, "", "history", "save")
	if err != nil {
		t.Fatalf("history save: %v", err)
	}
	requireContains(t, out, "Merged 2 new records")

	out, _, err = runCLI(t, configPath, "", "history", "stats")
	if err != nil {
		t.Fatalf("history stats: %v", err)
	}
	requireContains(t, out, "Records")

	store, err := history.Open(storePathFor(t, configPath))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	urls, err := store.Lookup(context.Background(), textutil.CanonicalKey("Scene One"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://example.net/a" {
		t.Fatalf("unexpected lookup result: %v", urls)
	}
}

func TestHistorySaveWithoutStaging(t *testing.T) {
	configPath := writeTestConfig(t, "http://localhost:9999")

	if _, _, err := runCLI(t, configPath, "", "history", "save"); err == nil {
		t.Fatal("expected error when nothing is staged")
	}
}

func TestHistoryCleanseFiltersStore(t *testing.T) {
	configPath := writeTestConfig(t, "http://localhost:9999")

	store, err := history.Open(storePathFor(t, configPath))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.Ingest(context.Background(), []history.Row{
		{URL: "https://ads.example/x", Title: "Noise"},
		{URL: "https://example.net/y", Title: "Signal"},
	}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out, _, err := runCLI(t, configPath, "", "history", "cleanse", "--filter", "ads.example")
	if err != nil {
		t.Fatalf("history cleanse: %v", err)
	}
	requireContains(t, out, "1 filtered")
	requireContains(t, out, "1 remaining")
}
