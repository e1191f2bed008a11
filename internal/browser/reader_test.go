package browser_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/ratchetapps/urlstash/internal/browser"
)

func createFixture(t *testing.T, schema string, inserts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "History")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create fixture schema: %v", err)
	}
	for _, insert := range inserts {
		if _, err := db.Exec(insert); err != nil {
			t.Fatalf("seed fixture: %v", err)
		}
	}
	return path
}

func TestReadFirefoxLayout(t *testing.T) {
	path := createFixture(t,
		`CREATE TABLE moz_places (id INTEGER PRIMARY KEY, url TEXT, title TEXT, visit_count INTEGER)`,
		`INSERT INTO moz_places (url, title, visit_count) VALUES ('https://example.net/a', 'First Visit', 3)`,
		`INSERT INTO moz_places (url, title, visit_count) VALUES ('https://example.net/b', NULL, 1)`,
	)

	snapshot, err := browser.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snapshot.Table != "moz_places" || snapshot.Source != "firefox" {
		t.Fatalf("unexpected detection: table=%s source=%s", snapshot.Table, snapshot.Source)
	}
	if len(snapshot.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(snapshot.Rows))
	}
	if snapshot.Rows[0].Title != "First Visit" {
		t.Fatalf("unexpected first row: %+v", snapshot.Rows[0])
	}
	if snapshot.Rows[1].Title != "" {
		t.Fatalf("NULL title should scan as empty, got %+v", snapshot.Rows[1])
	}
}

func TestReadChromiumLayout(t *testing.T) {
	path := createFixture(t,
		`CREATE TABLE urls (id INTEGER PRIMARY KEY, url TEXT, title TEXT, last_visit_time INTEGER)`,
		`INSERT INTO urls (url, title) VALUES ('https://example.net/c', 'Chromium Visit')`,
	)

	snapshot, err := browser.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snapshot.Table != "urls" || snapshot.Source != "chromium" {
		t.Fatalf("unexpected detection: table=%s source=%s", snapshot.Table, snapshot.Source)
	}
	if len(snapshot.Rows) != 1 || snapshot.Rows[0].URL != "https://example.net/c" {
		t.Fatalf("unexpected rows: %+v", snapshot.Rows)
	}
}

func TestReadExportLayoutWinsOverBrowserTables(t *testing.T) {
	path := createFixture(t,
		`CREATE TABLE browser_hist (url TEXT, title TEXT);
		 CREATE TABLE urls (id INTEGER PRIMARY KEY, url TEXT, title TEXT)`,
		`INSERT INTO browser_hist (url, title) VALUES ('https://example.net/d', 'Exported')`,
		`INSERT INTO urls (url, title) VALUES ('https://example.net/e', 'Ignored')`,
	)

	snapshot, err := browser.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snapshot.Table != "browser_hist" || snapshot.Source != "export" {
		t.Fatalf("unexpected detection: table=%s source=%s", snapshot.Table, snapshot.Source)
	}
	if len(snapshot.Rows) != 1 || snapshot.Rows[0].Title != "Exported" {
		t.Fatalf("unexpected rows: %+v", snapshot.Rows)
	}
}

func TestReadFallsBackToColumnDetection(t *testing.T) {
	path := createFixture(t,
		`CREATE TABLE visits (url TEXT, title TEXT, visited_at TEXT)`,
		`INSERT INTO visits (url, title) VALUES ('https://example.net/f', 'Custom Layout')`,
	)

	snapshot, err := browser.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if snapshot.Table != "visits" {
		t.Fatalf("expected column-level detection, got table=%s", snapshot.Table)
	}
}

func TestReadRejectsUnrecognizedDatabase(t *testing.T) {
	path := createFixture(t,
		`CREATE TABLE settings (key TEXT, value TEXT)`,
	)

	_, err := browser.Read(context.Background(), path)
	if !errors.Is(err, browser.ErrNoHistoryTable) {
		t.Fatalf("expected ErrNoHistoryTable, got %v", err)
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := browser.Read(context.Background(), filepath.Join(t.TempDir(), "absent.db"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadSkipsEmptyURLs(t *testing.T) {
	path := createFixture(t,
		`CREATE TABLE urls (id INTEGER PRIMARY KEY, url TEXT, title TEXT)`,
		`INSERT INTO urls (url, title) VALUES ('', 'Blank')`,
		`INSERT INTO urls (url, title) VALUES ('https://example.net/g', 'Kept')`,
	)

	snapshot, err := browser.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(snapshot.Rows) != 1 || snapshot.Rows[0].Title != "Kept" {
		t.Fatalf("unexpected rows: %+v", snapshot.Rows)
	}
}
