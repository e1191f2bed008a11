package browser

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/ratchetapps/urlstash/internal/history"
	"github.com/ratchetapps/urlstash/internal/services"
)

// ErrNoHistoryTable marks a database with no recognizable history layout.
var ErrNoHistoryTable = errors.New("no history table found")

// Known history tables, in detection order. The export layout wins when
// present so re-importing our own save files round-trips cleanly.
var knownTables = []struct {
	table  string
	source string
}{
	{table: "browser_hist", source: "export"},
	{table: "moz_places", source: "firefox"},
	{table: "urls", source: "chromium"},
}

// Snapshot holds the rows extracted from one browser database.
type Snapshot struct {
	Path   string
	Table  string
	Source string
	Rows   []history.Row
}

// Read copies the database aside, detects its history layout, and extracts
// all URL and title pairs. Browsers hold their history files locked while
// running, so reads always go through a private copy.
func Read(ctx context.Context, path string) (*Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "browser", "read", "history database not found", err)
	}
	if info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "browser", "read", fmt.Sprintf("%s is a directory", path), nil)
	}

	workDir, err := os.MkdirTemp("", "urlstash-browser-")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	copyPath := filepath.Join(workDir, "history.db")
	if err := copyFile(path, copyPath); err != nil {
		return nil, fmt.Errorf("copy history database: %w", err)
	}
	// Carry the WAL sidecar when present so uncheckpointed visits survive.
	if walErr := copyFile(path+"-wal", copyPath+"-wal"); walErr != nil && !os.IsNotExist(walErr) {
		return nil, fmt.Errorf("copy history wal: %w", walErr)
	}

	db, err := sql.Open("sqlite", copyPath)
	if err != nil {
		return nil, fmt.Errorf("open history copy: %w", err)
	}
	defer db.Close()

	table, source, err := detectTable(ctx, db)
	if err != nil {
		return nil, err
	}

	rows, err := extractRows(ctx, db, table, source)
	if err != nil {
		return nil, err
	}

	return &Snapshot{Path: path, Table: table, Source: source, Rows: rows}, nil
}

// detectTable picks the history table. Known layouts are checked first;
// failing those, any table carrying both a url and a title column is
// accepted.
func detectTable(ctx context.Context, db *sql.DB) (string, string, error) {
	tables, err := listTables(ctx, db)
	if err != nil {
		return "", "", err
	}

	present := make(map[string]bool, len(tables))
	for _, table := range tables {
		present[table] = true
	}

	for _, known := range knownTables {
		if present[known.table] {
			return known.table, known.source, nil
		}
	}

	for _, table := range tables {
		ok, err := hasURLAndTitle(ctx, db, table)
		if err != nil {
			return "", "", err
		}
		if ok {
			return table, table, nil
		}
	}

	return "", "", services.Wrap(services.ErrValidation, "browser", "detect", "no history table found", ErrNoHistoryTable)
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func hasURLAndTitle(ctx context.Context, db *sql.DB, table string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return false, fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	var hasURL, hasTitle bool
	for rows.Next() {
		var (
			cid          int
			name, ctype  string
			notNull, pk  int
			defaultValue sql.NullString
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &defaultValue, &pk); err != nil {
			return false, fmt.Errorf("scan column info: %w", err)
		}
		switch strings.ToLower(name) {
		case "url":
			hasURL = true
		case "title":
			hasTitle = true
		}
	}
	return hasURL && hasTitle, rows.Err()
}

func extractRows(ctx context.Context, db *sql.DB, table, source string) ([]history.Row, error) {
	query := fmt.Sprintf(
		"SELECT url, title FROM %s WHERE url IS NOT NULL AND url != ''",
		quoteIdent(table),
	)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read history rows: %w", err)
	}
	defer rows.Close()

	var extracted []history.Row
	for rows.Next() {
		var url string
		var title sql.NullString
		if err := rows.Scan(&url, &title); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		extracted = append(extracted, history.Row{
			URL:    url,
			Title:  title.String,
			Source: source,
		})
	}
	return extracted, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func copyFile(sourcePath, targetPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer source.Close()

	target, err := os.Create(targetPath)
	if err != nil {
		return err
	}
	if _, err := io.Copy(target, source); err != nil {
		_ = target.Close()
		return err
	}
	return target.Close()
}
