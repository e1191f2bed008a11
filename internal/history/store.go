package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ratchetapps/urlstash/internal/textutil"
)

// Row is a raw (url, title) pair extracted from a browser-history source.
type Row struct {
	URL    string
	Title  string
	Source string
}

// Record is a stored history record.
type Record struct {
	ID           int64
	URL          string
	Title        string
	CanonicalKey string
	Source       string
	AddedAt      time.Time
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	Added      int
	Duplicates int
	Skipped    int
}

// Stats aggregates store contents for diagnostic output.
type Stats struct {
	Records       int
	DistinctKeys  int
	AmbiguousKeys int
}

// Store manages history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to a history database and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path backing the store.
func (s *Store) Path() string {
	return s.path
}

// Ingest normalizes each row's title and merges the records into the store.
// Rows with an empty URL or title are skipped, not fatal. A row whose
// (canonical_key, url) pair already exists is counted as a duplicate and
// dropped; the same key with a new URL is appended.
func (s *Store) Ingest(ctx context.Context, rows []Row) (IngestResult, error) {
	var result IngestResult
	if len(rows) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin ingest tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO history_records (url, title, canonical_key, source, added_at)
         VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return result, fmt.Errorf("prepare ingest: %w", err)
	}
	defer stmt.Close()

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	for _, row := range rows {
		url := strings.TrimSpace(row.URL)
		title := strings.TrimSpace(row.Title)
		if url == "" || title == "" {
			result.Skipped++
			continue
		}
		key := textutil.CanonicalKey(title)
		if key == "" {
			result.Skipped++
			continue
		}

		res, err := stmt.ExecContext(ctx, url, title, key, nullableString(row.Source), timestamp)
		if err != nil {
			return result, fmt.Errorf("insert record: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return result, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			result.Duplicates++
		} else {
			result.Added++
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("commit ingest: %w", err)
	}
	return result, nil
}

// Lookup returns all URLs whose record has the given canonical key, in
// insertion order of first occurrence.
func (s *Store) Lookup(ctx context.Context, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url FROM history_records WHERE canonical_key = ? ORDER BY id`, key)
	if err != nil {
		return nil, fmt.Errorf("lookup key: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

// Records returns every stored record in insertion order.
func (s *Store) Records(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, title, canonical_key, source, added_at FROM history_records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM history_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// Stats returns record counts grouped for diagnostic output. A key is
// ambiguous when more than one distinct URL shares it.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM history_records`).Scan(&stats.Records); err != nil {
		return stats, fmt.Errorf("count records: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM (SELECT canonical_key FROM history_records GROUP BY canonical_key)`,
	).Scan(&stats.DistinctKeys); err != nil {
		return stats, fmt.Errorf("count keys: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM (
            SELECT canonical_key FROM history_records
            GROUP BY canonical_key HAVING COUNT(1) > 1
        )`,
	).Scan(&stats.AmbiguousKeys); err != nil {
		return stats, fmt.Errorf("count ambiguous keys: %w", err)
	}
	return stats, nil
}

// Vacuum repacks the database file.
func (s *Store) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		record   Record
		source   sql.NullString
		addedRaw string
	)
	if err := scanner.Scan(&record.ID, &record.URL, &record.Title, &record.CanonicalKey, &source, &addedRaw); err != nil {
		return Record{}, err
	}
	record.Source = source.String
	if added, err := time.Parse(time.RFC3339Nano, addedRaw); err == nil {
		record.AddedAt = added
	}
	return record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
