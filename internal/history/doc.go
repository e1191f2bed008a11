// Package history persists deduplicated browser-history records backed by
// SQLite.
//
// A record is a (url, title, canonical_key) triple; the canonical key is
// derived from the title with textutil.CanonicalKey. No two records share the
// same (canonical_key, url) pair; exact duplicates are dropped on ingest.
// The same key may still map to several URLs, retained in insertion order so
// downstream tie-breaks are deterministic.
//
// Two database files participate: a transient staging database written by
// ingestion, and the long-lived store the staging file is merged into on an
// explicit save. Promotion and persisted-store cleansing take a file lock and
// work on a temp copy that atomically replaces the store, so a crash cannot
// corrupt previously saved history.
package history
