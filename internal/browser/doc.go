// Package browser reads visit history out of browser profile databases.
// Firefox, Chromium derivatives, and this tool's own exports all keep
// history in SQLite with different table layouts; the reader detects
// which layout a file uses and extracts URL and title pairs from it.
package browser
