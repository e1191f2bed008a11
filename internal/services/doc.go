// Package services defines shared utilities consumed by the scan controller
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp scene IDs and correlation identifiers for
//     logging.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification uniform: catalog connectivity problems abort a scan,
//     per-row and per-scene problems are recovered inline.
package services
