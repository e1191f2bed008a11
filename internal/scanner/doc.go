// Package scanner walks catalog scenes in ascending ID order, matches
// each scene's filename against the history store, and accumulates
// batches of candidate URLs for review before anything is written back.
package scanner
