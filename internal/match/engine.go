// Package match resolves scene filenames to history URLs through the
// shared canonical key space.
package match

import (
	"context"
	"log/slog"

	"github.com/ratchetapps/urlstash/internal/history"
	"github.com/ratchetapps/urlstash/internal/logging"
	"github.com/ratchetapps/urlstash/internal/textutil"
)

// Result describes one resolved filename.
type Result struct {
	Filename     string
	CanonicalKey string
	URL          string
	Alternates   []string
}

// Engine matches filenames against the history store.
type Engine struct {
	store  *history.Store
	logger *slog.Logger
}

// NewEngine wires a matcher over an open history store.
func NewEngine(store *history.Store, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logging.NewComponentLogger(logger, "match")}
}

// Find normalizes the filename and looks the key up in the store. When
// several URLs share the key the earliest ingested one wins and the rest
// are reported as alternates. A filename that normalizes to nothing or
// has no stored key returns found=false with no error.
func (e *Engine) Find(ctx context.Context, filename string) (Result, bool, error) {
	key := textutil.CanonicalKey(filename)
	if key == "" {
		e.logger.Debug("filename normalized to empty key", logging.String("filename", filename))
		return Result{Filename: filename}, false, nil
	}

	urls, err := e.store.Lookup(ctx, key)
	if err != nil {
		return Result{}, false, err
	}
	if len(urls) == 0 {
		return Result{Filename: filename, CanonicalKey: key}, false, nil
	}

	result := Result{
		Filename:     filename,
		CanonicalKey: key,
		URL:          urls[0],
	}
	if len(urls) > 1 {
		result.Alternates = urls[1:]
		e.logger.Debug("ambiguous key matched",
			logging.String("key", key),
			logging.Int("candidates", len(urls)))
	}
	return result, true, nil
}
