package scanner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"github.com/ratchetapps/urlstash/internal/logging"
	"github.com/ratchetapps/urlstash/internal/services"
	"github.com/ratchetapps/urlstash/internal/stash"
)

// SyncPair is one scene-to-URL assignment read from a side database.
type SyncPair struct {
	SceneID int
	URL     string
}

// ReadSceneSummary loads (scene_id, url) assignments from a side
// database's scene_file_summary table. Rows without a URL are ignored.
func ReadSceneSummary(ctx context.Context, path string) ([]SyncPair, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, services.Wrap(services.ErrNotFound, "sync", "read summary", "side database not found", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open side database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT scene_id, url_1 FROM scene_file_summary
		 WHERE url_1 IS NOT NULL AND url_1 != ''
		 ORDER BY scene_id`)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "sync", "read summary",
			"side database has no scene_file_summary table", err)
	}
	defer rows.Close()

	var pairs []SyncPair
	for rows.Next() {
		var pair SyncPair
		if err := rows.Scan(&pair.SceneID, &pair.URL); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		pairs = append(pairs, pair)
	}
	return pairs, rows.Err()
}

// Sync pushes the assignments into the catalog with the same suppression
// a scan commit applies: a URL the scene already carries is skipped, and
// one scene's failure does not stop the rest. Cancellation is honored
// between scenes.
func Sync(ctx context.Context, catalog stash.Catalog, pairs []SyncPair, tag string, logger *slog.Logger) (*CommitReport, error) {
	logger = logging.NewComponentLogger(logger, "sync")

	var tagID string
	report := &CommitReport{Failures: make(map[int]error)}
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		sceneCtx := services.WithSceneID(ctx, pair.SceneID)
		scene, err := catalog.Scene(sceneCtx, pair.SceneID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				report.Skipped = append(report.Skipped, pair.SceneID)
				continue
			}
			if services.IsFatal(err) {
				return report, err
			}
			report.Failures[pair.SceneID] = err
			continue
		}
		if scene.HasURL(pair.URL) {
			report.Skipped = append(report.Skipped, pair.SceneID)
			continue
		}

		tagIDs := scene.TagIDs
		if tag != "" {
			if tagID == "" {
				tagID, err = catalog.EnsureTag(ctx, tag)
				if err != nil {
					return report, err
				}
			}
			tagIDs = mergeTag(tagIDs, tagID)
		}

		urls := append(append([]string(nil), scene.URLs...), pair.URL)
		if err := catalog.UpdateScene(sceneCtx, pair.SceneID, urls, tagIDs); err != nil {
			report.Failures[pair.SceneID] = err
			logging.WithContext(sceneCtx, logger).Error("scene sync failed",
				logging.Error(err))
			continue
		}
		report.Committed = append(report.Committed, pair.SceneID)
		logging.WithContext(sceneCtx, logger).Info("scene synced",
			logging.String("url", pair.URL))
	}
	return report, nil
}
