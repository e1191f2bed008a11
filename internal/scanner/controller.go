package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ratchetapps/urlstash/internal/logging"
	"github.com/ratchetapps/urlstash/internal/match"
	"github.com/ratchetapps/urlstash/internal/services"
	"github.com/ratchetapps/urlstash/internal/stash"
)

// State identifies where the controller is in its review cycle.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateBatchReady
	StateCommitting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateBatchReady:
		return "batch-ready"
	case StateCommitting:
		return "committing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Candidate is one proposed scene-to-URL pairing awaiting a decision.
type Candidate struct {
	SceneID      int
	Filename     string
	Title        string
	CanonicalKey string
	MatchedURL   string
	Alternates   []string
}

// Batch is the review unit a scan pass produces. Exhausted means the
// cursor ran past the highest known scene ID; it can be true with a
// partially filled or empty batch and is a normal outcome.
type Batch struct {
	Candidates []Candidate
	Exhausted  bool
	NextCursor int
}

// CommitReport records the per-scene outcome of one commit pass.
type CommitReport struct {
	Committed []int
	Skipped   []int
	Rejected  []int
	Failures  map[int]error
}

// Options configures a scan session.
type Options struct {
	// StartSceneID of zero means begin at the lowest scene ID.
	StartSceneID  int
	SkipOrganized bool
	BatchSize     int
	// RequestDelay is the pause between consecutive scene fetches.
	RequestDelay time.Duration
	// Tag is attached to every scene a commit updates. Empty disables
	// tagging.
	Tag string
}

// Controller owns the scan state machine. One scan session runs at a
// time; the controller is not safe for concurrent use.
type Controller struct {
	catalog stash.Catalog
	matcher *match.Engine
	logger  *slog.Logger
	opts    Options

	state     State
	cursor    int
	maxID     int
	exhausted bool
	batch     []Candidate
	decisions map[int]bool
	tagID     string
	sessionID string
}

// New builds a controller. Each session gets a correlation ID; Scan and
// Commit stamp it on their context so interleaved log output from
// separate runs stays attributable.
func New(catalog stash.Catalog, matcher *match.Engine, logger *slog.Logger, opts Options) *Controller {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	return &Controller{
		catalog:   catalog,
		matcher:   matcher,
		logger:    logging.NewComponentLogger(logger, "scanner"),
		sessionID: uuid.NewString(),
		opts:      opts,
		state:     StateIdle,
	}
}

// State returns the controller's current state.
func (c *Controller) State() State {
	return c.state
}

// Cursor returns the next scene ID the scan will fetch.
func (c *Controller) Cursor() int {
	return c.cursor
}

// Scan advances the cursor until the batch fills or the catalog is
// exhausted, then parks in BatchReady. Cancellation is honored at scene
// boundaries: an in-flight fetch completes, the next one does not start.
func (c *Controller) Scan(ctx context.Context) (*Batch, error) {
	ctx = services.WithRequestID(ctx, c.sessionID)
	switch c.state {
	case StateIdle:
		maxID, err := c.catalog.MaxSceneID(ctx)
		if err != nil {
			return nil, err
		}
		c.maxID = maxID
		c.cursor = c.opts.StartSceneID
		if c.cursor <= 0 {
			c.cursor = 1
		}
		c.state = StateScanning
		logging.WithContext(ctx, c.logger).Info("scan started",
			logging.Int("max_scene_id", maxID),
			logging.Duration("request_delay", c.opts.RequestDelay))
	case StateScanning:
	default:
		return nil, services.Wrap(services.ErrValidation, "scanner", "scan",
			fmt.Sprintf("cannot scan from state %s", c.state), nil)
	}

	c.batch = nil
	c.decisions = make(map[int]bool)

	for c.cursor <= c.maxID && len(c.batch) < c.opts.BatchSize {
		if err := ctx.Err(); err != nil {
			c.state = StateIdle
			return nil, err
		}

		sceneID := c.cursor
		c.cursor++
		sceneCtx := services.WithSceneID(ctx, sceneID)

		scene, err := c.catalog.Scene(sceneCtx, sceneID)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				c.pause(ctx)
				continue
			}
			if services.IsFatal(err) {
				c.state = StateIdle
				return nil, err
			}
			logging.WithContext(sceneCtx, c.logger).Warn("scene fetch failed, skipping",
				logging.Error(err))
			c.pause(ctx)
			continue
		}

		if c.opts.SkipOrganized && scene.Organized {
			c.pause(ctx)
			continue
		}
		if scene.Filename == "" {
			c.pause(ctx)
			continue
		}

		result, found, err := c.matcher.Find(sceneCtx, scene.Filename)
		if err != nil {
			c.state = StateIdle
			return nil, err
		}
		if !found {
			c.pause(ctx)
			continue
		}
		if scene.HasURL(result.URL) {
			// Already attached; never surfaced and never counted.
			c.pause(ctx)
			continue
		}

		c.batch = append(c.batch, Candidate{
			SceneID:      scene.ID,
			Filename:     scene.Filename,
			Title:        scene.Title,
			CanonicalKey: result.CanonicalKey,
			MatchedURL:   result.URL,
			Alternates:   result.Alternates,
		})
		c.decisions[scene.ID] = true
		logging.WithContext(sceneCtx, c.logger).Info("candidate found",
			logging.String("url", result.URL))
		c.pause(ctx)
	}

	c.exhausted = c.cursor > c.maxID
	c.state = StateBatchReady
	logging.WithContext(ctx, c.logger).Info("batch ready",
		logging.Int("candidates", len(c.batch)),
		logging.Bool("exhausted", c.exhausted))
	return &Batch{
		Candidates: append([]Candidate(nil), c.batch...),
		Exhausted:  c.exhausted,
		NextCursor: c.cursor,
	}, nil
}

// Toggle flips the decision for one scene in the current batch. It never
// re-runs matching.
func (c *Controller) Toggle(sceneID int) error {
	if c.state != StateBatchReady {
		return services.Wrap(services.ErrValidation, "scanner", "toggle",
			fmt.Sprintf("no batch in state %s", c.state), nil)
	}
	current, ok := c.decisions[sceneID]
	if !ok {
		return services.Wrap(services.ErrValidation, "scanner", "toggle",
			fmt.Sprintf("scene %d is not in the batch", sceneID), nil)
	}
	c.decisions[sceneID] = !current
	return nil
}

// SetAll marks every candidate in the batch accepted or rejected.
func (c *Controller) SetAll(accepted bool) error {
	if c.state != StateBatchReady {
		return services.Wrap(services.ErrValidation, "scanner", "set all",
			fmt.Sprintf("no batch in state %s", c.state), nil)
	}
	for sceneID := range c.decisions {
		c.decisions[sceneID] = accepted
	}
	return nil
}

// Decisions returns a copy of the current decision map.
func (c *Controller) Decisions() map[int]bool {
	out := make(map[int]bool, len(c.decisions))
	for sceneID, accepted := range c.decisions {
		out[sceneID] = accepted
	}
	return out
}

// Commit writes the accepted candidates back to the catalog. Scenes are
// updated independently; one failure is recorded and the rest proceed.
// Each scene is re-read first so a URL committed by an earlier run is
// skipped instead of duplicated. Afterwards the controller resumes
// Scanning, or returns to Idle when the catalog was exhausted.
func (c *Controller) Commit(ctx context.Context) (*CommitReport, error) {
	if c.state != StateBatchReady {
		return nil, services.Wrap(services.ErrValidation, "scanner", "commit",
			fmt.Sprintf("no batch in state %s", c.state), nil)
	}
	c.state = StateCommitting
	ctx = services.WithRequestID(ctx, c.sessionID)

	report := &CommitReport{Failures: make(map[int]error)}
	for _, candidate := range c.batch {
		if !c.decisions[candidate.SceneID] {
			report.Rejected = append(report.Rejected, candidate.SceneID)
			continue
		}
		sceneCtx := services.WithSceneID(ctx, candidate.SceneID)
		if err := c.commitScene(sceneCtx, candidate, report); err != nil {
			report.Failures[candidate.SceneID] = err
			logging.WithContext(sceneCtx, c.logger).Error("scene update failed",
				logging.Error(err))
		}
	}

	c.batch = nil
	c.decisions = nil
	if c.exhausted {
		c.state = StateIdle
	} else {
		c.state = StateScanning
	}
	return report, nil
}

func (c *Controller) commitScene(ctx context.Context, candidate Candidate, report *CommitReport) error {
	scene, err := c.catalog.Scene(ctx, candidate.SceneID)
	if err != nil {
		return err
	}
	if scene.HasURL(candidate.MatchedURL) {
		report.Skipped = append(report.Skipped, candidate.SceneID)
		return nil
	}

	tagIDs := scene.TagIDs
	if c.opts.Tag != "" {
		tagID, err := c.ensureTag(ctx)
		if err != nil {
			return err
		}
		tagIDs = mergeTag(tagIDs, tagID)
	}

	urls := append(append([]string(nil), scene.URLs...), candidate.MatchedURL)
	if err := c.catalog.UpdateScene(ctx, candidate.SceneID, urls, tagIDs); err != nil {
		return err
	}
	report.Committed = append(report.Committed, candidate.SceneID)
	logging.WithContext(ctx, c.logger).Info("scene updated",
		logging.String("url", candidate.MatchedURL))
	return nil
}

// Abandon discards the current batch without writing anything. The
// cursor keeps its position so a following Scan resumes where this one
// stopped.
func (c *Controller) Abandon() error {
	if c.state != StateBatchReady {
		return services.Wrap(services.ErrValidation, "scanner", "abandon",
			fmt.Sprintf("no batch in state %s", c.state), nil)
	}
	c.batch = nil
	c.decisions = nil
	if c.exhausted {
		c.state = StateIdle
	} else {
		c.state = StateScanning
	}
	return nil
}

// ensureTag resolves the configured tag once per session.
func (c *Controller) ensureTag(ctx context.Context) (string, error) {
	if c.tagID != "" {
		return c.tagID, nil
	}
	tagID, err := c.catalog.EnsureTag(ctx, c.opts.Tag)
	if err != nil {
		return "", err
	}
	c.tagID = tagID
	return tagID, nil
}

// pause waits out the configured inter-request delay, returning early on
// cancellation.
func (c *Controller) pause(ctx context.Context) {
	if c.opts.RequestDelay <= 0 {
		return
	}
	timer := time.NewTimer(c.opts.RequestDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func mergeTag(tagIDs []string, tagID string) []string {
	for _, existing := range tagIDs {
		if existing == tagID {
			return tagIDs
		}
	}
	return append(append([]string(nil), tagIDs...), tagID)
}
