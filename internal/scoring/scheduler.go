package scoring

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trending/config"
	"trending/pkg/logger"
)

const sweepLockKey = "trending:sweep:lock"

// SweepStore is the slice of the metric store the sweep needs.
type SweepStore interface {
	ListActivePosts(ctx context.Context, since time.Time) ([]uuid.UUID, error)
	PurgeProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PostUpdater recomputes a single post's score.
type PostUpdater interface {
	Update(ctx context.Context, postID uuid.UUID, now time.Time) error
}

// Locker serializes the sweep across instances. A nil Locker (single-node
// deployments, tests) means no cross-instance coordination.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// Scheduler owns both recompute triggers: the periodic full sweep that
// advances decay for every active post, and the on-demand channel fed by the
// aggregator after engagement events. Sweeps are single-flight per process
// (an overlapping tick is skipped, not queued) and hold a distributed lock
// across instances; on-demand updates take neither guard since they are
// idempotent and last-write-wins.
type Scheduler struct {
	store   SweepStore
	updater PostUpdater
	locker  Locker
	cfg     config.ScoringConfig

	demand   chan uuid.UUID
	sweeping atomic.Bool
	wg       sync.WaitGroup
	log      zerolog.Logger
}

func NewScheduler(store SweepStore, updater PostUpdater, locker Locker, cfg config.ScoringConfig) *Scheduler {
	size := cfg.RecomputeQueueSize
	if size <= 0 {
		size = 1024
	}
	return &Scheduler{
		store:   store,
		updater: updater,
		locker:  locker,
		cfg:     cfg,
		demand:  make(chan uuid.UUID, size),
		log:     logger.With("recompute_scheduler"),
	}
}

// EnqueueRecompute requests a single-post recompute. Never blocks: when the
// queue is full the request is dropped, and the next sweep corrects the
// stale score anyway.
func (s *Scheduler) EnqueueRecompute(postID uuid.UUID) {
	select {
	case s.demand <- postID:
	default:
		s.log.Warn().Str("post_id", postID.String()).Msg("recompute queue full, dropping request")
	}
}

// Run drives the scheduler until ctx is cancelled. Sweeps run on their own
// goroutine so a long sweep never starves on-demand updates.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	s.log.Info().
		Dur("interval", s.cfg.SweepInterval).
		Dur("active_window", s.cfg.ActiveWindow).
		Msg("scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			s.log.Info().Msg("scheduler stopped")
			return

		case postID := <-s.demand:
			if err := s.updater.Update(ctx, postID, time.Now().UTC()); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Error().Err(err).Str("post_id", postID.String()).Msg("on-demand recompute failed")
			}

		case <-ticker.C:
			s.startSweep(ctx)
		}
	}
}

// startSweep launches a sweep unless one is already in flight.
func (s *Scheduler) startSweep(ctx context.Context) {
	if !s.sweeping.CompareAndSwap(false, true) {
		s.log.Info().Msg("previous sweep still running, skipping")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.sweeping.Store(false)
		s.runSweep(ctx, time.Now().UTC())
	}()
}

// runSweep recomputes every active post's score as of start. One failing
// post is logged and skipped; cancellation is honored between posts, and a
// partial sweep just leaves some scores stale until the next run.
func (s *Scheduler) runSweep(ctx context.Context, start time.Time) {
	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, sweepLockKey, s.cfg.SweepInterval)
		if err != nil {
			s.log.Error().Err(err).Msg("sweep lock acquire failed, skipping sweep")
			return
		}
		if !ok {
			s.log.Info().Msg("sweep lock held elsewhere, skipping")
			return
		}
		defer release()
	}

	ids, err := s.store.ListActivePosts(ctx, start.Add(-s.cfg.ActiveWindow))
	if err != nil {
		s.log.Error().Err(err).Msg("sweep failed to list active posts")
		return
	}

	var failed int
	for _, id := range ids {
		if ctx.Err() != nil {
			s.log.Warn().Int("remaining", len(ids)).Msg("sweep cancelled")
			return
		}
		if err := s.updater.Update(ctx, id, time.Now().UTC()); err != nil {
			failed++
			s.log.Error().Err(err).Str("post_id", id.String()).Msg("sweep recompute failed, continuing")
		}
	}

	purged, err := s.store.PurgeProcessedBefore(ctx, start.Add(-s.cfg.DedupRetention))
	if err != nil {
		s.log.Error().Err(err).Msg("dedup ledger purge failed")
	}

	s.log.Info().
		Int("posts", len(ids)).
		Int("failed", failed).
		Int64("purged_event_ids", purged).
		Dur("elapsed", time.Since(start)).
		Msg("sweep finished")
}
