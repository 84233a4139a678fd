package aggregator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trending/models"
	"trending/pkg/logger"
)

// CounterStore applies one event's increments atomically behind the dedup
// fence.
type CounterStore interface {
	ApplyEvent(ctx context.Context, evt *models.RawEvent, delta models.CounterDelta) (applied bool, err error)
}

// Archiver appends accepted events to the audit/replay log.
type Archiver interface {
	InsertRawEvent(ctx context.Context, evt *models.RawEvent) error
}

// Recomputer accepts single-post score recompute requests.
type Recomputer interface {
	EnqueueRecompute(postID uuid.UUID)
}

// Result classifies what applying an event did.
type Result int

const (
	// ResultApplied: counters were incremented.
	ResultApplied Result = iota
	// ResultDuplicate: the event id was seen before; nothing changed.
	ResultDuplicate
	// ResultArchivedOnly: a valid event with no counter mapping (SEARCH,
	// CATEGORY_VIEW, REMOVE_FROM_CART, or a type/target mismatch).
	ResultArchivedOnly
)

// Aggregator turns validated events into counter increments. Safe under
// at-least-once redelivery: the store's event-id fence makes a duplicate a
// silent no-op, and increments are commutative so cross-partition ordering
// does not matter.
type Aggregator struct {
	store     CounterStore
	archive   Archiver
	recompute Recomputer
	log       zerolog.Logger
}

// New builds an aggregator. archive and recompute may be nil (tests,
// degraded deployments); both are best-effort side channels.
func New(store CounterStore, archive Archiver, recompute Recomputer) *Aggregator {
	return &Aggregator{
		store:     store,
		archive:   archive,
		recompute: recompute,
		log:       logger.With("aggregator"),
	}
}

// Apply processes one validated event. An error means the counter write
// failed and the delivery should be retried; the fence guarantees the retry
// cannot double-count.
func (a *Aggregator) Apply(ctx context.Context, evt *models.RawEvent) (Result, error) {
	delta, counted := models.DeltaFor(evt)

	applied, err := a.store.ApplyEvent(ctx, evt, delta)
	if err != nil {
		return 0, fmt.Errorf("apply event %s: %w", evt.EventID, err)
	}
	if !applied {
		a.log.Debug().
			Str("event_id", evt.EventID.String()).
			Msg("duplicate event id, ignored")
		return ResultDuplicate, nil
	}

	// Archive after the fence so each event id lands at most once. Failures
	// only cost audit completeness, never counter correctness.
	if a.archive != nil {
		if err := a.archive.InsertRawEvent(ctx, evt); err != nil {
			a.log.Warn().Err(err).
				Str("event_id", evt.EventID.String()).
				Msg("raw event archive failed")
		}
	}

	if !counted {
		return ResultArchivedOnly, nil
	}

	// Engagement on a post moves its trending inputs: ask for a cheap
	// single-post recompute instead of waiting for the next sweep.
	if a.recompute != nil && evt.TargetType == models.TargetPost && delta.TouchesEngagement() {
		a.recompute.EnqueueRecompute(evt.TargetID)
	}

	return ResultApplied, nil
}
