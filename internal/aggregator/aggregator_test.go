package aggregator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trending/internal/aggregator"
	"trending/models"
)

// fakeStore mimics the dedup fence: the first apply of an event id wins,
// later ones are no-ops.
type fakeStore struct {
	seen    map[string]models.CounterDelta
	applies int
	err     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{seen: map[string]models.CounterDelta{}}
}

func (f *fakeStore) ApplyEvent(_ context.Context, evt *models.RawEvent, delta models.CounterDelta) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if _, dup := f.seen[evt.EventID.String()]; dup {
		return false, nil
	}
	f.seen[evt.EventID.String()] = delta
	f.applies++
	return true, nil
}

type fakeArchive struct {
	events []*models.RawEvent
	err    error
}

func (f *fakeArchive) InsertRawEvent(_ context.Context, evt *models.RawEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, evt)
	return nil
}

type fakeRecompute struct {
	ids []uuid.UUID
}

func (f *fakeRecompute) EnqueueRecompute(postID uuid.UUID) {
	f.ids = append(f.ids, postID)
}

func likeEvent() *models.RawEvent {
	return &models.RawEvent{
		EventID:    uuid.New(),
		EventType:  models.EventLike,
		TargetID:   uuid.New(),
		TargetType: models.TargetPost,
		OccurredAt: time.Now().UTC(),
	}
}

func TestApplyIdempotentPerEventID(t *testing.T) {
	store := newFakeStore()
	archive := &fakeArchive{}
	recompute := &fakeRecompute{}
	agg := aggregator.New(store, archive, recompute)

	evt := likeEvent()

	res, err := agg.Apply(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, aggregator.ResultApplied, res)

	// Redelivery of the same event id changes nothing further.
	res, err = agg.Apply(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, aggregator.ResultDuplicate, res)

	assert.Equal(t, 1, store.applies)
	assert.Len(t, archive.events, 1)
	assert.Equal(t, []uuid.UUID{evt.TargetID}, recompute.ids)
}

func TestApplyDuplicateIDDivergentPayload(t *testing.T) {
	store := newFakeStore()
	agg := aggregator.New(store, nil, nil)

	first := likeEvent()
	second := *first
	second.EventType = models.EventShare // same id, different payload

	_, err := agg.Apply(context.Background(), first)
	require.NoError(t, err)
	res, err := agg.Apply(context.Background(), &second)
	require.NoError(t, err)
	assert.Equal(t, aggregator.ResultDuplicate, res)

	// Whatever order they arrive in, only one delta is ever recorded.
	assert.Equal(t, 1, store.applies)
	assert.EqualValues(t, 1, store.seen[first.EventID.String()].Likes)
}

func TestApplyPostEngagementTriggersRecompute(t *testing.T) {
	for _, et := range []models.EventType{models.EventLike, models.EventComment, models.EventShare, models.EventPostView} {
		recompute := &fakeRecompute{}
		agg := aggregator.New(newFakeStore(), nil, recompute)

		evt := likeEvent()
		evt.EventType = et

		_, err := agg.Apply(context.Background(), evt)
		require.NoError(t, err)
		assert.Len(t, recompute.ids, 1, "event type %s must request a recompute", et)
	}
}

func TestApplyShopEventDoesNotTriggerRecompute(t *testing.T) {
	recompute := &fakeRecompute{}
	agg := aggregator.New(newFakeStore(), nil, recompute)

	evt := likeEvent()
	evt.EventType = models.EventShopView
	evt.TargetType = models.TargetShop

	res, err := agg.Apply(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, aggregator.ResultApplied, res)
	assert.Empty(t, recompute.ids)
}

func TestApplySearchIsArchivedOnly(t *testing.T) {
	store := newFakeStore()
	archive := &fakeArchive{}
	recompute := &fakeRecompute{}
	agg := aggregator.New(store, archive, recompute)

	evt := &models.RawEvent{
		EventID:    uuid.New(),
		EventType:  models.EventSearch,
		OccurredAt: time.Now().UTC(),
		Metadata:   map[string]any{"query": "handmade mugs"},
	}

	res, err := agg.Apply(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, aggregator.ResultArchivedOnly, res)
	assert.Len(t, archive.events, 1)
	assert.Empty(t, recompute.ids)
}

func TestApplyMismatchedTargetMutatesNoCounters(t *testing.T) {
	cases := []struct {
		eventType models.EventType
		target    models.TargetType
	}{
		{models.EventProductView, models.TargetPost},
		{models.EventLike, models.TargetShop},
		{models.EventPurchase, models.TargetPost},
	}

	for _, tc := range cases {
		store := newFakeStore()
		archive := &fakeArchive{}
		recompute := &fakeRecompute{}
		agg := aggregator.New(store, archive, recompute)

		evt := likeEvent()
		evt.EventType = tc.eventType
		evt.TargetType = tc.target
		evt.Metadata = map[string]any{"amount": 50.0}

		res, err := agg.Apply(context.Background(), evt)
		require.NoError(t, err)
		assert.Equal(t, aggregator.ResultArchivedOnly, res, "%s on %s", tc.eventType, tc.target)

		// The fence still records the event id, but the delta it fenced must
		// be empty: an archive-only outcome never moves a counter.
		delta, fenced := store.seen[evt.EventID.String()]
		require.True(t, fenced)
		assert.True(t, delta.IsZero(), "%s on %s applied delta %+v", tc.eventType, tc.target, delta)
		assert.Len(t, archive.events, 1)
		assert.Empty(t, recompute.ids)
	}
}

func TestApplyArchiveFailureIsNotFatal(t *testing.T) {
	agg := aggregator.New(newFakeStore(), &fakeArchive{err: errors.New("clickhouse unreachable")}, nil)

	res, err := agg.Apply(context.Background(), likeEvent())
	require.NoError(t, err)
	assert.Equal(t, aggregator.ResultApplied, res)
}

func TestApplyStoreErrorPropagates(t *testing.T) {
	boom := errors.New("deadlock detected")
	store := newFakeStore()
	store.err = boom
	agg := aggregator.New(store, nil, nil)

	_, err := agg.Apply(context.Background(), likeEvent())
	assert.ErrorIs(t, err, boom)
}
