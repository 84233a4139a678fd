package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trending/models"
	"trending/pkg/logger"
)

// UpdaterStore is the slice of the metric store the updater needs.
type UpdaterStore interface {
	GetEngagement(ctx context.Context, postID uuid.UUID) (models.PostEngagement, bool, error)
	UpsertScore(ctx context.Context, score models.TrendingScore) error
}

// Updater is the only writer of trending scores. Both the full sweep and
// on-demand single-post recomputes go through Update, which is idempotent
// for a fixed (counters, now) pair and last-write-wins on computed_at.
type Updater struct {
	store UpdaterStore
	log   zerolog.Logger
}

func NewUpdater(store UpdaterStore) *Updater {
	return &Updater{
		store: store,
		log:   logger.With("score_updater"),
	}
}

// Update recomputes one post's score as of the supplied instant. A post with
// no engagement row has nothing to score and is skipped.
func (u *Updater) Update(ctx context.Context, postID uuid.UUID, now time.Time) error {
	engagement, found, err := u.store.GetEngagement(ctx, postID)
	if err != nil {
		return fmt.Errorf("load engagement for post %s: %w", postID, err)
	}
	if !found {
		return nil
	}

	counters := Counters{
		Likes:    engagement.Likes,
		Views:    engagement.Views,
		Comments: engagement.Comments,
		Shares:   engagement.Shares,
	}
	if counters.Negative() {
		// Upstream corruption; score on clamped values rather than fail.
		u.log.Warn().
			Str("post_id", postID.String()).
			Int64("likes", counters.Likes).
			Int64("views", counters.Views).
			Int64("comments", counters.Comments).
			Int64("shares", counters.Shares).
			Msg("negative counters, clamping to zero")
	}

	ageHours := now.Sub(engagement.FirstSeenAt).Hours()
	score := Score(counters, ageHours)

	if err := u.store.UpsertScore(ctx, models.TrendingScore{
		PostID:     postID,
		Score:      score,
		ComputedAt: now,
	}); err != nil {
		return fmt.Errorf("write score for post %s: %w", postID, err)
	}
	return nil
}
