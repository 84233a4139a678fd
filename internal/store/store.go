package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"trending/models"
)

// Store owns every table this service writes: the two daily counter tables,
// post engagement totals, trending scores, and the processed-events ledger.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ApplyEvent applies one event's counter increments inside a single
// transaction guarded by the processed_events fence. A duplicate event id
// returns (false, nil) and mutates nothing. If the transaction fails the
// fence row rolls back too, so a redelivery retries cleanly.
//
// Increments go through INSERT ... ON CONFLICT DO UPDATE with additive SET
// clauses, so concurrent events for the same (entity, day) row never lose
// updates regardless of arrival order.
func (s *Store) ApplyEvent(ctx context.Context, evt *models.RawEvent, delta models.CounterDelta) (bool, error) {
	applied := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			INSERT INTO processed_events (event_id, processed_at)
			VALUES (?, ?)
			ON CONFLICT (event_id) DO NOTHING
		`, evt.EventID.String(), time.Now().UTC())
		if res.Error != nil {
			return fmt.Errorf("dedup fence insert: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Duplicate delivery: leave every counter untouched.
			return nil
		}
		applied = true

		if delta.IsZero() {
			return nil
		}

		switch evt.TargetType {
		case models.TargetShop:
			return upsertShopDaily(tx, evt, delta)
		case models.TargetProduct:
			return upsertVariantDaily(tx, evt, delta)
		case models.TargetPost:
			return upsertEngagement(tx, evt, delta)
		default:
			return nil
		}
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func upsertShopDaily(tx *gorm.DB, evt *models.RawEvent, d models.CounterDelta) error {
	err := tx.Exec(`
		INSERT INTO shop_daily_metrics
			(shop_id, day, views, clicks, add_to_cart, orders, route_builds,
			 chats_started, follows, unfollows, revenue, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, now(), now())
		ON CONFLICT (shop_id, day) DO UPDATE SET
			views         = shop_daily_metrics.views + EXCLUDED.views,
			clicks        = shop_daily_metrics.clicks + EXCLUDED.clicks,
			add_to_cart   = shop_daily_metrics.add_to_cart + EXCLUDED.add_to_cart,
			orders        = shop_daily_metrics.orders + EXCLUDED.orders,
			route_builds  = shop_daily_metrics.route_builds + EXCLUDED.route_builds,
			chats_started = shop_daily_metrics.chats_started + EXCLUDED.chats_started,
			follows       = shop_daily_metrics.follows + EXCLUDED.follows,
			unfollows     = shop_daily_metrics.unfollows + EXCLUDED.unfollows,
			revenue       = shop_daily_metrics.revenue + EXCLUDED.revenue,
			updated_at    = now()
	`, evt.TargetID, evt.Day(), d.Views, d.Clicks, d.AddToCart, d.Orders,
		d.RouteBuilds, d.ChatsStarted, d.Follows, d.Unfollows, d.Revenue).Error
	if err != nil {
		return fmt.Errorf("upsert shop daily metric: %w", err)
	}
	return nil
}

func upsertVariantDaily(tx *gorm.DB, evt *models.RawEvent, d models.CounterDelta) error {
	err := tx.Exec(`
		INSERT INTO variant_daily_metrics
			(variant_id, day, views, clicks, add_to_cart, orders, revenue, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, now(), now())
		ON CONFLICT (variant_id, day) DO UPDATE SET
			views       = variant_daily_metrics.views + EXCLUDED.views,
			clicks      = variant_daily_metrics.clicks + EXCLUDED.clicks,
			add_to_cart = variant_daily_metrics.add_to_cart + EXCLUDED.add_to_cart,
			orders      = variant_daily_metrics.orders + EXCLUDED.orders,
			revenue     = variant_daily_metrics.revenue + EXCLUDED.revenue,
			updated_at  = now()
	`, evt.TargetID, evt.Day(), d.Views, d.Clicks, d.AddToCart, d.Orders, d.Revenue).Error
	if err != nil {
		return fmt.Errorf("upsert variant daily metric: %w", err)
	}
	return nil
}

func upsertEngagement(tx *gorm.DB, evt *models.RawEvent, d models.CounterDelta) error {
	// first_seen_at keeps the earliest occurred_at ever observed for the
	// post; it is the age anchor of the trending formula.
	err := tx.Exec(`
		INSERT INTO post_engagements
			(post_id, likes, views, comments, shares, first_seen_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, now())
		ON CONFLICT (post_id) DO UPDATE SET
			likes         = post_engagements.likes + EXCLUDED.likes,
			views         = post_engagements.views + EXCLUDED.views,
			comments      = post_engagements.comments + EXCLUDED.comments,
			shares        = post_engagements.shares + EXCLUDED.shares,
			first_seen_at = LEAST(post_engagements.first_seen_at, EXCLUDED.first_seen_at),
			updated_at    = now()
	`, evt.TargetID, d.Likes, d.Views, d.Comments, d.Shares, evt.OccurredAt.UTC()).Error
	if err != nil {
		return fmt.Errorf("upsert post engagement: %w", err)
	}
	return nil
}

// UpsertScore writes a post's trending score as one whole-row upsert.
// Last write wins on computed_at; a reader sees either the previous row or
// this one, never a mix.
func (s *Store) UpsertScore(ctx context.Context, score models.TrendingScore) error {
	err := s.db.WithContext(ctx).Exec(`
		INSERT INTO trending_scores (post_id, score, computed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (post_id) DO UPDATE SET
			score       = EXCLUDED.score,
			computed_at = EXCLUDED.computed_at
	`, score.PostID, score.Score, score.ComputedAt.UTC()).Error
	if err != nil {
		return fmt.Errorf("upsert trending score: %w", err)
	}
	return nil
}

// PurgeProcessedBefore drops dedup ledger rows older than cutoff. Called by
// the sweep; retention must stay above the broker's redelivery SLA.
func (s *Store) PurgeProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("processed_at < ?", cutoff.UTC()).
		Delete(&models.ProcessedEvent{})
	if res.Error != nil {
		return 0, fmt.Errorf("purge processed events: %w", res.Error)
	}
	return res.RowsAffected, nil
}
