package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"trending/models"
)

// GetShopDaily returns the shop's counter row for one day. "No activity yet"
// is a valid state, so a missing row comes back as a zero-valued metric, not
// an error.
func (s *Store) GetShopDaily(ctx context.Context, shopID uuid.UUID, day time.Time) (models.ShopDailyMetric, error) {
	var m models.ShopDailyMetric
	err := s.db.WithContext(ctx).
		Where("shop_id = ? AND day = ?", shopID, truncateDay(day)).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ShopDailyMetric{ShopID: shopID, Day: truncateDay(day), Revenue: decimal.Zero}, nil
	}
	if err != nil {
		return models.ShopDailyMetric{}, fmt.Errorf("get shop daily metric: %w", err)
	}
	return m, nil
}

// GetVariantDaily is GetShopDaily for product variants.
func (s *Store) GetVariantDaily(ctx context.Context, variantID uuid.UUID, day time.Time) (models.VariantDailyMetric, error) {
	var m models.VariantDailyMetric
	err := s.db.WithContext(ctx).
		Where("variant_id = ? AND day = ?", variantID, truncateDay(day)).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.VariantDailyMetric{VariantID: variantID, Day: truncateDay(day), Revenue: decimal.Zero}, nil
	}
	if err != nil {
		return models.VariantDailyMetric{}, fmt.Errorf("get variant daily metric: %w", err)
	}
	return m, nil
}

// ShopSummary sums a shop's daily rows over [start, end] inclusive.
func (s *Store) ShopSummary(ctx context.Context, shopID uuid.UUID, start, end time.Time) (models.DailySummary, error) {
	var row struct {
		TotalViews   int64
		TotalClicks  int64
		TotalOrders  int64
		TotalRevenue decimal.Decimal
		NumDays      int
	}

	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(SUM(views), 0)   AS total_views,
			COALESCE(SUM(clicks), 0)  AS total_clicks,
			COALESCE(SUM(orders), 0)  AS total_orders,
			COALESCE(SUM(revenue), 0) AS total_revenue,
			COUNT(*)                  AS num_days
		FROM shop_daily_metrics
		WHERE shop_id = ? AND day BETWEEN ? AND ?
	`, shopID, truncateDay(start), truncateDay(end)).Scan(&row).Error
	if err != nil {
		return models.DailySummary{}, fmt.Errorf("shop summary: %w", err)
	}

	return models.NewDailySummary(row.TotalViews, row.TotalClicks, row.TotalOrders, row.TotalRevenue, row.NumDays), nil
}

// GetEngagement loads a post's engagement totals. found=false means no event
// for the post has ever been aggregated.
func (s *Store) GetEngagement(ctx context.Context, postID uuid.UUID) (models.PostEngagement, bool, error) {
	var e models.PostEngagement
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.PostEngagement{}, false, nil
	}
	if err != nil {
		return models.PostEngagement{}, false, fmt.Errorf("get post engagement: %w", err)
	}
	return e, true, nil
}

// ListActivePosts returns ids of posts with engagement activity since the
// given instant. The sweep recomputes exactly this set.
func (s *Store) ListActivePosts(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.PostEngagement{}).
		Where("updated_at >= ?", since.UTC()).
		Order("post_id").
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list active posts: %w", err)
	}
	return ids, nil
}

// TopN returns the n highest-scored posts. Ties break by most recent
// computed_at, then ascending post id, so the ordering is deterministic.
// within > 0 restricts results to posts first seen inside that rolling
// window, measured back from now.
func (s *Store) TopN(ctx context.Context, n int, within time.Duration, now time.Time) ([]models.TrendingScore, error) {
	q := s.db.WithContext(ctx).
		Model(&models.TrendingScore{}).
		Select("trending_scores.post_id, trending_scores.score, trending_scores.computed_at").
		Joins("JOIN post_engagements ON post_engagements.post_id = trending_scores.post_id")
	if within > 0 {
		q = q.Where("post_engagements.first_seen_at >= ?", now.UTC().Add(-within))
	}

	var scores []models.TrendingScore
	err := q.Order("trending_scores.score DESC, trending_scores.computed_at DESC, trending_scores.post_id ASC").
		Limit(n).
		Find(&scores).Error
	if err != nil {
		return nil, fmt.Errorf("top-n trending query: %w", err)
	}
	return scores, nil
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
