package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShopDailyMetric is the per-shop, per-day counter row. One row per
// (shop_id, day); counters only ever grow within a day.
type ShopDailyMetric struct {
	ID           uint64          `gorm:"primaryKey"`
	ShopID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_shop_day,unique"`
	Day          time.Time       `gorm:"type:date;not null;index:idx_shop_day,unique"`
	Views        int64           `gorm:"not null;default:0"`
	Clicks       int64           `gorm:"not null;default:0"`
	AddToCart    int64           `gorm:"not null;default:0"`
	Orders       int64           `gorm:"not null;default:0"`
	RouteBuilds  int64           `gorm:"not null;default:0"`
	ChatsStarted int64           `gorm:"not null;default:0"`
	Follows      int64           `gorm:"not null;default:0"`
	Unfollows    int64           `gorm:"not null;default:0"`
	Revenue      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (ShopDailyMetric) TableName() string {
	return "shop_daily_metrics"
}

// VariantDailyMetric is the per-product-variant, per-day counter row.
type VariantDailyMetric struct {
	ID        uint64          `gorm:"primaryKey"`
	VariantID uuid.UUID       `gorm:"type:uuid;not null;index:idx_variant_day,unique"`
	Day       time.Time       `gorm:"type:date;not null;index:idx_variant_day,unique"`
	Views     int64           `gorm:"not null;default:0"`
	Clicks    int64           `gorm:"not null;default:0"`
	AddToCart int64           `gorm:"not null;default:0"`
	Orders    int64           `gorm:"not null;default:0"`
	Revenue   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (VariantDailyMetric) TableName() string {
	return "variant_daily_metrics"
}

// PostEngagement holds a post's running engagement totals, the inputs of the
// trending formula. FirstSeenAt is the earliest occurred_at observed for the
// post and stands in for the post's creation time.
type PostEngagement struct {
	PostID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Likes       int64     `gorm:"not null;default:0"`
	Views       int64     `gorm:"not null;default:0"`
	Comments    int64     `gorm:"not null;default:0"`
	Shares      int64     `gorm:"not null;default:0"`
	FirstSeenAt time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"index"`
}

func (PostEngagement) TableName() string {
	return "post_engagements"
}

// TrendingScore is the derived ranking row, one per post. Written only by
// the score updater as a whole-row upsert, so readers never observe a
// half-applied score.
type TrendingScore struct {
	PostID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	Score      float64   `gorm:"not null;default:0;index"`
	ComputedAt time.Time `gorm:"not null"`
}

func (TrendingScore) TableName() string {
	return "trending_scores"
}

// ProcessedEvent is the dedup ledger: one row per event id ever applied,
// purged past the retention window.
type ProcessedEvent struct {
	EventID     string    `gorm:"size:128;primaryKey"`
	ProcessedAt time.Time `gorm:"not null;index"`
}

func (ProcessedEvent) TableName() string {
	return "processed_events"
}

// DailySummary aggregates a shop's daily rows over a date range.
type DailySummary struct {
	TotalViews     int64           `json:"total_views"`
	TotalClicks    int64           `json:"total_clicks"`
	TotalOrders    int64           `json:"total_orders"`
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	NumDays        int             `json:"num_days"`
	AvgViewsPerDay float64         `json:"avg_views_per_day"`
	ConversionRate float64         `json:"conversion_rate"`
}

// NewDailySummary derives the average and conversion rate from raw totals.
// NumDays counts days that actually have a row. Conversion rate is
// clicks/views·100, defined as 0 when there are no views.
func NewDailySummary(views, clicks, orders int64, revenue decimal.Decimal, numDays int) DailySummary {
	s := DailySummary{
		TotalViews:   views,
		TotalClicks:  clicks,
		TotalOrders:  orders,
		TotalRevenue: revenue,
		NumDays:      numDays,
	}
	if numDays > 0 {
		s.AvgViewsPerDay = float64(views) / float64(numDays)
	}
	if views > 0 {
		s.ConversionRate = float64(clicks) / float64(views) * 100
	}
	return s
}
