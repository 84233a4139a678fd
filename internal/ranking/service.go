package ranking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"trending/models"
)

// ErrUnsupportedEntity is returned for entity types without daily metrics.
var ErrUnsupportedEntity = errors.New("entity type has no daily metrics")

const maxTopN = 100

// Store is the read slice of the metric store the query service uses.
type Store interface {
	TopN(ctx context.Context, n int, within time.Duration, now time.Time) ([]models.TrendingScore, error)
	GetShopDaily(ctx context.Context, shopID uuid.UUID, day time.Time) (models.ShopDailyMetric, error)
	GetVariantDaily(ctx context.Context, variantID uuid.UUID, day time.Time) (models.VariantDailyMetric, error)
	ShopSummary(ctx context.Context, shopID uuid.UUID, start, end time.Time) (models.DailySummary, error)
}

// DailyMetric is the entity-type-agnostic counter view handed to callers.
// Fields that do not exist for the entity type stay zero.
type DailyMetric struct {
	EntityType   models.TargetType `json:"entity_type"`
	EntityID     uuid.UUID         `json:"entity_id"`
	Day          time.Time         `json:"day"`
	Views        int64             `json:"views"`
	Clicks       int64             `json:"clicks"`
	AddToCart    int64             `json:"add_to_cart"`
	Orders       int64             `json:"orders"`
	RouteBuilds  int64             `json:"route_builds"`
	ChatsStarted int64             `json:"chats_started"`
	Follows      int64             `json:"follows"`
	Unfollows    int64             `json:"unfollows"`
	Revenue      decimal.Decimal   `json:"revenue"`
}

// Service is the read-only query surface over scores and counters. It never
// mutates anything.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// TopN returns up to n posts ordered best-first. withinHours > 0 excludes
// posts older than that rolling window even when their score is higher, so
// stale viral content cannot crowd out fresh posts forever.
func (s *Service) TopN(ctx context.Context, n, withinHours int) ([]models.TrendingScore, error) {
	if n <= 0 {
		return []models.TrendingScore{}, nil
	}
	if n > maxTopN {
		n = maxTopN
	}
	var within time.Duration
	if withinHours > 0 {
		within = time.Duration(withinHours) * time.Hour
	}
	return s.store.TopN(ctx, n, within, s.now().UTC())
}

// GetDailyMetric returns one entity's counters for one day, zero-valued when
// the entity has no activity that day.
func (s *Service) GetDailyMetric(ctx context.Context, entityType models.TargetType, entityID uuid.UUID, day time.Time) (DailyMetric, error) {
	switch entityType {
	case models.TargetShop:
		m, err := s.store.GetShopDaily(ctx, entityID, day)
		if err != nil {
			return DailyMetric{}, err
		}
		return DailyMetric{
			EntityType:   models.TargetShop,
			EntityID:     entityID,
			Day:          m.Day,
			Views:        m.Views,
			Clicks:       m.Clicks,
			AddToCart:    m.AddToCart,
			Orders:       m.Orders,
			RouteBuilds:  m.RouteBuilds,
			ChatsStarted: m.ChatsStarted,
			Follows:      m.Follows,
			Unfollows:    m.Unfollows,
			Revenue:      m.Revenue,
		}, nil

	case models.TargetProduct:
		m, err := s.store.GetVariantDaily(ctx, entityID, day)
		if err != nil {
			return DailyMetric{}, err
		}
		return DailyMetric{
			EntityType: models.TargetProduct,
			EntityID:   entityID,
			Day:        m.Day,
			Views:      m.Views,
			Clicks:     m.Clicks,
			AddToCart:  m.AddToCart,
			Orders:     m.Orders,
			Revenue:    m.Revenue,
		}, nil

	default:
		return DailyMetric{}, fmt.Errorf("%w: %s", ErrUnsupportedEntity, entityType)
	}
}

// GetMetricsSummary aggregates a shop's daily rows over [start, end].
func (s *Service) GetMetricsSummary(ctx context.Context, shopID uuid.UUID, start, end time.Time) (models.DailySummary, error) {
	if end.Before(start) {
		return models.DailySummary{}, fmt.Errorf("summary range end %s before start %s", end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return s.store.ShopSummary(ctx, shopID, start, end)
}
