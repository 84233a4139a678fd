package ranking_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trending/internal/ranking"
	"trending/models"
)

type fakeStore struct {
	topNArgs struct {
		n      int
		within time.Duration
	}
	topNResult []models.TrendingScore

	shopDaily    models.ShopDailyMetric
	variantDaily models.VariantDailyMetric
	summary      models.DailySummary
}

func (f *fakeStore) TopN(_ context.Context, n int, within time.Duration, _ time.Time) ([]models.TrendingScore, error) {
	f.topNArgs.n = n
	f.topNArgs.within = within
	return f.topNResult, nil
}

func (f *fakeStore) GetShopDaily(_ context.Context, shopID uuid.UUID, day time.Time) (models.ShopDailyMetric, error) {
	m := f.shopDaily
	m.ShopID = shopID
	m.Day = day
	return m, nil
}

func (f *fakeStore) GetVariantDaily(_ context.Context, variantID uuid.UUID, day time.Time) (models.VariantDailyMetric, error) {
	m := f.variantDaily
	m.VariantID = variantID
	m.Day = day
	return m, nil
}

func (f *fakeStore) ShopSummary(_ context.Context, _ uuid.UUID, _, _ time.Time) (models.DailySummary, error) {
	return f.summary, nil
}

func TestTopNForwardsWindow(t *testing.T) {
	store := &fakeStore{}
	svc := ranking.NewService(store)

	_, err := svc.TopN(context.Background(), 5, 24)
	require.NoError(t, err)
	assert.Equal(t, 5, store.topNArgs.n)
	assert.Equal(t, 24*time.Hour, store.topNArgs.within)
}

func TestTopNNoWindow(t *testing.T) {
	store := &fakeStore{}
	svc := ranking.NewService(store)

	_, err := svc.TopN(context.Background(), 5, 0)
	require.NoError(t, err)
	assert.Zero(t, store.topNArgs.within)
}

func TestTopNClampsLimit(t *testing.T) {
	store := &fakeStore{}
	svc := ranking.NewService(store)

	_, err := svc.TopN(context.Background(), 5000, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, store.topNArgs.n)
}

func TestTopNNonPositiveLimit(t *testing.T) {
	store := &fakeStore{}
	svc := ranking.NewService(store)

	got, err := svc.TopN(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, store.topNArgs.n, "store must not be queried for a non-positive limit")
}

func TestGetDailyMetricShop(t *testing.T) {
	store := &fakeStore{shopDaily: models.ShopDailyMetric{
		Views:        120,
		Clicks:       14,
		Orders:       3,
		Follows:      2,
		ChatsStarted: 1,
		Revenue:      decimal.RequireFromString("99.90"),
	}}
	svc := ranking.NewService(store)

	shopID := uuid.New()
	day := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)
	got, err := svc.GetDailyMetric(context.Background(), models.TargetShop, shopID, day)
	require.NoError(t, err)

	assert.Equal(t, models.TargetShop, got.EntityType)
	assert.Equal(t, shopID, got.EntityID)
	assert.EqualValues(t, 120, got.Views)
	assert.EqualValues(t, 14, got.Clicks)
	assert.EqualValues(t, 3, got.Orders)
	assert.EqualValues(t, 2, got.Follows)
	assert.EqualValues(t, 1, got.ChatsStarted)
	assert.True(t, got.Revenue.Equal(decimal.RequireFromString("99.90")))
}

func TestGetDailyMetricVariant(t *testing.T) {
	store := &fakeStore{variantDaily: models.VariantDailyMetric{
		Views:     40,
		AddToCart: 6,
		Revenue:   decimal.Zero,
	}}
	svc := ranking.NewService(store)

	got, err := svc.GetDailyMetric(context.Background(), models.TargetProduct, uuid.New(), time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 40, got.Views)
	assert.EqualValues(t, 6, got.AddToCart)
	assert.Zero(t, got.Follows, "variant metrics carry no follow counters")
}

func TestGetDailyMetricUnsupportedEntity(t *testing.T) {
	svc := ranking.NewService(&fakeStore{})

	_, err := svc.GetDailyMetric(context.Background(), models.TargetCategory, uuid.New(), time.Now())
	assert.ErrorIs(t, err, ranking.ErrUnsupportedEntity)

	_, err = svc.GetDailyMetric(context.Background(), models.TargetPost, uuid.New(), time.Now())
	assert.ErrorIs(t, err, ranking.ErrUnsupportedEntity)
}

func TestGetMetricsSummaryRejectsInvertedRange(t *testing.T) {
	svc := ranking.NewService(&fakeStore{})

	start := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)
	_, err := svc.GetMetricsSummary(context.Background(), uuid.New(), start, start.AddDate(0, 0, -3))
	assert.Error(t, err)
}

func TestGetMetricsSummaryPassthrough(t *testing.T) {
	want := models.NewDailySummary(1000, 50, 10, decimal.RequireFromString("500.00"), 5)
	svc := ranking.NewService(&fakeStore{summary: want})

	start := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	got, err := svc.GetMetricsSummary(context.Background(), uuid.New(), start, start.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
