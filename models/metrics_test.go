package models_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"trending/models"
)

func TestNewDailySummary(t *testing.T) {
	s := models.NewDailySummary(1000, 50, 10, decimal.RequireFromString("1234.50"), 4)

	assert.EqualValues(t, 1000, s.TotalViews)
	assert.EqualValues(t, 50, s.TotalClicks)
	assert.EqualValues(t, 10, s.TotalOrders)
	assert.True(t, s.TotalRevenue.Equal(decimal.RequireFromString("1234.50")))
	assert.InDelta(t, 250.0, s.AvgViewsPerDay, 1e-9)
	assert.InDelta(t, 5.0, s.ConversionRate, 1e-9) // 50/1000*100
}

func TestNewDailySummaryZeroViews(t *testing.T) {
	// Conversion rate is defined as 0 when there are no views, not NaN.
	s := models.NewDailySummary(0, 25, 0, decimal.Zero, 3)
	assert.Zero(t, s.ConversionRate)
	assert.Zero(t, s.AvgViewsPerDay)
}

func TestNewDailySummaryEmptyRange(t *testing.T) {
	s := models.NewDailySummary(0, 0, 0, decimal.Zero, 0)
	assert.Zero(t, s.AvgViewsPerDay)
	assert.Zero(t, s.ConversionRate)
	assert.Zero(t, s.NumDays)
}
