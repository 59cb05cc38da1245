package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"storefront/internal/apperrors"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memCache is an in-process cache.Cache for tests.
type memCache struct {
	entries map[string][]byte
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string, dest interface{}) bool {
	raw, ok := c.entries[key]
	return ok && json.Unmarshal(raw, dest) == nil
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func TestAnalyticsService_AdminOnly(t *testing.T) {
	ctx := context.Background()
	service := services.NewAnalyticsService(new(MockAnalyticsRepository), nil, time.Minute)

	_, err := service.Dashboard(ctx, userPrincipal)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
	_, err = service.SalesByPeriod(ctx, userPrincipal, services.SalesQuery{})
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
	_, err = service.FullReport(ctx, userPrincipal)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
}

func TestAnalyticsService_DashboardIsCached(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAnalyticsRepository)
	service := services.NewAnalyticsService(repo, newMemCache(), time.Minute)

	repo.On("Dashboard", ctx).Return(&repositories.DashboardStats{TotalOrders: 7}, nil).Once()

	first, err := service.Dashboard(ctx, adminPrincipal)
	require.NoError(t, err)
	second, err := service.Dashboard(ctx, adminPrincipal)
	require.NoError(t, err)

	assert.Equal(t, int64(7), first.TotalOrders)
	assert.Equal(t, int64(7), second.TotalOrders)
	repo.AssertNumberOfCalls(t, "Dashboard", 1)
}

func TestAnalyticsService_SalesByPeriod(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAnalyticsRepository)
	service := services.NewAnalyticsService(repo, nil, time.Minute)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	repo.On("Sales", ctx, from, to).Return([]repositories.Sale{
		{CreatedAt: time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC), TotalPrice: decimal.RequireFromString("10.00")},
		{CreatedAt: time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC), TotalPrice: decimal.RequireFromString("5.00")},
		{CreatedAt: time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC), TotalPrice: decimal.RequireFromString("7.50")},
	}, nil).Once()

	periods, err := service.SalesByPeriod(ctx, adminPrincipal, services.SalesQuery{From: &from, To: &to, GroupBy: "month"})
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "2024-01", periods[0].Period)
	assert.Equal(t, "15", periods[0].TotalSales.String())
	assert.Equal(t, int64(2), periods[0].OrderCount)
	assert.Equal(t, "7.5", periods[0].AverageOrderValue.String())
	assert.Equal(t, "2024-02", periods[1].Period)
}

func TestAnalyticsService_SalesByPeriodValidation(t *testing.T) {
	ctx := context.Background()
	service := services.NewAnalyticsService(new(MockAnalyticsRepository), nil, time.Minute)

	_, err := service.SalesByPeriod(ctx, adminPrincipal, services.SalesQuery{GroupBy: "year"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = service.SalesByPeriod(ctx, adminPrincipal, services.SalesQuery{From: &from, To: &to})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestAnalyticsService_UserActivity(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAnalyticsRepository)
	service := services.NewAnalyticsService(repo, nil, time.Minute)

	repo.On("UserActivity", ctx, mock.Anything).Return([]repositories.UserActivity{
		{UserID: "u1", FirstName: "Ada", LastName: "Lovelace", OrderCount: 3, TotalSpent: decimal.RequireFromString("30.00")},
		{UserID: "u2", FirstName: "Idle", OrderCount: 0, TotalSpent: decimal.Zero},
	}, nil).Once()

	stats, err := service.UserActivity(ctx, adminPrincipal)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "Ada Lovelace", stats[0].UserName)
	assert.Equal(t, "10", stats[0].AverageOrderValue.String())
	assert.Equal(t, "Idle", stats[1].UserName)
	assert.True(t, stats[1].AverageOrderValue.IsZero())
}

func TestAnalyticsService_FullReport(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAnalyticsRepository)
	cache := newMemCache()
	service := services.NewAnalyticsService(repo, cache, time.Minute)

	repo.On("Dashboard", ctx).Return(&repositories.DashboardStats{TotalUsers: 2}, nil).Once()
	repo.On("TopProducts", ctx, 5).Return([]repositories.TopProduct{}, nil).Once()
	repo.On("CategoryStats", ctx).Return([]repositories.CategoryStats{}, nil).Once()
	repo.On("RevenueByStatus", ctx).Return([]repositories.StatusRevenue{}, nil).Once()

	report, err := service.FullReport(ctx, adminPrincipal)
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Dashboard.TotalUsers)

	_, err = service.FullReport(ctx, adminPrincipal)
	require.NoError(t, err)
	repo.AssertExpectations(t)
	assert.Contains(t, cache.entries, "analytics:report")
}
