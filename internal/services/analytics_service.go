package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"storefront/internal/apperrors"
	"storefront/internal/cache"
	"storefront/internal/policy"
	"storefront/internal/repositories"
	"storefront/pkg/logger"

	"github.com/shopspring/decimal"
)

const (
	dashboardCacheKey = "analytics:dashboard"
	reportCacheKey    = "analytics:report"
	defaultSalesDays  = 30
	defaultTopLimit   = 10
	reportTopLimit    = 5
	userActivityLimit = 20
)

// SalesPeriod aggregates completed sales within one day, ISO week or month.
type SalesPeriod struct {
	Period            string          `json:"period"`
	TotalSales        decimal.Decimal `json:"totalSales"`
	OrderCount        int64           `json:"orderCount"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

// SalesQuery selects the window and bucket size of SalesByPeriod.
type SalesQuery struct {
	From    *time.Time
	To      *time.Time
	GroupBy string // day | week | month
}

type UserActivityStats struct {
	UserID            string          `json:"userId"`
	UserName          string          `json:"userName"`
	OrderCount        int64           `json:"orderCount"`
	TotalSpent        decimal.Decimal `json:"totalSpent"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
}

// Report bundles the main admin statistics.
type Report struct {
	Dashboard       *repositories.DashboardStats  `json:"dashboard"`
	TopProducts     []repositories.TopProduct     `json:"topProducts"`
	CategoryStats   []repositories.CategoryStats  `json:"categoryStats"`
	RevenueByStatus []repositories.StatusRevenue `json:"revenueByStatus"`
}

// AnalyticsService serves the admin sales reports.
type AnalyticsService struct {
	repo  repositories.AnalyticsRepository
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewAnalyticsService creates an AnalyticsService. c may be nil to disable caching.
func NewAnalyticsService(repo repositories.AnalyticsRepository, c cache.Cache, ttl time.Duration) *AnalyticsService {
	return &AnalyticsService{repo: repo, cache: c, ttl: ttl, now: time.Now}
}

func (s *AnalyticsService) Dashboard(ctx context.Context, p policy.Principal) (*repositories.DashboardStats, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	var stats repositories.DashboardStats
	if s.cached(ctx, dashboardCacheKey, &stats) {
		return &stats, nil
	}
	fresh, err := s.repo.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, dashboardCacheKey, fresh)
	return fresh, nil
}

// SalesByPeriod buckets SHIPPED and DELIVERED orders. The window defaults to
// the last 30 days and the bucket to one day.
func (s *AnalyticsService) SalesByPeriod(ctx context.Context, p policy.Principal, q SalesQuery) ([]SalesPeriod, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	groupBy := q.GroupBy
	if groupBy == "" {
		groupBy = "day"
	}
	if groupBy != "day" && groupBy != "week" && groupBy != "month" {
		return nil, apperrors.ValidationDetails("Invalid groupBy", map[string]string{"groupBy": "must be day, week or month"})
	}

	to := s.now()
	if q.To != nil {
		to = *q.To
	}
	from := to.AddDate(0, 0, -defaultSalesDays)
	if q.From != nil {
		from = *q.From
	}
	if from.After(to) {
		return nil, apperrors.ValidationDetails("Invalid date range", map[string]string{"startDate": "must not be after endDate"})
	}

	sales, err := s.repo.Sales(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return bucketSales(sales, groupBy), nil
}

func bucketSales(sales []repositories.Sale, groupBy string) []SalesPeriod {
	byPeriod := map[string]*SalesPeriod{}
	for _, sale := range sales {
		key := periodKey(sale.CreatedAt.UTC(), groupBy)
		bucket, ok := byPeriod[key]
		if !ok {
			bucket = &SalesPeriod{Period: key, TotalSales: decimal.Zero}
			byPeriod[key] = bucket
		}
		bucket.TotalSales = bucket.TotalSales.Add(sale.TotalPrice)
		bucket.OrderCount++
	}

	out := make([]SalesPeriod, 0, len(byPeriod))
	for _, bucket := range byPeriod {
		bucket.AverageOrderValue = bucket.TotalSales.Div(decimal.NewFromInt(bucket.OrderCount)).Round(2)
		out = append(out, *bucket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

func periodKey(t time.Time, groupBy string) string {
	switch groupBy {
	case "week":
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case "month":
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

func (s *AnalyticsService) TopProducts(ctx context.Context, p policy.Principal, limit int) ([]repositories.TopProduct, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	if limit < 1 {
		limit = defaultTopLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return s.repo.TopProducts(ctx, limit)
}

func (s *AnalyticsService) CategoryStats(ctx context.Context, p policy.Principal) ([]repositories.CategoryStats, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.repo.CategoryStats(ctx)
}

// UserActivity ranks the top customers by total spent.
func (s *AnalyticsService) UserActivity(ctx context.Context, p policy.Principal) ([]UserActivityStats, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	rows, err := s.repo.UserActivity(ctx, userActivityLimit)
	if err != nil {
		return nil, err
	}
	out := make([]UserActivityStats, 0, len(rows))
	for _, row := range rows {
		stats := UserActivityStats{
			UserID:     row.UserID,
			UserName:   displayName(row.FirstName, row.LastName),
			OrderCount: row.OrderCount,
			TotalSpent: row.TotalSpent,
		}
		if row.OrderCount > 0 {
			stats.AverageOrderValue = row.TotalSpent.Div(decimal.NewFromInt(row.OrderCount)).Round(2)
		}
		out = append(out, stats)
	}
	return out, nil
}

func (s *AnalyticsService) RevenueByStatus(ctx context.Context, p policy.Principal) ([]repositories.StatusRevenue, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	return s.repo.RevenueByStatus(ctx)
}

// FullReport combines dashboard, top five products, category stats and revenue by status.
func (s *AnalyticsService) FullReport(ctx context.Context, p policy.Principal) (*Report, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	var report Report
	if s.cached(ctx, reportCacheKey, &report) {
		return &report, nil
	}

	dashboard, err := s.repo.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.repo.TopProducts(ctx, reportTopLimit)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.CategoryStats(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.repo.RevenueByStatus(ctx)
	if err != nil {
		return nil, err
	}

	report = Report{Dashboard: dashboard, TopProducts: top, CategoryStats: categories, RevenueByStatus: revenue}
	s.store(ctx, reportCacheKey, &report)
	return &report, nil
}

func (s *AnalyticsService) cached(ctx context.Context, key string, dest interface{}) bool {
	return s.cache != nil && s.cache.Get(ctx, key, dest)
}

func (s *AnalyticsService) store(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		logger.FromCtx(ctx).Warn("failed to cache analytics", "key", key, "error", err)
	}
}
