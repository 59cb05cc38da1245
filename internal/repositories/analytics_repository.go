package repositories

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CompletedStatuses are the order statuses counted as sales.
var CompletedStatuses = []models.OrderStatus{models.OrderStatusShipped, models.OrderStatusDelivered}

type DashboardStats struct {
	TotalUsers      int64           `json:"totalUsers"`
	TotalProducts   int64           `json:"totalProducts"`
	TotalOrders     int64           `json:"totalOrders"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	PendingOrders   int64           `json:"pendingOrders"`
	CompletedOrders int64           `json:"completedOrders"`
}

// Sale is one completed order reduced to what period reports need.
type Sale struct {
	CreatedAt  time.Time
	TotalPrice decimal.Decimal
}

type TopProduct struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	TotalSold int64           `json:"totalSold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type CategoryStats struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	ProductCount int64           `json:"productCount"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

type UserActivity struct {
	UserID     string          `json:"userId"`
	FirstName  string          `json:"-"`
	LastName   string          `json:"-"`
	OrderCount int64           `json:"orderCount"`
	TotalSpent decimal.Decimal `json:"totalSpent"`
}

type StatusRevenue struct {
	Status  models.OrderStatus `json:"status"`
	Count   int64              `json:"count"`
	Revenue decimal.Decimal    `json:"revenue"`
}

// AnalyticsRepository runs the read-only aggregate queries behind the admin reports.
type AnalyticsRepository interface {
	Dashboard(ctx context.Context) (*DashboardStats, error)
	Sales(ctx context.Context, from, to time.Time) ([]Sale, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
	CategoryStats(ctx context.Context) ([]CategoryStats, error)
	UserActivity(ctx context.Context, limit int) ([]UserActivity, error)
	RevenueByStatus(ctx context.Context) ([]StatusRevenue, error)
}

// GORMAnalyticsRepository is a GORM implementation of AnalyticsRepository.
// Queries stick to SQL understood by both PostgreSQL and SQLite.
type GORMAnalyticsRepository struct {
	db *gorm.DB
}

func NewGORMAnalyticsRepository(db *gorm.DB) *GORMAnalyticsRepository {
	return &GORMAnalyticsRepository{db: db}
}

func (r *GORMAnalyticsRepository) Dashboard(ctx context.Context) (*DashboardStats, error) {
	db := r.db.WithContext(ctx)
	var stats DashboardStats

	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&models.Product{}).Where("is_active = ?", true).Count(&stats.TotalProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	if err := db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPending).Count(&stats.PendingOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending orders: %w", err)
	}
	if err := db.Model(&models.Order{}).Where("status = ?", models.OrderStatusDelivered).Count(&stats.CompletedOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count delivered orders: %w", err)
	}

	var revenue struct{ Total decimal.Decimal }
	if err := db.Model(&models.Order{}).Select("COALESCE(SUM(total_price), 0) AS total").Scan(&revenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	stats.TotalRevenue = revenue.Total
	return &stats, nil
}

// Sales returns SHIPPED and DELIVERED orders created within [from, to], oldest first.
func (r *GORMAnalyticsRepository) Sales(ctx context.Context, from, to time.Time) ([]Sale, error) {
	var sales []Sale
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("created_at, total_price").
		Where("created_at >= ? AND created_at <= ? AND status IN ?", from, to, CompletedStatuses).
		Order("created_at ASC").
		Scan(&sales).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	return sales, nil
}

func (r *GORMAnalyticsRepository) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	var rows []TopProduct
	err := r.db.WithContext(ctx).Table("products AS p").
		Select("p.id, p.name, p.slug, SUM(oi.quantity) AS total_sold, SUM(oi.price * oi.quantity) AS revenue").
		Joins("JOIN order_items oi ON oi.product_id = p.id").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("o.status IN ?", CompletedStatuses).
		Group("p.id, p.name, p.slug").
		Order("revenue DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load top products: %w", err)
	}
	return rows, nil
}

func (r *GORMAnalyticsRepository) CategoryStats(ctx context.Context) ([]CategoryStats, error) {
	var rows []CategoryStats
	err := r.db.WithContext(ctx).Table("categories AS c").
		Select("c.id, c.name, COUNT(DISTINCT p.id) AS product_count, " +
			"COALESCE(SUM(CASE WHEN o.id IS NOT NULL THEN oi.price * oi.quantity ELSE 0 END), 0) AS total_revenue").
		Joins("LEFT JOIN products p ON p.category_id = c.id").
		Joins("LEFT JOIN order_items oi ON oi.product_id = p.id").
		Joins("LEFT JOIN orders o ON o.id = oi.order_id AND o.status IN ?", CompletedStatuses).
		Group("c.id, c.name").
		Order("total_revenue DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load category stats: %w", err)
	}
	return rows, nil
}

// UserActivity ranks non-admin customers with at least one order by total spent.
func (r *GORMAnalyticsRepository) UserActivity(ctx context.Context, limit int) ([]UserActivity, error) {
	var rows []UserActivity
	err := r.db.WithContext(ctx).Table("users AS u").
		Select("u.id AS user_id, u.first_name, u.last_name, COUNT(o.id) AS order_count, COALESCE(SUM(o.total_price), 0) AS total_spent").
		Joins("JOIN orders o ON o.user_id = u.id").
		Where("u.role <> ?", models.RoleAdmin).
		Group("u.id, u.first_name, u.last_name").
		Order("total_spent DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load user activity: %w", err)
	}
	return rows, nil
}

func (r *GORMAnalyticsRepository) RevenueByStatus(ctx context.Context) ([]StatusRevenue, error) {
	var rows []StatusRevenue
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_price), 0) AS revenue").
		Group("status").
		Order("status ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue by status: %w", err)
	}
	return rows, nil
}
