package services_test

import (
	"context"
	"time"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/pkg/rabbitmq"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, page repositories.Pagination) ([]models.User, int64, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) CountOrders(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) BumpTokenVersion(ctx context.Context, id string) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, filter repositories.ProductFilter) ([]models.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	args := m.Called(ctx, id, qty)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) IncrementStock(ctx context.Context, id string, qty int) error {
	args := m.Called(ctx, id, qty)
	return args.Error(0)
}

func (m *MockProductRepository) AdjustStock(ctx context.Context, id string, delta int) (bool, error) {
	args := m.Called(ctx, id, delta)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) CountOrderItems(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) AverageRating(ctx context.Context, id string) (float64, int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(float64), args.Get(1).(int64), args.Error(2)
}

// MockCategoryRepository is a mock implementation of repositories.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepository) List(ctx context.Context, filter repositories.CategoryFilter) ([]models.Category, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Category), args.Get(1).(int64), args.Error(2)
}

func (m *MockCategoryRepository) ListAll(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	args := m.Called(ctx, category)
	return args.Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCategoryRepository) CountChildren(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCategoryRepository) CountProducts(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockOrderRepository is a mock implementation of repositories.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter repositories.OrderFilter) ([]models.Order, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, from ...models.OrderStatus) (bool, error) {
	args := m.Called(ctx, id, status, from)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) HasDeliveredProduct(ctx context.Context, userID, productID string) (bool, error) {
	args := m.Called(ctx, userID, productID)
	return args.Bool(0), args.Error(1)
}

// MockReviewRepository is a mock implementation of repositories.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) GetByUserAndProduct(ctx context.Context, userID, productID string) (*models.Review, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewRepository) List(ctx context.Context, filter repositories.ReviewFilter) ([]models.Review, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Review), args.Get(1).(int64), args.Error(2)
}

func (m *MockReviewRepository) Update(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAnalyticsRepository is a mock implementation of repositories.AnalyticsRepository
type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) Dashboard(ctx context.Context) (*repositories.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repositories.DashboardStats), args.Error(1)
}

func (m *MockAnalyticsRepository) Sales(ctx context.Context, from, to time.Time) ([]repositories.Sale, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]repositories.Sale), args.Error(1)
}

func (m *MockAnalyticsRepository) TopProducts(ctx context.Context, limit int) ([]repositories.TopProduct, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]repositories.TopProduct), args.Error(1)
}

func (m *MockAnalyticsRepository) CategoryStats(ctx context.Context) ([]repositories.CategoryStats, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repositories.CategoryStats), args.Error(1)
}

func (m *MockAnalyticsRepository) UserActivity(ctx context.Context, limit int) ([]repositories.UserActivity, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]repositories.UserActivity), args.Error(1)
}

func (m *MockAnalyticsRepository) RevenueByStatus(ctx context.Context) ([]repositories.StatusRevenue, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repositories.StatusRevenue), args.Error(1)
}

// mockTxRepos hands the mocked repositories to the transaction callback.
type mockTxRepos struct {
	orders   *MockOrderRepository
	products *MockProductRepository
}

func (r mockTxRepos) Orders() repositories.OrderRepository     { return r.orders }
func (r mockTxRepos) Products() repositories.ProductRepository { return r.products }

// MockTxManager runs the callback directly and records whether it was used.
type MockTxManager struct {
	Repos mockTxRepos
	Calls int
}

func (m *MockTxManager) WithinTx(_ context.Context, fn func(repositories.TxRepositories) error) error {
	m.Calls++
	return fn(m.Repos)
}

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishOrderEvent(ctx context.Context, ev rabbitmq.OrderEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
