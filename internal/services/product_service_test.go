package services_test

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/policy"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	adminPrincipal = policy.Principal{ID: "admin-1", Role: models.RoleAdmin}
	userPrincipal  = policy.Principal{ID: "user-1", Role: models.RoleUser}
)

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestProductService_ListProducts(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepository))

	expectedProducts := []models.Product{
		{ID: "1", Name: "Product A", Price: decimal.RequireFromString("10.00"), Stock: 100},
		{ID: "2", Name: "Product B", Price: decimal.RequireFromString("20.00"), Stock: 50},
	}
	mockRepo.On("List", ctx, mock.MatchedBy(func(f repositories.ProductFilter) bool {
		return f.Page == 2 && f.Limit == 100 && f.SortBy == "price"
	})).Return(expectedProducts, int64(102), nil).Once()

	products, meta, err := service.ListProducts(ctx, services.ListProductsInput{Page: 2, Limit: 500, SortBy: "price"})

	require.NoError(t, err)
	assert.Equal(t, expectedProducts, products)
	assert.Equal(t, services.PageMeta{Page: 2, Limit: 100, Total: 102, TotalPages: 2}, meta)
	mockRepo.AssertExpectations(t)
}

func TestProductService_ListProductsRejectsInvertedPriceRange(t *testing.T) {
	service := services.NewProductService(new(MockProductRepository), new(MockCategoryRepository))

	_, _, err := service.ListProducts(context.Background(), services.ListProductsInput{
		MinPrice: decPtr("50"),
		MaxPrice: decPtr("10"),
	})

	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}

func TestProductService_GetProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepository))

	mockRepo.On("GetByID", ctx, "1").Return(&models.Product{ID: "1", Name: "Product A"}, nil).Once()
	mockRepo.On("AverageRating", ctx, "1").Return(4.5, int64(2), nil).Once()
	mockRepo.On("GetByID", ctx, "missing").Return(nil, notFoundErr("product")).Once()

	details, err := service.GetProduct(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Product A", details.Name)
	assert.Equal(t, 4.5, details.AverageRating)
	assert.Equal(t, int64(2), details.ReviewCount)

	_, err = service.GetProduct(ctx, "missing")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	mockCategories := new(MockCategoryRepository)
	service := services.NewProductService(mockRepo, mockCategories)

	mockRepo.On("GetBySlug", ctx, "gaming-laptop").Return(nil, notFoundErr("product")).Once()
	mockCategories.On("GetByID", ctx, "cat-1").Return(&models.Category{ID: "cat-1"}, nil).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(p *models.Product) bool {
		return p.Slug == "gaming-laptop" && p.Stock == 5 && p.Price.Equal(decimal.RequireFromString("1299.99")) && p.IsActive
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Product).ID = "p1"
	}).Return(nil).Once()
	mockRepo.On("GetByID", ctx, "p1").Return(&models.Product{ID: "p1", Slug: "gaming-laptop"}, nil).Once()

	product, err := service.CreateProduct(ctx, adminPrincipal, services.ProductInput{
		Name:       strPtr("Gaming Laptop"),
		Price:      decPtr("1299.99"),
		Stock:      intPtr(5),
		CategoryID: strPtr("cat-1"),
	})

	require.NoError(t, err)
	assert.Equal(t, "p1", product.ID)
	mockRepo.AssertExpectations(t)
	mockCategories.AssertExpectations(t)
}

func TestProductService_CreateProductTransliteratesSlug(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	mockCategories := new(MockCategoryRepository)
	service := services.NewProductService(mockRepo, mockCategories)

	mockRepo.On("GetBySlug", ctx, "noutbuk-pro").Return(nil, notFoundErr("product")).Once()
	mockCategories.On("GetByID", ctx, "cat-1").Return(&models.Category{ID: "cat-1"}, nil).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(p *models.Product) bool {
		return p.Name == "Ноутбук Pro" && p.Slug == "noutbuk-pro"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Product).ID = "p2"
	}).Return(nil).Once()
	mockRepo.On("GetByID", ctx, "p2").Return(&models.Product{ID: "p2", Slug: "noutbuk-pro"}, nil).Once()

	product, err := service.CreateProduct(ctx, adminPrincipal, services.ProductInput{
		Name:       strPtr("Ноутбук Pro"),
		Price:      decPtr("999.00"),
		CategoryID: strPtr("cat-1"),
	})

	require.NoError(t, err)
	assert.Equal(t, "noutbuk-pro", product.Slug)
	mockRepo.AssertExpectations(t)
}

func TestProductService_UpdateProductRejectsInvalidSlug(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepository))

	mockRepo.On("GetByID", ctx, "p1").Return(&models.Product{ID: "p1", Name: "Mouse", Slug: "mouse"}, nil).Once()

	_, err := service.UpdateProduct(ctx, adminPrincipal, "p1", services.ProductInput{Slug: strPtr("Мышь Pro")})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Details, "slug")
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProductService_CreateProductValidation(t *testing.T) {
	service := services.NewProductService(new(MockProductRepository), new(MockCategoryRepository))

	_, err := service.CreateProduct(context.Background(), adminPrincipal, services.ProductInput{
		Name:  strPtr(" "),
		Price: decPtr("-1"),
		Stock: intPtr(-3),
	})

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Details, "name")
	assert.Contains(t, appErr.Details, "price")
	assert.Contains(t, appErr.Details, "stock")
	assert.Contains(t, appErr.Details, "categoryId")
}

func TestProductService_CreateProductSlugConflict(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepository))

	mockRepo.On("GetBySlug", ctx, "mouse").Return(&models.Product{ID: "other", Slug: "mouse"}, nil).Once()

	_, err := service.CreateProduct(ctx, adminPrincipal, services.ProductInput{
		Name:       strPtr("Mouse"),
		Price:      decPtr("25"),
		CategoryID: strPtr("cat-1"),
	})

	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductService_MutationsRequireAdmin(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepository))

	_, err := service.CreateProduct(ctx, userPrincipal, services.ProductInput{Name: strPtr("X")})
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	_, err = service.UpdateProduct(ctx, userPrincipal, "1", services.ProductInput{Name: strPtr("X")})
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	_, err = service.AdjustStock(ctx, userPrincipal, "1", 5)
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	err = service.DeleteProduct(ctx, userPrincipal, "1")
	assert.True(t, apperrors.Is(err, apperrors.KindForbidden))

	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestProductService_UpdateProductKeepsStock(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepository))

	existing := &models.Product{ID: "1", Name: "Old", Slug: "old", Price: decimal.RequireFromString("10"), Stock: 7, CategoryID: "cat-1"}
	mockRepo.On("GetByID", ctx, "1").Return(existing, nil)
	mockRepo.On("Update", ctx, mock.MatchedBy(func(p *models.Product) bool {
		return p.Name == "New" && p.Price.Equal(decimal.RequireFromString("12.5")) && p.Stock == 7
	})).Return(nil).Once()

	_, err := service.UpdateProduct(ctx, adminPrincipal, "1", services.ProductInput{
		Name:  strPtr("New"),
		Price: decPtr("12.50"),
		Stock: intPtr(999),
	})

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestProductService_AdjustStock(t *testing.T) {
	ctx := context.Background()

	t.Run("applies delta", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := services.NewProductService(mockRepo, new(MockCategoryRepository))
		mockRepo.On("GetByID", ctx, "1").Return(&models.Product{ID: "1", Stock: 3}, nil).Once()
		mockRepo.On("AdjustStock", ctx, "1", 4).Return(true, nil).Once()
		mockRepo.On("GetByID", ctx, "1").Return(&models.Product{ID: "1", Stock: 7}, nil).Once()

		product, err := service.AdjustStock(ctx, adminPrincipal, "1", 4)
		require.NoError(t, err)
		assert.Equal(t, 7, product.Stock)
		mockRepo.AssertExpectations(t)
	})

	t.Run("rejects negative result", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := services.NewProductService(mockRepo, new(MockCategoryRepository))
		mockRepo.On("GetByID", ctx, "1").Return(&models.Product{ID: "1", Name: "Mouse", Stock: 3}, nil).Once()
		mockRepo.On("AdjustStock", ctx, "1", -5).Return(false, nil).Once()

		_, err := service.AdjustStock(ctx, adminPrincipal, "1", -5)
		assert.True(t, apperrors.Is(err, apperrors.KindInsufficientStock))
	})

	t.Run("propagates storage errors", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := services.NewProductService(mockRepo, new(MockCategoryRepository))
		mockRepo.On("GetByID", ctx, "1").Return(&models.Product{ID: "1"}, nil).Once()
		mockRepo.On("AdjustStock", ctx, "1", 1).Return(false, errors.New("connection reset")).Once()

		_, err := service.AdjustStock(ctx, adminPrincipal, "1", 1)
		assert.EqualError(t, err, "connection reset")
	})
}

func TestProductService_DeleteProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("referenced by orders", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := services.NewProductService(mockRepo, new(MockCategoryRepository))
		mockRepo.On("GetByID", ctx, "1").Return(&models.Product{ID: "1"}, nil).Once()
		mockRepo.On("CountOrderItems", ctx, "1").Return(int64(2), nil).Once()

		err := service.DeleteProduct(ctx, adminPrincipal, "1")
		assert.True(t, apperrors.Is(err, apperrors.KindInvalidState))
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("unreferenced", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := services.NewProductService(mockRepo, new(MockCategoryRepository))
		mockRepo.On("GetByID", ctx, "1").Return(&models.Product{ID: "1"}, nil).Once()
		mockRepo.On("CountOrderItems", ctx, "1").Return(int64(0), nil).Once()
		mockRepo.On("Delete", ctx, "1").Return(nil).Once()

		assert.NoError(t, service.DeleteProduct(ctx, adminPrincipal, "1"))
		mockRepo.AssertExpectations(t)
	})

	t.Run("missing", func(t *testing.T) {
		mockRepo := new(MockProductRepository)
		service := services.NewProductService(mockRepo, new(MockCategoryRepository))
		mockRepo.On("GetByID", ctx, "nope").Return(nil, notFoundErr("product")).Once()

		err := service.DeleteProduct(ctx, adminPrincipal, "nope")
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	})
}
