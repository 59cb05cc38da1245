package services_test

import (
	"context"
	"testing"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCategoryService_CreateCategory(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCategoryRepository)
	service := services.NewCategoryService(repo)

	repo.On("GetBySlug", ctx, "home-office").Return(nil, notFoundErr("category")).Once()
	repo.On("GetByID", ctx, "root").Return(&models.Category{ID: "root"}, nil).Once()
	repo.On("Create", ctx, mock.MatchedBy(func(c *models.Category) bool {
		return c.Name == "Home Office" && c.Slug == "home-office" && c.IsActive && *c.ParentID == "root"
	})).Return(nil).Once()

	category, err := service.CreateCategory(ctx, adminPrincipal, services.CategoryInput{
		Name:     strPtr(" Home Office "),
		ParentID: strPtr("root"),
	})

	require.NoError(t, err)
	assert.Equal(t, "home-office", category.Slug)
	repo.AssertExpectations(t)
}

func TestCategoryService_CreateCategoryTransliteratesSlug(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCategoryRepository)
	service := services.NewCategoryService(repo)

	repo.On("GetBySlug", ctx, "knigi").Return(nil, notFoundErr("category")).Once()
	repo.On("Create", ctx, mock.MatchedBy(func(c *models.Category) bool {
		return c.Name == "Книги" && c.Slug == "knigi"
	})).Return(nil).Once()

	category, err := service.CreateCategory(ctx, adminPrincipal, services.CategoryInput{Name: strPtr("Книги")})

	require.NoError(t, err)
	assert.Equal(t, "knigi", category.Slug)
	repo.AssertExpectations(t)
}

func TestCategoryService_CreateCategoryRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("non admin", func(t *testing.T) {
		service := services.NewCategoryService(new(MockCategoryRepository))
		_, err := service.CreateCategory(ctx, userPrincipal, services.CategoryInput{Name: strPtr("Books")})
		assert.True(t, apperrors.Is(err, apperrors.KindForbidden))
	})

	t.Run("missing name", func(t *testing.T) {
		service := services.NewCategoryService(new(MockCategoryRepository))
		_, err := service.CreateCategory(ctx, adminPrincipal, services.CategoryInput{})
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	})

	t.Run("duplicate slug", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := services.NewCategoryService(repo)
		repo.On("GetBySlug", ctx, "books").Return(&models.Category{ID: "c1", Slug: "books"}, nil).Once()

		_, err := service.CreateCategory(ctx, adminPrincipal, services.CategoryInput{Name: strPtr("Books")})
		assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	})

	t.Run("unknown parent", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := services.NewCategoryService(repo)
		repo.On("GetBySlug", ctx, "books").Return(nil, notFoundErr("category")).Once()
		repo.On("GetByID", ctx, "ghost").Return(nil, notFoundErr("category")).Once()

		_, err := service.CreateCategory(ctx, adminPrincipal, services.CategoryInput{Name: strPtr("Books"), ParentID: strPtr("ghost")})
		assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestCategoryService_UpdateCategoryParentRules(t *testing.T) {
	ctx := context.Background()
	root := &models.Category{ID: "root", Name: "Root", Slug: "root"}
	child := &models.Category{ID: "child", Name: "Child", Slug: "child", ParentID: strPtr("root")}
	grandchild := &models.Category{ID: "grandchild", Name: "Grandchild", Slug: "grandchild", ParentID: strPtr("child")}

	newRepo := func() *MockCategoryRepository {
		repo := new(MockCategoryRepository)
		repo.On("GetByID", ctx, "root").Return(root, nil)
		repo.On("GetByID", ctx, "child").Return(child, nil)
		repo.On("GetByID", ctx, "grandchild").Return(grandchild, nil)
		return repo
	}

	t.Run("own parent", func(t *testing.T) {
		service := services.NewCategoryService(newRepo())
		_, err := service.UpdateCategory(ctx, adminPrincipal, "child", services.CategoryInput{ParentID: strPtr("child")})
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	})

	t.Run("descendant parent", func(t *testing.T) {
		repo := newRepo()
		service := services.NewCategoryService(repo)
		_, err := service.UpdateCategory(ctx, adminPrincipal, "root", services.CategoryInput{ParentID: strPtr("grandchild")})
		assert.True(t, apperrors.Is(err, apperrors.KindValidation))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("detach", func(t *testing.T) {
		repo := newRepo()
		service := services.NewCategoryService(repo)
		repo.On("Update", ctx, mock.MatchedBy(func(c *models.Category) bool {
			return c.ID == "grandchild" && c.ParentID == nil
		})).Return(nil).Once()

		_, err := service.UpdateCategory(ctx, adminPrincipal, "grandchild", services.CategoryInput{ParentID: strPtr("")})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestCategoryService_DeleteCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("has children", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := services.NewCategoryService(repo)
		repo.On("GetByID", ctx, "c1").Return(&models.Category{ID: "c1"}, nil).Once()
		repo.On("CountChildren", ctx, "c1").Return(int64(1), nil).Once()

		err := service.DeleteCategory(ctx, adminPrincipal, "c1")
		assert.True(t, apperrors.Is(err, apperrors.KindInvalidState))
	})

	t.Run("has products", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := services.NewCategoryService(repo)
		repo.On("GetByID", ctx, "c1").Return(&models.Category{ID: "c1"}, nil).Once()
		repo.On("CountChildren", ctx, "c1").Return(int64(0), nil).Once()
		repo.On("CountProducts", ctx, "c1").Return(int64(4), nil).Once()

		err := service.DeleteCategory(ctx, adminPrincipal, "c1")
		assert.True(t, apperrors.Is(err, apperrors.KindInvalidState))
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("empty", func(t *testing.T) {
		repo := new(MockCategoryRepository)
		service := services.NewCategoryService(repo)
		repo.On("GetByID", ctx, "c1").Return(&models.Category{ID: "c1"}, nil).Once()
		repo.On("CountChildren", ctx, "c1").Return(int64(0), nil).Once()
		repo.On("CountProducts", ctx, "c1").Return(int64(0), nil).Once()
		repo.On("Delete", ctx, "c1").Return(nil).Once()

		require.NoError(t, service.DeleteCategory(ctx, adminPrincipal, "c1"))
		repo.AssertExpectations(t)
	})
}

func TestCategoryService_CategoryTree(t *testing.T) {
	ctx := context.Background()
	repo := new(MockCategoryRepository)
	service := services.NewCategoryService(repo)

	repo.On("ListAll", ctx).Return([]models.Category{
		{ID: "a", Name: "Apparel"},
		{ID: "b", Name: "Books"},
		{ID: "a1", Name: "Shirts", ParentID: strPtr("a")},
		{ID: "a1x", Name: "Linen", ParentID: strPtr("a1")},
		{ID: "orphan", Name: "Orphan", ParentID: strPtr("deleted")},
	}, nil).Once()

	tree, err := service.CategoryTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 3)
	assert.Equal(t, "a", tree[0].ID)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "a1", tree[0].Children[0].ID)
	require.Len(t, tree[0].Children[0].Children, 1)
	assert.Equal(t, "a1x", tree[0].Children[0].Children[0].ID)
	assert.Empty(t, tree[1].Children)
	assert.Equal(t, "orphan", tree[2].ID)
}
