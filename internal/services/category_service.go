package services

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/policy"
	"storefront/internal/repositories"
)

// CategoryInput carries category fields; nil pointers leave a field unchanged on update.
type CategoryInput struct {
	Name        *string
	Slug        *string
	Description *string
	// ParentID set to a pointer to "" detaches the category from its parent.
	ParentID *string
	IsActive *bool
}

// ListCategoriesInput filters ListCategories.
type ListCategoriesInput struct {
	Search    string
	IsActive  *bool
	ParentID  *string
	RootsOnly bool
	Page      int
	Limit     int
}

// CategoryService manages the category hierarchy.
type CategoryService struct {
	repo repositories.CategoryRepository
}

func NewCategoryService(repo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

// CreateCategory adds a category. Admin only.
func (s *CategoryService) CreateCategory(ctx context.Context, p policy.Principal, in CategoryInput) (*models.Category, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperrors.ValidationDetails("Invalid category", map[string]string{"name": "is required"})
	}

	category := &models.Category{
		Name:        strings.TrimSpace(*in.Name),
		Description: in.Description,
		IsActive:    true,
	}
	generated, err := makeSlug(in.Slug, category.Name)
	if err != nil {
		return nil, err
	}
	category.Slug = generated
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}

	if err := s.ensureSlugFree(ctx, category.Slug, ""); err != nil {
		return nil, err
	}
	if in.ParentID != nil && *in.ParentID != "" {
		if _, err := s.repo.GetByID(ctx, *in.ParentID); err != nil {
			return nil, notFoundAs(err, "Parent category not found")
		}
		category.ParentID = in.ParentID
	}

	if err := s.repo.Create(ctx, category); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("Category with slug %s already exists", category.Slug)
		}
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Category not found")
	}
	return category, nil
}

func (s *CategoryService) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundAs(err, "Category not found")
	}
	return category, nil
}

// ListCategories lists categories ordered by name.
func (s *CategoryService) ListCategories(ctx context.Context, in ListCategoriesInput) ([]models.Category, PageMeta, error) {
	page := normalizePage(in.Page, in.Limit)
	categories, total, err := s.repo.List(ctx, repositories.CategoryFilter{
		Search:     in.Search,
		IsActive:   in.IsActive,
		ParentID:   in.ParentID,
		RootsOnly:  in.RootsOnly,
		Pagination: page,
	})
	if err != nil {
		return nil, PageMeta{}, err
	}
	return categories, newPageMeta(page, total), nil
}

// CategoryTree returns the root categories with their descendants nested.
func (s *CategoryService) CategoryTree(ctx context.Context) ([]models.Category, error) {
	all, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return buildTree(all), nil
}

func buildTree(all []models.Category) []models.Category {
	children := make(map[string][]models.Category)
	known := make(map[string]bool, len(all))
	for _, c := range all {
		known[c.ID] = true
	}
	var roots []models.Category
	for _, c := range all {
		if c.ParentID == nil || !known[*c.ParentID] {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	var attach func(c models.Category, seen map[string]bool) models.Category
	attach = func(c models.Category, seen map[string]bool) models.Category {
		seen[c.ID] = true
		c.Children = nil
		for _, child := range children[c.ID] {
			if !seen[child.ID] {
				c.Children = append(c.Children, attach(child, seen))
			}
		}
		return c
	}

	tree := make([]models.Category, 0, len(roots))
	for _, root := range roots {
		tree = append(tree, attach(root, map[string]bool{}))
	}
	return tree
}

// UpdateCategory edits a category. Admin only. A category can never become
// its own ancestor.
func (s *CategoryService) UpdateCategory(ctx context.Context, p policy.Principal, id string, in CategoryInput) (*models.Category, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Category not found")
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperrors.ValidationDetails("Invalid category", map[string]string{"name": "must not be empty"})
		}
		category.Name = strings.TrimSpace(*in.Name)
	}
	if in.Slug != nil && *in.Slug != category.Slug {
		if err := checkSlug(*in.Slug); err != nil {
			return nil, err
		}
		if err := s.ensureSlugFree(ctx, *in.Slug, id); err != nil {
			return nil, err
		}
		category.Slug = *in.Slug
	}
	if in.Description != nil {
		category.Description = in.Description
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}
	if in.ParentID != nil {
		if *in.ParentID == "" {
			category.ParentID = nil
		} else {
			if err := s.checkParent(ctx, id, *in.ParentID); err != nil {
				return nil, err
			}
			category.ParentID = in.ParentID
		}
	}

	if err := s.repo.Update(ctx, category); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("Category with slug %s already exists", category.Slug)
		}
		return nil, notFoundAs(err, "Category not found")
	}
	return s.GetCategory(ctx, id)
}

// checkParent rejects parentID when it is id itself, does not exist, or
// descends from id.
func (s *CategoryService) checkParent(ctx context.Context, id, parentID string) error {
	if parentID == id {
		return apperrors.Validation("Category cannot be its own parent")
	}
	parent, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		return notFoundAs(err, "Parent category not found")
	}
	seen := map[string]bool{parent.ID: true}
	for next := parent.ParentID; next != nil; {
		if *next == id {
			return apperrors.Validation("Category cannot be moved under its own descendant")
		}
		if seen[*next] {
			break
		}
		seen[*next] = true
		ancestor, err := s.repo.GetByID(ctx, *next)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				break
			}
			return err
		}
		next = ancestor.ParentID
	}
	return nil
}

// DeleteCategory removes a category without children or products. Admin only.
func (s *CategoryService) DeleteCategory(ctx context.Context, p policy.Principal, id string) error {
	if err := policy.RequireAdmin(p); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return notFoundAs(err, "Category not found")
	}
	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return apperrors.InvalidState("Cannot delete category with subcategories")
	}
	products, err := s.repo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if products > 0 {
		return apperrors.InvalidState("Cannot delete category with products")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFoundAs(err, "Category not found")
	}
	return nil
}

func (s *CategoryService) ensureSlugFree(ctx context.Context, slug, selfID string) error {
	existing, err := s.repo.GetBySlug(ctx, slug)
	if err == nil {
		if existing.ID != selfID {
			return apperrors.Conflict("Category with slug %s already exists", slug)
		}
		return nil
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return nil
	}
	return err
}
