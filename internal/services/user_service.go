package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/apperrors"
	"storefront/internal/models"
	"storefront/internal/policy"
	"storefront/internal/repositories"
	"storefront/pkg/logger"
)

// UpdateUserInput holds the fields a caller wants changed; nil means unchanged.
type UpdateUserInput struct {
	Email     *string
	FirstName *string
	LastName  *string
	IsActive  *bool
}

// UserService manages user accounts.
type UserService struct {
	userRepo repositories.UserRepository
}

func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// GetUser returns a user to themselves or to an admin.
func (s *UserService) GetUser(ctx context.Context, p policy.Principal, id string) (*models.User, error) {
	if err := policy.RequireOwnerOrAdmin(p, id); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "User not found")
	}
	return user, nil
}

// ListUsers lists every user. Admin only.
func (s *UserService) ListUsers(ctx context.Context, p policy.Principal, page, limit int) ([]models.User, PageMeta, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, PageMeta{}, err
	}
	pg := normalizePage(page, limit)
	users, total, err := s.userRepo.List(ctx, pg)
	if err != nil {
		return nil, PageMeta{}, err
	}
	return users, newPageMeta(pg, total), nil
}

// UpdateUser edits a profile. Only admins may change IsActive.
func (s *UserService) UpdateUser(ctx context.Context, p policy.Principal, id string, in UpdateUserInput) (*models.User, error) {
	if err := policy.RequireOwnerOrAdmin(p, id); err != nil {
		return nil, err
	}
	if in.IsActive != nil && !policy.IsAdmin(p) {
		return nil, apperrors.Forbidden("Only administrators can change account status")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "User not found")
	}

	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != user.Email {
			if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
				return nil, apperrors.Conflict("Email %s is already registered", email)
			} else if !errors.Is(err, repositories.ErrNotFound) {
				return nil, err
			}
			user.Email = email
		}
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Conflict("Email %s is already registered", user.Email)
		}
		return nil, notFoundAs(err, "User not found")
	}
	return user, nil
}

// ToggleBlock flips a user's active flag. Admin only; admins cannot block themselves.
func (s *UserService) ToggleBlock(ctx context.Context, p policy.Principal, id string) (*models.User, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	if p.ID == id {
		return nil, apperrors.InvalidState("Administrators cannot block themselves")
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "User not found")
	}
	user.IsActive = !user.IsActive
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, notFoundAs(err, "User not found")
	}
	logger.FromCtx(ctx).Info("user block toggled", "user_id", id, "active", user.IsActive, "by", p.ID)
	return user, nil
}

// DeleteUser removes an account that has never placed an order. Admin only.
func (s *UserService) DeleteUser(ctx context.Context, p policy.Principal, id string) error {
	if err := policy.RequireAdmin(p); err != nil {
		return err
	}
	if _, err := s.userRepo.GetByID(ctx, id); err != nil {
		return notFoundAs(err, "User not found")
	}
	orders, err := s.userRepo.CountOrders(ctx, id)
	if err != nil {
		return err
	}
	if orders > 0 {
		return apperrors.InvalidState("Cannot delete user with %d existing orders", orders)
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return notFoundAs(err, "User not found")
	}
	return nil
}

// displayName joins first and last name for reports.
func displayName(first, last string) string {
	return strings.TrimSpace(fmt.Sprintf("%s %s", first, last))
}
