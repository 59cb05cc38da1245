package services

import (
	"errors"
	"strings"

	"storefront/internal/apperrors"
	"storefront/internal/repositories"
)

// notFoundAs turns a repository miss into a NotFoundError with msg and
// passes every other error through unchanged.
func notFoundAs(err error, msg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.NotFound("%s", msg)
	}
	return err
}

// isUniqueViolation recognizes unique-constraint failures from PostgreSQL and SQLite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "sqlstate 23505")
}
