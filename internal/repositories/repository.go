package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is wrapped by every repository lookup that matches no row.
var ErrNotFound = errors.New("record not found")

// Pagination is a 1-indexed page request.
type Pagination struct {
	Page  int
	Limit int
}

// Offset returns the number of rows to skip.
func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

func (p Pagination) apply(db *gorm.DB) *gorm.DB {
	if p.Limit <= 0 {
		return db
	}
	return db.Offset(p.Offset()).Limit(p.Limit)
}

// notFound converts gorm.ErrRecordNotFound into a wrapped ErrNotFound.
func notFound(err error, entity, key, value string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s with %s %s: %w", entity, key, value, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s by %s %s: %w", entity, key, value, err)
}

func likePattern(s string) string {
	return "%" + s + "%"
}
