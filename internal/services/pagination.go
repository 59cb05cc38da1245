package services

import "storefront/internal/repositories"

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// PageMeta describes one page of a paginated listing.
type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// normalizePage applies the listing defaults: page 1, limit 20, at most 100 rows.
func normalizePage(page, limit int) repositories.Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return repositories.Pagination{Page: page, Limit: limit}
}

func newPageMeta(p repositories.Pagination, total int64) PageMeta {
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return PageMeta{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}
