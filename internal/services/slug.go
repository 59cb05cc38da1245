package services

import (
	"storefront/internal/apperrors"

	"github.com/gosimple/slug"
)

// makeSlug returns explicit when set, otherwise name transliterated to an
// ASCII slug.
func makeSlug(explicit *string, name string) (string, error) {
	if explicit != nil && *explicit != "" {
		return *explicit, checkSlug(*explicit)
	}
	generated := slug.Make(name)
	if generated == "" {
		return "", apperrors.ValidationDetails("Invalid slug",
			map[string]string{"name": "must contain at least one letter or digit"})
	}
	return generated, nil
}

func checkSlug(s string) error {
	if !slug.IsSlug(s) {
		return apperrors.ValidationDetails("Invalid slug",
			map[string]string{"slug": "must contain only lowercase latin letters, digits, hyphens and underscores"})
	}
	return nil
}
