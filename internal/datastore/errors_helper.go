package datastore

import (
	"gorm.io/gorm"

	"github.com/hoofbeat/hoofbeat-go/internal/errors"
)

func errRecordNotFound() error { return gorm.ErrRecordNotFound }

// IsNotFound reports whether err represents a missing record, either the
// raw gorm sentinel or a wrapped not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// wrapNotFound converts gorm errors into enhanced errors, keeping the
// not-found case distinguishable for callers.
func wrapNotFound(err error, entity string, key any) error {
	category := errors.CategoryDatabase
	if errors.Is(err, gorm.ErrRecordNotFound) {
		category = errors.CategoryNotFound
	}
	return errors.New(err).
		Category(category).
		Context("entity", entity).
		Context("key", key).
		Build()
}
