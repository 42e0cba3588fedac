package datastore

import (
	"fmt"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"

	"github.com/tphakala/aftermidnight/internal/errors"
)

// ErrStoreIO marks a failure of the underlying storage. It aborts the
// enclosing logical operation.
var ErrStoreIO = errors.NewStd("store i/o failure")

// IsUniqueViolation reports whether err comes from a UNIQUE or PRIMARY KEY
// constraint. It understands both GORM's translated error and the raw driver error.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// StoreError wraps a storage failure with ErrStoreIO and operation context.
// Domain packages use it for every error that is not a domain rule violation.
func StoreError(err error, component, operation string, context ...any) error {
	builder := errors.New(fmt.Errorf("%w: %s: %w", ErrStoreIO, operation, err)).
		Component(component).
		Category(errors.CategoryDatabase).
		Context("operation", operation)

	for i := 0; i+1 < len(context); i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}

	return builder.Build()
}

// dbError creates a categorized database error for this package
func dbError(err error, operation string, context ...any) error {
	return StoreError(err, "datastore", operation, context...)
}

// validationError creates a validation error
func validationError(message, field string, value any) error {
	return errors.Newf("%s", message).
		Component("datastore").
		Category(errors.CategoryValidation).
		Context("field", field).
		Context("value", fmt.Sprintf("%v", value)).
		Build()
}
