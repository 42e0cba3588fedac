package mapping

import (
	"fmt"

	"github.com/tphakala/aftermidnight/internal/datastore"
	"github.com/tphakala/aftermidnight/internal/errors"
)

// Domain errors returned by Registry. Check them with errors.Is.
var (
	ErrProtected       = errors.NewStd("mapping entry is protected")
	ErrMappingNotFound = errors.NewStd("no mapping entry for field")
	ErrInvalidField    = errors.NewStd("invalid stored field name")
	ErrInvalidKeyword  = errors.NewStd("invalid header keyword")
)

func ruleError(sentinel error, category errors.ErrorCategory, operation, field string) error {
	return errors.New(fmt.Errorf("%s %q: %w", operation, field, sentinel)).
		Component("mapping").
		Category(category).
		Context("operation", operation).
		Context("field", field).
		Build()
}

func isRuleViolation(err error) bool {
	return errors.Is(err, ErrProtected) ||
		errors.Is(err, ErrMappingNotFound) ||
		errors.Is(err, ErrInvalidField) ||
		errors.Is(err, ErrInvalidKeyword)
}

// wrap passes rule violations through and marks everything else as a store failure
func wrap(err error, operation string) error {
	if err == nil || isRuleViolation(err) {
		return err
	}
	return datastore.StoreError(err, "mapping", operation)
}
