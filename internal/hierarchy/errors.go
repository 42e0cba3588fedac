package hierarchy

import (
	"fmt"

	"github.com/tphakala/aftermidnight/internal/datastore"
	"github.com/tphakala/aftermidnight/internal/errors"
)

// Domain errors returned by Store. Check them with errors.Is.
var (
	ErrDuplicateName   = errors.NewStd("a sibling project with this name already exists")
	ErrCyclicMove      = errors.NewStd("project cannot be moved into itself or one of its descendants")
	ErrHasChildren     = errors.NewStd("project has child projects")
	ErrProjectNotFound = errors.NewStd("project not found")
	ErrInvalidName     = errors.NewStd("project name must not be empty")
)

// ruleViolations are rejected before any mutation and never wrapped as store failures
var ruleViolations = []error{ErrDuplicateName, ErrCyclicMove, ErrHasChildren, ErrProjectNotFound, ErrInvalidName}

func isRuleViolation(err error) bool {
	for _, sentinel := range ruleViolations {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// ruleError builds a categorized domain error around a sentinel
func ruleError(sentinel error, category errors.ErrorCategory, operation string, context ...any) error {
	builder := errors.New(fmt.Errorf("%s: %w", operation, sentinel)).
		Component("hierarchy").
		Category(category).
		Context("operation", operation)

	for i := 0; i+1 < len(context); i += 2 {
		if key, ok := context[i].(string); ok {
			builder = builder.Context(key, context[i+1])
		}
	}

	return builder.Build()
}

func notFound(operation string, id uint) error {
	return ruleError(ErrProjectNotFound, errors.CategoryNotFound, operation, "project_id", id)
}

func storeError(err error, operation string, context ...any) error {
	return datastore.StoreError(err, "hierarchy", operation, context...)
}
