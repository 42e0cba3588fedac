package mapping

import (
	"regexp"
	"slices"
	"strings"

	"github.com/tphakala/aftermidnight/internal/datastore/entities"
	"github.com/tphakala/aftermidnight/internal/errors"
)

// maxFieldLength keeps generated column names readable
const maxFieldLength = 64

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateField checks that storedField can be used as an images column name
func ValidateField(storedField string) error {
	if len(storedField) > maxFieldLength || !fieldPattern.MatchString(storedField) {
		return ruleError(ErrInvalidField, errors.CategoryValidation, "validate", storedField)
	}
	if slices.ContainsFunc(entities.ReservedImageColumns, func(c string) bool {
		return strings.EqualFold(c, storedField)
	}) {
		return ruleError(ErrInvalidField, errors.CategoryValidation, "validate", storedField)
	}
	return nil
}

// normalizeKeyword trims a header keyword and rejects blank or malformed ones
func normalizeKeyword(keyword string) (string, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" || strings.ContainsAny(keyword, "= \t") {
		return "", ruleError(ErrInvalidKeyword, errors.CategoryValidation, "validate", keyword)
	}
	return keyword, nil
}
