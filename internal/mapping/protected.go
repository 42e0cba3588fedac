package mapping

import "strings"

// Protected image fields. They back the session summary and import
// normalization, so they cannot be removed or renamed.
const (
	FieldDateObs  = "date_obs"
	FieldExposure = "exposure"
	FieldRA       = "ra"
	FieldDec      = "dec"
	FieldFilter   = "filter"
	FieldImageTyp = "imagetyp"
)

var protectedFields = []string{FieldDateObs, FieldExposure, FieldRA, FieldDec, FieldFilter, FieldImageTyp}

// defaultEntries are seeded into an empty registry and restored by ResetToDefaults
var defaultEntries = []Entry{
	{SourceKeyword: "DATE-LOC", StoredField: FieldDateObs},
	{SourceKeyword: "EXPOSURE", StoredField: FieldExposure},
	{SourceKeyword: "RA", StoredField: FieldRA},
	{SourceKeyword: "DEC", StoredField: FieldDec},
	{SourceKeyword: "FILTER", StoredField: FieldFilter},
	{SourceKeyword: "IMAGETYP", StoredField: FieldImageTyp},
}

// IsProtected reports whether storedField belongs to the protected set.
// It is the only place that decides protection.
func IsProtected(storedField string) bool {
	for _, field := range protectedFields {
		if strings.EqualFold(field, storedField) {
			return true
		}
	}
	return false
}

// ProtectedFields returns the protected stored field names
func ProtectedFields() []string {
	out := make([]string, len(protectedFields))
	copy(out, protectedFields)
	return out
}

// DefaultEntries returns the default keyword mapping
func DefaultEntries() []Entry {
	out := make([]Entry, len(defaultEntries))
	copy(out, defaultEntries)
	return out
}
