package mapping

import (
	"slices"
	"strings"
)

// Entry maps a header keyword to a stored image field
type Entry struct {
	SourceKeyword string `yaml:"keyword"`
	StoredField   string `yaml:"field"`
}

// Snapshot is an immutable, versioned view of the mapping registry.
// Schema evolution and imports take a Snapshot instead of reading the
// registry, so a run uses one consistent mapping set.
type Snapshot struct {
	Revision int64
	entries  []Entry
}

// NewSnapshot builds a snapshot from explicit entries
func NewSnapshot(revision int64, entries ...Entry) Snapshot {
	return Snapshot{Revision: revision, entries: slices.Clone(entries)}
}

// Entries returns the mapping entries in registry order
func (s Snapshot) Entries() []Entry {
	return slices.Clone(s.entries)
}

// Len returns the number of entries
func (s Snapshot) Len() int {
	return len(s.entries)
}

// Fields returns the distinct stored fields in first-seen order. Fields that
// differ only in case name the same column and are reported once.
func (s Snapshot) Fields() []string {
	seen := make(map[string]struct{}, len(s.entries))
	fields := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		key := strings.ToLower(e.StoredField)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		fields = append(fields, e.StoredField)
	}
	return fields
}

// Extract applies the mapping to a header map. For every entry whose keyword is
// present (matched case-sensitively) transform is called with the stored field
// and raw value. Later entries overwrite earlier ones for the same field; the
// result is keyed by the field's first-seen spelling.
func (s Snapshot) Extract(header map[string]any, transform func(field string, raw any) any) map[string]any {
	out := make(map[string]any, len(s.entries))
	spelling := make(map[string]string, len(s.entries))
	for _, e := range s.entries {
		key := strings.ToLower(e.StoredField)
		if _, ok := spelling[key]; !ok {
			spelling[key] = e.StoredField
		}

		raw, ok := header[e.SourceKeyword]
		if !ok {
			continue
		}
		out[spelling[key]] = transform(e.StoredField, raw)
	}
	return out
}
