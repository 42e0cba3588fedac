package mapping

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/tphakala/aftermidnight/internal/datastore/entities"
	"github.com/tphakala/aftermidnight/internal/errors"
	"github.com/tphakala/aftermidnight/internal/logger"
)

// Document is the YAML form of the registry used by export and load
type Document struct {
	Revision int64   `yaml:"revision,omitempty"`
	Mappings []Entry `yaml:"mappings"`
}

// Export writes the current registry to w as YAML
func (r *Registry) Export(ctx context.Context, w io.Writer) error {
	snap, err := r.Snapshot(ctx)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Document{Revision: snap.Revision, Mappings: snap.Entries()}); err != nil {
		return errors.New(err).
			Component("mapping").
			Category(errors.CategoryFileIO).
			Context("operation", "export").
			Build()
	}
	return enc.Close()
}

// Load reads a YAML document and adds its entries. Entries whose keyword and
// field pair already exist are skipped. With replace set, every non-protected
// entry is removed first. The whole load is one transaction.
func (r *Registry) Load(ctx context.Context, src io.Reader, replace bool) (int, error) {
	var doc Document
	dec := yaml.NewDecoder(src)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return 0, errors.New(fmt.Errorf("decode mapping document: %w", err)).
			Component("mapping").
			Category(errors.CategoryFileParsing).
			Context("operation", "load").
			Build()
	}

	incoming := make([]Entry, 0, len(doc.Mappings))
	for _, e := range doc.Mappings {
		keyword, err := normalizeKeyword(e.SourceKeyword)
		if err != nil {
			return 0, err
		}
		if err := ValidateField(e.StoredField); err != nil {
			return 0, err
		}
		incoming = append(incoming, Entry{SourceKeyword: keyword, StoredField: e.StoredField})
	}

	added := 0
	err := r.mutate(ctx, func(tx *gorm.DB) error {
		if replace {
			rows, err := listRows(tx)
			if err != nil {
				return err
			}
			for _, row := range rows {
				if IsProtected(row.DBName) {
					continue
				}
				if err := tx.Delete(&entities.MappingEntry{}, row.ID).Error; err != nil {
					return err
				}
			}
		}

		rows, err := listRows(tx)
		if err != nil {
			return err
		}
		present := make(map[Entry]struct{}, len(rows))
		for _, e := range toEntries(rows) {
			present[e] = struct{}{}
		}

		for _, e := range incoming {
			if _, ok := present[e]; ok {
				continue
			}
			if err := tx.Create(&entities.MappingEntry{FitsKeyword: e.SourceKeyword, DBName: e.StoredField}).Error; err != nil {
				return err
			}
			present[e] = struct{}{}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, wrap(err, "load")
	}

	r.log.Info("mapping document loaded",
		logger.Int("entries", len(incoming)),
		logger.Int("added", added),
		logger.Bool("replace", replace))
	return added, nil
}
