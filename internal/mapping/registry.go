// Package mapping owns the ordered list of header keyword to image field
// mappings and the protected field set.
//
// Every change bumps a revision counter in the same transaction. Consumers
// read the registry through Snapshot, which is cached per revision.
package mapping

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tphakala/aftermidnight/internal/datastore/entities"
	"github.com/tphakala/aftermidnight/internal/errors"
	"github.com/tphakala/aftermidnight/internal/logger"
)

const snapshotCacheKey = "snapshot"

// Registry manages mapping entries stored in the catalog database
type Registry struct {
	db    *gorm.DB
	log   logger.Logger
	cache *cache.Cache
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger overrides the mapping module logger
func WithLogger(l logger.Logger) Option {
	return func(r *Registry) {
		r.log = l
	}
}

// NewRegistry creates a registry on db
func NewRegistry(db *gorm.DB, opts ...Option) *Registry {
	r := &Registry{
		db:    db,
		cache: cache.New(cache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logger.Global().Module("mapping")
	}
	return r
}

// List returns all entries in registry order
func (r *Registry) List(ctx context.Context) ([]Entry, error) {
	rows, err := listRows(r.db.WithContext(ctx))
	if err != nil {
		return nil, wrap(err, "list")
	}
	return toEntries(rows), nil
}

// Add appends an entry. Several entries may map to the same field; the last one wins.
func (r *Registry) Add(ctx context.Context, sourceKeyword, storedField string) error {
	keyword, err := normalizeKeyword(sourceKeyword)
	if err != nil {
		return err
	}
	if err := ValidateField(storedField); err != nil {
		return err
	}

	err = r.mutate(ctx, func(tx *gorm.DB) error {
		return tx.Create(&entities.MappingEntry{FitsKeyword: keyword, DBName: storedField}).Error
	})
	if err != nil {
		return wrap(err, "add")
	}

	r.log.Info("mapping added",
		logger.String("keyword", keyword),
		logger.String("field", storedField))
	return nil
}

// Remove deletes every entry mapping to storedField
func (r *Registry) Remove(ctx context.Context, storedField string) error {
	if IsProtected(storedField) {
		return ruleError(ErrProtected, errors.CategoryMapping, "remove", storedField)
	}

	var removed int64
	err := r.mutate(ctx, func(tx *gorm.DB) error {
		res := tx.Where("db_name = ?", storedField).Delete(&entities.MappingEntry{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ruleError(ErrMappingNotFound, errors.CategoryNotFound, "remove", storedField)
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return wrap(err, "remove")
	}

	r.log.Info("mapping removed",
		logger.String("field", storedField),
		logger.Int64("entries", removed))
	return nil
}

// Rename points every entry for oldField at newField. Existing image
// columns are not renamed; the next schema evolution adds newField.
func (r *Registry) Rename(ctx context.Context, oldField, newField string) error {
	if IsProtected(oldField) {
		return ruleError(ErrProtected, errors.CategoryMapping, "rename", oldField)
	}
	if err := ValidateField(newField); err != nil {
		return err
	}

	err := r.mutate(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&entities.MappingEntry{}).Where("db_name = ?", oldField).Update("db_name", newField)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ruleError(ErrMappingNotFound, errors.CategoryNotFound, "rename", oldField)
		}
		return nil
	})
	if err != nil {
		return wrap(err, "rename")
	}

	r.log.Info("mapping renamed",
		logger.String("from", oldField),
		logger.String("to", newField))
	return nil
}

// ResetToDefaults removes every non-protected entry and restores any missing
// default entry. Protected entries that already exist are left as they are.
func (r *Registry) ResetToDefaults(ctx context.Context) error {
	var removed, restored int
	err := r.mutate(ctx, func(tx *gorm.DB) error {
		rows, err := listRows(tx)
		if err != nil {
			return err
		}

		var doomed []uint
		for _, row := range rows {
			if !IsProtected(row.DBName) {
				doomed = append(doomed, row.ID)
			}
		}
		if len(doomed) > 0 {
			if err := tx.Where("id IN ?", doomed).Delete(&entities.MappingEntry{}).Error; err != nil {
				return err
			}
		}
		removed = len(doomed)

		restored, err = insertMissingDefaults(tx, rows)
		return err
	})
	if err != nil {
		return wrap(err, "reset")
	}

	r.log.Info("mapping reset to defaults",
		logger.Int("removed", removed),
		logger.Int("restored", restored))
	return nil
}

// EnsureDefaults seeds the default entries into an empty registry
func (r *Registry) EnsureDefaults(ctx context.Context) error {
	var seeded int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.MappingEntry{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		var err error
		if seeded, err = insertMissingDefaults(tx, nil); err != nil {
			return err
		}
		return bumpRevision(tx)
	})
	if err != nil {
		return wrap(err, "ensure_defaults")
	}

	if seeded > 0 {
		r.cache.Delete(snapshotCacheKey)
		r.log.Info("default mapping seeded", logger.Int("entries", seeded))
	}
	return nil
}

// Snapshot returns the current entries with their revision. Entries are
// reread only when the stored revision differs from the cached one.
func (r *Registry) Snapshot(ctx context.Context) (Snapshot, error) {
	db := r.db.WithContext(ctx)

	revision, err := currentRevision(db)
	if err != nil {
		return Snapshot{}, wrap(err, "snapshot")
	}

	if cached, ok := r.cache.Get(snapshotCacheKey); ok {
		if snap, ok := cached.(Snapshot); ok && snap.Revision == revision {
			return snap, nil
		}
	}

	rows, err := listRows(db)
	if err != nil {
		return Snapshot{}, wrap(err, "snapshot")
	}

	snap := NewSnapshot(revision, toEntries(rows)...)
	r.cache.Set(snapshotCacheKey, snap, cache.NoExpiration)
	r.log.Debug("mapping snapshot loaded",
		logger.Int64("revision", revision),
		logger.Int("entries", snap.Len()))
	return snap, nil
}

// mutate runs fn and bumps the revision in one transaction
func (r *Registry) mutate(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(tx); err != nil {
			return err
		}
		return bumpRevision(tx)
	})
	if err == nil {
		r.cache.Delete(snapshotCacheKey)
	}
	return err
}

func listRows(db *gorm.DB) ([]entities.MappingEntry, error) {
	var rows []entities.MappingEntry
	if err := db.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func toEntries(rows []entities.MappingEntry) []Entry {
	entries := make([]Entry, len(rows))
	for i, row := range rows {
		entries[i] = Entry{SourceKeyword: row.FitsKeyword, StoredField: row.DBName}
	}
	return entries
}

// insertMissingDefaults adds each default entry whose field has no entry in existing
func insertMissingDefaults(tx *gorm.DB, existing []entities.MappingEntry) (int, error) {
	var missing []entities.MappingEntry
	for _, def := range defaultEntries {
		present := slices.ContainsFunc(existing, func(row entities.MappingEntry) bool {
			return strings.EqualFold(row.DBName, def.StoredField)
		})
		if !present {
			missing = append(missing, entities.MappingEntry{FitsKeyword: def.SourceKeyword, DBName: def.StoredField})
		}
	}
	if len(missing) == 0 {
		return 0, nil
	}
	if err := tx.Create(&missing).Error; err != nil {
		return 0, err
	}
	return len(missing), nil
}

func currentRevision(db *gorm.DB) (int64, error) {
	var rev entities.MappingRevision
	err := db.Where("id = ?", entities.MappingRevisionRowID).Limit(1).Find(&rev).Error
	if err != nil {
		return 0, err
	}
	return rev.Revision, nil
}

func bumpRevision(tx *gorm.DB) error {
	now := time.Now()
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"revision":   gorm.Expr("revision + 1"),
			"updated_at": now,
		}),
	}).Create(&entities.MappingRevision{
		ID:        entities.MappingRevisionRowID,
		Revision:  1,
		UpdatedAt: now,
	}).Error
}
