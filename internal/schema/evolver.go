// Package schema adds the dynamic image columns that mapped fields need.
package schema

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/tphakala/aftermidnight/internal/datastore"
	"github.com/tphakala/aftermidnight/internal/datastore/entities"
	"github.com/tphakala/aftermidnight/internal/logger"
	"github.com/tphakala/aftermidnight/internal/mapping"
)

// MetricsRecorder receives column evolution events
type MetricsRecorder interface {
	RecordColumnAdded()
	RecordColumnFailed()
}

// Option configures an Evolver
type Option func(*Evolver)

// WithMetrics reports added and failed columns to m
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Evolver) {
		e.metrics = m
	}
}

// WithLogger overrides the schema module logger
func WithLogger(l logger.Logger) Option {
	return func(e *Evolver) {
		e.log = l
	}
}

// Evolver keeps the images table in step with a mapping snapshot
type Evolver struct {
	db      *gorm.DB
	log     logger.Logger
	metrics MetricsRecorder
	fold    cases.Caser
}

// NewEvolver creates an evolver for the images table on db
func NewEvolver(db *gorm.DB, opts ...Option) *Evolver {
	e := &Evolver{db: db, fold: cases.Fold()}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Global().Module("schema")
	}
	return e
}

// EnsureColumns adds a nullable TEXT column for every stored field in snap
// that the images table lacks. Names are compared with Unicode case folding.
// A column that cannot be added is logged and skipped; only failing to read
// the current columns is returned as an error.
func (e *Evolver) EnsureColumns(ctx context.Context, snap mapping.Snapshot) ([]string, error) {
	db := e.db.WithContext(ctx)

	existing, err := e.columns(db)
	if err != nil {
		return nil, datastore.StoreError(err, "schema", "read_columns", "table", entities.Image{}.TableName())
	}

	var added []string
	for _, field := range snap.Fields() {
		key := e.fold.String(field)
		if _, ok := existing[key]; ok {
			continue
		}

		if err := addTextColumn(db, field); err != nil {
			e.log.Warn("failed to add image column",
				logger.String("column", field),
				logger.Int64("mapping_revision", snap.Revision),
				logger.Error(err))
			if e.metrics != nil {
				e.metrics.RecordColumnFailed()
			}
			continue
		}

		existing[key] = struct{}{}
		added = append(added, field)
		if e.metrics != nil {
			e.metrics.RecordColumnAdded()
		}
		e.log.Info("image column added",
			logger.String("column", field),
			logger.Int64("mapping_revision", snap.Revision))
	}

	return added, nil
}

// Columns returns the current images column names in table order
func (e *Evolver) Columns(ctx context.Context) ([]string, error) {
	types, err := e.db.WithContext(ctx).Migrator().ColumnTypes(&entities.Image{})
	if err != nil {
		return nil, datastore.StoreError(err, "schema", "read_columns", "table", entities.Image{}.TableName())
	}
	names := make([]string, len(types))
	for i, ct := range types {
		names[i] = ct.Name()
	}
	return names, nil
}

// columns returns the folded names of the images columns
func (e *Evolver) columns(db *gorm.DB) (map[string]struct{}, error) {
	types, err := db.Migrator().ColumnTypes(&entities.Image{})
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(types))
	for _, ct := range types {
		set[e.fold.String(ct.Name())] = struct{}{}
	}
	return set, nil
}

func addTextColumn(db *gorm.DB, field string) error {
	stmt := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s TEXT`,
		entities.Image{}.TableName(), quoteIdent(field))
	return db.Exec(stmt).Error
}

// quoteIdent quotes an SQLite identifier
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
