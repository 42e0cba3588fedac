// Package datastore opens the SQLite image catalog and owns its fixed schema.
//
// Domain packages (hierarchy, mapping, schema, importer, session) receive the
// *gorm.DB from Store and run their own queries; this package provides the
// connection, migrations, store-wide maintenance and error classification.
package datastore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tphakala/aftermidnight/internal/datastore/entities"
	"github.com/tphakala/aftermidnight/internal/logger"
)

// InMemoryPath opens a private in-memory database.
const InMemoryPath = ":memory:"

// busyTimeoutMs makes SQLite wait for a competing writer instead of failing at once
const busyTimeoutMs = 5000

// Config describes how to open the catalog database
type Config struct {
	Path      string        // database file path or InMemoryPath
	SlowQuery time.Duration // slow statement threshold for logging, 0 disables
	Logger    logger.Logger // datastore module logger, global "datastore" module when nil
}

// Store wraps the catalog database connection
type Store struct {
	DB   *gorm.DB
	path string
	log  logger.Logger
}

// Stats summarizes catalog contents
type Stats struct {
	Projects       int64
	Organizations  int64
	Images         int64
	MappingEntries int64
}

// Open opens (creating if needed) the SQLite catalog and migrates the fixed schema.
func Open(cfg Config) (*Store, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.Global().Module("datastore")
	}

	if cfg.Path == "" {
		return nil, validationError("database path is empty", "path", cfg.Path)
	}

	if cfg.Path != InMemoryPath {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, dbError(err, "create_database_dir", "path", dir)
			}
		}
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=%d", cfg.Path, busyTimeoutMs)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.NewGormLoggerAdapter(log, cfg.SlowQuery),
		TranslateError: true,
	})
	if err != nil {
		return nil, dbError(err, "open_database", "path", cfg.Path)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, dbError(err, "get_sql_db", "path", cfg.Path)
	}
	// One connection: keeps in-memory databases shared and serializes writers.
	sqlDB.SetMaxOpenConns(1)

	store := &Store{DB: db, path: cfg.Path, log: log}
	if err := store.migrate(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	log.Debug("database opened", logger.String("path", cfg.Path))
	return store, nil
}

// Path returns the database path the store was opened with
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying connection
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return dbError(err, "get_sql_db")
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close_database", "path", s.path)
	}
	return nil
}

// Wipe deletes every image and project in one transaction.
// Mapping entries and dynamic columns are kept.
func (s *Store) Wipe(ctx context.Context) (images, projects int64, err error) {
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("1 = 1").Delete(&entities.Image{})
		if res.Error != nil {
			return res.Error
		}
		images = res.RowsAffected

		res = tx.Where("1 = 1").Delete(&entities.Project{})
		if res.Error != nil {
			return res.Error
		}
		projects = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, 0, dbError(err, "wipe")
	}

	s.log.Info("catalog wiped",
		logger.Int64("images_deleted", images),
		logger.Int64("projects_deleted", projects))
	return images, projects, nil
}

// Stats counts rows in the catalog tables
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	db := s.DB.WithContext(ctx)

	if err := db.Model(&entities.Project{}).Count(&stats.Projects).Error; err != nil {
		return Stats{}, dbError(err, "count_projects")
	}
	if err := db.Model(&entities.Project{}).Where("is_organization = ?", true).Count(&stats.Organizations).Error; err != nil {
		return Stats{}, dbError(err, "count_organizations")
	}
	if err := db.Model(&entities.Image{}).Count(&stats.Images).Error; err != nil {
		return Stats{}, dbError(err, "count_images")
	}
	if err := db.Model(&entities.MappingEntry{}).Count(&stats.MappingEntries).Error; err != nil {
		return Stats{}, dbError(err, "count_mapping_entries")
	}
	return stats, nil
}
