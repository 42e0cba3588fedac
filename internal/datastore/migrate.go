package datastore

import (
	"github.com/tphakala/aftermidnight/internal/datastore/entities"
	"github.com/tphakala/aftermidnight/internal/logger"
)

// Index names created outside of struct tags
const (
	// siblingNameIndex rejects two projects with the same name under one parent.
	// COALESCE folds root projects (NULL parent) into one sibling group, which a
	// plain unique index would treat as all-distinct.
	siblingNameIndex = "idx_projects_sibling_name"
)

// migrate creates the fixed tables and indexes. Dynamic image columns are
// managed by the schema package.
func (s *Store) migrate() error {
	if err := s.DB.AutoMigrate(
		&entities.Project{},
		&entities.Image{},
		&entities.MappingEntry{},
		&entities.MappingRevision{},
	); err != nil {
		return dbError(err, "auto_migrate")
	}

	if err := s.DB.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS " + siblingNameIndex +
			" ON projects (COALESCE(parent_id, 0), name)",
	).Error; err != nil {
		return dbError(err, "create_index", "index", siblingNameIndex)
	}

	s.log.Trace("schema migrated", logger.String("path", s.path))
	return nil
}
