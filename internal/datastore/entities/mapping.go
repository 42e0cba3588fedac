package entities

import "time"

// MappingEntry maps a FITS header keyword to an images column.
// Entries are listed in ID order; later entries win when two map to the same column.
type MappingEntry struct {
	ID          uint   `gorm:"primaryKey"`
	FitsKeyword string `gorm:"column:fits_keyword;not null"`
	DBName      string `gorm:"column:db_name;not null;index:idx_metadata_config_db_name"`
}

// TableName returns the table name for GORM
func (MappingEntry) TableName() string {
	return "metadata_config"
}

// MappingRevision is a single-row counter bumped by every mapping change.
type MappingRevision struct {
	ID        uint `gorm:"primaryKey"`
	Revision  int64
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (MappingRevision) TableName() string {
	return "mapping_revisions"
}

// MappingRevisionRowID is the primary key of the only MappingRevision row.
const MappingRevisionRowID = 1
