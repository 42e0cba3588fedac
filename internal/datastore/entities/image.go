package entities

// Image holds the fixed columns of an imported image record.
// Mapped fields beyond the protected set live in dynamic TEXT columns
// added at runtime, so inserts and reads of full records go through
// column maps rather than this struct.
type Image struct {
	ID        uint     `gorm:"primaryKey"`
	Filename  string   `gorm:"not null;uniqueIndex:idx_images_filename_project"`
	Path      string   `gorm:"not null"`
	ProjectID uint     `gorm:"not null;index:idx_images_project;uniqueIndex:idx_images_filename_project"`
	DateObs   *string  `gorm:"column:date_obs"`
	Exposure  *float64 `gorm:"column:exposure"`
	RA        *string  `gorm:"column:ra"`
	Dec       *string  `gorm:"column:dec"`
	Filter    *string  `gorm:"column:filter"`
	ImageTyp  *string  `gorm:"column:imagetyp"`
}

// TableName returns the table name for GORM
func (Image) TableName() string {
	return "images"
}

// Fixed image columns that mapped fields may not reuse
const (
	ColumnID        = "id"
	ColumnFilename  = "filename"
	ColumnPath      = "path"
	ColumnProjectID = "project_id"
)

// ReservedImageColumns lists the bookkeeping columns of the images table.
var ReservedImageColumns = []string{ColumnID, ColumnFilename, ColumnPath, ColumnProjectID}
