package entities

import "time"

// Project is a node in the project forest. A nil ParentID marks a root project.
// Organization projects group other projects and never own images.
type Project struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"not null"`
	ParentID       *uint  `gorm:"index:idx_projects_parent"`
	IsOrganization bool   `gorm:"not null;default:false"`
	CreatedAt      time.Time
}

// TableName returns the table name for GORM
func (Project) TableName() string {
	return "projects"
}

// IsRoot reports whether the project has no parent
func (p *Project) IsRoot() bool {
	return p.ParentID == nil
}
