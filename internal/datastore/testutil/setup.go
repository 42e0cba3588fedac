// Package testutil provides catalog database fixtures for package tests.
package testutil

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tphakala/aftermidnight/internal/datastore"
	"github.com/tphakala/aftermidnight/internal/datastore/entities"
	"github.com/tphakala/aftermidnight/internal/logger"
)

// NewTestStore opens a migrated catalog in a temporary directory.
// The store is closed by t.Cleanup.
func NewTestStore(t *testing.T) *datastore.Store {
	t.Helper()

	store, err := datastore.Open(datastore.Config{
		Path:   filepath.Join(t.TempDir(), "catalog.db"),
		Logger: SilentLogger(),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// SilentLogger returns a logger that discards everything
func SilentLogger() logger.Logger {
	return logger.NewTextLogger(io.Discard, logger.LogLevelError)
}

// CreateProject inserts a project directly, bypassing hierarchy rules.
func CreateProject(t *testing.T, store *datastore.Store, name string, parentID *uint, isOrganization bool) uint {
	t.Helper()

	p := entities.Project{Name: name, ParentID: parentID, IsOrganization: isOrganization}
	require.NoError(t, store.DB.Create(&p).Error)
	return p.ID
}

// CreateImage inserts a bare image record owned by projectID.
func CreateImage(t *testing.T, store *datastore.Store, projectID uint, filename string) {
	t.Helper()

	img := entities.Image{Filename: filename, Path: "/fixtures/" + filename, ProjectID: projectID}
	require.NoError(t, store.DB.Create(&img).Error)
}

// CountImages returns the number of image records owned by projectID
func CountImages(t *testing.T, store *datastore.Store, projectID uint) int64 {
	t.Helper()

	var n int64
	require.NoError(t, store.DB.Model(&entities.Image{}).Where("project_id = ?", projectID).Count(&n).Error)
	return n
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
