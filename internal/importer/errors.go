package importer

import (
	"fmt"

	"github.com/tphakala/aftermidnight/internal/datastore"
	"github.com/tphakala/aftermidnight/internal/errors"
)

// ErrOrganizationProjectNotImportable is returned when images are imported
// into a grouping-only project.
var ErrOrganizationProjectNotImportable = errors.NewStd("organization projects cannot own images")

// ErrNotDirectory is returned when the import source is not a directory
var ErrNotDirectory = errors.NewStd("import source is not a directory")

func preconditionError(sentinel error, category errors.ErrorCategory, projectID uint) error {
	return errors.New(fmt.Errorf("import: %w", sentinel)).
		Component("importer").
		Category(category).
		Context("operation", "start").
		Context("project_id", projectID).
		Build()
}

func directoryError(err error, dir string) error {
	return errors.New(fmt.Errorf("scan %s: %w", dir, err)).
		Component("importer").
		Category(errors.CategoryFileIO).
		Context("operation", "scan").
		FileContext(dir).
		Build()
}

func storeError(err error, operation, path string) error {
	return datastore.StoreError(err, "importer", operation, "path", path)
}
