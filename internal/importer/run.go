package importer

import (
	"context"
	"iter"
	"path/filepath"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/aftermidnight/internal/datastore"
	"github.com/tphakala/aftermidnight/internal/datastore/entities"
	"github.com/tphakala/aftermidnight/internal/logger"
	"github.com/tphakala/aftermidnight/internal/mapping"
)

// Status is the result of importing one file
type Status string

// Per-file statuses
const (
	StatusInserted  Status = "inserted"
	StatusDuplicate Status = "duplicate"
	StatusSkipped   Status = "skipped"
)

// Outcome reports what happened to one file. Err is set for skipped files.
type Outcome struct {
	Path   string
	Status Status
	Err    error
}

// Run is a prepared import. It is not safe for concurrent use.
type Run struct {
	id        string
	ctx       context.Context
	engine    *Engine
	log       logger.Logger
	projectID uint
	snap      mapping.Snapshot
	dropped   []string

	files   []string
	next    int
	started time.Time
	done    bool
	err     error

	inserted, duplicates, skipped int
}

// ID returns the run id attached to log records as trace id
func (r *Run) ID() string { return r.id }

// Files returns the files the run will process, in order
func (r *Run) Files() []string { return r.files }

// Inserted returns the number of images inserted so far
func (r *Run) Inserted() int { return r.inserted }

// Err returns the store or context failure that stopped the run, if any
func (r *Run) Err() error { return r.err }

// Result returns the counts so far
func (r *Run) Result() Result {
	return Result{
		RunID:      r.id,
		Scanned:    len(r.files),
		Inserted:   r.inserted,
		Duplicates: r.duplicates,
		Skipped:    r.skipped,
	}
}

// Outcomes yields one Outcome per processed file. Breaking out of the loop
// leaves the remaining files unprocessed; calling Outcomes again resumes with
// the next file. Iteration ends early on a store failure or cancelled
// context, reported by Err.
func (r *Run) Outcomes() iter.Seq[Outcome] {
	return func(yield func(Outcome) bool) {
		for r.err == nil && r.next < len(r.files) {
			if err := r.ctx.Err(); err != nil {
				r.fail(err)
				return
			}

			path := r.files[r.next]
			r.next++

			outcome, err := r.process(path)
			if err != nil {
				r.fail(err)
				return
			}
			if !yield(outcome) {
				return
			}
		}
		r.finish()
	}
}

func (r *Run) process(path string) (Outcome, error) {
	e := r.engine

	header, err := e.reader.Read(path)
	if err != nil {
		r.skipped++
		r.record(StatusSkipped)
		r.log.Warn("skipping unreadable file", logger.String("path", path), logger.Error(err))
		return Outcome{Path: path, Status: StatusSkipped, Err: err}, nil
	}

	n := normalizer{path: path, log: r.log}
	fields := r.snap.Extract(header, n.value)
	for _, field := range r.dropped {
		delete(fields, field)
	}

	inserted, err := insertImage(e.db.WithContext(r.ctx), r.projectID, path, fields)
	if err != nil {
		return Outcome{}, storeError(err, "insert_image", path)
	}

	if !inserted {
		r.duplicates++
		r.record(StatusDuplicate)
		r.log.Debug("image already catalogued", logger.String("path", path))
		return Outcome{Path: path, Status: StatusDuplicate}, nil
	}

	r.inserted++
	r.record(StatusInserted)
	r.log.Debug("image inserted", logger.String("path", path))
	return Outcome{Path: path, Status: StatusInserted}, nil
}

func (r *Run) record(status Status) {
	if r.engine.metrics != nil {
		r.engine.metrics.RecordFile(string(status))
	}
}

func (r *Run) fail(err error) {
	r.err = err
	r.log.Error("import aborted",
		logger.Error(err),
		logger.Int("processed", r.next),
		logger.Int("inserted", r.inserted))
}

// finish logs the summary once, after the last file
func (r *Run) finish() {
	if r.done || r.next < len(r.files) {
		return
	}
	r.done = true

	elapsed := time.Since(r.started)
	if r.engine.metrics != nil {
		r.engine.metrics.ObserveRun(elapsed)
	}
	r.log.Info("import finished",
		logger.Int("scanned", len(r.files)),
		logger.Int("inserted", r.inserted),
		logger.Int("duplicates", r.duplicates),
		logger.Int("skipped", r.skipped),
		logger.Duration("elapsed", elapsed))
}

// insertImage stores one image unless (filename, project) already exists.
// The existence check and insert share a transaction.
func insertImage(db *gorm.DB, projectID uint, path string, fields map[string]any) (bool, error) {
	filename := filepath.Base(path)
	inserted := false

	err := db.Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&entities.Image{}).
			Where("filename = ? AND project_id = ?", filename, projectID).
			Count(&count).Error
		if err != nil || count > 0 {
			return err
		}

		row := make(map[string]any, len(fields)+3)
		for field, value := range fields {
			row[field] = value
		}
		row[entities.ColumnFilename] = filename
		row[entities.ColumnPath] = path
		row[entities.ColumnProjectID] = projectID

		if err := tx.Table(entities.Image{}.TableName()).Create(row).Error; err != nil {
			if datastore.IsUniqueViolation(err) {
				return nil
			}
			return err
		}
		inserted = true
		return nil
	})
	return inserted, err
}
