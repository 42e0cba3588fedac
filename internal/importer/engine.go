// Package importer scans directories of FITS files and records their headers
// as image rows of a project.
//
// An import is a Run: Start checks preconditions, evolves the schema and
// lists the files; Outcomes then processes one file per iteration step. No
// goroutines are involved, so a caller may stop at any point and every image
// inserted so far stays committed.
package importer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tphakala/aftermidnight/internal/datastore/entities"
	"github.com/tphakala/aftermidnight/internal/errors"
	"github.com/tphakala/aftermidnight/internal/fitsheader"
	"github.com/tphakala/aftermidnight/internal/logger"
	"github.com/tphakala/aftermidnight/internal/mapping"
)

// DefaultExtensions are the file extensions imported when none are configured
var DefaultExtensions = []string{".fits", ".fit"}

// ProjectGetter looks up projects by id
type ProjectGetter interface {
	Get(ctx context.Context, id uint) (*entities.Project, error)
}

// ColumnEnsurer adds the image columns a mapping snapshot needs and reports
// the columns the images table actually has
type ColumnEnsurer interface {
	EnsureColumns(ctx context.Context, snap mapping.Snapshot) ([]string, error)
	Columns(ctx context.Context) ([]string, error)
}

// MetricsRecorder receives per-file outcomes and run durations
type MetricsRecorder interface {
	RecordFile(status string)
	ObserveRun(duration time.Duration)
}

// Option configures an Engine
type Option func(*Engine)

// WithExtensions sets the file extensions to import, compared case-insensitively
func WithExtensions(exts ...string) Option {
	return func(e *Engine) {
		e.extensions = normalizeExtensions(exts)
	}
}

// WithFollowSymlinks makes the scan descend into symlinked directories.
// Symlinked files are always considered.
func WithFollowSymlinks(follow bool) Option {
	return func(e *Engine) {
		e.followSymlinks = follow
	}
}

// WithMetrics reports outcomes to m
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger overrides the importer module logger
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// Engine imports image headers into the catalog
type Engine struct {
	db             *gorm.DB
	projects       ProjectGetter
	evolver        ColumnEnsurer
	reader         fitsheader.Reader
	extensions     []string
	followSymlinks bool
	metrics        MetricsRecorder
	log            logger.Logger
}

// NewEngine creates an import engine
func NewEngine(db *gorm.DB, projects ProjectGetter, evolver ColumnEnsurer, reader fitsheader.Reader, opts ...Option) *Engine {
	e := &Engine{
		db:         db,
		projects:   projects,
		evolver:    evolver,
		reader:     reader,
		extensions: normalizeExtensions(DefaultExtensions),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = logger.Global().Module("importer")
	}
	return e
}

// Result summarizes a finished import
type Result struct {
	RunID      string
	Scanned    int
	Inserted   int
	Duplicates int
	Skipped    int
}

// Start prepares an import of dir into projectID using snap. It fails when
// the project is an organization, when the schema cannot be read, or when
// dir cannot be scanned. Mapped fields whose column could not be added are
// left out of every row. Nothing is inserted until Outcomes is iterated.
func (e *Engine) Start(ctx context.Context, dir string, projectID uint, snap mapping.Snapshot) (*Run, error) {
	project, err := e.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.IsOrganization {
		return nil, preconditionError(ErrOrganizationProjectNotImportable, errors.CategoryImport, projectID)
	}

	if _, err := e.evolver.EnsureColumns(ctx, snap); err != nil {
		return nil, err
	}
	columns, err := e.evolver.Columns(ctx)
	if err != nil {
		return nil, err
	}
	unavailable := missingFields(snap, columns)

	files, err := e.scan(dir)
	if err != nil {
		return nil, directoryError(err, dir)
	}

	runID := uuid.NewString()
	ctx = logger.WithTraceID(ctx, runID)
	log := e.log.WithContext(ctx).With(
		logger.String("run_id", runID),
		logger.Uint64("project_id", uint64(projectID)))

	log.Info("import started",
		logger.String("dir", dir),
		logger.Int("files", len(files)),
		logger.Int64("mapping_revision", snap.Revision))
	if len(unavailable) > 0 {
		log.Warn("mapped fields without an image column are not stored",
			logger.String("fields", strings.Join(unavailable, ",")))
	}

	return &Run{
		id:        runID,
		ctx:       ctx,
		engine:    e,
		log:       log,
		projectID: projectID,
		snap:      snap,
		dropped:   unavailable,
		files:     files,
		started:   time.Now(),
	}, nil
}

// Import runs a whole import and returns its counts. The error is non-nil
// when Start fails or when the store fails mid-run; in the latter case the
// returned Result still counts what was done.
func (e *Engine) Import(ctx context.Context, dir string, projectID uint, snap mapping.Snapshot) (Result, error) {
	run, err := e.Start(ctx, dir, projectID, snap)
	if err != nil {
		return Result{}, err
	}
	for range run.Outcomes() {
	}
	return run.Result(), run.Err()
}

// missingFields returns the fields of snap that have no column in columns.
// SQLite column names compare case-insensitively.
func missingFields(snap mapping.Snapshot, columns []string) []string {
	have := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		have[strings.ToLower(c)] = struct{}{}
	}
	var missing []string
	for _, field := range snap.Fields() {
		if _, ok := have[strings.ToLower(field)]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}

// scan lists matching files under dir in lexical order
func (e *Engine) scan(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, ErrNotDirectory
	}

	var files []string
	visited := map[string]bool{}
	if err := e.walk(dir, dir, visited, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// walk collects matching files below root. Paths are reported under display,
// which differs from root when root is the target of a followed symlink.
func (e *Engine) walk(root, display string, visited map[string]bool, files *[]string) error {
	if real, err := filepath.EvalSymlinks(root); err == nil {
		if visited[real] {
			return nil
		}
		visited[real] = true
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		shown := path
		if display != root {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			shown = filepath.Join(display, rel)
		}

		if d.Type()&fs.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(path)
			if err != nil {
				e.log.Warn("skipping broken symlink", logger.String("path", shown), logger.Error(err))
				return nil
			}
			info, err := os.Stat(target)
			if err != nil {
				return err
			}
			if info.IsDir() {
				if !e.followSymlinks {
					return nil
				}
				return e.walk(target, shown, visited, files)
			}
		} else if d.IsDir() {
			if path == root {
				return nil
			}
			real := path
			if resolved, err := filepath.EvalSymlinks(path); err == nil {
				real = resolved
			}
			if visited[real] {
				return fs.SkipDir
			}
			visited[real] = true
			return nil
		}

		if e.matches(shown) {
			*files = append(*files, shown)
		}
		return nil
	})
}

func (e *Engine) matches(path string) bool {
	return slices.Contains(e.extensions, strings.ToLower(filepath.Ext(path)))
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
