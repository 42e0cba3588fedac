// Package hierarchy maintains projects as a forest of integer-keyed nodes with
// optional parent references. Every ancestor/descendant question goes through
// one recursive closure query, and every mutation runs in a single transaction.
package hierarchy

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tphakala/aftermidnight/internal/datastore"
	"github.com/tphakala/aftermidnight/internal/datastore/entities"
	"github.com/tphakala/aftermidnight/internal/errors"
	"github.com/tphakala/aftermidnight/internal/logger"
)

// Store manages the project forest
type Store interface {
	// Create inserts a project and returns its id. A nil parentID creates a root project.
	Create(ctx context.Context, name string, parentID *uint, isOrganization bool) (uint, error)
	// Get returns one project
	Get(ctx context.Context, id uint) (*entities.Project, error)
	// Rename changes a project's name in place
	Rename(ctx context.Context, id uint, newName string) error
	// Reparent moves a project under newParentID, or to the root level when nil.
	// Only the moved project's parent pointer changes.
	Reparent(ctx context.Context, id uint, newParentID *uint) error
	// Delete removes a project. Without cascade it fails on projects with children;
	// with cascade it removes the whole subtree and every image the subtree owns.
	Delete(ctx context.Context, id uint, cascade bool) (DeleteResult, error)
	// ListChildren returns the direct children of parentID, or root projects when nil
	ListChildren(ctx context.Context, parentID *uint) ([]entities.Project, error)
	// AncestorsOf returns the parent chain of id, nearest parent first
	AncestorsOf(ctx context.Context, id uint) ([]entities.Project, error)
	// IsDescendant reports whether candidate is ancestor or lies below it
	IsDescendant(ctx context.Context, ancestor, candidate uint) (bool, error)
	// Tree returns the whole forest
	Tree(ctx context.Context) ([]*Node, error)
}

// DeleteResult reports what a delete removed
type DeleteResult struct {
	Projects int64
	Images   int64
}

// MetricsRecorder receives one event per mutating operation
type MetricsRecorder interface {
	RecordOperation(operation, status string)
}

// Operation outcomes reported to MetricsRecorder
const (
	StatusSuccess  = "success"
	StatusRejected = "rejected"
	StatusError    = "error"
)

// Option configures the store
type Option func(*store)

// WithMetrics reports operation outcomes to m
func WithMetrics(m MetricsRecorder) Option {
	return func(s *store) {
		s.metrics = m
	}
}

// WithLogger overrides the hierarchy module logger
func WithLogger(l logger.Logger) Option {
	return func(s *store) {
		s.log = l
	}
}

type store struct {
	db      *gorm.DB
	log     logger.Logger
	metrics MetricsRecorder
}

// NewStore creates a project hierarchy store on db
func NewStore(db *gorm.DB, opts ...Option) Store {
	s := &store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.Global().Module("hierarchy")
	}
	return s
}

// finish classifies err, records the outcome and wraps store failures
func (s *store) finish(operation string, err error, context ...any) error {
	status := StatusSuccess
	switch {
	case err == nil:
	case isRuleViolation(err):
		status = StatusRejected
	default:
		status = StatusError
		err = storeError(err, operation, context...)
	}

	if s.metrics != nil {
		s.metrics.RecordOperation(operation, status)
	}
	return err
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ruleError(ErrInvalidName, errors.CategoryValidation, "validate_name")
	}
	return name, nil
}

// exists returns ErrProjectNotFound when id is absent
func exists(tx *gorm.DB, operation string, id uint) (*entities.Project, error) {
	var p entities.Project
	err := tx.Where("id = ?", id).Take(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(operation, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *store) Create(ctx context.Context, name string, parentID *uint, isOrganization bool) (uint, error) {
	const op = "create"

	name, err := normalizeName(name)
	if err != nil {
		return 0, s.finish(op, err)
	}

	project := entities.Project{Name: name, ParentID: parentID, IsOrganization: isOrganization}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if parentID != nil {
			if _, err := exists(tx, op, *parentID); err != nil {
				return err
			}
		}

		if err := tx.Create(&project).Error; err != nil {
			if datastore.IsUniqueViolation(err) {
				return ruleError(ErrDuplicateName, errors.CategoryConflict, op, "name", name)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return 0, s.finish(op, err, "name", name)
	}

	s.log.Info("project created",
		logger.Uint64("project_id", uint64(project.ID)),
		logger.String("name", name),
		logger.Bool("organization", isOrganization))
	return project.ID, s.finish(op, nil)
}

func (s *store) Get(ctx context.Context, id uint) (*entities.Project, error) {
	p, err := exists(s.db.WithContext(ctx), "get", id)
	if err != nil {
		if isRuleViolation(err) {
			return nil, err
		}
		return nil, storeError(err, "get", "project_id", id)
	}
	return p, nil
}

func (s *store) Rename(ctx context.Context, id uint, newName string) error {
	const op = "rename"

	newName, err := normalizeName(newName)
	if err != nil {
		return s.finish(op, err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := exists(tx, op, id); err != nil {
			return err
		}
		err := tx.Model(&entities.Project{}).Where("id = ?", id).Update("name", newName).Error
		if datastore.IsUniqueViolation(err) {
			return ruleError(ErrDuplicateName, errors.CategoryConflict, op, "project_id", id, "name", newName)
		}
		return err
	})
	if err != nil {
		return s.finish(op, err, "project_id", id)
	}

	s.log.Info("project renamed",
		logger.Uint64("project_id", uint64(id)),
		logger.String("name", newName))
	return s.finish(op, nil)
}

func (s *store) Reparent(ctx context.Context, id uint, newParentID *uint) error {
	const op = "reparent"

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := exists(tx, op, id); err != nil {
			return err
		}

		if newParentID != nil {
			if _, err := exists(tx, op, *newParentID); err != nil {
				return err
			}
			cyclic, err := isDescendant(tx, id, *newParentID)
			if err != nil {
				return err
			}
			if cyclic {
				return ruleError(ErrCyclicMove, errors.CategoryHierarchy, op,
					"project_id", id, "new_parent_id", *newParentID)
			}
		}

		err := tx.Model(&entities.Project{}).Where("id = ?", id).Update("parent_id", newParentID).Error
		if datastore.IsUniqueViolation(err) {
			return ruleError(ErrDuplicateName, errors.CategoryConflict, op, "project_id", id)
		}
		return err
	})
	if err != nil {
		return s.finish(op, err, "project_id", id)
	}

	s.log.Info("project moved",
		logger.Uint64("project_id", uint64(id)),
		logger.Any("new_parent_id", newParentID))
	return s.finish(op, nil)
}

func (s *store) Delete(ctx context.Context, id uint, cascade bool) (DeleteResult, error) {
	const op = "delete"

	var result DeleteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := exists(tx, op, id); err != nil {
			return err
		}

		ids := []uint{id}
		if cascade {
			var err error
			if ids, err = subtreeIDs(tx, id); err != nil {
				return err
			}
		} else {
			var children int64
			if err := tx.Model(&entities.Project{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
				return err
			}
			if children > 0 {
				return ruleError(ErrHasChildren, errors.CategoryHierarchy, op,
					"project_id", id, "children", children)
			}
		}

		res := tx.Where("project_id IN ?", ids).Delete(&entities.Image{})
		if res.Error != nil {
			return res.Error
		}
		result.Images = res.RowsAffected

		res = tx.Where("id IN ?", ids).Delete(&entities.Project{})
		if res.Error != nil {
			return res.Error
		}
		result.Projects = res.RowsAffected
		return nil
	})
	if err != nil {
		return DeleteResult{}, s.finish(op, err, "project_id", id, "cascade", cascade)
	}

	s.log.Info("project deleted",
		logger.Uint64("project_id", uint64(id)),
		logger.Bool("cascade", cascade),
		logger.Int64("projects_deleted", result.Projects),
		logger.Int64("images_deleted", result.Images))
	return result, s.finish(op, nil)
}

func (s *store) ListChildren(ctx context.Context, parentID *uint) ([]entities.Project, error) {
	query := s.db.WithContext(ctx).Order("name, id")
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var children []entities.Project
	if err := query.Find(&children).Error; err != nil {
		return nil, storeError(err, "list_children", "parent_id", parentID)
	}
	return children, nil
}

func (s *store) AncestorsOf(ctx context.Context, id uint) ([]entities.Project, error) {
	db := s.db.WithContext(ctx)
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	chain, err := ancestors(db, id)
	if err != nil {
		return nil, storeError(err, "ancestors", "project_id", id)
	}
	return chain, nil
}

func (s *store) IsDescendant(ctx context.Context, ancestor, candidate uint) (bool, error) {
	ok, err := isDescendant(s.db.WithContext(ctx), ancestor, candidate)
	if err != nil {
		return false, storeError(err, "is_descendant", "ancestor_id", ancestor, "candidate_id", candidate)
	}
	return ok, nil
}
