// Package session groups a project's images into observing nights and
// per-filter exposure totals.
package session

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tphakala/aftermidnight/internal/datastore"
	"github.com/tphakala/aftermidnight/internal/datastore/entities"
	"github.com/tphakala/aftermidnight/internal/logger"
	"github.com/tphakala/aftermidnight/internal/suncalc"
)

// ProjectGetter looks up projects by id
type ProjectGetter interface {
	Get(ctx context.Context, id uint) (*entities.Project, error)
}

// NightCalculator returns sun events for the night starting on a date
type NightCalculator interface {
	GetNightTimes(date time.Time) (suncalc.NightTimes, error)
}

// Options narrows a summary
type Options struct {
	// FrameType keeps only images whose imagetyp matches, ignoring case. Empty keeps all.
	FrameType string
}

// FilterTotal is the frame count and exposure for one filter
type FilterTotal struct {
	Filter   string // empty for images without a filter
	Frames   int
	Exposure Exposure
}

// Night is one observing night
type Night struct {
	Date     time.Time // evening date, UTC midnight
	Filters  []FilterTotal
	Frames   int
	Exposure Exposure
	Sun      *suncalc.NightTimes // set when an observatory location is configured
}

// Summary is the session overview of a project
type Summary struct {
	ProjectID    uint
	ProjectName  string
	Organization bool // organization projects own no images; the summary is empty
	Nights       []Night
	Undated      []FilterTotal // images whose date_obs is absent or unparseable
	Totals       []FilterTotal
	Frames       int
	Exposure     Exposure
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithNightCalculator attaches sun event times to every night
func WithNightCalculator(c NightCalculator) Option {
	return func(a *Aggregator) {
		a.sun = c
	}
}

// WithLogger overrides the session module logger
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		a.log = l
	}
}

// Aggregator builds session summaries
type Aggregator struct {
	db       *gorm.DB
	projects ProjectGetter
	sun      NightCalculator
	log      logger.Logger
}

// NewAggregator creates an aggregator reading images from db
func NewAggregator(db *gorm.DB, projects ProjectGetter, opts ...Option) *Aggregator {
	a := &Aggregator{db: db, projects: projects}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Global().Module("session")
	}
	return a
}

type imageRow struct {
	DateObs  *string
	Exposure *float64
	Filter   *string
}

// Summarize groups the images of projectID by night and filter
func (a *Aggregator) Summarize(ctx context.Context, projectID uint, opts Options) (*Summary, error) {
	project, err := a.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		ProjectID:    project.ID,
		ProjectName:  project.Name,
		Organization: project.IsOrganization,
	}
	if project.IsOrganization {
		return summary, nil
	}

	query := a.db.WithContext(ctx).
		Model(&entities.Image{}).
		Select("date_obs", "exposure", "filter").
		Where("project_id = ?", projectID)
	if ft := strings.TrimSpace(opts.FrameType); ft != "" {
		query = query.Where("LOWER(imagetyp) = ?", strings.ToLower(ft))
	}

	var rows []imageRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, datastore.StoreError(err, "session", "summarize", "project_id", projectID)
	}

	nights := map[time.Time]map[string]*FilterTotal{}
	undated := map[string]*FilterTotal{}
	totals := map[string]*FilterTotal{}

	for _, row := range rows {
		filter := ""
		if row.Filter != nil {
			filter = *row.Filter
		}

		bucket := undated
		if row.DateObs != nil {
			if night, ok := NightOf(*row.DateObs); ok {
				if nights[night] == nil {
					nights[night] = map[string]*FilterTotal{}
				}
				bucket = nights[night]
			}
		}

		accumulate(bucket, filter, row.Exposure)
		accumulate(totals, filter, row.Exposure)
		summary.Frames++
		summary.Exposure.add(row.Exposure)
	}

	dates := make([]time.Time, 0, len(nights))
	for date := range nights {
		dates = append(dates, date)
	}
	slices.SortFunc(dates, time.Time.Compare)

	for _, date := range dates {
		night := Night{Date: date, Filters: sorted(nights[date])}
		for _, ft := range night.Filters {
			night.Frames += ft.Frames
			if ft.Exposure.Known {
				night.Exposure.Seconds += ft.Exposure.Seconds
				night.Exposure.Known = true
			}
		}
		night.Sun = a.nightTimes(date)
		summary.Nights = append(summary.Nights, night)
	}
	summary.Undated = sorted(undated)
	summary.Totals = sorted(totals)

	a.log.Debug("session summary built",
		logger.Uint64("project_id", uint64(projectID)),
		logger.Int("images", len(rows)),
		logger.Int("nights", len(summary.Nights)),
		logger.Int("undated", len(summary.Undated)))
	return summary, nil
}

func (a *Aggregator) nightTimes(date time.Time) *suncalc.NightTimes {
	if a.sun == nil {
		return nil
	}
	times, err := a.sun.GetNightTimes(date)
	if err != nil {
		a.log.Warn("sun events unavailable",
			logger.String("night", date.Format(time.DateOnly)),
			logger.Error(err))
		return nil
	}
	return &times
}

func accumulate(bucket map[string]*FilterTotal, filter string, exposure *float64) {
	ft := bucket[filter]
	if ft == nil {
		ft = &FilterTotal{Filter: filter}
		bucket[filter] = ft
	}
	ft.Frames++
	ft.Exposure.add(exposure)
}

// sorted returns the totals ordered by filter name, missing filter first
func sorted(bucket map[string]*FilterTotal) []FilterTotal {
	if len(bucket) == 0 {
		return nil
	}
	out := make([]FilterTotal, 0, len(bucket))
	for _, ft := range bucket {
		out = append(out, *ft)
	}
	slices.SortFunc(out, func(a, b FilterTotal) int {
		return cmp.Compare(a.Filter, b.Filter)
	})
	return out
}
