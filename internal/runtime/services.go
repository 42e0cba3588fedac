package runtime

import (
	"context"
	"fmt"

	"github.com/tphakala/aftermidnight/internal/conf"
	"github.com/tphakala/aftermidnight/internal/datastore"
	"github.com/tphakala/aftermidnight/internal/errors"
	"github.com/tphakala/aftermidnight/internal/fitsheader"
	"github.com/tphakala/aftermidnight/internal/hierarchy"
	"github.com/tphakala/aftermidnight/internal/importer"
	"github.com/tphakala/aftermidnight/internal/logger"
	"github.com/tphakala/aftermidnight/internal/mapping"
	"github.com/tphakala/aftermidnight/internal/observability"
	"github.com/tphakala/aftermidnight/internal/schema"
	"github.com/tphakala/aftermidnight/internal/session"
	"github.com/tphakala/aftermidnight/internal/suncalc"
)

// Services holds the catalog components built on one open store
type Services struct {
	Store    *datastore.Store
	Projects hierarchy.Store
	Mappings *mapping.Registry
	Schema   *schema.Evolver
	Importer *importer.Engine
	Sessions *session.Aggregator
	Metrics  *observability.Metrics // nil unless metrics are enabled

	settings *conf.Settings
	log      logger.Logger
}

// Option adjusts how services are built
type Option func(*options)

type options struct {
	reader fitsheader.Reader
}

// WithHeaderReader replaces the FITS header reader used by imports
func WithHeaderReader(r fitsheader.Reader) Option {
	return func(o *options) {
		o.reader = r
	}
}

// Open opens the catalog named by settings, seeds the default mapping and
// builds every service.
func Open(ctx context.Context, settings *conf.Settings, opts ...Option) (*Services, error) {
	o := options{reader: fitsheader.NewReader()}
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.Global().Module("runtime")

	var m *observability.Metrics
	if settings.Metrics.Enabled {
		var err error
		if m, err = observability.NewMetrics(); err != nil {
			return nil, errors.New(err).
				Component("runtime").
				Category(errors.CategorySystem).
				Context("operation", "init_metrics").
				Build()
		}
	}

	store, err := datastore.Open(datastore.Config{
		Path:      settings.Output.SQLite.Path,
		SlowQuery: settings.Output.SQLite.SlowQuery,
	})
	if err != nil {
		return nil, err
	}

	s := &Services{
		Store:    store,
		Metrics:  m,
		settings: settings,
		log:      log,
	}

	var (
		hierarchyOpts []hierarchy.Option
		schemaOpts    []schema.Option
		importOpts    = []importer.Option{importer.WithFollowSymlinks(settings.Import.FollowSymlinks)}
		sessionOpts   []session.Option
	)
	if len(settings.Import.Extensions) > 0 {
		importOpts = append(importOpts, importer.WithExtensions(settings.Import.Extensions...))
	}
	if m != nil {
		hierarchyOpts = append(hierarchyOpts, hierarchy.WithMetrics(m.Hierarchy))
		schemaOpts = append(schemaOpts, schema.WithMetrics(m.Import))
		importOpts = append(importOpts, importer.WithMetrics(m.Import))
	}
	if settings.Observatory.Enabled {
		sessionOpts = append(sessionOpts, session.WithNightCalculator(
			suncalc.NewSunCalc(settings.Observatory.Latitude, settings.Observatory.Longitude)))
	}

	s.Projects = hierarchy.NewStore(store.DB, hierarchyOpts...)
	s.Mappings = mapping.NewRegistry(store.DB)
	s.Schema = schema.NewEvolver(store.DB, schemaOpts...)
	s.Importer = importer.NewEngine(store.DB, s.Projects, s.Schema, o.reader, importOpts...)
	s.Sessions = session.NewAggregator(store.DB, s.Projects, sessionOpts...)

	if err := s.Mappings.EnsureDefaults(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	if m != nil {
		m.HookErrors()
	}
	return s, nil
}

// Close writes the metrics textfile when configured and closes the store.
// Both steps run; their errors are joined.
func (s *Services) Close() error {
	var metricsErr error
	if s.Metrics != nil {
		if metricsErr = s.Metrics.WriteTextfile(s.settings.Metrics.Textfile); metricsErr != nil {
			s.log.Warn("failed to write metrics textfile",
				logger.String("path", s.settings.Metrics.Textfile),
				logger.Error(metricsErr))
		}
		errors.ClearErrorHooks()
	}
	return errors.Join(metricsErr, s.Store.Close())
}

// With opens the services, runs fn and closes them
func With(ctx context.Context, settings *conf.Settings, fn func(*Services) error, opts ...Option) (err error) {
	s, err := Open(ctx, settings, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close catalog: %w", closeErr)
		}
	}()
	return fn(s)
}
