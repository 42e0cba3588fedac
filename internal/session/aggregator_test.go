package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/aftermidnight/internal/datastore"
	"github.com/tphakala/aftermidnight/internal/datastore/entities"
	"github.com/tphakala/aftermidnight/internal/datastore/testutil"
	"github.com/tphakala/aftermidnight/internal/errors"
	"github.com/tphakala/aftermidnight/internal/hierarchy"
	"github.com/tphakala/aftermidnight/internal/suncalc"
)

type frame struct {
	date     string
	exposure *float64
	filter   *string
	imagetyp string
}

func secs(v float64) *float64 { return &v }
func str(v string) *string { return &v }

func insertFrames(t *testing.T, store *datastore.Store, projectID uint, frames ...frame) {
	t.Helper()
	for i, f := range frames {
		img := entities.Image{
			Filename:  fmt.Sprintf("frame-%02d.fits", i),
			Path:      "/data/frame.fits",
			ProjectID: projectID,
			Exposure:  f.exposure,
			Filter:    f.filter,
		}
		if f.date != "" {
			img.DateObs = str(f.date)
		}
		if f.imagetyp != "" {
			img.ImageTyp = str(f.imagetyp)
		}
		require.NoError(t, store.DB.Create(&img).Error)
	}
}

func setupAggregator(t *testing.T, opts ...Option) (*Aggregator, *datastore.Store) {
	t.Helper()
	store := testutil.NewTestStore(t)
	projects := hierarchy.NewStore(store.DB, hierarchy.WithLogger(testutil.SilentLogger()))
	opts = append([]Option{WithLogger(testutil.SilentLogger())}, opts...)
	return NewAggregator(store.DB, projects, opts...), store
}

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNightOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-09-30T00:45:00", "2025-09-29", true},
		{"2025-09-29T23:10:05.123456", "2025-09-29", true},
		{"2025-09-29T12:00:00", "2025-09-29", true},
		{"2025-09-29T11:59:59", "2025-09-28", true},
		{"2025-09-30 03:00:00", "2025-09-29", true},
		{"2025-09-30T02:00", "2025-09-29", true},
		{"2025-09-30T01:00:00Z", "2025-09-29", true},
		{"2025-09-30T13:00:00+02:00", "2025-09-29", true},
		{"2025-09-30", "2025-09-29", true},
		{"", "", false},
		{"yesterday", "", false},
	}

	for _, tt := range tests {
		night, ok := NightOf(tt.in)
		require.Equal(t, tt.ok, ok, tt.in)
		if ok {
			assert.Equal(t, tt.want, night.Format(time.DateOnly), tt.in)
		}
	}
}

func TestExposureString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unknown", Exposure{}.String())
	assert.Equal(t, "0h 0m 0s", Exposure{Known: true}.String())
	assert.Equal(t, "1h 1m 1s", Exposure{Seconds: 3661, Known: true}.String())
	assert.Equal(t, "2h 30m 59s", Exposure{Seconds: 9059.9, Known: true}.String())
	assert.Equal(t, "25h 0m 0s", Exposure{Seconds: 90000, Known: true}.String())
}

func TestSummarize(t *testing.T) {
	a, store := setupAggregator(t)
	ctx := context.Background()
	projectID := testutil.CreateProject(t, store, "M31", nil, false)

	insertFrames(t, store, projectID,
		frame{date: "2025-09-29T22:00:00", exposure: secs(300), filter: str("Ha")},
		frame{date: "2025-09-30T00:45:00", exposure: secs(300), filter: str("Ha")},
		frame{date: "2025-09-30T01:00:00", exposure: secs(120), filter: str("OIII")},
		frame{date: "2025-09-30T02:00:00", exposure: secs(60)},
		frame{date: "2025-09-30T21:00:00", filter: str("Ha")},
		frame{date: "2025-09-27T20:00:00", exposure: secs(30), filter: str("L")},
		frame{exposure: secs(10), filter: str("Ha")},
		frame{date: "not a date", filter: str("L")},
	)

	s, err := a.Summarize(ctx, projectID, Options{})
	require.NoError(t, err)
	assert.False(t, s.Organization)
	assert.Equal(t, "M31", s.ProjectName)
	assert.Equal(t, 8, s.Frames)

	require.Len(t, s.Nights, 3)
	assert.Equal(t, day("2025-09-27"), s.Nights[0].Date)
	assert.Equal(t, day("2025-09-29"), s.Nights[1].Date)
	assert.Equal(t, day("2025-09-30"), s.Nights[2].Date)

	n := s.Nights[1]
	assert.Equal(t, 4, n.Frames)
	assert.Equal(t, []FilterTotal{
		{Filter: "", Frames: 1, Exposure: Exposure{Seconds: 60, Known: true}},
		{Filter: "Ha", Frames: 2, Exposure: Exposure{Seconds: 600, Known: true}},
		{Filter: "OIII", Frames: 1, Exposure: Exposure{Seconds: 120, Known: true}},
	}, n.Filters)
	assert.Nil(t, n.Sun)

	assert.Equal(t, []FilterTotal{{Filter: "Ha", Frames: 1, Exposure: Exposure{}}}, s.Nights[2].Filters,
		"no exposure values means unknown, not zero")

	assert.Equal(t, []FilterTotal{
		{Filter: "Ha", Frames: 1, Exposure: Exposure{Seconds: 10, Known: true}},
		{Filter: "L", Frames: 1, Exposure: Exposure{}},
	}, s.Undated)

	assert.Equal(t, []FilterTotal{
		{Filter: "", Frames: 1, Exposure: Exposure{Seconds: 60, Known: true}},
		{Filter: "Ha", Frames: 4, Exposure: Exposure{Seconds: 610, Known: true}},
		{Filter: "L", Frames: 2, Exposure: Exposure{Seconds: 30, Known: true}},
		{Filter: "OIII", Frames: 1, Exposure: Exposure{Seconds: 120, Known: true}},
	}, s.Totals, "undated images count toward project totals")
}

func TestSummarize_FrameType(t *testing.T) {
	a, store := setupAggregator(t)
	projectID := testutil.CreateProject(t, store, "M42", nil, false)

	insertFrames(t, store, projectID,
		frame{date: "2025-09-29T22:00:00", exposure: secs(300), filter: str("Ha"), imagetyp: "LIGHT"},
		frame{date: "2025-09-29T22:10:00", exposure: secs(300), filter: str("Ha"), imagetyp: "Light Frame"},
		frame{date: "2025-09-29T22:20:00", exposure: secs(1), filter: str("Ha"), imagetyp: "flat"},
	)

	s, err := a.Summarize(context.Background(), projectID, Options{FrameType: "light"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Frames)

	s, err = a.Summarize(context.Background(), projectID, Options{FrameType: "FLAT"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Frames)
	assert.Equal(t, "0h 0m 1s", s.Exposure.String())
}

func TestSummarize_OrganizationAndEmpty(t *testing.T) {
	a, store := setupAggregator(t)
	ctx := context.Background()

	orgID := testutil.CreateProject(t, store, "Deep Sky", nil, true)
	s, err := a.Summarize(ctx, orgID, Options{})
	require.NoError(t, err)
	assert.True(t, s.Organization)
	assert.Empty(t, s.Nights)

	emptyID := testutil.CreateProject(t, store, "Empty", nil, false)
	s, err = a.Summarize(ctx, emptyID, Options{})
	require.NoError(t, err)
	assert.Empty(t, s.Nights)
	assert.Empty(t, s.Totals)
	assert.Equal(t, "unknown", s.Exposure.String())

	_, err = a.Summarize(ctx, 999, Options{})
	require.ErrorIs(t, err, hierarchy.ErrProjectNotFound)
}

type stubNights struct {
	calls []time.Time
	fail  bool
}

func (s *stubNights) GetNightTimes(date time.Time) (suncalc.NightTimes, error) {
	s.calls = append(s.calls, date)
	if s.fail {
		return suncalc.NightTimes{}, errors.NewStd("no sunset")
	}
	return suncalc.NightTimes{Date: date, Dark: true}, nil
}

func TestSummarize_NightTimes(t *testing.T) {
	stub := &stubNights{}
	a, store := setupAggregator(t, WithNightCalculator(stub))
	projectID := testutil.CreateProject(t, store, "M31", nil, false)
	insertFrames(t, store, projectID,
		frame{date: "2025-09-30T00:45:00", exposure: secs(300), filter: str("Ha")},
	)

	s, err := a.Summarize(context.Background(), projectID, Options{})
	require.NoError(t, err)
	require.Len(t, s.Nights, 1)
	require.NotNil(t, s.Nights[0].Sun)
	assert.True(t, s.Nights[0].Sun.Dark)
	assert.Equal(t, []time.Time{day("2025-09-29")}, stub.calls)

	stub.fail = true
	s, err = a.Summarize(context.Background(), projectID, Options{})
	require.NoError(t, err)
	assert.Nil(t, s.Nights[0].Sun, "sun failures do not fail the summary")
}

func TestSummarize_StoreFailure(t *testing.T) {
	store := testutil.NewTestStore(t)
	projectID := testutil.CreateProject(t, store, "M31", nil, false)

	getter := fixedProject{p: entities.Project{ID: projectID, Name: "M31"}}
	a := NewAggregator(store.DB, getter, WithLogger(testutil.SilentLogger()))
	require.NoError(t, store.Close())

	_, err := a.Summarize(context.Background(), projectID, Options{})
	require.ErrorIs(t, err, datastore.ErrStoreIO)
}

type fixedProject struct{ p entities.Project }

func (f fixedProject) Get(context.Context, uint) (*entities.Project, error) {
	p := f.p
	return &p, nil
}
