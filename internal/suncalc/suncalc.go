// Package suncalc computes per-night sun events for an observatory location.
package suncalc

import (
	"fmt"
	"sync"
	"time"

	"github.com/sj14/astral/pkg/astral"

	"github.com/tphakala/aftermidnight/internal/conf"
)

// NightTimes holds the sun events bounding one observing night, in local time.
// The night starts on the evening of Date and ends the following morning.
type NightTimes struct {
	Date             time.Time // calendar date of the evening
	Sunset           time.Time // sunset on Date
	AstronomicalDusk time.Time // end of astronomical twilight on Date
	AstronomicalDawn time.Time // start of astronomical twilight the next morning
	Sunrise          time.Time // sunrise the next morning
	Dark             bool      // false when the sun never reaches 18° below the horizon
}

// DarkDuration returns the length of astronomical darkness, zero when there is none
func (n NightTimes) DarkDuration() time.Duration {
	if !n.Dark {
		return 0
	}
	return n.AstronomicalDawn.Sub(n.AstronomicalDusk)
}

// cacheEntry holds the calculated times for one night
type cacheEntry struct {
	times NightTimes
	date  time.Time
}

// SunCalc handles caching and calculation of night times
type SunCalc struct {
	cache    map[string]cacheEntry // keyed by evening date
	lock     sync.RWMutex
	observer astral.Observer
}

// NewSunCalc creates a new SunCalc instance
func NewSunCalc(latitude, longitude float64) *SunCalc {
	return &SunCalc{
		cache:    make(map[string]cacheEntry),
		observer: astral.Observer{Latitude: latitude, Longitude: longitude},
	}
}

// GetNightTimes returns the sun events for the night starting on date, using
// the cache if available. Only the calendar date of date is used.
func (sc *SunCalc) GetNightTimes(date time.Time) (NightTimes, error) {
	evening := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dateKey := evening.Format(time.DateOnly)

	sc.lock.RLock()
	entry, exists := sc.cache[dateKey]
	sc.lock.RUnlock()

	if exists && entry.date.Equal(evening) {
		return entry.times, nil
	}

	times, err := sc.calculateNightTimes(evening)
	if err != nil {
		return NightTimes{}, err
	}

	sc.lock.Lock()
	sc.cache[dateKey] = cacheEntry{times: times, date: evening}
	sc.lock.Unlock()

	return times, nil
}

// calculateNightTimes calculates the events for the night starting on evening.
// Missing astronomical twilight (polar summer) is not an error; missing
// sunset or sunrise is.
func (sc *SunCalc) calculateNightTimes(evening time.Time) (NightTimes, error) {
	morning := evening.AddDate(0, 0, 1)

	sunset, err := astral.Sunset(sc.observer, evening)
	if err != nil {
		return NightTimes{}, fmt.Errorf("failed to calculate sunset: %w", err)
	}

	sunrise, err := astral.Sunrise(sc.observer, morning)
	if err != nil {
		return NightTimes{}, fmt.Errorf("failed to calculate sunrise: %w", err)
	}

	times := NightTimes{
		Date:    evening,
		Sunset:  conf.ConvertUTCToLocal(sunset),
		Sunrise: conf.ConvertUTCToLocal(sunrise),
	}

	dusk, duskErr := astral.Dusk(sc.observer, evening, astral.DepressionAstronomical)
	dawn, dawnErr := astral.Dawn(sc.observer, morning, astral.DepressionAstronomical)
	if duskErr == nil && dawnErr == nil && dawn.After(dusk) {
		times.AstronomicalDusk = conf.ConvertUTCToLocal(dusk)
		times.AstronomicalDawn = conf.ConvertUTCToLocal(dawn)
		times.Dark = true
	}

	return times, nil
}
