package suncalc

import "time"

// Helsinki coordinates for testing
const (
	testLatitude  = 60.1699
	testLongitude = 24.9384
)

// newTestSunCalc creates a SunCalc instance with Helsinki coordinates.
func newTestSunCalc() *SunCalc {
	return NewSunCalc(testLatitude, testLongitude)
}

// midsummerDate returns June 21, 2024 UTC, a night without astronomical darkness in Helsinki.
func midsummerDate() time.Time {
	return time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC)
}

// autumnDate returns September 29, 2025 UTC, a night with several dark hours in Helsinki.
func autumnDate() time.Time {
	return time.Date(2025, 9, 29, 0, 0, 0, 0, time.UTC)
}
