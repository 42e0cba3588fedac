package session

import (
	"fmt"
	"math"
)

// Exposure is a summed exposure time. Known is false when no image in the
// group had an exposure value, which is distinct from a zero total.
type Exposure struct {
	Seconds float64
	Known   bool
}

// add accumulates one image's exposure
func (e *Exposure) add(seconds *float64) {
	if seconds == nil {
		return
	}
	e.Seconds += *seconds
	e.Known = true
}

// String formats the total as "{h}h {m}m {s}s", truncating each part, or
// "unknown".
func (e Exposure) String() string {
	if !e.Known {
		return "unknown"
	}
	total := math.Max(e.Seconds, 0)
	hours := int(total / 3600)
	rest := math.Mod(total, 3600)
	minutes := int(rest / 60)
	seconds := int(math.Mod(rest, 60))
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
