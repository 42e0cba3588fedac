package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tphakala/aftermidnight/internal/datastore/testutil"
)

func TestTruncateFraction(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2025-09-29T23:10:05.123456789", "2025-09-29T23:10:05.123456"},
		{"2025-09-29T23:10:05.123456789Z", "2025-09-29T23:10:05.123456Z"},
		{"2025-09-29T23:10:05.1234567+02:00", "2025-09-29T23:10:05.123456+02:00"},
		{"2025-09-29T23:10:05.123", "2025-09-29T23:10:05.123"},
		{"2025-09-29T23:10:05", "2025-09-29T23:10:05"},
		{"2025-09-29", "2025-09-29"},
		{"garbage.1234567890", "garbage.1234567890"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, truncateFraction(tt.in), tt.in)
	}
}

func TestCoerceExposure(t *testing.T) {
	tests := []struct {
		raw  any
		want float64
		ok   bool
	}{
		{300.0, 300, true},
		{int64(120), 120, true},
		{" 30.5 ", 30.5, true},
		{"1e2", 100, true},
		{"not-a-number", 0, false},
		{"NaN", 0, false},
		{"", 0, false},
		{true, 0, false},
	}

	for _, tt := range tests {
		got, ok := coerceExposure(tt.raw)
		assert.Equal(t, tt.ok, ok, "%v", tt.raw)
		assert.InDelta(t, tt.want, got, 1e-9, "%v", tt.raw)
	}
}

func TestNormalizerValue(t *testing.T) {
	n := normalizer{path: "x.fits", log: testutil.SilentLogger()}

	assert.Equal(t, 30.0, n.value("EXPOSURE", "30"))
	assert.Nil(t, n.value("exposure", "long"))
	assert.Equal(t, "2025-09-29T23:10:05.123456", n.value("date_obs", " 2025-09-29T23:10:05.1234569 "))
	assert.Equal(t, "100", n.value("gain", int64(100)))
	assert.Equal(t, "-12.5", n.value("ccd_temp", -12.5))
	assert.Equal(t, "T", n.value("flipped", true))
	assert.Equal(t, "Ha", n.value("filter", "Ha"))
	assert.Nil(t, n.value("filter", nil))
}
