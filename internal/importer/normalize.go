package importer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tphakala/aftermidnight/internal/logger"
	"github.com/tphakala/aftermidnight/internal/mapping"
)

// maxFractionDigits is the number of sub-second digits kept in date_obs
const maxFractionDigits = 6

var fractionPattern = regexp.MustCompile(`(:\d{2}\.\d{` + strconv.Itoa(maxFractionDigits) + `})\d+`)

// normalizer turns raw header values into stored field values for one file
type normalizer struct {
	path string
	log  logger.Logger
}

// value coerces exposure to a number, truncates date_obs and stores every
// other value as text.
func (n normalizer) value(field string, raw any) any {
	if raw == nil {
		return nil
	}

	switch {
	case strings.EqualFold(field, mapping.FieldExposure):
		seconds, ok := coerceExposure(raw)
		if !ok {
			n.log.Warn("exposure is not a number, storing NULL",
				logger.String("path", n.path),
				logger.Any("value", raw))
			return nil
		}
		return seconds
	case strings.EqualFold(field, mapping.FieldDateObs):
		return truncateFraction(strings.TrimSpace(toText(raw)))
	default:
		return toText(raw)
	}
}

// coerceExposure converts a header value to seconds
func coerceExposure(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int64:
		f = float64(v)
	case int:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// truncateFraction keeps at most six fractional-second digits. Anything
// after the digit run, such as a zone suffix, is kept.
func truncateFraction(s string) string {
	if loc := fractionPattern.FindStringSubmatchIndex(s); loc != nil {
		return s[:loc[3]] + s[loc[1]:]
	}
	return s
}

func toText(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		if v {
			return "T"
		}
		return "F"
	default:
		return fmt.Sprint(v)
	}
}
