package transcode

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/anirudhraja/proto3json/dynamic"
	"github.com/anirudhraja/proto3json/schema"
)

const (
	nanosPerSecond = 1_000_000_000
	// maxDurationSeconds is roughly 10,000 years.
	maxDurationSeconds = 315_576_000_000
)

var durationPattern = regexp.MustCompile(`^(-)?(\d+)(?:\.(\d+))?s$`)

func durationToJSON(m *dynamic.Message, p path) (interface{}, error) {
	secs, err := wktInt64(m, "seconds", p)
	if err != nil {
		return nil, err
	}
	nanos, err := wktInt32(m, "nanos", p)
	if err != nil {
		return nil, err
	}
	value := fmt.Sprintf("{seconds: %d, nanos: %d}", secs, nanos)
	switch {
	case secs < -maxDurationSeconds || secs > maxDurationSeconds:
		return nil, formatError(p, schema.DurationName, value, "seconds out of range")
	case nanos <= -nanosPerSecond || nanos >= nanosPerSecond:
		return nil, formatError(p, schema.DurationName, value, "nanos out of range")
	case (secs > 0 && nanos < 0) || (secs < 0 && nanos > 0):
		return nil, formatError(p, schema.DurationName, value, "seconds and nanos have different signs")
	}

	sign := ""
	if secs < 0 || nanos < 0 {
		sign = "-"
		secs, nanos = -secs, -nanos
	}
	return sign + strconv.FormatInt(secs, 10) + fractionDigits(nanos) + "s", nil
}

// fractionDigits renders nanos as 0, 3, 6 or 9 fractional digits, whichever
// is the shortest exact form.
func fractionDigits(nanos int32) string {
	switch {
	case nanos == 0:
		return ""
	case nanos%1_000_000 == 0:
		return fmt.Sprintf(".%03d", nanos/1_000_000)
	case nanos%1_000 == 0:
		return fmt.Sprintf(".%06d", nanos/1_000)
	}
	return fmt.Sprintf(".%09d", nanos)
}

// durationFromJSON parses "<seconds>[.<fraction>]s". The fraction is kept to
// the nanosecond; extra digits are dropped. For negative durations both
// seconds and nanos are negative.
func durationFromJSON(v interface{}, p path) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, typeMismatch(p, "duration string", v)
	}
	parts := durationPattern.FindStringSubmatch(s)
	if parts == nil {
		return nil, formatError(p, schema.DurationName, s, `want "<seconds>[.<fraction>]s"`)
	}
	secs, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || secs > maxDurationSeconds {
		return nil, formatError(p, schema.DurationName, s, "seconds out of range")
	}
	var nanos int64
	if frac := parts[3]; frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		nanos, _ = strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 32)
	}
	if parts[1] == "-" {
		secs, nanos = -secs, -nanos
	}
	return map[string]interface{}{
		"seconds": json.Number(strconv.FormatInt(secs, 10)),
		"nanos":   int32(nanos),
	}, nil
}
