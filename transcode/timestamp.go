package transcode

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/anirudhraja/proto3json/dynamic"
	"github.com/anirudhraja/proto3json/schema"
)

// Timestamps are limited to 0001-01-01T00:00:00Z .. 9999-12-31T23:59:59Z.
const (
	minTimestampSeconds = -62_135_596_800
	maxTimestampSeconds = 253_402_300_799
)

var timestampPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})(?:\.(\d+))?(Z|[+-]\d{2}:\d{2})$`)

func timestampToJSON(m *dynamic.Message, p path) (interface{}, error) {
	secs, err := wktInt64(m, "seconds", p)
	if err != nil {
		return nil, err
	}
	nanos, err := wktInt32(m, "nanos", p)
	if err != nil {
		return nil, err
	}
	value := fmt.Sprintf("{seconds: %d, nanos: %d}", secs, nanos)
	if secs < minTimestampSeconds || secs > maxTimestampSeconds {
		return nil, formatError(p, schema.TimestampName, value, "seconds out of range")
	}
	if nanos < 0 || nanos >= nanosPerSecond {
		return nil, formatError(p, schema.TimestampName, value, "nanos out of range")
	}
	t := time.Unix(secs, int64(nanos)).UTC()
	return t.Format("2006-01-02T15:04:05") + fractionDigits(nanos) + "Z", nil
}

// timestampFromJSON parses an RFC 3339 timestamp. Offsets are folded into
// UTC and the fraction is kept to the nanosecond; extra digits are dropped.
func timestampFromJSON(v interface{}, p path) (interface{}, error) {
	s, ok := v.(string)
	if !ok {
		return nil, typeMismatch(p, "timestamp string", v)
	}
	parts := timestampPattern.FindStringSubmatch(s)
	if parts == nil {
		return nil, formatError(p, schema.TimestampName, s, "want RFC 3339 form such as 1972-01-01T10:00:20.021Z")
	}
	t, err := time.Parse(time.RFC3339, parts[1]+parts[3])
	if err != nil {
		return nil, formatError(p, schema.TimestampName, s, err.Error())
	}
	var nanos int64
	if frac := parts[2]; frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		nanos, _ = strconv.ParseInt(frac+strings.Repeat("0", 9-len(frac)), 10, 32)
	}
	secs := t.Unix()
	if secs < minTimestampSeconds || secs > maxTimestampSeconds {
		return nil, formatError(p, schema.TimestampName, s, "out of range")
	}
	return map[string]interface{}{
		"seconds": json.Number(strconv.FormatInt(secs, 10)),
		"nanos":   int32(nanos),
	}, nil
}
