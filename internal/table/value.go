package table

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order when sniffing a date-bearing value.
// Covers the source database's timestamp rendering, JSON round-trips of
// time.Time, and bare calendar dates.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize converts a freshly decoded JSON value into the canonical
// in-memory form: json.Number becomes int64 when integral and float64
// otherwise; everything else passes through.
func Normalize(v any) any {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	default:
		return v
	}
}

// ParseTimestamp sniffs v against the known layouts. The bool result is
// false when the value is nil, empty, or matches none of them; callers drop
// such values rather than failing the whole batch.
func ParseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// FormatDate and FormatTimeOfDay render the two halves of a split instant.
// Time of day keeps microseconds to match the source's timestamp precision.
func FormatDate(t time.Time) string { return t.Format("2006-01-02") }

func FormatTimeOfDay(t time.Time) string { return t.Format("15:04:05.000000") }

// Fingerprint renders a row as a canonical string over the given columns so
// rows can be compared by full content regardless of how their values were
// decoded (JSON float vs database int, time.Time vs ISO string).
func Fingerprint(row Record, columns []string) string {
	var b strings.Builder
	for _, col := range columns {
		b.WriteString(Canonical(row[col]))
		b.WriteByte(0x1f)
	}
	return b.String()
}

// Canonical renders one value the same way Fingerprint does; transforms
// also use it as the join key for lookup merges.
func Canonical(v any) string {
	switch t := v.(type) {
	case nil:
		return "\x00"
	case int:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return renderFloat(float64(t))
	case float64:
		return renderFloat(t)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return renderTime(t)
	case []byte:
		return renderString(string(t))
	case string:
		return renderString(t)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func renderFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// renderTime collapses date-only and time-only values the database hands
// back as time.Time into the same rendering the transforms emit as strings.
func renderTime(t time.Time) string {
	t = t.UTC()
	if t.Year() <= 1 {
		return FormatTimeOfDay(t)
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return FormatDate(t)
	}
	return t.Format(time.RFC3339Nano)
}

// renderString re-renders strings that are really typed values in disguise
// so both sides of a comparison agree: NUMERIC columns arrive as text from
// the driver ("2.50" vs 2.5), dates and times round-trip through JSON and
// Parquet as strings but come back from the warehouse as time.Time.
func renderString(s string) string {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return renderFloat(f)
	}
	if t, ok := ParseTimestamp(s); ok {
		return renderTime(t)
	}
	for _, layout := range []string{"15:04:05.999999", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return FormatTimeOfDay(t)
		}
	}
	return s
}
