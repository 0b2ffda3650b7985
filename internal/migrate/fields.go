package migrate

import (
	"math"
	"strconv"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func stringsField(data map[string]any, key string) []string {
	switch v := data[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// intField accepts the numeric shapes Firestore, JSON and YAML produce.
func intField(data map[string]any, key string) (int, bool) {
	switch v := data[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(math.Round(v)), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}

// timeField reads a native time, an exported {_seconds, _nanoseconds}
// timestamp or a formatted string, falling back to def.
func timeField(data map[string]any, key string, def time.Time) time.Time {
	switch v := data[key].(type) {
	case time.Time:
		if !v.IsZero() {
			return v.UTC()
		}
	case map[string]any:
		secs, ok := intField(v, "_seconds")
		if !ok {
			secs, ok = intField(v, "seconds")
		}
		if ok {
			nanos, _ := intField(v, "_nanoseconds")
			return time.Unix(int64(secs), int64(nanos)).UTC()
		}
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC()
			}
		}
	}
	return def
}
