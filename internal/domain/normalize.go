package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Field keys recognized in a RawRecord, with accepted aliases.
var fieldAliases = map[string][]string{
	"id":           {"id", "video_id"},
	"title":        {"title"},
	"tags":         {"tags"},
	"published_at": {"published_at", "publishedAt"},
	"duration":     {"duration", "duration_seconds"},
	"views":        {"views", "view_count"},
	"likes":        {"likes", "like_count"},
	"comments":     {"comments", "comment_count"},
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeResult is the output of Normalize.
// len(Metrics) + Skipped always equals the number of input records.
type NormalizeResult struct {
	Metrics  []VideoMetric
	Skipped  int
	Warnings []DataQualityWarning
}

// Normalize turns untyped rows into VideoMetric values with raw fields set.
//
// Rules:
//   - missing, non-numeric or negative counts become 0 with a warning
//   - a missing or unparsable duration becomes 0 with a warning
//   - rows without a usable id or publish time are skipped
//   - a repeated id is skipped; the first occurrence wins
//
// Output is sorted by PublishedAt ascending; ties keep input order.
func Normalize(records []RawRecord) NormalizeResult {
	res := NormalizeResult{Metrics: make([]VideoMetric, 0, len(records))}
	seen := make(map[string]struct{}, len(records))

	warn := func(idx int, id, field string, code WarningCode, msg string) {
		res.Warnings = append(res.Warnings, DataQualityWarning{
			RecordIndex: idx,
			RecordID:    id,
			Field:       field,
			Code:        code,
			Message:     msg,
		})
	}

	for i, rec := range records {
		id := stringField(rec, "id")
		if id == "" {
			res.Skipped++
			warn(i, "", "id", WarnMissingID, "record has no id, skipped")
			continue
		}
		if _, dup := seen[id]; dup {
			res.Skipped++
			warn(i, id, "id", WarnDuplicateID, "duplicate id in batch, skipped")
			continue
		}

		rawTS, _ := lookup(rec, "published_at")
		publishedAt, ok := parseTimestamp(rawTS)
		if !ok {
			res.Skipped++
			warn(i, id, "published_at", WarnInvalidTimestamp, fmt.Sprintf("unparsable publish time %v, skipped", rawTS))
			continue
		}
		seen[id] = struct{}{}

		m := VideoMetric{
			ID:          id,
			Title:       stringField(rec, "title"),
			Tags:        tagsField(rec),
			PublishedAt: publishedAt,
		}

		for _, f := range []struct {
			key string
			dst *int64
		}{
			{"views", &m.Views},
			{"likes", &m.Likes},
			{"comments", &m.Comments},
		} {
			raw, present := lookup(rec, f.key)
			n, code := coerceCount(raw, present)
			*f.dst = n
			switch code {
			case "":
			case WarnClampedValue:
				warn(i, id, f.key, code, fmt.Sprintf("%s value %v clamped to %d", f.key, raw, n))
			default:
				warn(i, id, f.key, code, fmt.Sprintf("%s value %v coerced to 0", f.key, raw))
			}
		}

		raw, present := lookup(rec, "duration")
		secs, code := coerceDuration(raw, present)
		m.DurationSeconds = secs
		if code != "" {
			warn(i, id, "duration", code, fmt.Sprintf("duration value %v coerced to 0", raw))
		}

		res.Metrics = append(res.Metrics, m)
	}

	sort.SliceStable(res.Metrics, func(a, b int) bool {
		return res.Metrics[a].PublishedAt.Before(res.Metrics[b].PublishedAt)
	})
	return res
}

// lookup returns the first alias present in rec.
func lookup(rec RawRecord, key string) (any, bool) {
	if rec == nil {
		return nil, false
	}
	for _, alias := range fieldAliases[key] {
		if v, ok := rec[alias]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func stringField(rec RawRecord, key string) string {
	v, ok := lookup(rec, key)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return strings.TrimSpace(s.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func tagsField(rec RawRecord) []string {
	v, ok := lookup(rec, "tags")
	if !ok {
		return nil
	}
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			add(s)
		}
	case []any:
		for _, s := range t {
			if str, ok := s.(string); ok {
				add(str)
			}
		}
	case string:
		for _, s := range strings.Split(t, ",") {
			add(s)
		}
	}
	return out
}

// coerceCount converts a count field. A non-empty code means the value was
// replaced with 0.
// MaxCount caps views, likes and comments. It is exact in float64 and leaves
// room to sum many capped values without overflowing int64.
const MaxCount = 1 << 53

func coerceCount(v any, present bool) (int64, WarningCode) {
	if !present {
		return 0, WarnMissingField
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, WarnNonNumeric
	}
	if f < 0 {
		return 0, WarnNegativeValue
	}
	if f > MaxCount {
		return MaxCount, WarnClampedValue
	}
	return int64(f), ""
}

func coerceDuration(v any, present bool) (int64, WarningCode) {
	if !present {
		return 0, WarnMissingField
	}
	if s, ok := v.(string); ok {
		secs, ok := ParseDurationSeconds(s)
		if !ok {
			return 0, WarnInvalidDuration
		}
		return secs, ""
	}
	f, ok := toFloat(v)
	if !ok || f < 0 || f >= math.MaxInt64 {
		return 0, WarnInvalidDuration
	}
	return int64(f), ""
}

// toFloat accepts Go numeric types, json.Number and numeric strings.
func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		parsed, err := strconv.ParseFloat(s, 64)
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

func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.UTC(), true
			}
		}
		return time.Time{}, false
	default:
		// Numeric values are unix seconds.
		f, ok := toFloat(v)
		if !ok || f <= 0 {
			return time.Time{}, false
		}
		return time.Unix(int64(f), 0).UTC(), true
	}
}

// ParseDurationSeconds parses a video duration in any of these forms:
// ISO 8601 ("PT1H2M3S", "P1DT5M"), clock ("1:02:03", "5:30"),
// Go duration ("5m30s") or plain seconds ("330").
func ParseDurationSeconds(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if s[0] == 'P' || s[0] == 'p' {
		return parseISO8601Duration(s[1:])
	}
	if strings.Contains(s, ":") {
		return parseClockDuration(s)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return int64(d / time.Second), true
	}
	return 0, false
}

func parseISO8601Duration(s string) (int64, bool) {
	var (
		total  int64
		num    strings.Builder
		inTime bool
		parts  int
	)
	for _, r := range strings.ToUpper(s) {
		switch {
		case r >= '0' && r <= '9':
			num.WriteRune(r)
		case r == 'T':
			if inTime || num.Len() > 0 {
				return 0, false
			}
			inTime = true
		default:
			if num.Len() == 0 {
				return 0, false
			}
			n, err := strconv.ParseInt(num.String(), 10, 64)
			if err != nil {
				return 0, false
			}
			num.Reset()

			var unit int64
			switch {
			case r == 'W' && !inTime:
				unit = 7 * 86400
			case r == 'D' && !inTime:
				unit = 86400
			case r == 'H' && inTime:
				unit = 3600
			case r == 'M' && inTime:
				unit = 60
			case r == 'S' && inTime:
				unit = 1
			default:
				return 0, false
			}
			total += n * unit
			parts++
		}
	}
	if num.Len() > 0 || parts == 0 {
		return 0, false
	}
	return total, true
}

func parseClockDuration(s string) (int64, bool) {
	fields := strings.Split(s, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, false
	}
	var total int64
	for _, f := range fields {
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}

// FilterWindow keeps metrics published at or after since.
// A zero since keeps everything.
func FilterWindow(metrics []VideoMetric, since time.Time) (kept []VideoMetric, dropped int) {
	if since.IsZero() {
		return metrics, 0
	}
	kept = make([]VideoMetric, 0, len(metrics))
	for _, m := range metrics {
		if m.PublishedAt.Before(since) {
			dropped++
			continue
		}
		kept = append(kept, m)
	}
	return kept, dropped
}
