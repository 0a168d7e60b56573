package domain

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Pattern attribute names.
const (
	AttrWeekday      = "publish_weekday"
	AttrHour         = "publish_hour"
	AttrDuration     = "duration"
	AttrTitleLength  = "title_length"
	AttrTitleFeature = "title_feature"
)

// Hour bucket values.
const (
	HourNight     = "night"     // [0,6)
	HourMorning   = "morning"   // [6,12)
	HourAfternoon = "afternoon" // [12,18)
	HourEvening   = "evening"   // [18,24)
)

// Duration and title-length bucket values.
const (
	BucketShort   = "short"
	BucketMedium  = "medium"
	BucketLong    = "long"
	BucketOptimal = "optimal"
)

// Title feature values.
const (
	FeatureNumber   = "number"
	FeatureQuestion = "question"
	FeatureBrackets = "brackets"
)

// Upload frequency labels.
const (
	FrequencyDaily          = "daily"
	FrequencySeveralPerWeek = "several_per_week"
	FrequencyWeekly         = "weekly"
	FrequencyBiweekly       = "biweekly"
	FrequencyMonthly        = "monthly"
)

// Trend directions.
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendStable  = "stable"
)

// Pattern is one attribute value shared by members of a tier group.
type Pattern struct {
	Attribute  string  `json:"attribute"`
	Value      string  `json:"value"`
	Count      int     `json:"count"`
	Confidence float64 `json:"confidence"`
}

// Key returns "attribute=value".
func (p Pattern) Key() string {
	return p.Attribute + "=" + p.Value
}

// UploadCadence summarizes the spacing between uploads.
type UploadCadence struct {
	AvgIntervalDays float64        `json:"avg_interval_days"`
	Frequency       string         `json:"frequency"`
	Weekdays        map[string]int `json:"weekdays"`
}

// Trend compares the newer half of a channel's uploads with the older half.
type Trend struct {
	Direction           string  `json:"direction"`
	RecentMeanViews     float64 `json:"recent_mean_views"`
	OlderMeanViews      float64 `json:"older_mean_views"`
	ViewsChangePct      float64 `json:"views_change_pct"`
	EngagementChangePct float64 `json:"engagement_change_pct"`
}

// PatternReport holds success patterns (VIRAL+HIT) and failure patterns
// (UNDERPERFORMING) for one channel.
type PatternReport struct {
	ChannelID        string         `json:"channel_id"`
	SuccessGroupSize int            `json:"success_group_size"`
	FailureGroupSize int            `json:"failure_group_size"`
	SuccessPatterns  []Pattern      `json:"success_patterns"`
	FailurePatterns  []Pattern      `json:"failure_patterns"`
	Cadence          *UploadCadence `json:"cadence,omitempty"`
	Trend            *Trend         `json:"trend,omitempty"`
}

// TopSuccess returns the strongest success pattern for an attribute.
func (r *PatternReport) TopSuccess(attribute string) (Pattern, bool) {
	if r == nil {
		return Pattern{}, false
	}
	return firstWith(r.SuccessPatterns, attribute)
}

// TopFailure returns the strongest failure pattern for an attribute.
func (r *PatternReport) TopFailure(attribute string) (Pattern, bool) {
	if r == nil {
		return Pattern{}, false
	}
	return firstWith(r.FailurePatterns, attribute)
}

func firstWith(patterns []Pattern, attribute string) (Pattern, bool) {
	for _, p := range patterns {
		if p.Attribute == attribute {
			return p, true
		}
	}
	return Pattern{}, false
}

// AnalyzePatterns extracts shared attributes of the success and failure
// groups. Each group's patterns are sorted by confidence descending, then by
// "attribute=value", and cut to TopN. An empty group yields an empty list.
func AnalyzePatterns(snapshot *ChannelSnapshot, policy PatternPolicy) *PatternReport {
	report := &PatternReport{
		SuccessPatterns: []Pattern{},
		FailurePatterns: []Pattern{},
	}
	if snapshot == nil {
		return report
	}
	report.ChannelID = snapshot.ChannelID

	success := snapshot.ByTier(TierViral, TierHit)
	failure := snapshot.ByTier(TierUnderperforming)
	report.SuccessGroupSize = len(success)
	report.FailureGroupSize = len(failure)
	report.SuccessPatterns = minePatterns(success, policy)
	report.FailurePatterns = minePatterns(failure, policy)
	report.Cadence = uploadCadence(snapshot.Videos, policy)
	report.Trend = trend(snapshot.Videos, policy)
	return report
}

// VideoAttributes returns every attribute=value pair that applies to v.
func VideoAttributes(v VideoMetric, policy PatternPolicy) []Pattern {
	local := v.PublishedAt.In(policy.location())
	attrs := []Pattern{
		{Attribute: AttrWeekday, Value: local.Weekday().String()},
		{Attribute: AttrHour, Value: HourBucket(local.Hour())},
		{Attribute: AttrDuration, Value: DurationBucket(v.DurationSeconds, policy)},
		{Attribute: AttrTitleLength, Value: titleLengthBucket(v.Title, policy)},
	}
	for _, f := range titleFeatures(v.Title) {
		attrs = append(attrs, Pattern{Attribute: AttrTitleFeature, Value: f})
	}
	return attrs
}

func minePatterns(group []VideoMetric, policy PatternPolicy) []Pattern {
	if len(group) == 0 {
		return []Pattern{}
	}

	counts := make(map[string]*Pattern)
	for _, v := range group {
		for _, a := range VideoAttributes(v, policy) {
			key := a.Key()
			p, ok := counts[key]
			if !ok {
				p = &Pattern{Attribute: a.Attribute, Value: a.Value}
				counts[key] = p
			}
			p.Count++
		}
	}

	out := make([]Pattern, 0, len(counts))
	for _, p := range counts {
		p.Confidence = float64(p.Count) / float64(len(group))
		out = append(out, *p)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Confidence != out[b].Confidence {
			return out[a].Confidence > out[b].Confidence
		}
		return out[a].Key() < out[b].Key()
	})
	if len(out) > policy.TopN {
		out = out[:policy.TopN]
	}
	return out
}

// HourBucket maps an hour of day onto night/morning/afternoon/evening.
func HourBucket(hour int) string {
	switch {
	case hour < 6:
		return HourNight
	case hour < 12:
		return HourMorning
	case hour < 18:
		return HourAfternoon
	default:
		return HourEvening
	}
}

// DurationBucket maps seconds onto short/medium/long.
func DurationBucket(seconds int64, policy PatternPolicy) string {
	switch {
	case seconds <= policy.ShortMaxSeconds:
		return BucketShort
	case seconds <= policy.MediumMaxSeconds:
		return BucketMedium
	default:
		return BucketLong
	}
}

func titleLengthBucket(title string, policy PatternPolicy) string {
	n := utf8.RuneCountInString(title)
	switch {
	case n < policy.TitleShortRunes:
		return BucketShort
	case n <= policy.TitleLongRunes:
		return BucketOptimal
	default:
		return BucketLong
	}
}

func titleFeatures(title string) []string {
	var out []string
	if strings.IndexFunc(title, unicode.IsDigit) >= 0 {
		out = append(out, FeatureNumber)
	}
	if strings.ContainsAny(title, "?？") {
		out = append(out, FeatureQuestion)
	}
	if strings.ContainsAny(title, "[]()【】") {
		out = append(out, FeatureBrackets)
	}
	return out
}

// uploadCadence needs at least two videos sorted by publish time.
func uploadCadence(videos []VideoMetric, policy PatternPolicy) *UploadCadence {
	if len(videos) < 2 {
		return nil
	}
	loc := policy.location()
	c := &UploadCadence{Weekdays: make(map[string]int, 7)}

	var total time.Duration
	for i, v := range videos {
		c.Weekdays[v.PublishedAt.In(loc).Weekday().String()]++
		if i > 0 {
			total += v.PublishedAt.Sub(videos[i-1].PublishedAt)
		}
	}
	c.AvgIntervalDays = roundTo2Decimals(total.Hours() / 24 / float64(len(videos)-1))
	c.Frequency = uploadFrequency(c.AvgIntervalDays)
	return c
}

func uploadFrequency(avgDays float64) string {
	switch {
	case avgDays < 2:
		return FrequencyDaily
	case avgDays < 4:
		return FrequencySeveralPerWeek
	case avgDays < 8:
		return FrequencyWeekly
	case avgDays < 15:
		return FrequencyBiweekly
	default:
		return FrequencyMonthly
	}
}

// trend splits videos (sorted ascending) into an older and a newer half.
func trend(videos []VideoMetric, policy PatternPolicy) *Trend {
	if len(videos) < policy.TrendMinVideos || len(videos) < 2 {
		return nil
	}
	mid := len(videos) / 2
	older, recent := videos[:mid], videos[mid:]

	olderViews, olderEng := means(older)
	recentViews, recentEng := means(recent)

	t := &Trend{
		RecentMeanViews:     roundTo2Decimals(recentViews),
		OlderMeanViews:      roundTo2Decimals(olderViews),
		ViewsChangePct:      roundTo2Decimals(percentChange(olderViews, recentViews)),
		EngagementChangePct: roundTo2Decimals(percentChange(olderEng, recentEng)),
	}
	switch {
	case t.ViewsChangePct > policy.TrendBandPercent:
		t.Direction = TrendRising
	case t.ViewsChangePct < -policy.TrendBandPercent:
		t.Direction = TrendFalling
	default:
		t.Direction = TrendStable
	}
	return t
}

func means(videos []VideoMetric) (views, engagement float64) {
	if len(videos) == 0 {
		return 0, 0
	}
	for _, v := range videos {
		views += float64(v.Views)
		engagement += v.EngagementRate
	}
	n := float64(len(videos))
	return views / n, engagement / n
}

func percentChange(from, to float64) float64 {
	if from == 0 {
		if to == 0 {
			return 0
		}
		return 100
	}
	return (to - from) / from * 100
}
