// Package domain contains the analytics engine and its entities.
// This package has no external dependencies (only stdlib).
package domain

import (
	"time"
)

// Tier is a video's performance class relative to its own channel.
type Tier string

const (
	TierViral           Tier = "VIRAL"
	TierHit             Tier = "HIT"
	TierAverage         Tier = "AVERAGE"
	TierUnderperforming Tier = "UNDERPERFORMING"
)

// AllTiers lists tiers from highest to lowest.
var AllTiers = []Tier{TierViral, TierHit, TierAverage, TierUnderperforming}

// Rank orders tiers: VIRAL(3) > HIT(2) > AVERAGE(1) > UNDERPERFORMING(0).
// Unknown tiers rank -1.
func (t Tier) Rank() int {
	switch t {
	case TierViral:
		return 3
	case TierHit:
		return 2
	case TierAverage:
		return 1
	case TierUnderperforming:
		return 0
	default:
		return -1
	}
}

// IsValid reports whether t is one of the four known tiers.
func (t Tier) IsValid() bool {
	return t.Rank() >= 0
}

// IsSuccess returns true for VIRAL and HIT.
func (t Tier) IsSuccess() bool {
	return t == TierViral || t == TierHit
}

// RawRecord is an untyped per-video row as delivered by a metrics provider.
// Recognized keys: id, title, tags, published_at, duration, views, likes, comments.
type RawRecord map[string]any

// VideoMetric holds one video's raw stats plus the fields derived from them.
// EngagementRate, AlgorithmScore and Tier are recomputed on every analysis
// and never stored.
type VideoMetric struct {
	// Raw fields
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Tags            []string  `json:"tags,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
	DurationSeconds int64     `json:"duration_seconds"`
	Views           int64     `json:"views"`
	Likes           int64     `json:"likes"`
	Comments        int64     `json:"comments"`

	// Derived fields
	EngagementRate float64 `json:"engagement_rate"`
	AlgorithmScore float64 `json:"algorithm_score"`
	Tier           Tier    `json:"tier,omitempty"`
}

// Interactions returns likes + comments.
func (v VideoMetric) Interactions() int64 {
	return v.Likes + v.Comments
}

// DaysSincePublished returns fractional days between publish time and now.
// Future publish times count as 0.
func (v VideoMetric) DaysSincePublished(now time.Time) float64 {
	if v.PublishedAt.IsZero() || !now.After(v.PublishedAt) {
		return 0
	}
	return now.Sub(v.PublishedAt).Hours() / 24
}

// ViewVelocity returns views per day since publish, with a one day floor.
func (v VideoMetric) ViewVelocity(now time.Time) float64 {
	days := v.DaysSincePublished(now)
	if days < 1 {
		days = 1
	}
	return float64(v.Views) / days
}

// RawOnly returns a copy with derived fields cleared.
func (v VideoMetric) RawOnly() VideoMetric {
	v.EngagementRate = 0
	v.AlgorithmScore = 0
	v.Tier = ""
	if v.Tags != nil {
		v.Tags = append([]string(nil), v.Tags...)
	}
	return v
}

// ChannelInfo is channel-level metadata returned by a metrics provider.
type ChannelInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subscribers int64  `json:"subscribers"`
	TotalViews  int64  `json:"total_views"`
	VideoCount  int64  `json:"video_count"`
}

// ChannelFeed is everything a provider returns for one channel.
type ChannelFeed struct {
	Channel   ChannelInfo `json:"channel"`
	Records   []RawRecord `json:"records"`
	FetchedAt time.Time   `json:"fetched_at"`
}

// TrackedChannel is a channel registered for analysis.
type TrackedChannel struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Subscribers     int64      `json:"subscribers"`
	Competitor      bool       `json:"competitor"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NewTrackedChannel creates a TrackedChannel with timestamps set.
func NewTrackedChannel(id, title string, competitor bool) *TrackedChannel {
	now := time.Now().UTC()
	return &TrackedChannel{
		ID:         id,
		Title:      title,
		Competitor: competitor,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
