package domain

import (
	"math"
	"sort"
	"time"
)

// Window is the publish-time span covered by a snapshot.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the window length in fractional days.
func (w Window) Days() float64 {
	if w.Start.IsZero() || w.End.Before(w.Start) {
		return 0
	}
	return w.End.Sub(w.Start).Hours() / 24
}

// ChannelSnapshot is one channel's classified videos at one analysis time,
// ordered by PublishedAt, with channel-level aggregates.
// Tiers.Total() always equals len(Videos).
type ChannelSnapshot struct {
	ChannelID          string        `json:"channel_id"`
	Videos             []VideoMetric `json:"videos"`
	MeanViews          float64       `json:"mean_views"`
	MeanEngagement     float64       `json:"mean_engagement"`
	MeanAlgorithmScore float64       `json:"mean_algorithm_score"`
	MeanViewVelocity   float64       `json:"mean_view_velocity"`
	TotalViews         int64         `json:"total_views"`
	Tiers              TierCounts    `json:"tiers"`
	Window             Window        `json:"window"`
	AnalyzedAt         time.Time     `json:"analyzed_at"`
}

// NewChannelSnapshot builds a snapshot from classified videos. The slice is
// copied and stably sorted by publish time.
func NewChannelSnapshot(channelID string, videos []VideoMetric, analyzedAt time.Time) *ChannelSnapshot {
	s := &ChannelSnapshot{
		ChannelID:  channelID,
		Videos:     make([]VideoMetric, len(videos)),
		AnalyzedAt: analyzedAt,
	}
	copy(s.Videos, videos)
	sort.SliceStable(s.Videos, func(a, b int) bool {
		return s.Videos[a].PublishedAt.Before(s.Videos[b].PublishedAt)
	})

	if len(s.Videos) == 0 {
		return s
	}

	var views, engagement, score, velocity float64
	for _, v := range s.Videos {
		views += float64(v.Views)
		s.TotalViews = saturatingAdd(s.TotalViews, v.Views)
		engagement += v.EngagementRate
		score += v.AlgorithmScore
		velocity += v.ViewVelocity(analyzedAt)
		s.Tiers.Add(v.Tier)
	}
	n := float64(len(s.Videos))
	s.MeanViews = views / n
	s.MeanEngagement = engagement / n
	s.MeanAlgorithmScore = score / n
	s.MeanViewVelocity = velocity / n
	s.Window = Window{Start: s.Videos[0].PublishedAt, End: s.Videos[len(s.Videos)-1].PublishedAt}
	return s
}

// saturatingAdd adds non-negative counts, stopping at math.MaxInt64.
func saturatingAdd(a, b int64) int64 {
	if b > math.MaxInt64-a {
		return math.MaxInt64
	}
	return a + b
}

// VideoCount returns the number of videos in the snapshot.
func (s *ChannelSnapshot) VideoCount() int {
	if s == nil {
		return 0
	}
	return len(s.Videos)
}

// IsEmpty returns true for nil or video-less snapshots.
func (s *ChannelSnapshot) IsEmpty() bool {
	return s.VideoCount() == 0
}

// SuccessRate is the share of VIRAL and HIT videos.
func (s *ChannelSnapshot) SuccessRate() float64 {
	if s.IsEmpty() {
		return 0
	}
	return float64(s.Tiers.Viral+s.Tiers.Hit) / float64(len(s.Videos))
}

// ViralRate is the share of VIRAL videos.
func (s *ChannelSnapshot) ViralRate() float64 {
	if s.IsEmpty() {
		return 0
	}
	return float64(s.Tiers.Viral) / float64(len(s.Videos))
}

// ByTier returns the videos with the given tier, in snapshot order.
func (s *ChannelSnapshot) ByTier(tiers ...Tier) []VideoMetric {
	if s == nil {
		return nil
	}
	var out []VideoMetric
	for _, v := range s.Videos {
		for _, t := range tiers {
			if v.Tier == t {
				out = append(out, v)
				break
			}
		}
	}
	return out
}

// TopVideos returns up to n videos by descending score. Ties keep publish order.
func (s *ChannelSnapshot) TopVideos(n int) []VideoMetric {
	if s == nil || n <= 0 {
		return nil
	}
	out := make([]VideoMetric, len(s.Videos))
	copy(out, s.Videos)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].AlgorithmScore > out[b].AlgorithmScore
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
