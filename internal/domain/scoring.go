package domain

import (
	"math"
	"time"
)

// ReferenceStats are channel-wide baselines shared by every Scorer call for
// one channel. Compute them once with ComputeReferenceStats and pass by value.
type ReferenceStats struct {
	MeanViews      float64 `json:"mean_views"`
	MeanEngagement float64 `json:"mean_engagement"`
	VideoCount     int     `json:"video_count"`
}

// ComputeReferenceStats averages views and engagement over the analysis set.
func ComputeReferenceStats(metrics []VideoMetric) ReferenceStats {
	if len(metrics) == 0 {
		return ReferenceStats{}
	}
	var views, engagement float64
	for _, m := range metrics {
		views += float64(m.Views)
		engagement += EngagementRate(m.Likes, m.Comments, m.Views)
	}
	n := float64(len(metrics))
	return ReferenceStats{
		MeanViews:      views / n,
		MeanEngagement: engagement / n,
		VideoCount:     len(metrics),
	}
}

// EngagementRate returns (likes+comments)/views, or 0 when views is 0.
func EngagementRate(likes, comments, views int64) float64 {
	if views <= 0 {
		return 0
	}
	return float64(likes+comments) / float64(views)
}

// SubScores are the three normalized components of the algorithm score,
// each clamped to [0,1].
type SubScores struct {
	View       float64 `json:"view"`
	Engagement float64 `json:"engagement"`
	Recency    float64 `json:"recency"`
}

// ComputeSubScores evaluates the score components for one video.
//
//	viewScore       = min(views / (meanViews × ViewCapMultiplier), 1), 0 if meanViews = 0
//	engagementScore = min(engagementRate / EngagementCeiling, 1)
//	recencyScore    = max(0, 1 − daysSincePublish / RecencyWindowDays)
func (p ScoringPolicy) ComputeSubScores(v VideoMetric, stats ReferenceStats, now time.Time) SubScores {
	var s SubScores

	if viewCap := stats.MeanViews * p.ViewCapMultiplier; viewCap > 0 {
		s.View = clamp01(float64(v.Views) / viewCap)
	}
	if p.EngagementCeiling > 0 {
		s.Engagement = clamp01(EngagementRate(v.Likes, v.Comments, v.Views) / p.EngagementCeiling)
	}
	if p.RecencyWindowDays > 0 {
		s.Recency = clamp01(1 - v.DaysSincePublished(now)/p.RecencyWindowDays)
	}
	return s
}

// AlgorithmScore computes the composite score in [0,100].
//
// Formula:
//
//	algorithmScore = 100 × (ViewWeight×view + EngagementWeight×engagement + RecencyWeight×recency)
//
// Defaults: weights 0.5/0.3/0.2, view cap 3× channel mean, engagement
// ceiling 10%, recency window 365 days.
func (p ScoringPolicy) AlgorithmScore(v VideoMetric, stats ReferenceStats, now time.Time) float64 {
	s := p.ComputeSubScores(v, stats, now)
	score := 100 * (p.ViewWeight*s.View + p.EngagementWeight*s.Engagement + p.RecencyWeight*s.Recency)
	return clamp(roundTo2Decimals(score), 0, 100)
}

// Score fills EngagementRate and AlgorithmScore on copies of metrics.
// The input slice is not modified.
func Score(metrics []VideoMetric, stats ReferenceStats, policy ScoringPolicy, now time.Time) []VideoMetric {
	out := make([]VideoMetric, len(metrics))
	for i, m := range metrics {
		m.EngagementRate = EngagementRate(m.Likes, m.Comments, m.Views)
		m.AlgorithmScore = policy.AlgorithmScore(m, stats, now)
		m.Tier = ""
		out[i] = m
	}
	return out
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v):
		return lo
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}

// roundTo2Decimals rounds a float to 2 decimal places.
func roundTo2Decimals(value float64) float64 {
	return math.Round(value*100) / 100
}
