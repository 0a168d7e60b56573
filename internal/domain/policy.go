package domain

import (
	"math"
	"time"
)

// ScoringPolicy holds the tunable constants of the algorithm score.
type ScoringPolicy struct {
	ViewWeight        float64 // weight of views relative to channel mean
	EngagementWeight  float64 // weight of (likes+comments)/views
	RecencyWeight     float64 // weight of linear recency decay
	ViewCapMultiplier float64 // viewScore saturates at mean views × this
	EngagementCeiling float64 // engagement rate treated as 100%
	RecencyWindowDays float64 // age at which recencyScore reaches 0
}

// ClassificationPolicy holds the tier thresholds.
type ClassificationPolicy struct {
	ViralPercentile   float64
	HitPercentile     float64
	AveragePercentile float64

	// Below MinSampleSize videos the fixed cutoffs apply instead of percentiles.
	MinSampleSize   int
	FallbackViral   float64
	FallbackHit     float64
	FallbackAverage float64
}

// PatternPolicy controls attribute bucketing and report size.
type PatternPolicy struct {
	TopN             int
	ShortMaxSeconds  int64
	MediumMaxSeconds int64
	TitleShortRunes  int
	TitleLongRunes   int
	TrendMinVideos   int
	TrendBandPercent float64
	Location         *time.Location
}

// ComparisonPolicy controls rank bands and strategy labels.
type ComparisonPolicy struct {
	EvenBand          float64 // |relative diff| at or below this is "even"
	ViralDrivenRate   float64
	FandomEngagement  float64
	TrafficDailyViews float64
}

// RecommendationPolicy controls rule output.
type RecommendationPolicy struct {
	MaxRecommendations int
	StrongConfidence   float64 // minimum pattern confidence a rule acts on
}

// Policy bundles every tunable constant of the engine.
type Policy struct {
	// WindowDays limits analysis to videos published within this many days.
	// 0 means no limit.
	WindowDays     int
	Scoring        ScoringPolicy
	Classification ClassificationPolicy
	Pattern        PatternPolicy
	Comparison     ComparisonPolicy
	Recommendation RecommendationPolicy
}

// DefaultPolicy returns the stock engine configuration.
func DefaultPolicy() Policy {
	return Policy{
		Scoring: ScoringPolicy{
			ViewWeight:        0.5,
			EngagementWeight:  0.3,
			RecencyWeight:     0.2,
			ViewCapMultiplier: 3,
			EngagementCeiling: 0.10,
			RecencyWindowDays: 365,
		},
		Classification: ClassificationPolicy{
			ViralPercentile:   90,
			HitPercentile:     70,
			AveragePercentile: 30,
			MinSampleSize:     5,
			FallbackViral:     70,
			FallbackHit:       50,
			FallbackAverage:   30,
		},
		Pattern: PatternPolicy{
			TopN:             5,
			ShortMaxSeconds:  300,
			MediumMaxSeconds: 1200,
			TitleShortRunes:  30,
			TitleLongRunes:   50,
			TrendMinVideos:   10,
			TrendBandPercent: 10,
			Location:         time.UTC,
		},
		Comparison: ComparisonPolicy{
			EvenBand:          0.05,
			ViralDrivenRate:   0.20,
			FandomEngagement:  0.08,
			TrafficDailyViews: 1000,
		},
		Recommendation: RecommendationPolicy{
			MaxRecommendations: 5,
			StrongConfidence:   0.5,
		},
	}
}

// Validate rejects policies that would break score bounds or tier ordering.
func (p Policy) Validate() error {
	const op = "policy"
	s := p.Scoring
	if s.ViewWeight < 0 || s.EngagementWeight < 0 || s.RecencyWeight < 0 {
		return newValidationError(op, "scoring weights must be non-negative")
	}
	if sum := s.ViewWeight + s.EngagementWeight + s.RecencyWeight; math.Abs(sum-1) > 1e-6 {
		return newValidationError(op, "scoring weights must sum to 1, got %.4f", sum)
	}
	if s.ViewCapMultiplier <= 0 || s.EngagementCeiling <= 0 || s.RecencyWindowDays <= 0 {
		return newValidationError(op, "scoring caps must be positive")
	}

	c := p.Classification
	if !(0 < c.AveragePercentile && c.AveragePercentile < c.HitPercentile &&
		c.HitPercentile < c.ViralPercentile && c.ViralPercentile <= 100) {
		return newValidationError(op, "percentiles must satisfy 0 < average < hit < viral <= 100")
	}
	if !(c.FallbackAverage < c.FallbackHit && c.FallbackHit < c.FallbackViral) {
		return newValidationError(op, "fallback cutoffs must satisfy average < hit < viral")
	}
	if c.MinSampleSize < 1 {
		return newValidationError(op, "min sample size must be at least 1")
	}

	pt := p.Pattern
	if pt.TopN < 1 {
		return newValidationError(op, "pattern top_n must be at least 1")
	}
	if pt.ShortMaxSeconds <= 0 || pt.MediumMaxSeconds <= pt.ShortMaxSeconds {
		return newValidationError(op, "duration buckets must satisfy 0 < short < medium")
	}
	if pt.TitleShortRunes <= 0 || pt.TitleLongRunes < pt.TitleShortRunes {
		return newValidationError(op, "title length buckets must satisfy 0 < short <= long")
	}

	if p.Comparison.EvenBand < 0 {
		return newValidationError(op, "even band must be non-negative")
	}
	if p.Recommendation.MaxRecommendations < 1 {
		return newValidationError(op, "max recommendations must be at least 1")
	}
	if p.WindowDays < 0 {
		return newValidationError(op, "window days must be non-negative")
	}
	return nil
}

func (p PatternPolicy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
