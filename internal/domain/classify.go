package domain

import (
	"math"
	"sort"
)

// ThresholdMethod records how tier cutoffs were derived.
type ThresholdMethod string

const (
	ThresholdPercentile ThresholdMethod = "percentile"
	ThresholdFallback   ThresholdMethod = "fallback"
	ThresholdFlat       ThresholdMethod = "flat"
)

// Thresholds are the score cutoffs used for one classification run.
type Thresholds struct {
	Method  ThresholdMethod `json:"method"`
	Viral   float64         `json:"viral"`
	Hit     float64         `json:"hit"`
	Average float64         `json:"average"`
}

// TierOf maps a score onto a tier. It is monotonic in score.
func (t Thresholds) TierOf(score float64) Tier {
	if t.Method == ThresholdFlat {
		return TierAverage
	}
	switch {
	case score >= t.Viral:
		return TierViral
	case score >= t.Hit:
		return TierHit
	case score >= t.Average:
		return TierAverage
	default:
		return TierUnderperforming
	}
}

// TierCounts is the tier distribution of a video set.
type TierCounts struct {
	Viral           int `json:"viral"`
	Hit             int `json:"hit"`
	Average         int `json:"average"`
	Underperforming int `json:"underperforming"`
}

// Add increments the counter for t. Unknown tiers are ignored.
func (c *TierCounts) Add(t Tier) {
	switch t {
	case TierViral:
		c.Viral++
	case TierHit:
		c.Hit++
	case TierAverage:
		c.Average++
	case TierUnderperforming:
		c.Underperforming++
	}
}

// Get returns the count for t.
func (c TierCounts) Get(t Tier) int {
	switch t {
	case TierViral:
		return c.Viral
	case TierHit:
		return c.Hit
	case TierAverage:
		return c.Average
	case TierUnderperforming:
		return c.Underperforming
	default:
		return 0
	}
}

// Total returns the sum over all tiers.
func (c TierCounts) Total() int {
	return c.Viral + c.Hit + c.Average + c.Underperforming
}

// ClassifyResult holds the classified videos and what was left out.
type ClassifyResult struct {
	Metrics    []VideoMetric
	Excluded   int
	Thresholds Thresholds
	Counts     TierCounts
}

// Classify assigns a tier to every scored video using thresholds derived
// from the channel's own score distribution.
//
// With at least MinSampleSize videos:
//
//	VIRAL            score >= P(ViralPercentile)
//	HIT              P(HitPercentile) <= score < P(ViralPercentile)
//	AVERAGE          P(AveragePercentile) <= score < P(HitPercentile)
//	UNDERPERFORMING  score < P(AveragePercentile)
//
// Below MinSampleSize the fixed Fallback* cutoffs are used. When every score
// is equal all videos are AVERAGE. Videos with a score outside [0,100] or no
// publish time are excluded and counted.
func Classify(metrics []VideoMetric, policy ClassificationPolicy) (*ClassifyResult, error) {
	const op = "classify"
	if len(metrics) == 0 {
		return nil, newValidationError(op, "channel has no videos")
	}

	res := &ClassifyResult{Metrics: make([]VideoMetric, 0, len(metrics))}
	for _, m := range metrics {
		if !classifiable(m) {
			res.Excluded++
			continue
		}
		res.Metrics = append(res.Metrics, m)
	}
	if len(res.Metrics) == 0 {
		return nil, newValidationError(op, "no classifiable videos (%d excluded)", res.Excluded)
	}

	res.Thresholds = ComputeThresholds(res.Metrics, policy)
	for i := range res.Metrics {
		res.Metrics[i].Tier = res.Thresholds.TierOf(res.Metrics[i].AlgorithmScore)
		res.Counts.Add(res.Metrics[i].Tier)
	}
	return res, nil
}

// ComputeThresholds derives tier cutoffs for a set of scored videos.
func ComputeThresholds(metrics []VideoMetric, policy ClassificationPolicy) Thresholds {
	if len(metrics) < policy.MinSampleSize {
		return Thresholds{
			Method:  ThresholdFallback,
			Viral:   policy.FallbackViral,
			Hit:     policy.FallbackHit,
			Average: policy.FallbackAverage,
		}
	}

	scores := make([]float64, len(metrics))
	for i, m := range metrics {
		scores[i] = m.AlgorithmScore
	}
	sort.Float64s(scores)

	if scores[0] == scores[len(scores)-1] {
		return Thresholds{Method: ThresholdFlat, Viral: scores[0], Hit: scores[0], Average: scores[0]}
	}
	return Thresholds{
		Method:  ThresholdPercentile,
		Viral:   Percentile(scores, policy.ViralPercentile),
		Hit:     Percentile(scores, policy.HitPercentile),
		Average: Percentile(scores, policy.AveragePercentile),
	}
}

// Percentile returns the p-th percentile (0-100) of an ascending slice using
// linear interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 || p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[n-1]
	}
	pos := p / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func classifiable(m VideoMetric) bool {
	s := m.AlgorithmScore
	return !m.PublishedAt.IsZero() && !math.IsNaN(s) && !math.IsInf(s, 0) && s >= 0 && s <= 100
}
