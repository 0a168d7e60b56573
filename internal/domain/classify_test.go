package domain

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"
)

func scoredVideos(scores ...float64) []VideoMetric {
	out := make([]VideoMetric, len(scores))
	for i, s := range scores {
		out[i] = VideoMetric{
			ID:             string(rune('a' + i)),
			PublishedAt:    testNow.AddDate(0, 0, -i),
			AlgorithmScore: s,
		}
	}
	return out
}

func TestClassify_EmptyInput(t *testing.T) {
	_, err := Classify(nil, DefaultPolicy().Classification)
	if !IsValidationError(err) {
		t.Fatalf("Classify(nil) error = %v, want ValidationError", err)
	}
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("errors.Is(err, ErrInvalidSnapshot) = false")
	}
}

func TestClassify_FallbackBoundary(t *testing.T) {
	policy := DefaultPolicy().Classification

	tests := []struct {
		name     string
		scores   []float64
		method   ThresholdMethod
		expected []Tier
	}{
		{
			name:     "four videos use fixed cutoffs",
			scores:   []float64{70, 50, 30, 29.99},
			method:   ThresholdFallback,
			expected: []Tier{TierViral, TierHit, TierAverage, TierUnderperforming},
		},
		{
			name:     "five videos use percentiles",
			scores:   []float64{10, 20, 30, 40, 50},
			method:   ThresholdPercentile,
			expected: []Tier{TierUnderperforming, TierUnderperforming, TierAverage, TierHit, TierViral},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Classify(scoredVideos(tt.scores...), policy)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if res.Thresholds.Method != tt.method {
				t.Errorf("Method = %q, want %q", res.Thresholds.Method, tt.method)
			}
			for i, m := range res.Metrics {
				if m.Tier != tt.expected[i] {
					t.Errorf("score %v: tier = %s, want %s", m.AlgorithmScore, m.Tier, tt.expected[i])
				}
			}
		})
	}
}

func TestClassify_OutlierIsViral(t *testing.T) {
	records := make([]RawRecord, 10)
	for i := range records {
		views := 100
		if i == 9 {
			views = 10000
		}
		records[i] = RawRecord{
			"id":           string(rune('a' + i)),
			"published_at": testNow.AddDate(0, 0, -1),
			"views":        views,
			"likes":        0,
			"comments":     0,
		}
	}
	norm := Normalize(records)
	stats := ComputeReferenceStats(norm.Metrics)
	scored := Score(norm.Metrics, stats, DefaultPolicy().Scoring, testNow)

	res, err := Classify(scored, DefaultPolicy().Classification)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	for _, m := range res.Metrics {
		if m.ID == "j" && m.Tier != TierViral {
			t.Errorf("outlier tier = %s, want VIRAL", m.Tier)
		}
		if m.ID != "j" && m.Tier == TierViral {
			t.Errorf("video %s tier = VIRAL, want lower", m.ID)
		}
	}
	if res.Counts.Viral != 1 {
		t.Errorf("Counts.Viral = %d, want 1", res.Counts.Viral)
	}
}

func TestClassify_FlatDistribution(t *testing.T) {
	res, err := Classify(scoredVideos(42, 42, 42, 42, 42, 42), DefaultPolicy().Classification)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if res.Thresholds.Method != ThresholdFlat {
		t.Errorf("Method = %q, want flat", res.Thresholds.Method)
	}
	if res.Counts.Average != 6 {
		t.Errorf("Counts = %+v, want all AVERAGE", res.Counts)
	}
}

func TestClassify_ExcludesInvalid(t *testing.T) {
	videos := scoredVideos(10, 20, 30, 40, 50, 60)
	videos[0].AlgorithmScore = math.NaN()
	videos[1].AlgorithmScore = 150
	videos[2].PublishedAt = time.Time{}

	res, err := Classify(videos, DefaultPolicy().Classification)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if res.Excluded != 3 {
		t.Errorf("Excluded = %d, want 3", res.Excluded)
	}
	if res.Counts.Total() != len(res.Metrics) {
		t.Errorf("Counts.Total() = %d, want %d", res.Counts.Total(), len(res.Metrics))
	}

	allBad := scoredVideos(-1, 101)
	if _, err := Classify(allBad, DefaultPolicy().Classification); !IsValidationError(err) {
		t.Errorf("Classify(all invalid) error = %v, want ValidationError", err)
	}
}

func TestClassify_MonotonicAndComplete(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	policy := DefaultPolicy().Classification

	for round := 0; round < 200; round++ {
		n := 1 + rng.Intn(60)
		scores := make([]float64, n)
		for i := range scores {
			// Coarse values so ties are common.
			scores[i] = float64(rng.Intn(20)) * 5
		}
		res, err := Classify(scoredVideos(scores...), policy)
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		if res.Counts.Total() != n {
			t.Fatalf("Counts.Total() = %d, want %d", res.Counts.Total(), n)
		}
		for _, a := range res.Metrics {
			if !a.Tier.IsValid() {
				t.Fatalf("video %s has no tier", a.ID)
			}
			for _, b := range res.Metrics {
				if a.AlgorithmScore > b.AlgorithmScore && a.Tier.Rank() < b.Tier.Rank() {
					t.Fatalf("score %v tier %s ranks below score %v tier %s",
						a.AlgorithmScore, a.Tier, b.AlgorithmScore, b.Tier)
				}
				if a.AlgorithmScore == b.AlgorithmScore && a.Tier != b.Tier {
					t.Fatalf("equal scores %v got tiers %s and %s", a.AlgorithmScore, a.Tier, b.Tier)
				}
			}
		}
	}
}

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}

	tests := []struct {
		p        float64
		expected float64
	}{
		{0, 10},
		{30, 22},
		{50, 30},
		{70, 38},
		{90, 46},
		{100, 50},
	}
	for _, tt := range tests {
		if got := Percentile(sorted, tt.p); math.Abs(got-tt.expected) > floatTolerance {
			t.Errorf("Percentile(%v) = %v, want %v", tt.p, got, tt.expected)
		}
	}
	if got := Percentile(nil, 50); got != 0 {
		t.Errorf("Percentile(nil) = %v, want 0", got)
	}
}
