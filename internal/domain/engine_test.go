package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func syntheticRecords(prefix string, n int, baseViews int) []RawRecord {
	records := make([]RawRecord, n)
	for i := 0; i < n; i++ {
		views := baseViews + i*baseViews/10
		records[i] = RawRecord{
			"id":           fmt.Sprintf("%s-%02d", prefix, i),
			"title":        fmt.Sprintf("Episode %d", i),
			"published_at": testNow.AddDate(0, 0, -3*(n-i)).Format(time.RFC3339),
			"duration":     fmt.Sprintf("PT%dM", 3+i%20),
			"views":        views,
			"likes":        views / 25,
			"comments":     views / 100,
		}
	}
	return records
}

func newTestEngine(t *testing.T, policy Policy) *Engine {
	t.Helper()
	e, err := NewEngine(policy, WithClock(func() time.Time { return testNow }))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestEngine_Analyze(t *testing.T) {
	e := newTestEngine(t, DefaultPolicy())
	records := append(syntheticRecords("v", 20, 1000), RawRecord{"id": "broken"})

	a, err := e.Analyze("chan", records)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if a.Diagnostics.InputRecords != 21 || a.Diagnostics.Skipped != 1 {
		t.Errorf("Diagnostics = %+v, want 21 input, 1 skipped", a.Diagnostics)
	}
	if a.Snapshot.VideoCount() != 20 {
		t.Errorf("VideoCount = %d, want 20", a.Snapshot.VideoCount())
	}
	if a.Snapshot.Tiers.Total() != a.Snapshot.VideoCount() {
		t.Errorf("tier total %d != video count %d", a.Snapshot.Tiers.Total(), a.Snapshot.VideoCount())
	}
	if a.Thresholds.Method != ThresholdPercentile {
		t.Errorf("Method = %s, want percentile", a.Thresholds.Method)
	}
	for _, v := range a.Snapshot.Videos {
		if v.AlgorithmScore < 0 || v.AlgorithmScore > 100 || !v.Tier.IsValid() {
			t.Errorf("video %s: score %v tier %q", v.ID, v.AlgorithmScore, v.Tier)
		}
	}
	if a.Patterns == nil || a.Patterns.Trend == nil || a.Patterns.Trend.Direction != TrendRising {
		t.Errorf("Trend = %+v, want rising", a.Patterns.Trend)
	}
}

func TestEngine_AnalyzeEmpty(t *testing.T) {
	e := newTestEngine(t, DefaultPolicy())

	_, err := e.Analyze("chan", nil)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Analyze(nil) error = %v, want *ValidationError", err)
	}
}

func TestEngine_AnalyzeMetricsIgnoresStaleDerivedFields(t *testing.T) {
	e := newTestEngine(t, DefaultPolicy())
	norm := Normalize(syntheticRecords("v", 6, 500))
	for i := range norm.Metrics {
		norm.Metrics[i].AlgorithmScore = 99
		norm.Metrics[i].Tier = TierViral
	}

	a, err := e.AnalyzeMetrics("chan", norm.Metrics, Diagnostics{})
	if err != nil {
		t.Fatalf("AnalyzeMetrics() error = %v", err)
	}
	if a.Snapshot.Tiers.Viral == 6 {
		t.Errorf("stale tiers were kept: %+v", a.Snapshot.Tiers)
	}
	if a.Diagnostics.InputRecords != 6 {
		t.Errorf("InputRecords = %d, want 6", a.Diagnostics.InputRecords)
	}
}

func TestEngine_Window(t *testing.T) {
	policy := DefaultPolicy()
	policy.WindowDays = 30
	e := newTestEngine(t, policy)

	a, err := e.Analyze("chan", syntheticRecords("v", 20, 1000))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	// Uploads every 3 days: only the last 10 fall within 30 days.
	if a.Snapshot.VideoCount() != 10 || a.Diagnostics.OutsideWindow != 10 {
		t.Errorf("VideoCount = %d, OutsideWindow = %d, want 10/10", a.Snapshot.VideoCount(), a.Diagnostics.OutsideWindow)
	}
}

func TestEngine_Compare(t *testing.T) {
	e := newTestEngine(t, DefaultPolicy())

	self, err := e.Analyze("self", syntheticRecords("s", 12, 500))
	if err != nil {
		t.Fatalf("Analyze(self) error = %v", err)
	}
	rival, err := e.Analyze("rival", syntheticRecords("r", 12, 5000))
	if err != nil {
		t.Fatalf("Analyze(rival) error = %v", err)
	}

	report, err := e.Compare(self, rival)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	views, _ := report.Metric(MetricMeanViews)
	if views.Rank != RankBehind {
		t.Errorf("mean_views rank = %s, want behind", views.Rank)
	}
	if len(report.Recommendations) == 0 {
		t.Error("no recommendations for a channel that is behind")
	}

	again, _ := e.Compare(self, rival)
	if fmt.Sprint(again.Recommendations) != fmt.Sprint(report.Recommendations) {
		t.Error("Compare() recommendations differ between runs")
	}

	if _, err := e.Compare(self, nil); !IsValidationError(err) {
		t.Errorf("Compare(self, nil) error = %v, want ValidationError", err)
	}

	rankings, err := e.Rank(self, []*ChannelAnalysis{rival})
	if err != nil || len(rankings) != 5 {
		t.Errorf("Rank() = %v, %v", rankings, err)
	}
}

func TestNewEngine_RejectsBadPolicy(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
	}{
		{"weights", func(p *Policy) { p.Scoring.ViewWeight = 0.9 }},
		{"engagement ceiling", func(p *Policy) { p.Scoring.EngagementCeiling = 0 }},
		{"percentile order", func(p *Policy) { p.Classification.HitPercentile = 95 }},
		{"fallback order", func(p *Policy) { p.Classification.FallbackHit = 80 }},
		{"top n", func(p *Policy) { p.Pattern.TopN = 0 }},
		{"max recommendations", func(p *Policy) { p.Recommendation.MaxRecommendations = 0 }},
		{"window", func(p *Policy) { p.WindowDays = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			if _, err := NewEngine(p); !IsValidationError(err) {
				t.Errorf("NewEngine() error = %v, want ValidationError", err)
			}
		})
	}
}
