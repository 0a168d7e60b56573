package domain

import (
	"time"
)

// ChannelAnalysis is the full engine output for one channel.
type ChannelAnalysis struct {
	ChannelID       string           `json:"channel_id"`
	Snapshot        *ChannelSnapshot `json:"snapshot"`
	Patterns        *PatternReport   `json:"patterns"`
	Stats           ReferenceStats   `json:"stats"`
	Thresholds      Thresholds       `json:"thresholds"`
	Strategy        ContentStrategy  `json:"strategy"`
	Recommendations []Recommendation `json:"recommendations"`
	Diagnostics     Diagnostics      `json:"diagnostics"`
}

// Engine runs the analysis pipeline with a fixed policy and rule table.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	policy Policy
	rules  []Rule
	now    func() time.Time
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithClock overrides the time source used for recency and velocity.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRules replaces the default recommendation rules.
func WithRules(rules []Rule) EngineOption {
	return func(e *Engine) {
		e.rules = rules
	}
}

// NewEngine validates policy and builds an Engine.
func NewEngine(policy Policy, opts ...EngineOption) (*Engine, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		policy: policy,
		rules:  DefaultRules(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Policy returns the engine's policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Analyze runs the full pipeline on raw provider rows.
func (e *Engine) Analyze(channelID string, records []RawRecord) (*ChannelAnalysis, error) {
	norm := Normalize(records)
	diag := Diagnostics{
		InputRecords: len(records),
		Skipped:      norm.Skipped,
		Warnings:     norm.Warnings,
	}
	return e.AnalyzeMetrics(channelID, norm.Metrics, diag)
}

// AnalyzeMetrics runs scoring onward on already-normalized metrics. Derived
// fields on the input are discarded and recomputed. diag carries counts from
// earlier stages and is extended.
func (e *Engine) AnalyzeMetrics(channelID string, metrics []VideoMetric, diag Diagnostics) (*ChannelAnalysis, error) {
	now := e.now()
	if diag.InputRecords == 0 {
		diag.InputRecords = len(metrics)
	}

	raw := make([]VideoMetric, len(metrics))
	for i, m := range metrics {
		raw[i] = m.RawOnly()
	}
	raw, diag.OutsideWindow = FilterWindow(raw, e.windowStart(now))

	stats := ComputeReferenceStats(raw)
	scored := Score(raw, stats, e.policy.Scoring, now)

	classified, err := Classify(scored, e.policy.Classification)
	if err != nil {
		return nil, err
	}
	diag.Excluded = classified.Excluded
	diag.Classified = len(classified.Metrics)

	snapshot := NewChannelSnapshot(channelID, classified.Metrics, now)
	patterns := AnalyzePatterns(snapshot, e.policy.Pattern)

	return &ChannelAnalysis{
		ChannelID:       channelID,
		Snapshot:        snapshot,
		Patterns:        patterns,
		Stats:           stats,
		Thresholds:      classified.Thresholds,
		Strategy:        ClassifyStrategy(snapshot, e.policy.Comparison),
		Recommendations: RecommendWithRules(e.rules, patterns, nil, e.policy.Recommendation),
		Diagnostics:     diag,
	}, nil
}

// Compare builds a comparison report between two analyses and attaches
// recommendations derived from self's patterns and the comparison.
func (e *Engine) Compare(self, competitor *ChannelAnalysis) (*ComparisonReport, error) {
	report, err := Compare(snapshotOf(self), snapshotOf(competitor), e.policy.Comparison)
	if err != nil {
		return nil, err
	}
	report.Recommendations = e.Recommend(self.Patterns, report)
	return report, nil
}

// Rank places self among competitors on every compared metric.
func (e *Engine) Rank(self *ChannelAnalysis, competitors []*ChannelAnalysis) ([]Ranking, error) {
	snaps := make([]*ChannelSnapshot, len(competitors))
	for i, c := range competitors {
		snaps[i] = snapshotOf(c)
	}
	return RankChannels(snapshotOf(self), snaps)
}

// Recommend evaluates the engine's rules.
func (e *Engine) Recommend(patterns *PatternReport, comparison *ComparisonReport) []Recommendation {
	return RecommendWithRules(e.rules, patterns, comparison, e.policy.Recommendation)
}

func (e *Engine) windowStart(now time.Time) time.Time {
	if e.policy.WindowDays <= 0 {
		return time.Time{}
	}
	return now.AddDate(0, 0, -e.policy.WindowDays)
}

func snapshotOf(a *ChannelAnalysis) *ChannelSnapshot {
	if a == nil {
		return nil
	}
	return a.Snapshot
}
