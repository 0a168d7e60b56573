package domain

import (
	"math"
	"sort"
)

// Rank is the qualitative position of self against a competitor.
type Rank string

const (
	RankAhead  Rank = "ahead"
	RankBehind Rank = "behind"
	RankEven   Rank = "even"
)

// Compared metric names.
const (
	MetricMeanViews          = "mean_views"
	MetricMeanEngagement     = "mean_engagement"
	MetricMeanAlgorithmScore = "mean_algorithm_score"
	MetricSuccessRate        = "success_rate"
	MetricViralRate          = "viral_rate"
)

// ContentStrategy labels what drives a channel's performance.
type ContentStrategy string

const (
	StrategyViralDriven   ContentStrategy = "viral_driven"
	StrategyFandomDriven  ContentStrategy = "fandom_driven"
	StrategyTrafficDriven ContentStrategy = "traffic_driven"
	StrategyBalanced      ContentStrategy = "balanced"
)

// metricExtractors lists compared metrics in report order.
var metricExtractors = []struct {
	name string
	get  func(*ChannelSnapshot) float64
}{
	{MetricMeanViews, func(s *ChannelSnapshot) float64 { return s.MeanViews }},
	{MetricMeanEngagement, func(s *ChannelSnapshot) float64 { return s.MeanEngagement }},
	{MetricMeanAlgorithmScore, func(s *ChannelSnapshot) float64 { return s.MeanAlgorithmScore }},
	{MetricSuccessRate, (*ChannelSnapshot).SuccessRate},
	{MetricViralRate, (*ChannelSnapshot).ViralRate},
}

// MetricComparison is one metric of a ComparisonReport.
type MetricComparison struct {
	Metric     string  `json:"metric"`
	Self       float64 `json:"self"`
	Competitor float64 `json:"competitor"`
	Delta      float64 `json:"delta"`    // self − competitor
	Relative   float64 `json:"relative"` // delta / |competitor|
	Rank       Rank    `json:"rank"`
}

// ComparisonReport pairs two snapshots on a common metric basis.
type ComparisonReport struct {
	SelfChannelID       string             `json:"self_channel_id"`
	CompetitorChannelID string             `json:"competitor_channel_id"`
	Metrics             []MetricComparison `json:"metrics"`
	SelfWindow          Window             `json:"self_window"`
	CompetitorWindow    Window             `json:"competitor_window"`
	SelfStrategy        ContentStrategy    `json:"self_strategy"`
	CompetitorStrategy  ContentStrategy    `json:"competitor_strategy"`
	Recommendations     []Recommendation   `json:"recommendations"`
}

// Metric looks up a metric row by name.
func (r *ComparisonReport) Metric(name string) (MetricComparison, bool) {
	if r == nil {
		return MetricComparison{}, false
	}
	for _, m := range r.Metrics {
		if m.Metric == name {
			return m, true
		}
	}
	return MetricComparison{}, false
}

// CountRank returns how many metrics have the given rank.
func (r *ComparisonReport) CountRank(rank Rank) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, m := range r.Metrics {
		if m.Rank == rank {
			n++
		}
	}
	return n
}

// Compare computes per-metric deltas between self and competitor.
// It fails with a ValidationError if either snapshot has no videos.
func Compare(self, competitor *ChannelSnapshot, policy ComparisonPolicy) (*ComparisonReport, error) {
	const op = "compare"
	if self.IsEmpty() {
		return nil, newValidationError(op, "self snapshot has no videos")
	}
	if competitor.IsEmpty() {
		return nil, newValidationError(op, "competitor snapshot %q has no videos", competitor.channelID())
	}

	report := &ComparisonReport{
		SelfChannelID:       self.ChannelID,
		CompetitorChannelID: competitor.ChannelID,
		Metrics:             make([]MetricComparison, 0, len(metricExtractors)),
		SelfWindow:          self.Window,
		CompetitorWindow:    competitor.Window,
		SelfStrategy:        ClassifyStrategy(self, policy),
		CompetitorStrategy:  ClassifyStrategy(competitor, policy),
		Recommendations:     []Recommendation{},
	}
	for _, m := range metricExtractors {
		report.Metrics = append(report.Metrics, compareMetric(m.name, m.get(self), m.get(competitor), policy.EvenBand))
	}
	return report, nil
}

func compareMetric(name string, self, competitor, evenBand float64) MetricComparison {
	delta := self - competitor
	var relative float64
	switch {
	case competitor != 0:
		relative = delta / math.Abs(competitor)
	case self != 0:
		relative = math.Copysign(1, self)
	}

	rank := RankEven
	switch {
	case math.Abs(relative) <= evenBand:
	case relative > 0:
		rank = RankAhead
	default:
		rank = RankBehind
	}
	return MetricComparison{
		Metric:     name,
		Self:       self,
		Competitor: competitor,
		Delta:      delta,
		Relative:   relative,
		Rank:       rank,
	}
}

// ClassifyStrategy labels a snapshot:
//
//	viral_driven   viral rate >= ViralDrivenRate
//	fandom_driven  mean engagement >= FandomEngagement
//	traffic_driven mean view velocity > TrafficDailyViews
//	balanced       otherwise
func ClassifyStrategy(s *ChannelSnapshot, policy ComparisonPolicy) ContentStrategy {
	switch {
	case s.IsEmpty():
		return StrategyBalanced
	case s.ViralRate() >= policy.ViralDrivenRate:
		return StrategyViralDriven
	case s.MeanEngagement >= policy.FandomEngagement:
		return StrategyFandomDriven
	case s.MeanViewVelocity > policy.TrafficDailyViews:
		return StrategyTrafficDriven
	default:
		return StrategyBalanced
	}
}

// Ranking is self's position among several channels for one metric.
type Ranking struct {
	Metric      string  `json:"metric"`
	Position    int     `json:"position"` // 1 = best
	Total       int     `json:"total"`
	SelfValue   float64 `json:"self_value"`
	LeaderID    string  `json:"leader_id"`
	LeaderValue float64 `json:"leader_value"`
}

// RankChannels ranks self against every competitor on each compared metric.
// Equal values share the better position.
func RankChannels(self *ChannelSnapshot, competitors []*ChannelSnapshot) ([]Ranking, error) {
	const op = "rank"
	if self.IsEmpty() {
		return nil, newValidationError(op, "self snapshot has no videos")
	}
	all := []*ChannelSnapshot{self}
	for _, c := range competitors {
		if c.IsEmpty() {
			return nil, newValidationError(op, "competitor snapshot %q has no videos", c.channelID())
		}
		all = append(all, c)
	}

	out := make([]Ranking, 0, len(metricExtractors))
	for _, m := range metricExtractors {
		ordered := make([]*ChannelSnapshot, len(all))
		copy(ordered, all)
		sort.SliceStable(ordered, func(a, b int) bool {
			return m.get(ordered[a]) > m.get(ordered[b])
		})

		selfValue := m.get(self)
		position := 1
		for _, s := range ordered {
			if m.get(s) > selfValue {
				position++
			}
		}
		out = append(out, Ranking{
			Metric:      m.name,
			Position:    position,
			Total:       len(all),
			SelfValue:   selfValue,
			LeaderID:    ordered[0].ChannelID,
			LeaderValue: m.get(ordered[0]),
		})
	}
	return out, nil
}

func (s *ChannelSnapshot) channelID() string {
	if s == nil {
		return ""
	}
	return s.ChannelID
}
