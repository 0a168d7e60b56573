package domain

import (
	"sort"
	"strconv"
	"strings"
)

// Category groups recommendations by the lever they pull.
type Category string

const (
	CategoryEngagement  Category = "engagement"
	CategoryGrowth      Category = "growth"
	CategoryContent     Category = "content"
	CategoryTiming      Category = "timing"
	CategoryConsistency Category = "consistency"
)

// Recommendation is a templated strategic action. Priority is the 1-based
// rank in the returned list.
type Recommendation struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
	Priority int      `json:"priority"`
	RuleID   string   `json:"rule_id"`
}

// RuleInput is what a rule condition sees. Either field may be nil.
type RuleInput struct {
	Patterns   *PatternReport
	Comparison *ComparisonReport
	Policy     RecommendationPolicy
}

// Bindings are the placeholder values substituted into a rule template.
type Bindings map[string]string

// Rule maps a condition onto a message template. Match returns the template
// bindings and whether the rule fires.
type Rule struct {
	ID       string
	Category Category
	Priority int // lower runs first
	Template string
	Match    func(in RuleInput) (Bindings, bool)
}

// Render expands {placeholder} tokens in the rule template.
func (r Rule) Render(b Bindings) string {
	if len(b) == 0 {
		return r.Template
	}
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", b[k])
	}
	return strings.NewReplacer(pairs...).Replace(r.Template)
}

// Recommend evaluates DefaultRules against the inputs.
func Recommend(patterns *PatternReport, comparison *ComparisonReport, policy RecommendationPolicy) []Recommendation {
	return RecommendWithRules(DefaultRules(), patterns, comparison, policy)
}

// RecommendWithRules evaluates rules in (Priority, ID) order and returns at
// most policy.MaxRecommendations matches. Identical input gives identical
// output.
func RecommendWithRules(rules []Rule, patterns *PatternReport, comparison *ComparisonReport, policy RecommendationPolicy) []Recommendation {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(a, b int) bool {
		if ordered[a].Priority != ordered[b].Priority {
			return ordered[a].Priority < ordered[b].Priority
		}
		return ordered[a].ID < ordered[b].ID
	})

	in := RuleInput{Patterns: patterns, Comparison: comparison, Policy: policy}
	out := []Recommendation{}
	for _, rule := range ordered {
		if len(out) >= policy.MaxRecommendations {
			break
		}
		if rule.Match == nil {
			continue
		}
		bindings, ok := rule.Match(in)
		if !ok {
			continue
		}
		out = append(out, Recommendation{
			Category: rule.Category,
			Message:  rule.Render(bindings),
			Priority: len(out) + 1,
			RuleID:   rule.ID,
		})
	}
	return out
}

// DefaultRules returns the built-in rule table.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:       "trend-falling",
			Category: CategoryGrowth,
			Priority: 10,
			Template: "Recent uploads average {recent_views} views, {change_pct}% below earlier uploads. Revisit the topics and packaging of your latest videos.",
			Match: func(in RuleInput) (Bindings, bool) {
				if in.Patterns == nil || in.Patterns.Trend == nil || in.Patterns.Trend.Direction != TrendFalling {
					return nil, false
				}
				t := in.Patterns.Trend
				return Bindings{
					"recent_views": formatCount(t.RecentMeanViews),
					"change_pct":   formatFloat(-t.ViewsChangePct),
				}, true
			},
		},
		{
			ID:       "engagement-gap",
			Category: CategoryEngagement,
			Priority: 20,
			Template: "Engagement trails {competitor} by {gap_pct}% ({self}% vs {other}%). Ask a direct question and pin a comment in the first hour.",
			Match:    behindOn(MetricMeanEngagement, formatPct),
		},
		{
			ID:       "views-gap",
			Category: CategoryGrowth,
			Priority: 30,
			Template: "Average views are {gap_pct}% below {competitor} ({self} vs {other}). Study its top performers and rework titles and thumbnails.",
			Match:    behindOn(MetricMeanViews, formatCount),
		},
		{
			ID:       "success-rate-gap",
			Category: CategoryContent,
			Priority: 40,
			Template: "Only {self}% of your videos reach HIT or better against {other}% for {competitor}. Double down on formats that already work before experimenting.",
			Match:    behindOn(MetricSuccessRate, formatPct),
		},
		{
			ID:       "winning-duration",
			Category: CategoryContent,
			Priority: 50,
			Template: "{confidence}% of your top videos are {value} format. Make it the default for upcoming uploads.",
			Match:    strongSuccess(AttrDuration),
		},
		{
			ID:       "winning-weekday",
			Category: CategoryTiming,
			Priority: 60,
			Template: "{confidence}% of your top videos went live on {value}. Schedule key releases for that day.",
			Match:    strongSuccess(AttrWeekday),
		},
		{
			ID:       "winning-hour",
			Category: CategoryTiming,
			Priority: 65,
			Template: "{confidence}% of your top videos were published in the {value}. Keep releases in that slot.",
			Match:    strongSuccess(AttrHour),
		},
		{
			ID:       "failing-duration",
			Category: CategoryContent,
			Priority: 70,
			Template: "{confidence}% of underperforming videos are {value} format. Cut back on it or restructure the opening.",
			Match: func(in RuleInput) (Bindings, bool) {
				fail, ok := in.Patterns.TopFailure(AttrDuration)
				if !ok || fail.Confidence < in.Policy.StrongConfidence {
					return nil, false
				}
				if win, ok := in.Patterns.TopSuccess(AttrDuration); ok && win.Value == fail.Value {
					return nil, false
				}
				return Bindings{"confidence": formatPct(fail.Confidence), "value": fail.Value}, true
			},
		},
		{
			ID:       "irregular-cadence",
			Category: CategoryConsistency,
			Priority: 80,
			Template: "Uploads land every {interval} days on average ({frequency}). A steady weekly schedule gives viewers a reason to return.",
			Match: func(in RuleInput) (Bindings, bool) {
				if in.Patterns == nil || in.Patterns.Cadence == nil {
					return nil, false
				}
				c := in.Patterns.Cadence
				if c.Frequency != FrequencyBiweekly && c.Frequency != FrequencyMonthly {
					return nil, false
				}
				return Bindings{"interval": formatFloat(c.AvgIntervalDays), "frequency": c.Frequency}, true
			},
		},
		{
			ID:       "strategy-contrast",
			Category: CategoryGrowth,
			Priority: 90,
			Template: "{competitor} runs a {other_strategy} strategy while yours is {self_strategy}. Borrow its hooks without dropping what your audience comes for.",
			Match: func(in RuleInput) (Bindings, bool) {
				c := in.Comparison
				if c == nil || c.SelfStrategy == c.CompetitorStrategy {
					return nil, false
				}
				if m, ok := c.Metric(MetricMeanViews); !ok || m.Rank != RankBehind {
					return nil, false
				}
				return Bindings{
					"competitor":     c.CompetitorChannelID,
					"other_strategy": string(c.CompetitorStrategy),
					"self_strategy":  string(c.SelfStrategy),
				}, true
			},
		},
		{
			ID:       "leading-all",
			Category: CategoryGrowth,
			Priority: 100,
			Template: "You lead {competitor} on every compared metric. Keep the current formula and test one new format per month.",
			Match: func(in RuleInput) (Bindings, bool) {
				c := in.Comparison
				if c == nil || len(c.Metrics) == 0 || c.CountRank(RankAhead) != len(c.Metrics) {
					return nil, false
				}
				return Bindings{"competitor": c.CompetitorChannelID}, true
			},
		},
	}
}

// behindOn fires when self ranks behind on metric.
func behindOn(metric string, format func(float64) string) func(RuleInput) (Bindings, bool) {
	return func(in RuleInput) (Bindings, bool) {
		m, ok := in.Comparison.Metric(metric)
		if !ok || m.Rank != RankBehind {
			return nil, false
		}
		return Bindings{
			"competitor": in.Comparison.CompetitorChannelID,
			"gap_pct":    formatPct(-m.Relative),
			"self":       format(m.Self),
			"other":      format(m.Competitor),
		}, true
	}
}

// strongSuccess fires when the top success pattern for attribute meets the
// confidence floor.
func strongSuccess(attribute string) func(RuleInput) (Bindings, bool) {
	return func(in RuleInput) (Bindings, bool) {
		p, ok := in.Patterns.TopSuccess(attribute)
		if !ok || p.Confidence < in.Policy.StrongConfidence {
			return nil, false
		}
		return Bindings{"confidence": formatPct(p.Confidence), "value": p.Value}, true
	}
}

func formatPct(ratio float64) string {
	return formatFloat(ratio * 100)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}
