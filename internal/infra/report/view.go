package report

import (
	"strconv"
	"time"

	"channel-insight-service/internal/domain"
)

const (
	topVideoCount  = 10
	maxWarningRows = 20
	dateLayout     = "2006-01-02"
)

// Template bindings are plain maps of preformatted strings so output does
// not depend on Liquid's number formatting.

func analysisView(a *domain.ChannelAnalysis) map[string]any {
	s := a.Snapshot

	top := s.TopVideos(topVideoCount)
	videos := make([]map[string]any, len(top))
	for i, v := range top {
		videos[i] = map[string]any{
			"rank":       i + 1,
			"id":         v.ID,
			"title":      v.Title,
			"published":  v.PublishedAt.Format(dateLayout),
			"views":      formatInt(v.Views),
			"engagement": formatPct(v.EngagementRate),
			"score":      formatFloat(v.AlgorithmScore, 1),
			"tier":       string(v.Tier),
		}
	}

	view := map[string]any{
		"channel_id":      a.ChannelID,
		"analyzed_at":     s.AnalyzedAt.Format(time.RFC3339),
		"window_start":    formatDate(s.Window.Start),
		"window_end":      formatDate(s.Window.End),
		"video_count":     s.VideoCount(),
		"total_views":     formatInt(s.TotalViews),
		"mean_views":      formatFloat(s.MeanViews, 0),
		"mean_engagement": formatPct(s.MeanEngagement),
		"mean_score":      formatFloat(s.MeanAlgorithmScore, 1),
		"mean_velocity":   formatFloat(s.MeanViewVelocity, 1),
		"success_rate":    formatPct(s.SuccessRate()),
		"strategy":        string(a.Strategy),
		"thresholds": map[string]any{
			"method":  string(a.Thresholds.Method),
			"viral":   formatFloat(a.Thresholds.Viral, 2),
			"hit":     formatFloat(a.Thresholds.Hit, 2),
			"average": formatFloat(a.Thresholds.Average, 2),
		},
		"tiers": []map[string]any{
			{"name": string(domain.TierViral), "count": s.Tiers.Viral},
			{"name": string(domain.TierHit), "count": s.Tiers.Hit},
			{"name": string(domain.TierAverage), "count": s.Tiers.Average},
			{"name": string(domain.TierUnderperforming), "count": s.Tiers.Underperforming},
		},
		"top_videos":       videos,
		"recommendations":  recommendationsView(a.Recommendations),
		"diagnostics":      diagnosticsView(a.Diagnostics),
		"warnings":         warningsView(a.Diagnostics.Warnings),
		"success_patterns": []map[string]any{},
		"failure_patterns": []map[string]any{},
	}

	if p := a.Patterns; p != nil {
		view["success_patterns"] = patternsView(p.SuccessPatterns)
		view["failure_patterns"] = patternsView(p.FailurePatterns)
		if p.Cadence != nil {
			view["cadence"] = map[string]any{
				"frequency":     p.Cadence.Frequency,
				"interval_days": formatFloat(p.Cadence.AvgIntervalDays, 1),
			}
		}
		if p.Trend != nil {
			view["trend"] = map[string]any{
				"direction":         p.Trend.Direction,
				"views_change":      formatSignedPct(p.Trend.ViewsChangePct),
				"engagement_change": formatSignedPct(p.Trend.EngagementChangePct),
				"recent_views":      formatFloat(p.Trend.RecentMeanViews, 0),
				"older_views":       formatFloat(p.Trend.OlderMeanViews, 0),
			}
		}
	}

	return view
}

func comparisonView(r *domain.ComparisonReport) map[string]any {
	metrics := make([]map[string]any, len(r.Metrics))
	for i, m := range r.Metrics {
		metrics[i] = map[string]any{
			"name":       m.Metric,
			"self":       formatMetric(m.Metric, m.Self),
			"competitor": formatMetric(m.Metric, m.Competitor),
			"relative":   formatSignedPct(m.Relative * 100),
			"rank":       string(m.Rank),
		}
	}

	return map[string]any{
		"self_id":             r.SelfChannelID,
		"competitor_id":       r.CompetitorChannelID,
		"self_strategy":       string(r.SelfStrategy),
		"competitor_strategy": string(r.CompetitorStrategy),
		"self_window":         formatDate(r.SelfWindow.Start) + " to " + formatDate(r.SelfWindow.End),
		"competitor_window":   formatDate(r.CompetitorWindow.Start) + " to " + formatDate(r.CompetitorWindow.End),
		"metrics":             metrics,
		"ahead_count":         r.CountRank(domain.RankAhead),
		"behind_count":        r.CountRank(domain.RankBehind),
		"even_count":          r.CountRank(domain.RankEven),
		"recommendations":     recommendationsView(r.Recommendations),
	}
}

func patternsView(patterns []domain.Pattern) []map[string]any {
	out := make([]map[string]any, len(patterns))
	for i, p := range patterns {
		out[i] = map[string]any{
			"attribute":  p.Attribute,
			"value":      p.Value,
			"count":      p.Count,
			"confidence": formatPct(p.Confidence),
		}
	}
	return out
}

func recommendationsView(recs []domain.Recommendation) []map[string]any {
	out := make([]map[string]any, len(recs))
	for i, r := range recs {
		out[i] = map[string]any{
			"priority": r.Priority,
			"category": string(r.Category),
			"message":  r.Message,
		}
	}
	return out
}

func diagnosticsView(d domain.Diagnostics) map[string]any {
	return map[string]any{
		"input_records":  d.InputRecords,
		"skipped":        d.Skipped,
		"outside_window": d.OutsideWindow,
		"excluded":       d.Excluded,
		"classified":     d.Classified,
		"warning_count":  len(d.Warnings),
		"truncated":      len(d.Warnings) > maxWarningRows,
	}
}

func warningsView(warnings []domain.DataQualityWarning) []map[string]any {
	n := min(len(warnings), maxWarningRows)
	out := make([]map[string]any, n)
	for i, w := range warnings[:n] {
		out[i] = map[string]any{
			"index":   w.RecordIndex,
			"id":      w.RecordID,
			"field":   w.Field,
			"code":    string(w.Code),
			"message": w.Message,
		}
	}
	return out
}

func formatMetric(name string, v float64) string {
	switch name {
	case domain.MetricMeanEngagement, domain.MetricSuccessRate, domain.MetricViralRate:
		return formatPct(v)
	case domain.MetricMeanViews:
		return formatFloat(v, 0)
	default:
		return formatFloat(v, 1)
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	return t.Format(dateLayout)
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

func formatPct(ratio float64) string {
	return strconv.FormatFloat(ratio*100, 'f', 1, 64) + "%"
}

func formatSignedPct(pct float64) string {
	s := strconv.FormatFloat(pct, 'f', 1, 64) + "%"
	if pct > 0 {
		return "+" + s
	}
	return s
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
