package gemini

import (
	"fmt"
	"strings"

	"channel-insight-service/internal/domain"
)

const defaultTopic = "what is working on this channel and what to change next"

// BuildPrompt renders the analysis as a briefing for a blog-style draft.
// Only computed figures go into the prompt; the model is asked not to
// invent numbers.
func BuildPrompt(req domain.NarrativeRequest) string {
	a := req.Analysis
	s := a.Snapshot

	title := req.ChannelTitle
	if title == "" {
		title = a.ChannelID
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		topic = defaultTopic
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a blog post in Markdown about the YouTube channel %q.\n", title)
	fmt.Fprintf(&b, "Focus: %s.\n", topic)
	b.WriteString("Use only the figures below. Do not invent statistics. ")
	b.WriteString("Structure: a short hook, three to five sections with headings, and a closing list of next steps.\n\n")

	b.WriteString("## Channel figures\n")
	fmt.Fprintf(&b, "- Videos analyzed: %d (%s to %s)\n", s.VideoCount(),
		s.Window.Start.Format("2006-01-02"), s.Window.End.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Mean views per video: %.0f\n", s.MeanViews)
	fmt.Fprintf(&b, "- Mean engagement rate: %.2f%%\n", s.MeanEngagement*100)
	fmt.Fprintf(&b, "- Mean algorithm score: %.1f/100\n", s.MeanAlgorithmScore)
	fmt.Fprintf(&b, "- Tiers: %d viral, %d hit, %d average, %d underperforming\n",
		s.Tiers.Viral, s.Tiers.Hit, s.Tiers.Average, s.Tiers.Underperforming)
	fmt.Fprintf(&b, "- Content strategy: %s\n", a.Strategy)

	if top := s.TopVideos(3); len(top) > 0 {
		b.WriteString("\n## Best performing videos\n")
		for _, v := range top {
			fmt.Fprintf(&b, "- %q: %d views, score %.1f, %s\n", v.Title, v.Views, v.AlgorithmScore, v.Tier)
		}
	}

	if p := a.Patterns; p != nil {
		writePatterns(&b, "What successful videos share", p.SuccessPatterns)
		writePatterns(&b, "What underperforming videos share", p.FailurePatterns)
		if p.Cadence != nil {
			fmt.Fprintf(&b, "\n## Upload cadence\n- %s, one upload every %.1f days on average\n",
				p.Cadence.Frequency, p.Cadence.AvgIntervalDays)
		}
		if p.Trend != nil {
			fmt.Fprintf(&b, "\n## Trend\n- %s: views %+.1f%%, engagement %+.1f%% (recent half vs older half)\n",
				p.Trend.Direction, p.Trend.ViewsChangePct, p.Trend.EngagementChangePct)
		}
	}

	if c := req.Comparison; c != nil {
		fmt.Fprintf(&b, "\n## Against competitor %s (%s)\n", c.CompetitorChannelID, c.CompetitorStrategy)
		for _, m := range c.Metrics {
			fmt.Fprintf(&b, "- %s: %s (%.4g vs %.4g)\n", m.Metric, m.Rank, m.Self, m.Competitor)
		}
	}

	recs := a.Recommendations
	if req.Comparison != nil && len(req.Comparison.Recommendations) > 0 {
		recs = req.Comparison.Recommendations
	}
	if len(recs) > 0 {
		b.WriteString("\n## Recommendations to build on\n")
		for _, r := range recs {
			fmt.Fprintf(&b, "%d. %s\n", r.Priority, r.Message)
		}
	}

	return b.String()
}

func writePatterns(b *strings.Builder, heading string, patterns []domain.Pattern) {
	if len(patterns) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n", heading)
	for _, p := range patterns {
		fmt.Fprintf(b, "- %s = %s (%.0f%% of the group, %d videos)\n", p.Attribute, p.Value, p.Confidence*100, p.Count)
	}
}
