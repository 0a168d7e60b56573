package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"channel-insight-service/internal/domain"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleAnalysis(t *testing.T) *domain.ChannelAnalysis {
	t.Helper()
	engine, err := domain.NewEngine(domain.DefaultPolicy(), domain.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)

	records := make([]domain.RawRecord, 0, 12)
	for i := 0; i < 12; i++ {
		records = append(records, domain.RawRecord{
			"id":           fmt.Sprintf("v%02d", i),
			"title":        fmt.Sprintf("Episode %d: what happened?", i),
			"published_at": testNow.AddDate(0, 0, -7*(12-i)).Format(time.RFC3339),
			"duration":     600 + 30*i,
			"views":        1000 * (i + 1),
			"likes":        40 * (i + 1),
			"comments":     5 * (i + 1),
		})
	}
	analysis, err := engine.Analyze("UCgem", records)
	require.NoError(t, err)
	return analysis
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}

func TestGenerate_UsesPrimaryModel(t *testing.T) {
	var gotModel, gotPrompt string
	var gotTemp float32
	fn := func(_ context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		gotModel = model
		gotPrompt = contents[0].Parts[0].Text
		gotTemp = *cfg.Temperature
		return textResponse("  # Draft\nbody  "), nil
	}
	g := newGenerator(fn, Config{Model: "gemini-a", Temperature: 0.4, MaxOutputTokens: 512}, zap.NewNop())

	draft, err := g.Generate(context.Background(), domain.NarrativeRequest{
		ChannelTitle: "Gem Channel",
		Topic:        "upload timing",
		Analysis:     sampleAnalysis(t),
	})
	require.NoError(t, err)

	assert.Equal(t, "# Draft\nbody", draft.Content)
	assert.Equal(t, "gemini-a", draft.Model)
	assert.Equal(t, "gemini-a", gotModel)
	assert.InDelta(t, 0.4, gotTemp, 1e-6)
	assert.Contains(t, gotPrompt, `"Gem Channel"`)
	assert.Contains(t, gotPrompt, "Focus: upload timing.")
	assert.Contains(t, gotPrompt, "Videos analyzed: 12")
}

func TestGenerate_FallsBackAcrossModels(t *testing.T) {
	var tried []string
	fn := func(_ context.Context, model string, _ []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		tried = append(tried, model)
		switch model {
		case "primary":
			return nil, errors.New("503 overloaded")
		case "empty":
			return &genai.GenerateContentResponse{}, nil
		default:
			return textResponse("from backup"), nil
		}
	}
	g := newGenerator(fn, Config{Model: "primary", FallbackModels: []string{"empty", "primary", "backup"}}, zap.NewNop())

	draft, err := g.Generate(context.Background(), domain.NarrativeRequest{Analysis: sampleAnalysis(t)})
	require.NoError(t, err)

	assert.Equal(t, []string{"primary", "empty", "backup"}, tried, "duplicates are tried once")
	assert.Equal(t, "backup", draft.Model)
	assert.Equal(t, "primary", g.Model())
}

func TestGenerate_AllModelsFail(t *testing.T) {
	fn := func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return nil, errors.New("boom")
	}
	g := newGenerator(fn, Config{Model: "a", FallbackModels: []string{"b"}}, zap.NewNop())

	_, err := g.Generate(context.Background(), domain.NarrativeRequest{Analysis: sampleAnalysis(t)})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Contains(t, err.Error(), "a: boom")
	assert.Contains(t, err.Error(), "b: boom")
}

func TestGenerate_RejectsEmptyAnalysis(t *testing.T) {
	called := false
	fn := func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		called = true
		return textResponse("x"), nil
	}
	g := newGenerator(fn, Config{Model: "a"}, zap.NewNop())

	_, err := g.Generate(context.Background(), domain.NarrativeRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)
	assert.False(t, called)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{Model: "a"}, zap.NewNop())
	require.Error(t, err)
}

func TestBuildPrompt_IncludesComparison(t *testing.T) {
	analysis := sampleAnalysis(t)
	report := &domain.ComparisonReport{
		SelfChannelID:       "UCgem",
		CompetitorChannelID: "UCrival",
		CompetitorStrategy:  domain.StrategyBalanced,
		Metrics: []domain.MetricComparison{
			{Metric: domain.MetricMeanViews, Self: 6500, Competitor: 9000, Rank: domain.RankBehind},
		},
		Recommendations: []domain.Recommendation{{Priority: 1, Message: "Close the views gap."}},
	}

	prompt := BuildPrompt(domain.NarrativeRequest{Analysis: analysis, Comparison: report})

	assert.Contains(t, prompt, "UCgem", "falls back to the channel id without a title")
	assert.Contains(t, prompt, defaultTopic)
	assert.Contains(t, prompt, "Against competitor UCrival")
	assert.Contains(t, prompt, "mean_views: behind")
	assert.Contains(t, prompt, "1. Close the views gap.")
}
