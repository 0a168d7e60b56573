package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"channel-insight-service/internal/domain"
)

func TestAnalyze_FetchesPersistsAndCaches(t *testing.T) {
	f := newFixture(t)
	f.provider.feeds["UCa"] = feed("UCa", 12, 1000)
	f.provider.feeds["UCa"].Records = append(f.provider.feeds["UCa"].Records, domain.RawRecord{"title": "no id"})
	ctx := context.Background()

	a, err := f.analysis.Analyze(ctx, "UCa")
	require.NoError(t, err)

	assert.Equal(t, "UCa", a.ChannelID)
	assert.Equal(t, 12, a.Snapshot.VideoCount())
	assert.Equal(t, 13, a.Diagnostics.InputRecords)
	assert.Equal(t, 1, a.Diagnostics.Skipped)
	assert.Equal(t, 12, a.Snapshot.Tiers.Viral+a.Snapshot.Tiers.Hit+a.Snapshot.Tiers.Average+a.Snapshot.Tiers.Underperforming)

	ch, err := f.store.GetChannel(ctx, "UCa")
	require.NoError(t, err)
	assert.Equal(t, "Channel UCa", ch.Title)
	assert.NotNil(t, ch.LastRefreshedAt)

	stored, err := f.store.ListVideos(ctx, "UCa")
	require.NoError(t, err)
	require.Len(t, stored, 12)
	assert.Empty(t, stored[0].Tier, "derived fields are not handed to storage")
	assert.Equal(t, 1, f.store.reportCount(domain.ReportKindChannel))

	again, err := f.analysis.Analyze(ctx, "UCa")
	require.NoError(t, err)
	assert.Equal(t, 1, f.provider.callCount("UCa"), "second call is served from cache")
	assert.Equal(t, a.Snapshot.Tiers, again.Snapshot.Tiers)
}

func TestAnalyze_ProviderFailureYieldsNoAnalysis(t *testing.T) {
	f := newFixture(t)
	f.provider.errs["UCq"] = fmt.Errorf("youtube: %w", domain.ErrRateLimited)

	a, err := f.analysis.Analyze(context.Background(), "UCq")
	require.Error(t, err)
	assert.Nil(t, a)
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	_, err = f.store.GetChannel(context.Background(), "UCq")
	assert.ErrorIs(t, err, domain.ErrNotFound, "nothing is stored for a failed fetch")
}

func TestAnalyze_EmptyChannelIsValidationError(t *testing.T) {
	f := newFixture(t)
	f.provider.feeds["UCempty"] = &domain.ChannelFeed{Channel: domain.ChannelInfo{ID: "UCempty"}}

	_, err := f.analysis.Analyze(context.Background(), "UCempty")
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestAnalyze_StorageFailureFailsTheCall(t *testing.T) {
	f := newFixture(t)
	f.provider.feeds["UCa"] = feed("UCa", 5, 100)
	f.store.saveErr = errors.New("disk full")

	_, err := f.analysis.Analyze(context.Background(), "UCa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCompare(t *testing.T) {
	f := newFixture(t)
	f.provider.feeds["UCself"] = feed("UCself", 12, 1000)
	f.provider.feeds["UCb"] = feed("UCb", 12, 3000)
	f.provider.feeds["UCc"] = feed("UCc", 12, 500)

	result, err := f.analysis.Compare(context.Background(), "UCself", []string{"UCb", " UCc ", "UCb", "UCself", ""})
	require.NoError(t, err)

	require.Len(t, result.Reports, 2)
	assert.Equal(t, "UCb", result.Reports[0].CompetitorChannelID)
	assert.Equal(t, "UCc", result.Reports[1].CompetitorChannelID)
	assert.Equal(t, "UCself", result.Self.ChannelID)

	views, ok := result.Reports[0].Metric(domain.MetricMeanViews)
	require.True(t, ok)
	assert.Equal(t, domain.RankBehind, views.Rank)

	require.NotEmpty(t, result.Rankings)
	for _, r := range result.Rankings {
		assert.Equal(t, 3, r.Total)
	}
	assert.Equal(t, 2, f.store.reportCount(domain.ReportKindComparison))
}

func TestCompare_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.analysis.Compare(context.Background(), "UCself", []string{"UCself"})
	assert.True(t, domain.IsValidationError(err))

	_, err = f.analysis.Compare(context.Background(), "UCself", []string{"a", "b", "c", "d", "e", "f"})
	assert.True(t, domain.IsValidationError(err))
	assert.Zero(t, f.provider.callCount("a"), "nothing is fetched for a rejected request")
}

func TestCompare_AnyFailureFailsAll(t *testing.T) {
	f := newFixture(t)
	f.provider.feeds["UCself"] = feed("UCself", 12, 1000)

	_, err := f.analysis.Compare(context.Background(), "UCself", []string{"UCmissing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReportAndLatest(t *testing.T) {
	f := newFixture(t)
	f.provider.feeds["UCa"] = feed("UCa", 6, 100)
	f.provider.feeds["UCb"] = feed("UCb", 6, 200)
	ctx := context.Background()

	_, err := f.analysis.Latest(ctx, "UCa")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out, err := f.analysis.Report(ctx, "UCa", domain.FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "markdown analysis UCa", string(out))

	_, err = f.analysis.Report(ctx, "UCa", domain.ReportFormat("pdf"))
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)

	out, err = f.analysis.ComparisonReport(ctx, "UCa", "UCb", domain.FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, "html comparison UCa vs UCb", string(out))

	latest, err := f.analysis.Latest(ctx, "UCa")
	require.NoError(t, err)
	assert.Equal(t, 6, latest.Snapshot.VideoCount())
}

func TestClearCache(t *testing.T) {
	f := newFixture(t)
	f.provider.feeds["UCa"] = feed("UCa", 6, 100)
	ctx := context.Background()

	_, err := f.analysis.Analyze(ctx, "UCa")
	require.NoError(t, err)
	require.NoError(t, f.analysis.ClearCache(ctx))

	_, err = f.analysis.Analyze(ctx, "UCa")
	require.NoError(t, err)
	assert.Equal(t, 2, f.provider.callCount("UCa"))
}

func TestUniqueExcept(t *testing.T) {
	assert.Equal(t, []string{"b", "c"}, uniqueExcept([]string{" b", "a", "c", "b", ""}, "a"))
	assert.Empty(t, uniqueExcept(nil, "a"))
}
