// Package service provides application use cases.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"channel-insight-service/internal/domain"
	"channel-insight-service/internal/metrics"
)

// ingestion is one provider fetch after normalization.
type ingestion struct {
	Channel     domain.ChannelInfo
	Metrics     []domain.VideoMetric
	Diagnostics domain.Diagnostics
}

// ingestor fetches a channel from the provider and stores its raw rows.
// A failed fetch stores nothing.
type ingestor struct {
	provider domain.MetricsProvider
	channels domain.ChannelRepository
	videos   domain.VideoRepository
	logger   *zap.Logger
	now      func() time.Time
}

func (in *ingestor) ingest(ctx context.Context, channelID string) (*ingestion, error) {
	start := time.Now()
	feed, err := in.provider.FetchChannel(ctx, channelID)
	metrics.RecordProviderFetch(in.provider.Name(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("fetching channel %s: %w", channelID, err)
	}

	norm := domain.Normalize(feed.Records)
	result := &ingestion{
		Channel: feed.Channel,
		Metrics: norm.Metrics,
		Diagnostics: domain.Diagnostics{
			InputRecords: len(feed.Records),
			Skipped:      norm.Skipped,
			Warnings:     norm.Warnings,
		},
	}

	if len(norm.Warnings) > 0 {
		in.logger.Warn("data quality warnings",
			zap.String("channel_id", channelID),
			zap.Int("count", len(norm.Warnings)),
			zap.Int("skipped", norm.Skipped),
		)
	}

	if err := in.persist(ctx, channelID, result); err != nil {
		return nil, err
	}
	return result, nil
}

// persist upserts the channel row before its videos; video rows reference it.
func (in *ingestor) persist(ctx context.Context, channelID string, result *ingestion) error {
	ch, err := in.channels.GetChannel(ctx, channelID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		ch = domain.NewTrackedChannel(channelID, result.Channel.Title, false)
	case err != nil:
		return fmt.Errorf("loading channel %s: %w", channelID, err)
	}

	// A title given when the channel was tracked wins over the provider's.
	if ch.Title == "" {
		ch.Title = result.Channel.Title
	}
	if result.Channel.Subscribers > 0 {
		ch.Subscribers = result.Channel.Subscribers
	}
	if err := in.channels.UpsertChannel(ctx, ch); err != nil {
		return fmt.Errorf("saving channel %s: %w", channelID, err)
	}

	if len(result.Metrics) > 0 {
		if err := in.videos.SaveVideos(ctx, channelID, result.Metrics); err != nil {
			return fmt.Errorf("saving videos for %s: %w", channelID, err)
		}
	}

	if err := in.channels.MarkRefreshed(ctx, channelID, in.now()); err != nil {
		return fmt.Errorf("marking %s refreshed: %w", channelID, err)
	}
	return nil
}
