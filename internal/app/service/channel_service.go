package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"channel-insight-service/internal/domain"
	"channel-insight-service/internal/metrics"
)

// ChannelService manages tracked channels and their periodic refresh.
type ChannelService struct {
	ingestor
	analysis    *AnalysisService
	concurrency int
}

// NewChannelService creates a new ChannelService. Refreshed channels are
// evicted from the analysis cache.
func NewChannelService(
	provider domain.MetricsProvider,
	channels domain.ChannelRepository,
	videos domain.VideoRepository,
	analysis *AnalysisService,
	concurrency int,
	logger *zap.Logger,
) *ChannelService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ChannelService{
		ingestor: ingestor{
			provider: provider,
			channels: channels,
			videos:   videos,
			logger:   logger,
			now:      func() time.Time { return time.Now().UTC() },
		},
		analysis:    analysis,
		concurrency: concurrency,
	}
}

// RefreshResult holds the outcome of refreshing one channel.
type RefreshResult struct {
	ChannelID string
	Videos    int
	Skipped   int
	Duration  time.Duration
	Error     error
}

// Track registers a channel. Tracking an existing channel updates its title
// (when given) and competitor flag.
func (s *ChannelService) Track(ctx context.Context, id, title string, competitor bool) (*domain.TrackedChannel, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &domain.ValidationError{Op: "track", Reason: "channel id is required"}
	}

	ch, err := s.channels.GetChannel(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		ch = domain.NewTrackedChannel(id, title, competitor)
	case err != nil:
		return nil, fmt.Errorf("loading channel %s: %w", id, err)
	default:
		if title != "" {
			ch.Title = title
		}
		ch.Competitor = competitor
	}

	if err := s.channels.UpsertChannel(ctx, ch); err != nil {
		return nil, fmt.Errorf("tracking channel %s: %w", id, err)
	}

	s.logger.Info("channel tracked",
		zap.String("channel_id", id),
		zap.Bool("competitor", competitor),
	)
	return ch, nil
}

// List returns every tracked channel.
func (s *ChannelService) List(ctx context.Context) ([]*domain.TrackedChannel, error) {
	return s.channels.ListChannels(ctx)
}

// Get returns one tracked channel or ErrNotFound.
func (s *ChannelService) Get(ctx context.Context, id string) (*domain.TrackedChannel, error) {
	return s.channels.GetChannel(ctx, id)
}

// Videos returns the stored raw rows of a tracked channel.
func (s *ChannelService) Videos(ctx context.Context, id string) ([]domain.VideoMetric, error) {
	if _, err := s.channels.GetChannel(ctx, id); err != nil {
		return nil, err
	}
	return s.videos.ListVideos(ctx, id)
}

// RefreshAll fetches every tracked channel concurrently. Partial failures
// are allowed; each result carries its own error.
func (s *ChannelService) RefreshAll(ctx context.Context) ([]RefreshResult, error) {
	channels, err := s.channels.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}

	s.logger.Info("starting refresh of tracked channels",
		zap.Int("channel_count", len(channels)),
		zap.String("provider", s.provider.Name()),
	)

	results := make([]RefreshResult, len(channels))
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(s.concurrency)
	for i, ch := range channels {
		p.Go(func() {
			r := s.refresh(ctx, ch.ID)
			mu.Lock()
			results[i] = r
			mu.Unlock()
		})
	}
	p.Wait()

	refreshed, failed := 0, 0
	for _, r := range results {
		if r.Error != nil {
			failed++
		} else {
			refreshed++
		}
	}
	metrics.RecordRefresh(refreshed, failed)

	s.logger.Info("refresh completed",
		zap.Int("refreshed", refreshed),
		zap.Int("failed", failed),
	)
	return results, nil
}

// Refresh fetches one channel.
func (s *ChannelService) Refresh(ctx context.Context, id string) RefreshResult {
	return s.refresh(ctx, id)
}

func (s *ChannelService) refresh(ctx context.Context, id string) RefreshResult {
	start := time.Now()
	result := RefreshResult{ChannelID: id}

	in, err := s.ingest(ctx, id)
	result.Duration = time.Since(start)
	if err != nil {
		result.Error = err
		s.logger.Warn("channel refresh failed", zap.String("channel_id", id), zap.Error(err))
		return result
	}

	result.Videos = len(in.Metrics)
	result.Skipped = in.Diagnostics.Skipped
	if s.analysis != nil {
		s.analysis.InvalidateChannel(ctx, id)
	}

	s.logger.Debug("channel refreshed",
		zap.String("channel_id", id),
		zap.Int("videos", result.Videos),
		zap.Duration("duration", result.Duration),
	)
	return result
}

// ProviderName returns the active metrics provider.
func (s *ChannelService) ProviderName() string {
	return s.provider.Name()
}

// ProviderHealth checks the active metrics provider.
func (s *ChannelService) ProviderHealth(ctx context.Context) error {
	return s.provider.HealthCheck(ctx)
}
