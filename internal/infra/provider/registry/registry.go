// Package registry builds the configured metrics provider.
package registry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"channel-insight-service/internal/config"
	"channel-insight-service/internal/domain"
	"channel-insight-service/internal/infra/provider"
	"channel-insight-service/internal/infra/provider/atom"
	"channel-insight-service/internal/infra/provider/feed"
	"channel-insight-service/internal/infra/youtube"
)

// NewProvider creates the provider selected by cfg.Kind.
func NewProvider(ctx context.Context, cfg config.ProviderConfig, logger *zap.Logger) (domain.MetricsProvider, error) {
	switch cfg.Kind {
	case youtube.Name:
		client, err := youtube.New(ctx, youtube.Config{
			APIKey:     cfg.YouTube.APIKey,
			Endpoint:   cfg.YouTube.Endpoint,
			MaxVideos:  cfg.YouTube.MaxVideos,
			DailyQuota: cfg.YouTube.DailyQuota,
			Timeout:    cfg.YouTube.Timeout,
			CB:         cbConfig(cfg.YouTube.CB),
		}, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case feed.Name, "":
		return feed.New(clientConfig(cfg.Feed), logger), nil
	case atom.Name:
		return atom.New(clientConfig(cfg.Atom), logger), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Kind)
	}
}

func clientConfig(c config.FeedConfig) provider.ClientConfig {
	return provider.ClientConfig{
		BaseURL: c.BaseURL,
		Timeout: c.Timeout,
		Retry: provider.RetryConfig{
			MaxAttempts: c.Retry.MaxAttempts,
			WaitTime:    c.Retry.WaitTime,
			MaxWaitTime: c.Retry.MaxWaitTime,
		},
		CB: cbConfig(c.CB),
	}
}

func cbConfig(c config.CBConfig) provider.CBConfig {
	return provider.CBConfig{
		MaxRequests:  c.MaxRequests,
		Interval:     c.Interval,
		Timeout:      c.Timeout,
		FailureRatio: c.FailureRatio,
	}
}
