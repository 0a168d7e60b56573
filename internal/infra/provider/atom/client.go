// Package atom implements a keyless metrics provider on the public YouTube
// channel Atom feed. The feed only lists the most recent uploads.
package atom

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"channel-insight-service/internal/domain"
	"channel-insight-service/internal/infra/provider"
)

// Name is the provider identifier.
const Name = "atom"

// Endpoint is the feed path on the configured base URL.
const Endpoint = "/feeds/videos.xml"

// Client implements domain.MetricsProvider for Atom channel feeds.
type Client struct {
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[[]byte]
	logger *zap.Logger
}

// New creates a new Atom feed client.
func New(cfg provider.ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		client: provider.NewRestyClient(cfg),
		cb:     provider.NewCircuitBreaker[[]byte](Name, cfg.CB, logger),
		logger: logger,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return Name
}

// FetchChannel retrieves the channel feed.
func (c *Client) FetchChannel(ctx context.Context, channelID string) (*domain.ChannelFeed, error) {
	body, err := c.cb.Execute(func() ([]byte, error) {
		r, err := c.client.R().
			SetContext(ctx).
			SetHeader("Accept", "application/atom+xml").
			SetQueryParam("channel_id", channelID).
			Get(Endpoint)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
		}
		if r.IsError() {
			return nil, provider.StatusError(Name, r.StatusCode())
		}

		return r.Body(), nil
	})
	if err != nil {
		err = provider.BreakerError(err)
		c.logger.Warn("atom fetch failed",
			zap.String("channel_id", channelID),
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return nil, fmt.Errorf("fetching channel %s from atom feed: %w", channelID, err)
	}

	var feed Feed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing atom feed for %s: %w: %w", channelID, domain.ErrUnavailable, err)
	}

	records := make([]domain.RawRecord, 0, len(feed.Entries))
	for i := range feed.Entries {
		records = append(records, feed.Entries[i].ToRecord())
	}

	c.logger.Info("atom fetch completed",
		zap.String("channel_id", channelID),
		zap.Int("count", len(records)),
	)

	return &domain.ChannelFeed{
		Channel:   feed.ToChannelInfo(channelID),
		Records:   records,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// HealthCheck requests the feed endpoint without a channel; any response
// below 500 means the host is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Get(Endpoint)
	if err != nil {
		return err
	}
	if resp.StatusCode() >= 500 {
		return fmt.Errorf("health check returned status %d", resp.StatusCode())
	}

	return nil
}
