// Package feed implements a metrics provider for JSON channel feeds.
package feed

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"channel-insight-service/internal/domain"
	"channel-insight-service/internal/infra/provider"
)

// Name is the provider identifier.
const Name = "feed"

const (
	endpointFormat = "/api/channels/%s/videos"
	defaultPerPage = 50
	maxPages       = 20
)

// Client implements domain.MetricsProvider for a paginated JSON feed.
type Client struct {
	client  *resty.Client
	cb      *gobreaker.CircuitBreaker[*Response]
	logger  *zap.Logger
	perPage int
}

// New creates a new feed client.
func New(cfg provider.ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		client:  provider.NewRestyClient(cfg),
		cb:      provider.NewCircuitBreaker[*Response](Name, cfg.CB, logger),
		logger:  logger,
		perPage: defaultPerPage,
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return Name
}

// FetchChannel reads every page of a channel feed. Any page failure fails
// the whole fetch.
func (c *Client) FetchChannel(ctx context.Context, channelID string) (*domain.ChannelFeed, error) {
	feed := &domain.ChannelFeed{}

	for page := 1; page <= maxPages; page++ {
		resp, err := c.fetchPage(ctx, channelID, page)
		if err != nil {
			c.logger.Warn("feed fetch failed",
				zap.String("channel_id", channelID),
				zap.Int("page", page),
				zap.Error(err),
				zap.String("state", c.cb.State().String()),
			)
			return nil, fmt.Errorf("fetching channel %s from feed: %w", channelID, err)
		}

		if page == 1 {
			feed.Channel = resp.Channel.ToDomain()
			if feed.Channel.ID == "" {
				feed.Channel.ID = channelID
			}
		}
		feed.Records = append(feed.Records, resp.Videos...)

		if len(resp.Videos) == 0 || !resp.Pagination.HasMore() {
			break
		}
	}
	feed.FetchedAt = time.Now().UTC()

	c.logger.Info("feed fetch completed",
		zap.String("channel_id", channelID),
		zap.Int("count", len(feed.Records)),
	)

	return feed, nil
}

func (c *Client) fetchPage(ctx context.Context, channelID string, page int) (*Response, error) {
	resp, err := c.cb.Execute(func() (*Response, error) {
		r, err := c.client.R().
			SetContext(ctx).
			SetQueryParam("page", strconv.Itoa(page)).
			SetQueryParam("per_page", strconv.Itoa(c.perPage)).
			Get(fmt.Sprintf(endpointFormat, url.PathEscape(channelID)))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
		}
		if r.IsError() {
			return nil, provider.StatusError(Name, r.StatusCode())
		}

		// Decoded by hand: the body is JSON whatever Content-Type the feed sends.
		var result Response
		if err := json.Unmarshal(r.Body(), &result); err != nil {
			return nil, fmt.Errorf("%w: decoding %s page %d: %w", domain.ErrUnavailable, Name, page, err)
		}
		return &result, nil
	})

	return resp, provider.BreakerError(err)
}

// HealthCheck verifies the provider is accessible.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("health check returned status %d", resp.StatusCode())
	}

	return nil
}
