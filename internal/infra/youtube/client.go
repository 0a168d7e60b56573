// Package youtube implements domain.MetricsProvider on the YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"channel-insight-service/internal/domain"
	"channel-insight-service/internal/infra/provider"
)

// Name is the provider identifier.
const Name = "youtube"

const maxPageSize = 50

// Config holds Data API client settings.
type Config struct {
	APIKey     string
	Endpoint   string
	MaxVideos  int
	DailyQuota int
	Timeout    time.Duration
	CB         provider.CBConfig
}

// Client fetches channel uploads through channels.list, playlistItems.list
// and videos.list.
type Client struct {
	service   *youtube.Service
	cb        *gobreaker.CircuitBreaker[*domain.ChannelFeed]
	quota     *quota
	maxVideos int
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates a Data API client. An API key is required.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("youtube api key is required")
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}

	maxVideos := cfg.MaxVideos
	if maxVideos <= 0 {
		maxVideos = maxPageSize
	}

	c := &Client{
		service:   service,
		cb:        provider.NewCircuitBreaker[*domain.ChannelFeed](Name, cfg.CB, logger),
		quota:     newQuota(cfg.DailyQuota, time.Now),
		maxVideos: maxVideos,
		timeout:   cfg.Timeout,
		logger:    logger,
	}

	logger.Info("youtube provider initialized",
		zap.Int("max_videos", maxVideos),
		zap.Int("daily_quota", cfg.DailyQuota),
		zap.Time("quota_reset", c.quota.reset),
	)

	return c, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return Name
}

// FetchChannel returns channel statistics and up to MaxVideos recent uploads.
func (c *Client) FetchChannel(ctx context.Context, channelID string) (*domain.ChannelFeed, error) {
	if err := c.quota.check(estimateCost(c.maxVideos)); err != nil {
		c.logger.Warn("youtube quota exhausted", zap.String("channel_id", channelID), zap.Error(err))
		return nil, fmt.Errorf("fetching channel %s from youtube: %w", channelID, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	feed, err := c.cb.Execute(func() (*domain.ChannelFeed, error) {
		return c.fetch(ctx, channelID)
	})
	if err != nil {
		err = provider.BreakerError(err)
		c.logger.Warn("youtube fetch failed",
			zap.String("channel_id", channelID),
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)
		return nil, fmt.Errorf("fetching channel %s from youtube: %w", channelID, err)
	}

	return feed, nil
}

func (c *Client) fetch(ctx context.Context, channelID string) (*domain.ChannelFeed, error) {
	spent := 0
	defer func() {
		remaining := c.quota.consume(spent)
		c.logger.Debug("youtube quota consumed",
			zap.Int("cost", spent),
			zap.Int("remaining", remaining),
		)
	}()

	spent += listCallCost
	chResp, err := c.service.Channels.
		List([]string{"snippet", "contentDetails", "statistics"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, c.mapError("channels.list", err)
	}
	if len(chResp.Items) == 0 {
		return nil, fmt.Errorf("channel %s: %w", channelID, domain.ErrNotFound)
	}
	ch := chResp.Items[0]

	feed := &domain.ChannelFeed{Channel: channelInfo(ch)}

	uploads := ""
	if ch.ContentDetails != nil && ch.ContentDetails.RelatedPlaylists != nil {
		uploads = ch.ContentDetails.RelatedPlaylists.Uploads
	}

	var videoIDs []string
	if uploads != "" {
		var cost int
		videoIDs, cost, err = c.uploadIDs(ctx, uploads)
		spent += cost
		if err != nil {
			return nil, err
		}
	}

	for start := 0; start < len(videoIDs); start += maxPageSize {
		end := min(start+maxPageSize, len(videoIDs))

		spent += listCallCost
		vResp, err := c.service.Videos.
			List([]string{"snippet", "contentDetails", "statistics"}).
			Id(videoIDs[start:end]...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, c.mapError("videos.list", err)
		}
		for _, v := range vResp.Items {
			feed.Records = append(feed.Records, videoRecord(v))
		}
	}

	feed.FetchedAt = time.Now().UTC()

	c.logger.Info("youtube fetch completed",
		zap.String("channel_id", channelID),
		zap.Int("count", len(feed.Records)),
		zap.Int("quota_used", spent),
	)

	return feed, nil
}

// uploadIDs pages through the uploads playlist, newest first.
func (c *Client) uploadIDs(ctx context.Context, playlistID string) ([]string, int, error) {
	var (
		ids   []string
		cost  int
		token string
	)

	for len(ids) < c.maxVideos {
		cost += listCallCost
		call := c.service.PlaylistItems.
			List([]string{"contentDetails"}).
			PlaylistId(playlistID).
			MaxResults(int64(min(maxPageSize, c.maxVideos-len(ids))))
		if token != "" {
			call = call.PageToken(token)
		}

		resp, err := call.Context(ctx).Do()
		if err != nil {
			if isStatus(err, http.StatusNotFound) {
				// Channels without uploads have no playlist.
				return ids, cost, nil
			}
			return nil, cost, c.mapError("playlistItems.list", err)
		}

		for _, item := range resp.Items {
			if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
				ids = append(ids, item.ContentDetails.VideoId)
			}
		}

		token = resp.NextPageToken
		if token == "" || len(resp.Items) == 0 {
			break
		}
	}

	if len(ids) > c.maxVideos {
		ids = ids[:c.maxVideos]
	}
	return ids, cost, nil
}

// mapError turns Data API failures into domain errors.
func (c *Client) mapError(call string, err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("youtube %s: %w: %w", call, domain.ErrUnavailable, err)
	}

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("youtube %s: %w: %w", call, domain.ErrRateLimited, err)
	case apiErr.Code == http.StatusForbidden && hasReason(apiErr, "quotaExceeded", "dailyLimitExceeded"):
		c.quota.exhaust()
		return fmt.Errorf("youtube %s: %w: %w", call, domain.ErrRateLimited, err)
	case apiErr.Code == http.StatusForbidden && hasReason(apiErr, "rateLimitExceeded", "userRateLimitExceeded"):
		return fmt.Errorf("youtube %s: %w: %w", call, domain.ErrRateLimited, err)
	case apiErr.Code == http.StatusNotFound:
		return fmt.Errorf("youtube %s: %w: %w", call, domain.ErrNotFound, err)
	default:
		return fmt.Errorf("youtube %s: %w: %w", call, domain.ErrUnavailable, err)
	}
}

func hasReason(apiErr *googleapi.Error, reasons ...string) bool {
	for _, item := range apiErr.Errors {
		for _, r := range reasons {
			if item.Reason == r {
				return true
			}
		}
	}
	return false
}

func isStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// HealthCheck reports local state only and spends no quota.
func (c *Client) HealthCheck(_ context.Context) error {
	if c.cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("youtube circuit breaker is open: %w", domain.ErrUnavailable)
	}
	if err := c.quota.check(listCallCost); err != nil {
		return err
	}
	return nil
}

// QuotaStatus returns units used today, the daily limit and the next reset.
func (c *Client) QuotaStatus() (used, limit int, reset time.Time) {
	return c.quota.status()
}

// estimateCost is the worst case for one fetch: the channel lookup plus one
// playlist page and one videos batch per 50 uploads.
func estimateCost(maxVideos int) int {
	pages := (maxVideos + maxPageSize - 1) / maxPageSize
	return listCallCost + 2*pages*listCallCost
}
