package dto

import (
	"time"

	"channel-insight-service/internal/app/service"
	"channel-insight-service/internal/domain"
)

// ChannelResponse represents a tracked channel.
type ChannelResponse struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Subscribers     int64  `json:"subscribers"`
	Competitor      bool   `json:"competitor"`
	LastRefreshedAt string `json:"last_refreshed_at,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// FromChannel converts domain.TrackedChannel to ChannelResponse.
func FromChannel(c *domain.TrackedChannel) ChannelResponse {
	resp := ChannelResponse{
		ID:          c.ID,
		Title:       c.Title,
		Subscribers: c.Subscribers,
		Competitor:  c.Competitor,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
	if c.LastRefreshedAt != nil {
		resp.LastRefreshedAt = c.LastRefreshedAt.Format(time.RFC3339)
	}
	return resp
}

// ChannelListResponse wraps a channel list.
type ChannelListResponse struct {
	Channels []ChannelResponse `json:"channels"`
	Total    int               `json:"total"`
}

// FromChannels converts a channel slice.
func FromChannels(channels []*domain.TrackedChannel) ChannelListResponse {
	resp := ChannelListResponse{Channels: make([]ChannelResponse, len(channels)), Total: len(channels)}
	for i, c := range channels {
		resp.Channels[i] = FromChannel(c)
	}
	return resp
}

// VideoResponse is a stored raw video row.
type VideoResponse struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Tags            []string `json:"tags,omitempty"`
	PublishedAt     string   `json:"published_at"`
	DurationSeconds int64    `json:"duration_seconds"`
	Views           int64    `json:"views"`
	Likes           int64    `json:"likes"`
	Comments        int64    `json:"comments"`
}

// FromVideos converts stored rows.
func FromVideos(videos []domain.VideoMetric) []VideoResponse {
	out := make([]VideoResponse, len(videos))
	for i, v := range videos {
		out[i] = VideoResponse{
			ID:              v.ID,
			Title:           v.Title,
			Tags:            v.Tags,
			PublishedAt:     v.PublishedAt.Format(time.RFC3339),
			DurationSeconds: v.DurationSeconds,
			Views:           v.Views,
			Likes:           v.Likes,
			Comments:        v.Comments,
		}
	}
	return out
}

// NarrativeResponse represents a generated narrative.
type NarrativeResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Topic     string `json:"topic,omitempty"`
	Model     string `json:"model"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// FromNarrative converts domain.Narrative to NarrativeResponse.
func FromNarrative(n *domain.Narrative) NarrativeResponse {
	return NarrativeResponse{
		ID:        n.ID,
		ChannelID: n.ChannelID,
		Topic:     n.Topic,
		Model:     n.Model,
		Content:   n.Content,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

// RefreshResultResponse represents the refresh of one channel.
type RefreshResultResponse struct {
	ChannelID string `json:"channel_id"`
	Videos    int    `json:"videos"`
	Skipped   int    `json:"skipped"`
	Duration  string `json:"duration"`
	Error     string `json:"error,omitempty"`
}

// RefreshResponse represents the response for a refresh run.
type RefreshResponse struct {
	Results []RefreshResultResponse `json:"results"`
	Summary RefreshSummary          `json:"summary"`
}

// RefreshSummary holds summary of a refresh run.
type RefreshSummary struct {
	TotalVideos int `json:"total_videos"`
	ChannelsOK  int `json:"channels_ok"`
	ChannelsErr int `json:"channels_failed"`
}

// FromRefreshResults converts service.RefreshResult slice to RefreshResponse.
func FromRefreshResults(results []service.RefreshResult) RefreshResponse {
	resp := RefreshResponse{
		Results: make([]RefreshResultResponse, len(results)),
	}

	for i, r := range results {
		errMsg := ""
		if r.Error != nil {
			errMsg = r.Error.Error()
			resp.Summary.ChannelsErr++
		} else {
			resp.Summary.TotalVideos += r.Videos
			resp.Summary.ChannelsOK++
		}

		resp.Results[i] = RefreshResultResponse{
			ChannelID: r.ChannelID,
			Videos:    r.Videos,
			Skipped:   r.Skipped,
			Duration:  r.Duration.String(),
			Error:     errMsg,
		}
	}

	return resp
}

// ProviderResponse reports the active metrics provider.
type ProviderResponse struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}
