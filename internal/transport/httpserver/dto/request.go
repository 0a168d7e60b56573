// Package dto provides Data Transfer Objects for HTTP requests and responses.
package dto

import "channel-insight-service/internal/domain"

// TrackChannelRequest is the body of POST /api/v1/channels.
type TrackChannelRequest struct {
	ChannelID  string `json:"channel_id" validate:"required,channel_id"`
	Title      string `json:"title" validate:"max=200"`
	Competitor bool   `json:"competitor"`
}

// CompareRequest is the body of POST /api/v1/comparisons.
type CompareRequest struct {
	ChannelID     string   `json:"channel_id" validate:"required,channel_id"`
	CompetitorIDs []string `json:"competitor_ids" validate:"required,min=1,max=5,dive,channel_id"`
}

// NarrativeRequest is the body of POST /api/v1/channels/:id/narratives.
type NarrativeRequest struct {
	Topic        string `json:"topic" validate:"max=200"`
	CompetitorID string `json:"competitor_id" validate:"omitempty,channel_id"`
}

// ReportQuery holds report query parameters.
type ReportQuery struct {
	Format string `query:"format" json:"format" validate:"omitempty,oneof=json markdown html"`
}

// ToFormat returns the requested format, JSON by default.
func (q ReportQuery) ToFormat() domain.ReportFormat {
	if q.Format == "" {
		return domain.FormatJSON
	}
	return domain.ReportFormat(q.Format)
}

// ListQuery holds list query parameters.
type ListQuery struct {
	Limit int `query:"limit" json:"limit" validate:"omitempty,min=1,max=100"`
}
