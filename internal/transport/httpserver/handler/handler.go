// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"channel-insight-service/internal/app/service"
	"channel-insight-service/internal/domain"
	"channel-insight-service/internal/transport/httpserver/dto"
	"channel-insight-service/internal/validator"
)

// ChannelService is the channel registry used by handlers.
type ChannelService interface {
	Track(ctx context.Context, id, title string, competitor bool) (*domain.TrackedChannel, error)
	List(ctx context.Context) ([]*domain.TrackedChannel, error)
	Get(ctx context.Context, id string) (*domain.TrackedChannel, error)
	Videos(ctx context.Context, id string) ([]domain.VideoMetric, error)
	RefreshAll(ctx context.Context) ([]service.RefreshResult, error)
	ProviderName() string
	ProviderHealth(ctx context.Context) error
}

// AnalysisService runs analyses and renders reports.
type AnalysisService interface {
	Analyze(ctx context.Context, channelID string) (*domain.ChannelAnalysis, error)
	Latest(ctx context.Context, channelID string) (*domain.ChannelAnalysis, error)
	Compare(ctx context.Context, selfID string, competitorIDs []string) (*service.ComparisonResult, error)
	Report(ctx context.Context, channelID string, format domain.ReportFormat) ([]byte, error)
	ComparisonReport(ctx context.Context, selfID, competitorID string, format domain.ReportFormat) ([]byte, error)
	ClearCache(ctx context.Context) error
}

// NarrativeService drafts and lists narratives.
type NarrativeService interface {
	Enabled() bool
	Generate(ctx context.Context, channelID, topic, competitorID string) (*domain.Narrative, error)
	List(ctx context.Context, channelID string, limit int) ([]*domain.Narrative, error)
}

// channelParam reads and validates a channel id path parameter. When ok is
// false the error response has been written and err is the write result.
func channelParam(c *fiber.Ctx, name string) (id string, ok bool, err error) {
	id = c.Params(name)
	if !validator.ValidChannelID(id) {
		return "", false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid channel id",
			Code:  "INVALID_CHANNEL_ID",
		})
	}
	return id, true, nil
}

// bind parses the body, or the query string when fromQuery is set, into req
// and validates it. An empty body leaves req zeroed. When ok is false the
// error response has been written.
func bind(c *fiber.Ctx, v *validator.Validator, req any, fromQuery bool) (ok bool, err error) {
	switch {
	case fromQuery:
		err = c.QueryParser(req)
	case len(c.Body()) > 0:
		err = c.BodyParser(req)
	}
	if err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request",
			Code:  "INVALID_PARAMS",
		})
	}

	if err := v.Validate(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}
	return true, nil
}

// writeError maps service errors onto HTTP status codes.
func writeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	status, code := fiber.StatusInternalServerError, "INTERNAL_ERROR"
	message := "internal error"

	switch {
	case domain.IsValidationError(err), errors.Is(err, domain.ErrInvalidSnapshot):
		status, code, message = fiber.StatusUnprocessableEntity, "UNPROCESSABLE", err.Error()
	case errors.Is(err, domain.ErrInvalidFormat):
		status, code, message = fiber.StatusBadRequest, "INVALID_FORMAT", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, code, message = fiber.StatusNotFound, "NOT_FOUND", "channel not found"
	case errors.Is(err, domain.ErrRateLimited):
		status, code, message = fiber.StatusTooManyRequests, "RATE_LIMITED", "provider rate limit reached, retry later"
	case errors.Is(err, domain.ErrNarrativeOff):
		status, code, message = fiber.StatusServiceUnavailable, "NARRATIVE_DISABLED", err.Error()
	// Adapters wrap timeouts in ErrUnavailable; the deadline decides the status.
	case errors.Is(err, context.DeadlineExceeded):
		status, code, message = fiber.StatusGatewayTimeout, "TIMEOUT", "request timed out"
	case errors.Is(err, domain.ErrUnavailable):
		status, code, message = fiber.StatusBadGateway, "PROVIDER_UNAVAILABLE", "upstream provider unavailable"
	}

	if status >= 500 {
		logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.String("path", c.Path()), zap.Error(err))
	}

	return c.Status(status).JSON(dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
