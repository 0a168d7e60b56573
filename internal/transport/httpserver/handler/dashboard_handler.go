package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"channel-insight-service/internal/domain"
)

// dashboardRow is one tracked channel as shown on the dashboard.
type dashboardRow struct {
	Channel  *domain.TrackedChannel
	Analysis *domain.ChannelAnalysis
}

// DashboardHandler handles dashboard-related HTTP requests.
type DashboardHandler struct {
	channels ChannelService
	analysis AnalysisService
	logger   *zap.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(channels ChannelService, analysis AnalysisService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		channels: channels,
		analysis: analysis,
		logger:   logger,
	}
}

// Render handles GET /dashboard
// Shows tracked channels with their last stored analysis. Nothing is fetched
// from the provider here.
func (h *DashboardHandler) Render(c *fiber.Ctx) error {
	channels, err := h.channels.List(c.UserContext())
	if err != nil {
		h.logger.Error("dashboard channel listing failed", zap.Error(err))
		channels = nil
	}

	rows := make([]dashboardRow, 0, len(channels))
	analyzed := 0
	for _, ch := range channels {
		a, err := h.analysis.Latest(c.UserContext(), ch.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			h.logger.Warn("dashboard analysis lookup failed", zap.String("channel_id", ch.ID), zap.Error(err))
		}
		if a != nil {
			analyzed++
		}
		rows = append(rows, dashboardRow{Channel: ch, Analysis: a})
	}

	return c.Render("pages/dashboard", fiber.Map{
		"Title":        "Channel Insight Dashboard",
		"Provider":     h.channels.ProviderName(),
		"Rows":         rows,
		"ChannelCount": len(rows),
		"Analyzed":     analyzed,
	}, "layouts/base")
}
