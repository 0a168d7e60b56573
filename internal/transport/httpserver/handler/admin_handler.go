package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"channel-insight-service/internal/transport/httpserver/dto"
)

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	channels ChannelService
	analysis AnalysisService
	logger   *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(channels ChannelService, analysis AnalysisService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		channels: channels,
		analysis: analysis,
		logger:   logger,
	}
}

// Refresh handles POST /api/v1/admin/refresh
func (h *AdminHandler) Refresh(c *fiber.Ctx) error {
	h.logger.Info("manual refresh triggered")

	results, err := h.channels.RefreshAll(c.UserContext())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromRefreshResults(results))
}

// Provider handles GET /api/v1/admin/provider
func (h *AdminHandler) Provider(c *fiber.Ctx) error {
	resp := dto.ProviderResponse{Name: h.channels.ProviderName(), Healthy: true}
	if err := h.channels.ProviderHealth(c.UserContext()); err != nil {
		resp.Healthy = false
		resp.Error = err.Error()
	}

	return c.JSON(resp)
}

// ClearCache handles DELETE /api/v1/admin/cache
func (h *AdminHandler) ClearCache(c *fiber.Ctx) error {
	if err := h.analysis.ClearCache(c.UserContext()); err != nil {
		return writeError(c, h.logger, err)
	}

	h.logger.Info("analysis cache cleared")
	return c.SendStatus(fiber.StatusNoContent)
}
