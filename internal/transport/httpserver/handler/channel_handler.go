package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"channel-insight-service/internal/transport/httpserver/dto"
	"channel-insight-service/internal/validator"
)

// ChannelHandler handles tracked channel requests.
type ChannelHandler struct {
	service   ChannelService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewChannelHandler creates a new ChannelHandler.
func NewChannelHandler(svc ChannelService, v *validator.Validator, logger *zap.Logger) *ChannelHandler {
	return &ChannelHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// Track handles POST /api/v1/channels
func (h *ChannelHandler) Track(c *fiber.Ctx) error {
	var req dto.TrackChannelRequest
	if ok, err := bind(c, h.validator, &req, false); !ok {
		return err
	}

	ch, err := h.service.Track(c.UserContext(), req.ChannelID, req.Title, req.Competitor)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.FromChannel(ch))
}

// List handles GET /api/v1/channels
func (h *ChannelHandler) List(c *fiber.Ctx) error {
	channels, err := h.service.List(c.UserContext())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromChannels(channels))
}

// Get handles GET /api/v1/channels/:id
func (h *ChannelHandler) Get(c *fiber.Ctx) error {
	id, ok, err := channelParam(c, "id")
	if !ok {
		return err
	}

	ch, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(dto.FromChannel(ch))
}

// Videos handles GET /api/v1/channels/:id/videos
func (h *ChannelHandler) Videos(c *fiber.Ctx) error {
	id, ok, err := channelParam(c, "id")
	if !ok {
		return err
	}

	videos, err := h.service.Videos(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"channel_id": id,
		"videos":     dto.FromVideos(videos),
	})
}
