package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"channel-insight-service/internal/domain"
	"channel-insight-service/internal/transport/httpserver/dto"
	"channel-insight-service/internal/validator"
)

// NarrativeHandler handles narrative generation requests.
type NarrativeHandler struct {
	service   NarrativeService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewNarrativeHandler creates a new NarrativeHandler.
func NewNarrativeHandler(svc NarrativeService, v *validator.Validator, logger *zap.Logger) *NarrativeHandler {
	return &NarrativeHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// Generate handles POST /api/v1/channels/:id/narratives
func (h *NarrativeHandler) Generate(c *fiber.Ctx) error {
	id, ok, err := channelParam(c, "id")
	if !ok {
		return err
	}
	if !h.service.Enabled() {
		return writeError(c, h.logger, domain.ErrNarrativeOff)
	}

	var req dto.NarrativeRequest
	if ok, err := bind(c, h.validator, &req, false); !ok {
		return err
	}

	n, err := h.service.Generate(c.UserContext(), id, req.Topic, req.CompetitorID)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.FromNarrative(n))
}

// List handles GET /api/v1/channels/:id/narratives
func (h *NarrativeHandler) List(c *fiber.Ctx) error {
	id, ok, err := channelParam(c, "id")
	if !ok {
		return err
	}

	var q dto.ListQuery
	if ok, err := bind(c, h.validator, &q, true); !ok {
		return err
	}

	narratives, err := h.service.List(c.UserContext(), id, q.Limit)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	out := make([]dto.NarrativeResponse, len(narratives))
	for i, n := range narratives {
		out[i] = dto.FromNarrative(n)
	}
	return c.JSON(fiber.Map{
		"channel_id": id,
		"narratives": out,
	})
}
