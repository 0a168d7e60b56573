package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"channel-insight-service/internal/domain"
	"channel-insight-service/internal/infra/report"
	"channel-insight-service/internal/transport/httpserver/dto"
	"channel-insight-service/internal/validator"
)

// AnalysisHandler handles analysis, comparison and report requests.
type AnalysisHandler struct {
	service   AnalysisService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(svc AnalysisService, v *validator.Validator, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service:   svc,
		validator: v,
		logger:    logger,
	}
}

// Analyze handles GET /api/v1/channels/:id/analysis
// With ?latest=true the last stored analysis is returned without fetching.
func (h *AnalysisHandler) Analyze(c *fiber.Ctx) error {
	id, ok, err := channelParam(c, "id")
	if !ok {
		return err
	}

	var a *domain.ChannelAnalysis
	if c.QueryBool("latest") {
		a, err = h.service.Latest(c.UserContext(), id)
	} else {
		a, err = h.service.Analyze(c.UserContext(), id)
	}
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(a)
}

// Report handles GET /api/v1/channels/:id/report?format=json|markdown|html
func (h *AnalysisHandler) Report(c *fiber.Ctx) error {
	id, ok, err := channelParam(c, "id")
	if !ok {
		return err
	}

	var q dto.ReportQuery
	if ok, err := bind(c, h.validator, &q, true); !ok {
		return err
	}

	out, err := h.service.Report(c.UserContext(), id, q.ToFormat())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, report.ContentType(q.ToFormat()))
	return c.Send(out)
}

// Compare handles POST /api/v1/comparisons
func (h *AnalysisHandler) Compare(c *fiber.Ctx) error {
	var req dto.CompareRequest
	if ok, err := bind(c, h.validator, &req, false); !ok {
		return err
	}

	result, err := h.service.Compare(c.UserContext(), req.ChannelID, req.CompetitorIDs)
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.JSON(result)
}

// ComparisonReport handles GET /api/v1/channels/:id/compare/:competitor?format=
func (h *AnalysisHandler) ComparisonReport(c *fiber.Ctx) error {
	id, ok, err := channelParam(c, "id")
	if !ok {
		return err
	}
	competitor, ok, err := channelParam(c, "competitor")
	if !ok {
		return err
	}

	var q dto.ReportQuery
	if ok, err := bind(c, h.validator, &q, true); !ok {
		return err
	}

	out, err := h.service.ComparisonReport(c.UserContext(), id, competitor, q.ToFormat())
	if err != nil {
		return writeError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, report.ContentType(q.ToFormat()))
	return c.Send(out)
}
