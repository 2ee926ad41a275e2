package handler

import (
	"errors"

	"whereis/internal/core/logger"
	"whereis/internal/features/tracking/domain"
	"whereis/internal/features/tracking/ports"
	"whereis/internal/features/tracking/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TrackingHandler handles HTTP requests for tracking operations.
type TrackingHandler struct {
	trackingService *service.TrackingService
	errors          *domain.ErrorRegistry
}

// NewTrackingHandler creates a new TrackingHandler. Error messages come from errs.
func NewTrackingHandler(trackingService *service.TrackingService, errs *domain.ErrorRegistry) *TrackingHandler {
	if errs == nil {
		errs = domain.DefaultErrorRegistry()
	}
	return &TrackingHandler{
		trackingService: trackingService,
		errors:          errs,
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Code is the stable error code (e.g. "400-02").
	Code domain.ErrorCode `json:"code"`
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// GetWhereIs godoc
// @Summary Get the tracking timeline of a shipment
// @Description Returns the stored timeline, pulling the carrier when the shipment is unknown or refresh is set
// @Tags tracking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tracking ID (carrier-number, e.g. fdx-123456789012)"
// @Param refresh query bool false "Force a carrier pull"
// @Param full query bool false "Include raw carrier data per event"
// @Param phone query string false "Phone number (required by sfex)"
// @Success 200 {object} domain.EntityView
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /v0/whereis/{id} [get]
func (h *TrackingHandler) GetWhereIs(c *fiber.Ctx) error {
	params := map[string]string{}
	if phone := c.Query("phone"); phone != "" {
		params["phone"] = phone
	}

	entity, err := h.trackingService.Lookup(c.UserContext(), service.LookupRequest{
		ID:      c.Params("id"),
		Params:  params,
		Refresh: c.QueryBool("refresh"),
	})
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(entity.View(c.QueryBool("full")))
}

// GetStatus godoc
// @Summary Get the latest status of a shipment
// @Description Returns the last known status from storage without calling the carrier
// @Tags tracking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tracking ID (carrier-number)"
// @Success 200 {object} domain.StatusSummary
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /v0/status/{id} [get]
func (h *TrackingHandler) GetStatus(c *fiber.Ctx) error {
	summary, err := h.trackingService.Status(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(summary)
}

func (h *TrackingHandler) fail(c *fiber.Ctx, err error) error {
	status, code := classify(err)
	if status == fiber.StatusInternalServerError {
		logger.Get().Error("Tracking request failed",
			zap.String("path", c.Path()),
			zap.String("ray_id", rayID(c)),
			zap.Error(err),
		)
	}

	return c.Status(status).JSON(ErrorResponse{
		Code:    code,
		Message: h.errors.Message(code),
		RayID:   rayID(c),
	})
}

// classify maps a service error to an HTTP status and error code.
func classify(err error) (int, domain.ErrorCode) {
	if ve, ok := domain.AsValidationError(err); ok {
		return fiber.StatusBadRequest, ve.Code
	}
	if errors.Is(err, service.ErrEntityNotFound) {
		return fiber.StatusNotFound, domain.CodeNotFound
	}
	if _, ok := ports.AsCarrierError(err); ok {
		return fiber.StatusBadGateway, domain.CodeCarrierUnavailable
	}
	return fiber.StatusInternalServerError, domain.CodeInternal
}

func rayID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}
