package http

import (
	"net/http"
	"strconv"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/internal/scoring/dto"
	"golang-headline-signal/internal/scoring/service"
	"golang-headline-signal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// WebhookHandler handles webhook endpoint registration.
type WebhookHandler struct {
	webhookService service.WebhookService
	logger         *logger.Logger
}

func NewWebhookHandler(webhookService service.WebhookService, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService, logger: logger}
}

// RegisterRoutes registers the webhook routes to the Echo group.
func (h *WebhookHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateWebhook)
	g.GET("", h.ListWebhooks)
	g.DELETE("/:id", h.DeleteWebhook)
}

// CreateWebhook godoc
// @Summary Register a webhook endpoint
// @Description Signals for the listed symbols (or all symbols) are POSTed to the URL
// @Tags trading
// @Accept  json
// @Produce  json
// @Param   webhook  body    dto.CreateWebhookRequest   true    "Endpoint to register"
// @Success 201 {object} dto.SuccessResponse{data=dto.WebhookResponse}
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /webhooks [post]
func (h *WebhookHandler) CreateWebhook(c echo.Context) error {
	var req dto.CreateWebhookRequest
	if err := c.Bind(&req); err != nil {
		return invalidPayload(c)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(c, err)
	}

	resp, err := h.webhookService.Register(c.Request().Context(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto.Success(resp))
}

// ListWebhooks godoc
// @Summary List webhook endpoints
// @Tags trading
// @Produce  json
// @Success 200 {object} dto.SuccessResponse{data=[]dto.WebhookResponse}
// @Failure 500 {object} dto.ErrorResponse
// @Router /webhooks [get]
func (h *WebhookHandler) ListWebhooks(c echo.Context) error {
	endpoints, err := h.webhookService.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto.Success(endpoints))
}

// DeleteWebhook godoc
// @Summary Delete a webhook endpoint
// @Tags trading
// @Produce  json
// @Param   id  path    int true    "Endpoint ID"
// @Success 204 {object} nil
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /webhooks/{id} [delete]
func (h *WebhookHandler) DeleteWebhook(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return respondError(c, entity.NewValidationError("id", "invalid webhook ID"))
	}

	if err := h.webhookService.Delete(c.Request().Context(), uint(id)); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
