package http

import (
	"net/http"
	"time"

	"golang-headline-signal/internal/scoring/dto"

	"github.com/labstack/echo/v4"
)

// HealthHandler serves liveness endpoints.
type HealthHandler struct {
	model       string
	modelLoaded bool
	now         func() time.Time
}

// NewHealthHandler reports model as loaded when a classifier backend was
// configured at startup.
func NewHealthHandler(model string, modelLoaded bool) *HealthHandler {
	return &HealthHandler{model: model, modelLoaded: modelLoaded, now: time.Now}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
}

// Root godoc
// @Summary Service banner
// @Tags health
// @Produce  json
// @Success 200 {object} map[string]string
// @Router / [get]
func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "Financial Sentiment Trading API is running"})
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce  json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.HealthResponse{
		Status:      "healthy",
		Timestamp:   h.now().UTC(),
		ModelLoaded: h.modelLoaded,
		Model:       h.model,
	})
}
