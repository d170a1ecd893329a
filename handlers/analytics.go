package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetAnalytics godoc
// @Summary Get network-wide analytics
// @Description Returns health, version, storage and performance aggregates with risk flags
// @Tags analytics
// @Produce json
// @Success 200 {object} models.NetworkAnalytics
// @Failure 503 {object} ErrorResponse
// @Router /api/analytics [get]
func (h *Handler) GetAnalytics(c echo.Context) error {
	analytics, stale, err := h.Monitor.Analytics(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	}

	if stale {
		c.Response().Header().Set("X-Data-Stale", "true")
	}

	return c.JSON(http.StatusOK, analytics)
}
