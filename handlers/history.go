package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// GetNetworkHistory godoc
// @Summary Get historical network snapshots
// @Tags history
// @Produce json
// @Param hours query int false "Window size in hours (default 24)"
// @Param limit query int false "Max snapshots to return (default 500)"
// @Success 200 {array} models.SnapshotRecord
// @Failure 503 {object} ErrorResponse
// @Router /api/history/network [get]
func (h *Handler) GetNetworkHistory(c echo.Context) error {
	if !h.Store.Enabled() {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "History unavailable: persistence is not configured"})
	}

	hours := 24
	if v, err := strconv.Atoi(c.QueryParam("hours")); err == nil && v > 0 {
		hours = v
	}

	limit := int64(500)
	if v, err := strconv.ParseInt(c.QueryParam("limit"), 10, 64); err == nil && v > 0 {
		limit = v
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	snapshots, err := h.Store.SnapshotsSince(c.Request().Context(), since, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, snapshots)
}
