package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// TriggerSync godoc
// @Summary Run a sync pass immediately
// @Description Requires the X-Admin-Secret header
// @Tags sync
// @Produce json
// @Success 200 {object} models.SyncSummary
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/sync [post]
func (h *Handler) TriggerSync(c echo.Context) error {
	if !h.adminAuthorized(c) {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
	}

	summary, err := h.Syncer.SyncOnce(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, summary)
}
