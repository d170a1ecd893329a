package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetCacheStatus returns cache mode and health
func (h *Handler) GetCacheStatus(c echo.Context) error {
	mode := h.Cache.Mode()

	response := map[string]interface{}{
		"mode":    mode,
		"healthy": mode == "redis",
		"ttl":     h.Cfg.Cache.TTL,
	}

	return c.JSON(http.StatusOK, response)
}

// ClearCache drops all cached data (admin endpoint)
func (h *Handler) ClearCache(c echo.Context) error {
	if !h.adminAuthorized(c) {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
	}

	if err := h.Cache.Clear(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Cache cleared successfully"})
}
