package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"pnodemon/config"
	"pnodemon/services"
)

var startTime = time.Now()

type Handler struct {
	Cfg     *config.Config
	Cache   services.Cache
	Monitor *services.Monitor
	Syncer  *services.Syncer
	Store   *services.MongoStore
	PRPC    *services.PRPCClient
}

func NewHandler(cfg *config.Config, cache services.Cache, monitor *services.Monitor, syncer *services.Syncer, store *services.MongoStore, prpc *services.PRPCClient) *Handler {
	return &Handler{
		Cfg:     cfg,
		Cache:   cache,
		Monitor: monitor,
		Syncer:  syncer,
		Store:   store,
		PRPC:    prpc,
	}
}

// ErrorResponse is the uniform error body for all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetHealth returns OK
func (h *Handler) GetHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// GetStatus returns backend status
func (h *Handler) GetStatus(c echo.Context) error {
	status := map[string]interface{}{
		"status":    "running",
		"uptime":    time.Since(startTime).String(),
		"cache":     h.Cache.Mode(),
		"mongodb":   h.Store.Enabled(),
		"timestamp": time.Now().Unix(),
	}
	return c.JSON(http.StatusOK, status)
}

// adminAuthorized checks the shared-secret header. An empty configured
// secret locks the endpoint rather than opening it.
func (h *Handler) adminAuthorized(c echo.Context) bool {
	secret := h.Cfg.Server.AdminSecret
	return secret != "" && c.Request().Header.Get("X-Admin-Secret") == secret
}
