package handlers

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"

	"pnodemon/models"
)

// NodesResponse wraps the node list with its totals. TotalCount is the
// whole fleet; FilteredCount is the match count before any limit.
type NodesResponse struct {
	Nodes         []models.NodeView `json:"nodes"`
	TotalCount    int               `json:"total_count"`
	FilteredCount int               `json:"filtered_count"`
}

// GetNodes godoc
// @Summary List all discovered nodes
// @Description Returns the deduplicated fleet with derived health, version status and geolocation
// @Tags nodes
// @Produce json
// @Param health query string false "Filter by health state (healthy, degraded, offline)"
// @Param limit query int false "Cap the number of returned nodes"
// @Success 200 {object} NodesResponse
// @Router /api/nodes [get]
func (h *Handler) GetNodes(c echo.Context) error {
	nodes, stale, err := h.Monitor.Nodes(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	}

	fleetTotal := len(nodes)

	if filter := c.QueryParam("health"); filter != "" {
		filtered := make([]models.NodeView, 0, len(nodes))
		for _, n := range nodes {
			if string(n.Health) == filter {
				filtered = append(filtered, n)
			}
		}
		nodes = filtered
	}

	// Healthy first, then most recently seen.
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].HealthWeight != nodes[j].HealthWeight {
			return nodes[i].HealthWeight > nodes[j].HealthWeight
		}
		return nodes[i].LastSeenTimestamp > nodes[j].LastSeenTimestamp
	})

	filtered := len(nodes)
	if limit, _ := strconv.Atoi(c.QueryParam("limit")); limit > 0 && limit < len(nodes) {
		nodes = nodes[:limit]
	}

	if stale {
		c.Response().Header().Set("X-Data-Stale", "true")
	}

	return c.JSON(http.StatusOK, NodesResponse{
		Nodes:         nodes,
		TotalCount:    fleetTotal,
		FilteredCount: filtered,
	})
}

// GetNode godoc
// @Summary Get a single node by address
// @Tags nodes
// @Produce json
// @Param address path string true "Node address (host:port)"
// @Success 200 {object} models.NodeView
// @Failure 404 {object} ErrorResponse
// @Router /api/nodes/{address} [get]
func (h *Handler) GetNode(c echo.Context) error {
	address := c.Param("address")

	node, err := h.Monitor.Node(c.Request().Context(), address)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	}
	if node == nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Node not found"})
	}

	return c.JSON(http.StatusOK, node)
}
