package handlers

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"pnodemon/models"
)

// RegionCluster groups the nodes resolved to one country.
type RegionCluster struct {
	Country   string            `json:"country"`
	NodeCount int               `json:"node_count"`
	Healthy   int               `json:"healthy"`
	Degraded  int               `json:"degraded"`
	Offline   int               `json:"offline"`
	Nodes     []models.NodeView `json:"nodes"`
}

// TopologyResponse is the geographic view of the fleet.
type TopologyResponse struct {
	Regions    []RegionCluster `json:"regions"`
	Unresolved int             `json:"unresolved"`
	TotalNodes int             `json:"total_nodes"`
}

// GetTopology godoc
// @Summary Get the fleet grouped by country
// @Tags topology
// @Produce json
// @Success 200 {object} TopologyResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/topology [get]
func (h *Handler) GetTopology(c echo.Context) error {
	nodes, stale, err := h.Monitor.Nodes(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	}

	byCountry := make(map[string]*RegionCluster)
	unresolved := 0

	for _, n := range nodes {
		if n.Country == "" {
			unresolved++
			continue
		}
		cluster, ok := byCountry[n.Country]
		if !ok {
			cluster = &RegionCluster{Country: n.Country}
			byCountry[n.Country] = cluster
		}
		cluster.NodeCount++
		switch n.Health {
		case models.HealthHealthy:
			cluster.Healthy++
		case models.HealthDegraded:
			cluster.Degraded++
		default:
			cluster.Offline++
		}
		cluster.Nodes = append(cluster.Nodes, n)
	}

	regions := make([]RegionCluster, 0, len(byCountry))
	for _, cluster := range byCountry {
		regions = append(regions, *cluster)
	}
	sort.Slice(regions, func(i, j int) bool {
		if regions[i].NodeCount != regions[j].NodeCount {
			return regions[i].NodeCount > regions[j].NodeCount
		}
		return regions[i].Country < regions[j].Country
	})

	if stale {
		c.Response().Header().Set("X-Data-Stale", "true")
	}

	return c.JSON(http.StatusOK, TopologyResponse{
		Regions:    regions,
		Unresolved: unresolved,
		TotalNodes: len(nodes),
	})
}
