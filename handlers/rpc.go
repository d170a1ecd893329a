package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"pnodemon/models"
)

// ProxyRPCRequest names a node and a whitelisted method to invoke on it.
type ProxyRPCRequest struct {
	Address string `json:"address"`
	Method  string `json:"method"`
}

// ProxyRPC godoc
// @Summary Forward a whitelisted RPC call to a specific node
// @Tags rpc
// @Accept json
// @Produce json
// @Param request body ProxyRPCRequest true "Target address and method"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.RPCError
// @Failure 502 {object} models.RPCError
// @Router /api/rpc [post]
func (h *Handler) ProxyRPC(c echo.Context) error {
	var req ProxyRPCRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.RPCError{Code: -32700, Message: "Parse error"})
	}

	if req.Address == "" {
		return c.JSON(http.StatusBadRequest, models.RPCError{Code: -32600, Message: "Missing node address"})
	}
	if !models.KnownMethod(req.Method) {
		return c.JSON(http.StatusBadRequest, models.RPCError{Code: -32601, Message: "Method not found"})
	}

	result, ok := h.PRPC.CallNode(c.Request().Context(), req.Address, req.Method)
	if !ok {
		return c.JSON(http.StatusBadGateway, models.RPCError{Code: -32000, Message: "Node did not answer"})
	}

	return c.JSON(http.StatusOK, map[string]json.RawMessage{"result": result})
}
