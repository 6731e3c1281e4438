package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/socktun/socktun/orchestrator"
	"github.com/socktun/socktun/tunnel"
)

// ConnectionService is the slice of the orchestrator the gateway uses.
type ConnectionService interface {
	Connect(conf tunnel.Configuration) orchestrator.Result
	Disconnect() orchestrator.Result
	Status() orchestrator.Status
}

// StatsProvider reports the relay engine's traffic counters.
type StatsProvider interface {
	Stats() tunnel.RelayStats
}

type handlers struct {
	conns ConnectionService
	stats StatsProvider
}

// Health godoc
// @Summary      Health probe
// @Description  Liveness check, reachable without authentication.
// @Produce      json
// @Success      200 {object} HealthResponse
// @Router       /health [get]
func (h handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Service: ServiceName})
}

// Connect godoc
// @Summary      Start the tunnel
// @Description  Connects the tunnel to the given SOCKS5 proxy. Repeating an identical request while connected is a successful no-op.
// @Accept       json
// @Produce      json
// @Param        request body ConnectRequest true "proxy target"
// @Success      200 {object} GenericResponse
// @Failure      400 {object} GenericResponse
// @Security     BearerAuth
// @Router       /connect [post]
func (h handlers) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: fmt.Sprintf("invalid request body: %v", err)})
		return
	}
	if req.Host == "" {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: "host must not be empty"})
		return
	}
	if req.Port < 1 || req.Port > 65535 {
		c.JSON(http.StatusBadRequest, GenericResponse{Message: fmt.Sprintf("port %d out of range, must be 1-65535", req.Port)})
		return
	}

	result := h.conns.Connect(tunnel.Configuration{
		ProxyHost: req.Host,
		ProxyPort: req.Port,
		Username:  req.Username,
		Password:  req.Password,
	})
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, GenericResponse{Success: result.Success, Message: result.Message})
}

// Disconnect godoc
// @Summary      Stop the tunnel
// @Description  Disconnects the tunnel. Always succeeds; disconnecting an idle tunnel is a no-op.
// @Produce      json
// @Success      200 {object} GenericResponse
// @Security     BearerAuth
// @Router       /disconnect [post]
func (h handlers) Disconnect(c *gin.Context) {
	result := h.conns.Disconnect()
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, GenericResponse{Success: result.Success, Message: result.Message})
}

// Status godoc
// @Summary      Tunnel status
// @Produce      json
// @Success      200 {object} StatusResponse
// @Security     BearerAuth
// @Router       /status [get]
func (h handlers) Status(c *gin.Context) {
	status := h.conns.Status()
	c.JSON(http.StatusOK, StatusResponse{
		Connected: status.Connected,
		State:     status.State,
		Host:      status.Host,
		Port:      status.Port,
	})
}

// Stats godoc
// @Summary      Relay traffic counters
// @Produce      json
// @Success      200 {object} tunnel.RelayStats
// @Security     BearerAuth
// @Router       /stats [get]
func (h handlers) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.Stats())
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, GenericResponse{Message: "not found"})
}
