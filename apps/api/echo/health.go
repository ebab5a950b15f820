package echoapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthTimeout = 2 * time.Second

type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// health reports whether the record store answers a ping.
func (s *Server) health(ctx echo.Context) error {
	if s.Health == nil {
		return ctx.JSON(http.StatusOK, HealthResponse{Status: "ok"})
	}

	c, cancel := context.WithTimeout(ctx.Request().Context(), healthTimeout)
	defer cancel()

	start := time.Now()
	err := s.Health.Ping(c)
	if s.Metrics != nil {
		s.Metrics.ObserveStorePing(time.Since(start))
	}
	if err != nil {
		s.Logger.Warn("health check failed", err)
		return ctx.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: "store unreachable"})
	}
	return ctx.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
