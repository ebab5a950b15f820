package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"

	metricsvc "github.com/trezcool/loo7/services/metrics"
)

// metricsMiddleware counts requests by route pattern, not raw path, to keep label cardinality low.
func metricsMiddleware(m *metricsvc.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			if err != nil {
				// let the error handler write the final status
				ctx.Error(err)
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(ctx.Request().Method, route, ctx.Response().Status, time.Since(start))
			return nil
		}
	}
}
