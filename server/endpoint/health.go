package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/version"
)

const healthTimeout = 3 * time.Second

// Health returns a handler that aggregates the health of the given
// checkers. The response is 503 when any of them is down.
func Health(serviceName string, checkers ...observability.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()
		sh := observability.CheckAll(ctx, serviceName, version.Get().Short(), checkers...)

		status := http.StatusOK
		if sh.Status == observability.HealthStatusDown {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, sh)
	}
}
