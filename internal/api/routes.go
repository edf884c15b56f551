package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/docport-io/docport/internal/middleware"
)

// Pinger is anything the health endpoint can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes wires the document and profile endpoints behind the
// auth middleware, plus the unauthenticated health and metrics routes.
func RegisterRoutes(r *gin.Engine, authMW *middleware.AuthMiddleware,
	docs *DocumentHandlers, profiles *ProfileHandlers,
	docStore Pinger, metricsPath string) {

	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := docStore.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if metricsPath != "" {
		r.GET(metricsPath, gin.WrapH(promhttp.Handler()))
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMW.RequireAuth())
	{
		v1.GET("/documents/:type", docs.HandleList)
		v1.GET("/documents/:type/count", docs.HandleCount)
		v1.GET("/documents/:type/:id", docs.HandleGet)
		v1.POST("/documents/:type", docs.HandleCreate)
		v1.PUT("/documents/:type/:id", docs.HandleUpdate)
		v1.DELETE("/documents/:type/:id", docs.HandleDelete)

		v1.DELETE("/profiles/:id", profiles.HandleDelete)
	}
}
