package main

import (
	"context"
	"net/http"

	"sales-saas/internal/httpapi"
	"sales-saas/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, sessionMW gin.HandlerFunc, dbHealth func(context.Context) error) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := dbHealth(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Session middleware never rejects anonymous callers; each handler derives
	// the principal and answers 401 with the login URL itself.
	v1 := r.Group("/v1")
	v1.Use(sessionMW)
	{
		v1.GET("/me", rbac.RequireCaller(), h.Me)

		sc := v1.Group("/sales-calls")
		{
			sc.GET("", h.ListSalesCalls)
			sc.POST("", h.CreateSalesCall)
			sc.GET("/summary", h.SalesCallSummary)
			sc.GET("/events", h.StreamSalesCallEvents)
			sc.PUT("/:id", h.UpdateSalesCall)
			sc.DELETE("/:id", h.DeleteSalesCall)
		}
	}
}
