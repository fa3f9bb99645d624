package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"sales-saas/internal/audit"
	"sales-saas/internal/rbac"
	"sales-saas/internal/reporting"
	"sales-saas/internal/salescalls"
	"sales-saas/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ViewVersionHeader carries the list-view version a response was built at.
const ViewVersionHeader = "X-View-Version"

// ViewVersions reports the current list-view version for a principal.
type ViewVersions interface {
	Version(ctx context.Context, p rbac.Principal) (int64, error)
}

// StaleFeed delivers owner ids whose list views went stale.
type StaleFeed interface {
	Subscribe(ctx context.Context) (<-chan string, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: bind input, derive the principal, call the service, map errors.
type Handlers struct {
	Principals *rbac.Deriver
	SalesCalls *salescalls.Service
	Reporting  *reporting.Service
	Views      ViewVersions
	Stale      StaleFeed
}

// principal derives the request's authorization context. On failure the
// response is already written.
func (h Handlers) principal(c *gin.Context) (context.Context, rbac.Principal, bool) {
	ctx := audit.WithClientIP(c.Request.Context(), c.ClientIP())
	p, err := h.Principals.Derive(ctx)
	if err != nil {
		writeError(c, err)
		return ctx, rbac.Principal{}, false
	}
	return ctx, p, true
}

func (h Handlers) Me(c *gin.Context) {
	_, p, ok := h.principal(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"caller_id": p.CallerID, "privileged": p.Privileged, "role": rbac.RoleOf(p)})
}

func (h Handlers) ListSalesCalls(c *gin.Context) {
	ctx, p, ok := h.principal(c)
	if !ok {
		return
	}

	// Read the version before the list so a concurrent write can only make
	// the reported version older than the data, never newer.
	if h.Views != nil {
		if v, err := h.Views.Version(ctx, p); err == nil {
			c.Header(ViewVersionHeader, strconv.FormatInt(v, 10))
		} else {
			logger.From(ctx).Warn("view version lookup failed", "caller_id", p.CallerID, "err", err)
		}
	}

	recs, err := h.SalesCalls.List(ctx, p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales_calls": recs})
}

func (h Handlers) CreateSalesCall(c *gin.Context) {
	ctx, p, ok := h.principal(c)
	if !ok {
		return
	}
	var in salescalls.Input
	if err := c.ShouldBind(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	rec, err := h.SalesCalls.Create(ctx, p, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h Handlers) UpdateSalesCall(c *gin.Context) {
	ctx, p, ok := h.principal(c)
	if !ok {
		return
	}
	var in salescalls.Input
	if err := c.ShouldBind(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	rec, err := h.SalesCalls.Update(ctx, p, c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h Handlers) DeleteSalesCall(c *gin.Context) {
	ctx, p, ok := h.principal(c)
	if !ok {
		return
	}
	if err := h.SalesCalls.Delete(ctx, p, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h Handlers) SalesCallSummary(c *gin.Context) {
	ctx, p, ok := h.principal(c)
	if !ok {
		return
	}
	out, err := h.Reporting.Summary(ctx, p)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// StreamSalesCallEvents pushes a "stale" server-sent event whenever a list the
// principal can see changes. Non-privileged callers only hear about their own
// records.
func (h Handlers) StreamSalesCallEvents(c *gin.Context) {
	ctx, p, ok := h.principal(c)
	if !ok {
		return
	}
	if h.Stale == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "event stream not configured"})
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	events, err := h.Stale.Subscribe(ctx)
	if err != nil {
		logger.From(ctx).Warn("stale feed subscribe failed", "caller_id", p.CallerID, "err", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "event stream unavailable"})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.SSEvent("ready", gin.H{"caller_id": p.CallerID})
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case owner, ok := <-events:
			if !ok {
				return
			}
			if !p.Privileged && owner != p.CallerID {
				continue
			}
			c.SSEvent("stale", gin.H{"owner_id": owner})
			c.Writer.Flush()
		}
	}
}

// writeError maps service errors to responses. Persistence details stay in the logs.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rbac.ErrUnauthenticated):
		rbac.AbortUnauthenticated(c)
	case errors.Is(err, salescalls.ErrInvalidInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, salescalls.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "sales call not found"})
	case errors.Is(err, salescalls.ErrPersistence):
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
	default:
		logger.From(c.Request.Context()).Error("unhandled error", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
