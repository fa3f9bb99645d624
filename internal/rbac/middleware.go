package rbac

import (
	"net/http"

	"sales-saas/internal/auth"

	"github.com/gin-gonic/gin"
)

// LoginURL is where unauthenticated browser callers are sent.
const LoginURL = "/login"

// AbortUnauthenticated writes the response every route uses for anonymous callers.
func AbortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "login_url": LoginURL})
}

// RequireCaller rejects requests without a session caller.
// Sales-call routes do not need it (the service checks the principal itself);
// it guards routes that have no service behind them.
func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := auth.CallerID(c.Request.Context()); err != nil {
			AbortUnauthenticated(c)
			return
		}
		c.Next()
	}
}
