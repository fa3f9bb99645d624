package auth

import (
	"net/http"
	"strings"
	"time"

	"sales-saas/pkg/logger"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// Session verifies a bearer session token when one is present and injects the
// caller id into the request context.
//
// A request without a token continues anonymously: services reject anonymous
// callers themselves, so the decision stays next to the data access.
// A present but invalid token is rejected here.
func Session(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if raw == "" {
			c.Next()
			return
		}
		if !strings.HasPrefix(raw, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}
		tok := strings.TrimPrefix(raw, bearerPrefix)

		claims, err := m.Verify(tok, time.Now())
		if err != nil {
			logger.FromGin(c).Debug("session token rejected", "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Request = c.Request.WithContext(WithCaller(c.Request.Context(), claims.UserID))
		c.Set("caller_id", claims.UserID)

		c.Next()
	}
}
