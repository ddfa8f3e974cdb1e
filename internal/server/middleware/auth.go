package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/souenergy/cotacao-backend/internal/service/auth"
)

// AdminEmailKey is the gin context key under which the verified
// administrator email is stored.
const AdminEmailKey = "adminEmail"

// RequireAdmin guards a route group with bearer-token authentication. A
// missing, malformed or expired token aborts with the same generic 401
// before any handler runs.
func RequireAdmin(authSvc *auth.Service, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "access denied"})
			return
		}

		email, err := authSvc.VerifyToken(token)
		if err != nil {
			logger.Debug("rejected bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "access denied"})
			return
		}

		c.Set(AdminEmailKey, email)
		c.Next()
	}
}
