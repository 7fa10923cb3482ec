package server

import (
	"net/http"
	"strings"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/token"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// BearerAuth validates the Authorization header and stores the verified
// user id in the request context for downstream handlers.
func BearerAuth(tokens *token.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrUnauthorized, "missing or invalid credentials")
			c.Abort()
			return
		}

		claims, err := tokens.Validate(parts[1])
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrUnauthorized, "missing or invalid credentials")
			utils.Warn("BearerAuth: token rejected", map[string]any{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(token.ContextUserIDKey, claims.UserID)
		c.Next()
	}
}
