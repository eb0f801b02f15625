package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tenantd/internal/auth/token"
	"github.com/smallbiznis/tenantd/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	contextAdminIDKey = "admin_id"
	contextOrgNameKey = "organization_name"
)

// RequestLogger emits one structured line per request after it completes.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.String("client_ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// RateLimit runs one fixed-window admission check for the class, keyed on the
// client address. Limit headers go out on every response so callers can pace
// themselves before hitting the wall.
func (s *Server) RateLimit(class ratelimit.Class) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := s.limiter.Check(c.Request.Context(), class, c.ClientIP())

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

		if !decision.Allowed {
			retryAfter := int(decision.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			respondError(c, http.StatusTooManyRequests, class.Message, CodeRateLimitExceeded, gin.H{
				"retry_after_seconds": retryAfter,
			})
			return
		}

		c.Next()
	}
}

// AuthRequired verifies the bearer token and exposes its claims to handlers.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.TrimSpace(header) == "" {
			AbortWithError(c, token.ErrMissing)
			return
		}
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			AbortWithError(c, token.ErrMalformed)
			return
		}

		claims, err := s.tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextAdminIDKey, claims.AdminID)
		c.Set(contextOrgNameKey, claims.OrganizationName)
		c.Next()
	}
}

func principalOrg(c *gin.Context) string {
	return c.GetString(contextOrgNameKey)
}

func principalAdminID(c *gin.Context) string {
	return c.GetString(contextAdminIDKey)
}
