package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HealthDetailed reports each backing store separately. A degraded cache does
// not fail the endpoint; an unreachable metadata store does.
func (s *Server) HealthDetailed(c *gin.Context) {
	dbStatus := "connected"
	status := http.StatusOK
	if err := s.pingDB(c.Request.Context()); err != nil {
		dbStatus = "disconnected"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":         dbStatus,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"database":       gin.H{"status": dbStatus},
		"cache":          s.cache.Stats(),
	})
}

func (s *Server) HealthReady(c *gin.Context) {
	if err := s.pingDB(c.Request.Context()); err != nil {
		respondError(c, http.StatusServiceUnavailable, "Service not ready", CodeServiceUnavailable, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) HealthLive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
