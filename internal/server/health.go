package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const serviceName = "report-generator"

func (s *Server) health(c *gin.Context) {
	ok(c, gin.H{"status": "healthy", "service": serviceName})
}

func (s *Server) ready(c *gin.Context) {
	if s.opts.Ready != nil {
		if err := s.opts.Ready(c.Request.Context()); err != nil {
			s.logger.Warn("http.ready.failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, Resp{
				ErrorCode: http.StatusServiceUnavailable,
				Message:   "not ready",
				Data:      gin.H{"status": "not ready", "error": err.Error()},
			})
			return
		}
	}
	ok(c, gin.H{"status": "ready", "service": serviceName})
}
