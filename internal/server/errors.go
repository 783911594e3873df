package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/report-generator/internal/async"
	"github.com/joseph-ayodele/report-generator/internal/common"
	"github.com/joseph-ayodele/report-generator/internal/session"
	"github.com/joseph-ayodele/report-generator/internal/storage"
)

// mapError turns a domain error into an HTTP status and a user-facing message.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrPrecondition):
		return http.StatusBadRequest, session.Message(err)
	case errors.Is(err, common.ErrValidation), errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, session.ErrFileIndex):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrFilesFrozen):
		return http.StatusConflict, err.Error()
	case errors.Is(err, session.ErrNoReport):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, async.ErrQueueClosed):
		return http.StatusServiceUnavailable, "server is shutting down"
	case errors.Is(err, storage.ErrInvalidName):
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "internal error"
}

func (s *Server) abortWithError(c *gin.Context, op string, err error) {
	status, msg := mapError(err)
	rid := common.RequestIDFromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("http."+op+".failed", "req_id", rid, "code", common.Code(err), "error", err)
	} else {
		s.logger.Warn("http."+op+".rejected", "req_id", rid, "status", status, "code", common.Code(err), "error", err)
	}
	fail(c, status, msg)
}
