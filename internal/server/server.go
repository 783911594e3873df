// Package server exposes the report session over HTTP.
package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/report-generator/internal/async"
	"github.com/joseph-ayodele/report-generator/internal/export"
	"github.com/joseph-ayodele/report-generator/internal/session"
	"github.com/joseph-ayodele/report-generator/internal/storage"
)

// Submitter queues background work.
type Submitter interface {
	Submit(ctx context.Context, job async.Job) error
}

// Options for the HTTP surface.
type Options struct {
	// MaxUploadBytes caps one upload request body.
	MaxUploadBytes int64
	// URLExpiry is how long a download link stays valid.
	URLExpiry time.Duration
	// Ready reports whether backing services are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	ctrl     *session.Controller
	queue    Submitter
	store    storage.Store
	exporter *export.Service
	opts     Options
	logger   *slog.Logger
}

// New wires the handlers. store may be nil, in which case download links are unavailable.
func New(ctrl *session.Controller, queue Submitter, store storage.Store, exporter *export.Service, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if exporter == nil {
		exporter = export.NewService(logger)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 64 << 20
	}
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = 24 * time.Hour
	}
	return &Server{ctrl: ctrl, queue: queue, store: store, exporter: exporter, opts: opts, logger: logger}
}

// Handler returns the gin engine with every route mapped.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(s.logger))

	r.GET("/health", s.health)
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1/session")
	api.GET("", s.snapshot)
	api.PUT("/customer", s.setCustomer)
	api.POST("/files", s.uploadFiles)
	api.DELETE("/files/:index", s.removeFile)
	api.PUT("/credential", s.saveCredential)
	api.DELETE("/credential", s.clearCredential)
	api.POST("/analyze", s.analyze)
	api.GET("/report", s.report)
	api.GET("/download", s.download)
	api.GET("/export", s.exportXLSX)
	api.POST("/reset", s.reset)
	api.DELETE("/error", s.dismissError)
	return r
}
