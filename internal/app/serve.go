package app

import (
	"context"
	"errors"
	"net"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/report-generator/internal/async"
	"github.com/joseph-ayodele/report-generator/internal/server"
)

// Serve runs the HTTP API and the gRPC health endpoint until ctx is
// cancelled, then drains both and the analysis queue.
func Serve(ctx context.Context, a *App, boot *zap.Logger) error {
	if boot == nil {
		boot = zap.NewNop()
	}
	cfg := a.Config

	queue := async.NewQueue(a.Logger,
		async.WithWorkers(cfg.Async.Workers),
		async.WithQueueSize(cfg.Async.QueueSize),
		async.WithJobTimeout(cfg.Async.JobTimeout),
	)
	api := server.New(a.Controller, queue, a.Store, a.Exporter, a.Logger, server.Options{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		URLExpiry:      cfg.Storage.URLExpiry,
		Ready:          a.Ready,
	})
	httpSrv := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	grpcServer := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, hs)
	reflection.Register(grpcServer)
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		boot.Error("grpc listen failed", zap.String("addr", cfg.Server.GRPCAddr), zap.Error(err))
		_ = queue.Shutdown(context.Background())
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		boot.Info("http serving", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		boot.Info("grpc health serving", zap.String("addr", lis.Addr().String()))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		boot.Info("shutting down...")
		hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

		sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := httpSrv.Shutdown(sctx)
		grpcServer.GracefulStop()
		if qerr := queue.Shutdown(sctx); qerr != nil {
			boot.Warn("queue shutdown interrupted", zap.Error(qerr))
			err = errors.Join(err, qerr)
		}
		return err
	})

	err = g.Wait()
	boot.Info("stopped.")
	return err
}
