// Package app assembles the report generator from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/report-generator/internal/common"
	"github.com/joseph-ayodele/report-generator/internal/credential"
	"github.com/joseph-ayodele/report-generator/internal/export"
	"github.com/joseph-ayodele/report-generator/internal/llm"
	"github.com/joseph-ayodele/report-generator/internal/llm/gemini"
	"github.com/joseph-ayodele/report-generator/internal/metrics"
	"github.com/joseph-ayodele/report-generator/internal/normalize"
	"github.com/joseph-ayodele/report-generator/internal/render"
	"github.com/joseph-ayodele/report-generator/internal/repository"
	"github.com/joseph-ayodele/report-generator/internal/session"
	"github.com/joseph-ayodele/report-generator/internal/storage"
)

// App holds the wired components.
type App struct {
	Config      *common.Config
	Logger      *slog.Logger
	Credentials session.CredentialStore
	Normalizer  *normalize.Normalizer
	Extractor   *llm.Client
	Renderer    *render.Renderer
	Exporter    *export.Service
	Store       storage.Store
	Controller  *session.Controller

	checks  []func(ctx context.Context) error
	closers []func() error
}

// Build connects backing services and wires every component.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	metrics.Register()

	a := &App{Config: cfg, Logger: logger}
	creds, err := a.credentialStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Credentials = creds
	if err := seedCredential(ctx, creds, cfg.Gemini.APIKey); err != nil {
		_ = a.Close()
		return nil, err
	}

	store, err := a.artifactStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Store = store

	a.Normalizer = normalize.New(logger)
	a.Extractor = llm.NewClient(
		gemini.NewClient(gemini.Config{Timeout: cfg.Gemini.Timeout}, logger),
		llm.Config{
			Model:       cfg.Gemini.Model,
			Temperature: cfg.Gemini.Temperature,
			Retry:       llm.RetryPolicy{MaxAttempts: cfg.Retry.MaxAttempts, BaseDelay: cfg.Retry.BaseDelay},
		},
		logger,
	)
	a.Renderer = render.New(logger)
	a.Exporter = export.NewService(logger)
	a.Controller = session.NewController(creds, a.Normalizer, a.Extractor, a.Renderer, logger)

	logger.Info("app.build.ok",
		"credential_backend", cfg.Credential.Backend,
		"storage_backend", cfg.Storage.Backend,
		"model", cfg.Gemini.Model,
	)
	return a, nil
}

// seedCredential stores the configured key when the store has none yet.
func seedCredential(ctx context.Context, creds session.CredentialStore, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	cur, err := creds.Get(ctx)
	if err != nil {
		return err
	}
	if cur != "" {
		return nil
	}
	return creds.Set(ctx, key)
}

func (a *App) credentialStore(ctx context.Context) (session.CredentialStore, error) {
	cc := a.Config.Credential
	switch cc.Backend {
	case "memory", "":
		return credential.NewMemory(""), nil
	case "sqlite", "postgres":
		db, err := repository.Open(ctx, repository.Config{
			DSN:             cc.DSN,
			MaxConns:        cc.MaxConns,
			MinConns:        cc.MinConns,
			MaxConnLifetime: cc.MaxConnLifetime,
			MaxConnIdleTime: cc.MaxConnIdleTime,
			DialTimeout:     cc.DialTimeout,
		}, a.Logger)
		if err != nil {
			return nil, common.NewAppError(common.CodeCredentialStore, "open database", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := repository.HealthCheck(ctx, db, cc.DialTimeout, a.Logger); err != nil {
			return nil, common.NewAppError(common.CodeCredentialStore, "ping database", err)
		}
		repo := repository.NewCredentialRepository(db, a.Logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, common.NewAppError(common.CodeCredentialStore, "create schema", err)
		}
		a.checks = append(a.checks, db.PingContext)
		return credential.NewSQL(repo, a.Logger), nil
	case "redis":
		store, client := credential.NewRedis(credential.RedisOptions{
			Addr:     cc.RedisAddr,
			Password: cc.RedisPassword,
			DB:       cc.RedisDB,
			Prefix:   cc.RedisPrefix,
		}, a.Logger)
		a.closers = append(a.closers, client.Close)
		ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		if err := ping(ctx); err != nil {
			return nil, common.NewAppError(common.CodeCredentialStore, "ping redis", err)
		}
		a.checks = append(a.checks, ping)
		return store, nil
	}
	return nil, common.NewAppError(common.CodeConfig, "unknown credential backend "+cc.Backend, common.ErrInvalidInput)
}

func (a *App) artifactStore(ctx context.Context) (storage.Store, error) {
	sc := a.Config.Storage
	switch sc.Backend {
	case "local", "":
		return storage.NewLocal(sc.Dir, a.Logger)
	case "minio":
		m, err := storage.NewMinIO(storage.MinIOConfig{
			Endpoint:  sc.MinIOEndpoint,
			AccessKey: sc.MinIOAccessKey,
			SecretKey: sc.MinIOSecretKey,
			UseSSL:    sc.MinIOUseSSL,
			Region:    sc.MinIORegion,
			Bucket:    sc.MinIOBucket,
		}, a.Logger)
		if err != nil {
			return nil, err
		}
		if err := m.EnsureBucket(ctx); err != nil {
			return nil, common.NewAppError(common.CodeStorage, "ensure bucket", err)
		}
		a.checks = append(a.checks, m.EnsureBucket)
		return m, nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", sc.Backend)
}

// Ready runs every backing-service check.
func (a *App) Ready(ctx context.Context) error {
	for _, check := range a.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases backing connections in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
