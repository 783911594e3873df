package credential

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/report-generator/constants"
	"github.com/joseph-ayodele/report-generator/internal/repository"
)

// SQL persists the credential in the credentials table.
type SQL struct {
	repo   repository.CredentialRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewSQL(repo repository.CredentialRepository, logger *slog.Logger) *SQL {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQL{repo: repo, logger: logger, now: time.Now}
}

func (s *SQL) Get(ctx context.Context) (string, error) {
	v, ok, err := s.repo.Get(ctx, constants.CredentialKey)
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	if !ok {
		return "", nil
	}
	return v, nil
}

func (s *SQL) Set(ctx context.Context, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return s.Clear(ctx)
	}
	if err := s.repo.Upsert(ctx, constants.CredentialKey, v, s.now()); err != nil {
		return fmt.Errorf("store credential: %w", err)
	}
	s.logger.Info("credential.saved", "backend", "sql")
	return nil
}

func (s *SQL) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, constants.CredentialKey); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	s.logger.Info("credential.cleared", "backend", "sql")
	return nil
}
