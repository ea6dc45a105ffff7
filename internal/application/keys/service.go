package keys

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/questionlab/qscore/internal/application"
	"github.com/questionlab/qscore/internal/domain/apikeys"
)

// Service implements registration and authentication over the key registry.
type Service struct {
	Registry apikeys.Registry
	Clock    application.Clock
	Logger   *zap.Logger
}

// Register creates a new immutable key record and returns it. The key
// material is only ever returned here.
func (s *Service) Register(ctx context.Context, institute, email, provider string) (*apikeys.Record, error) {
	institute = strings.TrimSpace(institute)
	email = strings.TrimSpace(email)
	if institute == "" {
		return nil, fmt.Errorf("institute is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}

	rec := &apikeys.Record{
		APIKey:    "qs_" + uuid.NewString(),
		Institute: institute,
		Email:     email,
		Provider:  strings.TrimSpace(provider),
		CreatedAt: s.Clock.Now(),
	}
	if err := s.Registry.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save key record: %w", err)
	}
	s.Logger.Info("api key registered", zap.String("institute", institute))
	return rec, nil
}

// Authenticate resolves a key by exact match. Unknown keys surface
// apikeys.ErrNotFound.
func (s *Service) Authenticate(ctx context.Context, key string) (*apikeys.Record, error) {
	if strings.TrimSpace(key) == "" {
		return nil, apikeys.ErrNotFound
	}
	return s.Registry.Lookup(ctx, key)
}
