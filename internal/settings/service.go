package settings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/certforge/certforge/internal/templates"
)

type Service struct {
	repo   Repository
	authz  templates.Authorizer
	logger *zap.Logger
}

func NewService(repo Repository, authz templates.Authorizer, logger *zap.Logger) *Service {
	return &Service{repo: repo, authz: authz, logger: logger}
}

// Get returns the sitewide settings. No authorization: every component
// reads these.
func (s *Service) Get(ctx context.Context) (*SiteSettings, error) {
	return s.repo.Get(ctx)
}

// Update replaces the sitewide settings. Platform manage rights required.
func (s *Service) Update(ctx context.Context, actorID uuid.UUID, in SiteSettings) (*SiteSettings, error) {
	if err := s.authz.CanManage(ctx, actorID, nil); err != nil {
		return nil, err
	}
	if in.DefaultWidthMM <= 0 || in.DefaultHeightMM <= 0 {
		return nil, fmt.Errorf("default page dimensions must be positive")
	}
	if in.DefaultMarginMM < 0 {
		return nil, fmt.Errorf("default margin must not be negative")
	}
	in.UpdatedAt = time.Now().UTC()
	if err := s.repo.Save(ctx, &in); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	s.logger.Info("site settings updated", zap.Bool("public_verify", in.PublicVerify))
	return &in, nil
}
