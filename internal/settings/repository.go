package settings

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Get(ctx context.Context) (*SiteSettings, error)
	Save(ctx context.Context, s *SiteSettings) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

// Get reads the settings row; defaults when none has been saved.
func (r *postgresRepository) Get(ctx context.Context) (*SiteSettings, error) {
	var s SiteSettings
	err := r.db.GetContext(ctx, &s, `
		SELECT public_verify, show_revoked, default_width_mm, default_height_mm, default_margin_mm, updated_at
		FROM cert_settings WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		defaults := DefaultSiteSettings()
		return &defaults, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepository) Save(ctx context.Context, s *SiteSettings) error {
	query := `
		INSERT INTO cert_settings (id, public_verify, show_revoked, default_width_mm, default_height_mm, default_margin_mm, updated_at)
		VALUES (1, :public_verify, :show_revoked, :default_width_mm, :default_height_mm, :default_margin_mm, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			public_verify = EXCLUDED.public_verify,
			show_revoked = EXCLUDED.show_revoked,
			default_width_mm = EXCLUDED.default_width_mm,
			default_height_mm = EXCLUDED.default_height_mm,
			default_margin_mm = EXCLUDED.default_margin_mm,
			updated_at = EXCLUDED.updated_at`
	_, err := r.db.NamedExecContext(ctx, query, s)
	return err
}
