package templates

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a template, page or element does not exist.
var ErrNotFound = sql.ErrNoRows

// Repository is the persistence collaborator for templates, pages and
// elements. The engine treats it as a keyed store; all cascade rules live
// behind it.
type Repository interface {
	CreateTemplate(ctx context.Context, t *Template) error
	GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error)
	ListTemplates(ctx context.Context, courseID *uuid.UUID) ([]Template, error)
	UpdateTemplate(ctx context.Context, t *Template) error
	// DeleteTemplate cascades to the template's pages, their elements, and
	// its issues. Issues never dangle on a deleted template.
	DeleteTemplate(ctx context.Context, id uuid.UUID) error

	CreatePage(ctx context.Context, p *Page) error
	GetPage(ctx context.Context, id uuid.UUID) (*Page, error)
	ListPages(ctx context.Context, templateID uuid.UUID) ([]Page, error)
	UpdatePage(ctx context.Context, p *Page) error
	// DeletePage removes the page and exactly its own elements.
	DeletePage(ctx context.Context, id uuid.UUID) error

	// CreateElement inserts an element. A zero Sequence is assigned at
	// insert time as the page's next paint-order slot; concurrent inserts
	// on one page never claim the same slot.
	CreateElement(ctx context.Context, e *Element) error
	GetElement(ctx context.Context, id uuid.UUID) (*Element, error)
	ListElements(ctx context.Context, pageID uuid.UUID) ([]Element, error)
	UpdateElement(ctx context.Context, e *Element) error
	DeleteElement(ctx context.Context, id uuid.UUID) error
	// ReorderElements rewrites the paint order of a page's elements to
	// match orderedIDs, atomically.
	ReorderElements(ctx context.Context, pageID uuid.UUID, orderedIDs []uuid.UUID) error

	// GetSnapshot reads the template with all pages and elements in one
	// transaction, pages by sequence and elements in paint order.
	GetSnapshot(ctx context.Context, templateID uuid.UUID) (*Snapshot, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewRepository creates a Postgres-backed repository.
func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateTemplate(ctx context.Context, t *Template) error {
	query := `
		INSERT INTO cert_templates (id, name, course_id, allow_reissue, auto_award, created_at, updated_at)
		VALUES (:id, :name, :course_id, :allow_reissue, :auto_award, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, t)
	return err
}

func (r *postgresRepository) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	var t Template
	err := r.db.GetContext(ctx, &t, "SELECT * FROM cert_templates WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *postgresRepository) ListTemplates(ctx context.Context, courseID *uuid.UUID) ([]Template, error) {
	var ts []Template
	var err error
	if courseID != nil {
		err = r.db.SelectContext(ctx, &ts, "SELECT * FROM cert_templates WHERE course_id = $1 ORDER BY created_at", *courseID)
	} else {
		err = r.db.SelectContext(ctx, &ts, "SELECT * FROM cert_templates WHERE course_id IS NULL ORDER BY created_at")
	}
	return ts, err
}

func (r *postgresRepository) UpdateTemplate(ctx context.Context, t *Template) error {
	query := `
		UPDATE cert_templates SET
			name = :name,
			allow_reissue = :allow_reissue,
			auto_award = :auto_award,
			updated_at = :updated_at
		WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, t)
	return err
}

func (r *postgresRepository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM cert_issues WHERE template_id = $1", id); err != nil {
			return fmt.Errorf("delete issues: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM cert_elements WHERE page_id IN (
				SELECT id FROM cert_pages WHERE template_id = $1
			)`, id); err != nil {
			return fmt.Errorf("delete elements: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM cert_pages WHERE template_id = $1", id); err != nil {
			return fmt.Errorf("delete pages: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM cert_templates WHERE id = $1", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *postgresRepository) CreatePage(ctx context.Context, p *Page) error {
	query := `
		INSERT INTO cert_pages (id, template_id, sequence, width_mm, height_mm, margin_mm, created_at, updated_at)
		VALUES (:id, :template_id, :sequence, :width_mm, :height_mm, :margin_mm, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, query, p)
	return err
}

func (r *postgresRepository) GetPage(ctx context.Context, id uuid.UUID) (*Page, error) {
	var p Page
	err := r.db.GetContext(ctx, &p, "SELECT * FROM cert_pages WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepository) ListPages(ctx context.Context, templateID uuid.UUID) ([]Page, error) {
	var ps []Page
	err := r.db.SelectContext(ctx, &ps, "SELECT * FROM cert_pages WHERE template_id = $1 ORDER BY sequence", templateID)
	return ps, err
}

func (r *postgresRepository) UpdatePage(ctx context.Context, p *Page) error {
	query := `
		UPDATE cert_pages SET
			sequence = :sequence,
			width_mm = :width_mm,
			height_mm = :height_mm,
			margin_mm = :margin_mm,
			updated_at = :updated_at
		WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, p)
	return err
}

func (r *postgresRepository) DeletePage(ctx context.Context, id uuid.UUID) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM cert_elements WHERE page_id = $1", id); err != nil {
			return fmt.Errorf("delete elements: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM cert_pages WHERE id = $1", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *postgresRepository) CreateElement(ctx context.Context, e *Element) error {
	if e.Sequence != 0 {
		query := `
			INSERT INTO cert_elements (id, page_id, type_tag, sequence, pos_x, pos_y, width, config, created_at, updated_at)
			VALUES (:id, :page_id, :type_tag, :sequence, :pos_x, :pos_y, :width, :config, :created_at, :updated_at)`
		_, err := r.db.NamedExecContext(ctx, query, e)
		return err
	}
	// The page row is locked for the duration of the insert so two
	// concurrent adds on one page get distinct sequences.
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		var pageID uuid.UUID
		if err := tx.GetContext(ctx, &pageID, "SELECT id FROM cert_pages WHERE id = $1 FOR UPDATE", e.PageID); err != nil {
			return err
		}
		return tx.GetContext(ctx, &e.Sequence, `
			INSERT INTO cert_elements (id, page_id, type_tag, sequence, pos_x, pos_y, width, config, created_at, updated_at)
			SELECT $1, $2, $3, COALESCE(MAX(sequence), 0) + 1, $4, $5, $6, $7, $8, $9
			FROM cert_elements WHERE page_id = $2
			RETURNING sequence`,
			e.ID, e.PageID, e.TypeTag, e.PosX, e.PosY, e.Width, e.Config, e.CreatedAt, e.UpdatedAt)
	})
}

func (r *postgresRepository) GetElement(ctx context.Context, id uuid.UUID) (*Element, error) {
	var e Element
	err := r.db.GetContext(ctx, &e, "SELECT * FROM cert_elements WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *postgresRepository) ListElements(ctx context.Context, pageID uuid.UUID) ([]Element, error) {
	var es []Element
	err := r.db.SelectContext(ctx, &es, "SELECT * FROM cert_elements WHERE page_id = $1 ORDER BY sequence", pageID)
	return es, err
}

func (r *postgresRepository) UpdateElement(ctx context.Context, e *Element) error {
	query := `
		UPDATE cert_elements SET
			sequence = :sequence,
			pos_x = :pos_x,
			pos_y = :pos_y,
			width = :width,
			config = :config,
			updated_at = :updated_at
		WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, e)
	return err
}

func (r *postgresRepository) DeleteElement(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cert_elements WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) ReorderElements(ctx context.Context, pageID uuid.UUID, orderedIDs []uuid.UUID) error {
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		for i, id := range orderedIDs {
			res, err := tx.ExecContext(ctx, `
				UPDATE cert_elements SET sequence = $1, updated_at = NOW()
				WHERE id = $2 AND page_id = $3`, i+1, id, pageID)
			if err != nil {
				return fmt.Errorf("reorder element: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return ErrNotFound
			}
		}
		return nil
	})
}

func (r *postgresRepository) GetSnapshot(ctx context.Context, templateID uuid.UUID) (*Snapshot, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var snap Snapshot
	if err := tx.GetContext(ctx, &snap.Template, "SELECT * FROM cert_templates WHERE id = $1", templateID); err != nil {
		return nil, err
	}

	var pages []Page
	if err := tx.SelectContext(ctx, &pages, "SELECT * FROM cert_pages WHERE template_id = $1 ORDER BY sequence", templateID); err != nil {
		return nil, err
	}
	for _, p := range pages {
		var els []Element
		if err := tx.SelectContext(ctx, &els, "SELECT * FROM cert_elements WHERE page_id = $1 ORDER BY sequence", p.ID); err != nil {
			return nil, err
		}
		snap.Pages = append(snap.Pages, PageSnapshot{Page: p, Elements: els})
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (r *postgresRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
