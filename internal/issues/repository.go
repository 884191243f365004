package issues

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrNotFound is returned when an issue does not exist.
var ErrNotFound = sql.ErrNoRows

// Repository is the persistence collaborator for the issue ledger.
type Repository interface {
	// CreateIssue inserts a new issue. A verification-code collision
	// surfaces as *IntegrityError; a second active issue for the same
	// (template, user) pair surfaces as *DuplicateIssueError.
	CreateIssue(ctx context.Context, issue *Issue) error
	GetIssue(ctx context.Context, id uuid.UUID) (*Issue, error)
	GetByCode(ctx context.Context, code string) (*Issue, error)
	ListByRecipient(ctx context.Context, userID uuid.UUID) ([]Issue, error)
	ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]Issue, error)
	HasActiveIssue(ctx context.Context, templateID, userID uuid.UUID) (bool, error)
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkEmailed(ctx context.Context, id uuid.UUID, at time.Time) error
}

type postgresRepository struct {
	db *sqlx.DB
}

// NewRepository creates a Postgres-backed issue repository.
func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateIssue(ctx context.Context, issue *Issue) error {
	query := `
		INSERT INTO cert_issues (id, template_id, template_name, user_id, course_id, code, issued_at, emailed_at, revoked_at)
		VALUES (:id, :template_id, :template_name, :user_id, :course_id, :code, :issued_at, :emailed_at, :revoked_at)`
	_, err := r.db.NamedExecContext(ctx, query, issue)
	if err != nil {
		return translateInsertError(err, issue)
	}
	return nil
}

// translateInsertError maps unique-constraint violations onto the ledger's
// error taxonomy. The code column has a plain unique index; active issues
// per (template, user) are guarded by a partial unique index.
func translateInsertError(err error, issue *Issue) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if strings.Contains(pqErr.Constraint, "code") {
			return &IntegrityError{Op: "insert", Err: err}
		}
		return &DuplicateIssueError{TemplateID: issue.TemplateID, UserID: issue.UserID}
	}
	return err
}

func (r *postgresRepository) GetIssue(ctx context.Context, id uuid.UUID) (*Issue, error) {
	var issue Issue
	err := r.db.GetContext(ctx, &issue, "SELECT * FROM cert_issues WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *postgresRepository) GetByCode(ctx context.Context, code string) (*Issue, error) {
	var issue Issue
	err := r.db.GetContext(ctx, &issue, "SELECT * FROM cert_issues WHERE code = $1", code)
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *postgresRepository) ListByRecipient(ctx context.Context, userID uuid.UUID) ([]Issue, error) {
	var issues []Issue
	err := r.db.SelectContext(ctx, &issues,
		"SELECT * FROM cert_issues WHERE user_id = $1 ORDER BY issued_at DESC", userID)
	return issues, err
}

func (r *postgresRepository) ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]Issue, error) {
	var issues []Issue
	err := r.db.SelectContext(ctx, &issues,
		"SELECT * FROM cert_issues WHERE template_id = $1 ORDER BY issued_at DESC", templateID)
	return issues, err
}

func (r *postgresRepository) HasActiveIssue(ctx context.Context, templateID, userID uuid.UUID) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM cert_issues WHERE template_id = $1 AND user_id = $2 AND revoked_at IS NULL",
		templateID, userID)
	return count > 0, err
}

func (r *postgresRepository) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE cert_issues SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL", id, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) MarkEmailed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE cert_issues SET emailed_at = $2 WHERE id = $1", id, at)
	return err
}
