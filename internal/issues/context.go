package issues

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/certforge/certforge/internal/elements"
)

// SQLContextProvider resolves recipient context from the platform's users,
// courses and enrollment tables.
type SQLContextProvider struct {
	db *sqlx.DB
}

func NewSQLContextProvider(db *sqlx.DB) *SQLContextProvider {
	return &SQLContextProvider{db: db}
}

type userRow struct {
	FirstName   string         `db:"first_name"`
	LastName    string         `db:"last_name"`
	Email       string         `db:"email"`
	IDNumber    sql.NullString `db:"id_number"`
	Institution sql.NullString `db:"institution"`
	Department  sql.NullString `db:"department"`
}

type courseRow struct {
	FullName  string `db:"full_name"`
	ShortName string `db:"short_name"`
}

type enrollmentRow struct {
	Grade       sql.NullFloat64 `db:"grade"`
	CompletedAt sql.NullTime    `db:"completed_at"`
}

// RecipientContext loads user, course and enrollment data for the pair.
// A missing enrollment is not an error; grade and completion date are
// simply absent from the context.
func (p *SQLContextProvider) RecipientContext(ctx context.Context, userID, courseID uuid.UUID) (elements.MapContext, error) {
	var u userRow
	if err := p.db.GetContext(ctx, &u, `
		SELECT first_name, last_name, email, id_number, institution, department
		FROM users WHERE id = $1`, userID); err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	var c courseRow
	if err := p.db.GetContext(ctx, &c, `
		SELECT full_name, short_name
		FROM courses WHERE id = $1`, courseID); err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}

	rc := elements.MapContext{
		elements.CtxUserFullName:    u.FirstName + " " + u.LastName,
		elements.CtxUserFirstName:   u.FirstName,
		elements.CtxUserLastName:    u.LastName,
		elements.CtxUserEmail:       u.Email,
		elements.CtxCourseFullName:  c.FullName,
		elements.CtxCourseShortName: c.ShortName,
	}
	if u.IDNumber.Valid {
		rc[elements.CtxUserIDNumber] = u.IDNumber.String
	}
	if u.Institution.Valid {
		rc[elements.CtxUserInstitution] = u.Institution.String
	}
	if u.Department.Valid {
		rc[elements.CtxUserDepartment] = u.Department.String
	}

	var e enrollmentRow
	err := p.db.GetContext(ctx, &e, `
		SELECT grade, completed_at
		FROM enrollments WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rc, nil
		}
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	if e.Grade.Valid {
		rc[elements.CtxGrade] = fmt.Sprintf("%.2f", e.Grade.Float64)
	}
	if e.CompletedAt.Valid {
		rc[elements.CtxCompletionDate] = e.CompletedAt.Time.UTC().Format(time.RFC3339)
	}
	return rc, nil
}
