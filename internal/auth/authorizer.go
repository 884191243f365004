package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrForbidden = errors.New("forbidden")

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleViewer  = "viewer"
)

// RoleStore answers role and course membership questions for an actor.
type RoleStore interface {
	PlatformRole(ctx context.Context, userID uuid.UUID) (string, error)
	CourseRole(ctx context.Context, userID, courseID uuid.UUID) (string, error)
}

// Authorizer decides template access from platform and course roles.
// Platform templates (no course scope) require a platform role; course
// templates also accept a course-level role.
type Authorizer struct {
	store RoleStore
}

func NewAuthorizer(store RoleStore) *Authorizer {
	return &Authorizer{store: store}
}

func (a *Authorizer) CanManage(ctx context.Context, actorID uuid.UUID, courseID *uuid.UUID) error {
	return a.check(ctx, actorID, courseID, func(role string) bool {
		return role == RoleAdmin || role == RoleManager
	})
}

func (a *Authorizer) CanView(ctx context.Context, actorID uuid.UUID, courseID *uuid.UUID) error {
	return a.check(ctx, actorID, courseID, func(role string) bool {
		return role == RoleAdmin || role == RoleManager || role == RoleViewer
	})
}

func (a *Authorizer) check(ctx context.Context, actorID uuid.UUID, courseID *uuid.UUID, allows func(string) bool) error {
	platform, err := a.store.PlatformRole(ctx, actorID)
	if err != nil {
		return err
	}
	if allows(platform) {
		return nil
	}
	if courseID != nil {
		course, err := a.store.CourseRole(ctx, actorID, *courseID)
		if err != nil {
			return err
		}
		if allows(course) {
			return nil
		}
	}
	return ErrForbidden
}

// sqlRoleStore reads roles from the users and course_roles tables.
type sqlRoleStore struct {
	db *sqlx.DB
}

func NewSQLRoleStore(db *sqlx.DB) RoleStore {
	return &sqlRoleStore{db: db}
}

func (s *sqlRoleStore) PlatformRole(ctx context.Context, userID uuid.UUID) (string, error) {
	var role string
	err := s.db.GetContext(ctx, &role, `SELECT role FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load platform role: %w", err)
	}
	return role, nil
}

func (s *sqlRoleStore) CourseRole(ctx context.Context, userID, courseID uuid.UUID) (string, error) {
	var role string
	err := s.db.GetContext(ctx, &role, `
		SELECT role FROM course_roles WHERE user_id = $1 AND course_id = $2`, userID, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load course role: %w", err)
	}
	return role, nil
}
