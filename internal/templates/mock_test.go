package templates

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of the Repository interface.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateTemplate(ctx context.Context, t *Template) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockRepository) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Template), args.Error(1)
}

func (m *MockRepository) ListTemplates(ctx context.Context, courseID *uuid.UUID) ([]Template, error) {
	args := m.Called(ctx, courseID)
	return args.Get(0).([]Template), args.Error(1)
}

func (m *MockRepository) UpdateTemplate(ctx context.Context, t *Template) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockRepository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CreatePage(ctx context.Context, p *Page) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockRepository) GetPage(ctx context.Context, id uuid.UUID) (*Page, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Page), args.Error(1)
}

func (m *MockRepository) ListPages(ctx context.Context, templateID uuid.UUID) ([]Page, error) {
	args := m.Called(ctx, templateID)
	return args.Get(0).([]Page), args.Error(1)
}

func (m *MockRepository) UpdatePage(ctx context.Context, p *Page) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockRepository) DeletePage(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CreateElement(ctx context.Context, e *Element) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRepository) GetElement(ctx context.Context, id uuid.UUID) (*Element, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Element), args.Error(1)
}

func (m *MockRepository) ListElements(ctx context.Context, pageID uuid.UUID) ([]Element, error) {
	args := m.Called(ctx, pageID)
	return args.Get(0).([]Element), args.Error(1)
}

func (m *MockRepository) UpdateElement(ctx context.Context, e *Element) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRepository) DeleteElement(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) ReorderElements(ctx context.Context, pageID uuid.UUID, orderedIDs []uuid.UUID) error {
	args := m.Called(ctx, pageID, orderedIDs)
	return args.Error(0)
}

func (m *MockRepository) GetSnapshot(ctx context.Context, templateID uuid.UUID) (*Snapshot, error) {
	args := m.Called(ctx, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Snapshot), args.Error(1)
}

// allowAll authorizes every actor for every scope.
type allowAll struct{}

func (allowAll) CanManage(ctx context.Context, actorID uuid.UUID, courseID *uuid.UUID) error {
	return nil
}

func (allowAll) CanView(ctx context.Context, actorID uuid.UUID, courseID *uuid.UUID) error {
	return nil
}

var errDenied = errors.New("actor may not manage this template")

// denyAll refuses every actor.
type denyAll struct{}

func (denyAll) CanManage(ctx context.Context, actorID uuid.UUID, courseID *uuid.UUID) error {
	return errDenied
}

func (denyAll) CanView(ctx context.Context, actorID uuid.UUID, courseID *uuid.UUID) error {
	return errDenied
}
