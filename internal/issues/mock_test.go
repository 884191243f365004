package issues

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/certforge/certforge/internal/elements"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateIssue(ctx context.Context, i *Issue) error {
	args := m.Called(ctx, i)
	return args.Error(0)
}

func (m *MockRepository) GetIssue(ctx context.Context, id uuid.UUID) (*Issue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Issue), args.Error(1)
}

func (m *MockRepository) GetByCode(ctx context.Context, code string) (*Issue, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Issue), args.Error(1)
}

func (m *MockRepository) ListByRecipient(ctx context.Context, userID uuid.UUID) ([]Issue, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Issue), args.Error(1)
}

func (m *MockRepository) ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]Issue, error) {
	args := m.Called(ctx, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Issue), args.Error(1)
}

func (m *MockRepository) HasActiveIssue(ctx context.Context, templateID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, templateID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockRepository) MarkEmailed(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type staticContextProvider struct {
	values elements.MapContext
	err    error
}

func (p *staticContextProvider) RecipientContext(ctx context.Context, userID, courseID uuid.UUID) (elements.MapContext, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := elements.MapContext{}
	for k, v := range p.values {
		out[k] = v
	}
	return out, nil
}
