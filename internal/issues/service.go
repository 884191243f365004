package issues

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/certforge/certforge/internal/elements"
	"github.com/certforge/certforge/internal/templates"
)

// ContextProvider supplies the resolved recipient values (user profile,
// course facts, completion data) for a recipient/course pair. It is the
// host platform's data layer; unavailable fields are simply absent from
// the returned map rather than an error.
type ContextProvider interface {
	RecipientContext(ctx context.Context, userID, courseID uuid.UUID) (elements.MapContext, error)
}

// Service is the issue ledger plus the issuing flow: it renders the
// document for a recipient and records the issue only after the document
// finalized successfully.
type Service struct {
	repo      Repository
	tmplRepo  templates.Repository
	renderer  *templates.Renderer
	contexts  ContextProvider
	authz     templates.Authorizer
	verifyURL string
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates the issue service. verifyURL is the public base URL
// of the verification page; the code is appended as a path segment.
func NewService(
	repo Repository,
	tmplRepo templates.Repository,
	renderer *templates.Renderer,
	contexts ContextProvider,
	authz templates.Authorizer,
	verifyURL string,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:      repo,
		tmplRepo:  tmplRepo,
		renderer:  renderer,
		contexts:  contexts,
		authz:     authz,
		verifyURL: verifyURL,
		logger:    logger,
		now:       time.Now,
	}
}

// IssueCertificate renders the template for one recipient and records the
// issue. With reissue disallowed, a second active issue for the same
// (template, user) pair fails with *DuplicateIssueError. The ledger entry
// is written only after the document finalized, so an aborted render
// leaves no trace.
func (s *Service) IssueCertificate(ctx context.Context, actorID, templateID, userID, courseID uuid.UUID) (*Issue, []byte, error) {
	snap, err := s.tmplRepo.GetSnapshot(ctx, templateID)
	if err != nil {
		return nil, nil, fmt.Errorf("load template: %w", err)
	}
	if err := s.authz.CanManage(ctx, actorID, snap.Template.CourseID); err != nil {
		return nil, nil, err
	}
	return s.issue(ctx, snap, userID, courseID)
}

// AutoIssue is the award worker's entry point: no actor check, same
// dedupe and render path as a manual issue.
func (s *Service) AutoIssue(ctx context.Context, templateID, userID, courseID uuid.UUID) (*Issue, error) {
	snap, err := s.tmplRepo.GetSnapshot(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	issue, _, err := s.issue(ctx, snap, userID, courseID)
	return issue, err
}

func (s *Service) issue(ctx context.Context, snap *templates.Snapshot, userID, courseID uuid.UUID) (*Issue, []byte, error) {
	templateID := snap.Template.ID

	if !snap.Template.AllowReissue {
		exists, err := s.repo.HasActiveIssue(ctx, templateID, userID)
		if err != nil {
			return nil, nil, err
		}
		if exists {
			return nil, nil, &DuplicateIssueError{TemplateID: templateID, UserID: userID}
		}
	}

	code, err := GenerateCode()
	if err != nil {
		return nil, nil, err
	}
	issuedAt := s.now().UTC()

	rc, err := s.recipientContext(ctx, userID, courseID, code, issuedAt)
	if err != nil {
		return nil, nil, err
	}

	doc, err := s.renderer.RenderSnapshot(ctx, snap, rc)
	if err != nil {
		return nil, nil, err
	}

	issue := &Issue{
		ID:           uuid.New(),
		TemplateID:   templateID,
		TemplateName: snap.Template.Name,
		UserID:       userID,
		CourseID:     courseID,
		Code:         code,
		IssuedAt:     issuedAt,
	}
	if err := s.repo.CreateIssue(ctx, issue); err != nil {
		return nil, nil, err
	}

	s.logger.Info("certificate issued",
		zap.String("issue_id", issue.ID.String()),
		zap.String("template_id", templateID.String()),
		zap.String("user_id", userID.String()),
		zap.String("code", code))
	return issue, doc, nil
}

// RenderIssue re-renders the document for an existing issue, for download
// flows. The stored code and issue date flow back into the context, so a
// reprint verifies against the same ledger entry.
func (s *Service) RenderIssue(ctx context.Context, actorID, issueID uuid.UUID) (*Issue, []byte, error) {
	issue, err := s.repo.GetIssue(ctx, issueID)
	if err != nil {
		return nil, nil, err
	}
	if actorID != issue.UserID {
		if err := s.authz.CanView(ctx, actorID, &issue.CourseID); err != nil {
			return nil, nil, err
		}
	}

	rc, err := s.recipientContext(ctx, issue.UserID, issue.CourseID, issue.Code, issue.IssuedAt)
	if err != nil {
		return nil, nil, err
	}
	doc, err := s.renderer.Render(ctx, issue.TemplateID, rc)
	if err != nil {
		return nil, nil, err
	}
	return issue, doc, nil
}

// VerifyCode looks up an issue by verification code.
func (s *Service) VerifyCode(ctx context.Context, code string) (*Issue, error) {
	return s.repo.GetByCode(ctx, code)
}

// Revoke soft-deletes an issue. The record stays queryable; the recipient
// no longer holds an active issue.
func (s *Service) Revoke(ctx context.Context, actorID, issueID uuid.UUID) error {
	issue, err := s.repo.GetIssue(ctx, issueID)
	if err != nil {
		return err
	}
	if err := s.authz.CanManage(ctx, actorID, &issue.CourseID); err != nil {
		return err
	}
	if err := s.repo.Revoke(ctx, issueID, s.now().UTC()); err != nil {
		return err
	}
	s.logger.Info("issue revoked",
		zap.String("issue_id", issueID.String()),
		zap.String("code", issue.Code))
	return nil
}

// MarkEmailed stamps the time the document was delivered to the
// recipient. Delivery itself happens outside this service.
func (s *Service) MarkEmailed(ctx context.Context, actorID, issueID uuid.UUID) error {
	issue, err := s.repo.GetIssue(ctx, issueID)
	if err != nil {
		return err
	}
	if err := s.authz.CanManage(ctx, actorID, &issue.CourseID); err != nil {
		return err
	}
	return s.repo.MarkEmailed(ctx, issueID, s.now().UTC())
}

// FindByRecipient lists a recipient's issues. Recipients see their own;
// anyone else needs platform view rights.
func (s *Service) FindByRecipient(ctx context.Context, actorID, userID uuid.UUID) ([]Issue, error) {
	if actorID != userID {
		if err := s.authz.CanView(ctx, actorID, nil); err != nil {
			return nil, err
		}
	}
	return s.repo.ListByRecipient(ctx, userID)
}

// FindByTemplate lists the issues of a template.
func (s *Service) FindByTemplate(ctx context.Context, actorID, templateID uuid.UUID) ([]Issue, error) {
	t, err := s.tmplRepo.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanView(ctx, actorID, t.CourseID); err != nil {
		return nil, err
	}
	return s.repo.ListByTemplate(ctx, templateID)
}

func (s *Service) recipientContext(ctx context.Context, userID, courseID uuid.UUID, code string, issuedAt time.Time) (elements.MapContext, error) {
	rc, err := s.contexts.RecipientContext(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("resolve recipient context: %w", err)
	}
	if rc == nil {
		rc = elements.MapContext{}
	}
	rc[elements.CtxCode] = code
	rc[elements.CtxIssueDate] = issuedAt.Format(time.RFC3339)
	rc[elements.CtxVerifyURL] = s.verifyURL + "/" + url.PathEscape(code)
	return rc, nil
}
