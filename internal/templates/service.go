package templates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/certforge/certforge/internal/elements"
)

// Authorizer answers whether an actor may manage or view templates in a
// given course scope (nil course means platform scope). The engine never
// implements authorization itself; it consults this collaborator before
// every mutating or rendering operation.
type Authorizer interface {
	CanManage(ctx context.Context, actorID uuid.UUID, courseID *uuid.UUID) error
	CanView(ctx context.Context, actorID uuid.UUID, courseID *uuid.UUID) error
}

// Service owns template, page and element lifecycle: authoring mutations
// delegate per-kind validation to the element registry and persist through
// the repository.
type Service struct {
	repo     Repository
	registry *elements.Registry
	authz    Authorizer
	logger   *zap.Logger
}

// NewService creates a template service.
func NewService(repo Repository, registry *elements.Registry, authz Authorizer, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		authz:    authz,
		logger:   logger,
	}
}

// Registry exposes the element registry, for callers that need to list or
// resolve element kinds (renderer, handlers).
func (s *Service) Registry() *elements.Registry {
	return s.registry
}

// CreateTemplate creates an empty template. A template with zero pages is
// structurally valid and renders an empty document.
func (s *Service) CreateTemplate(ctx context.Context, actorID uuid.UUID, name string, courseID *uuid.UUID) (*Template, error) {
	if err := s.authz.CanManage(ctx, actorID, courseID); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("template name is required")
	}

	now := time.Now().UTC()
	t := &Template{
		ID:        uuid.New(),
		Name:      name,
		CourseID:  courseID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateTemplate(ctx, t); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}

	s.logger.Info("template created",
		zap.String("template_id", t.ID.String()),
		zap.String("name", t.Name))
	return t, nil
}

// GetTemplate loads a template after a view permission check.
func (s *Service) GetTemplate(ctx context.Context, actorID, id uuid.UUID) (*Template, error) {
	t, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanView(ctx, actorID, t.CourseID); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTemplates lists the templates in a course scope.
func (s *Service) ListTemplates(ctx context.Context, actorID uuid.UUID, courseID *uuid.UUID) ([]Template, error) {
	if err := s.authz.CanView(ctx, actorID, courseID); err != nil {
		return nil, err
	}
	return s.repo.ListTemplates(ctx, courseID)
}

// UpdateTemplate changes template-level settings (name, reissue policy).
func (s *Service) UpdateTemplate(ctx context.Context, actorID uuid.UUID, t *Template) error {
	current, err := s.repo.GetTemplate(ctx, t.ID)
	if err != nil {
		return err
	}
	if err := s.authz.CanManage(ctx, actorID, current.CourseID); err != nil {
		return err
	}
	t.CourseID = current.CourseID
	t.UpdatedAt = time.Now().UTC()
	return s.repo.UpdateTemplate(ctx, t)
}

// DeleteTemplate removes a template. Pages, elements and issues go with
// it; the repository guarantees nothing dangles.
func (s *Service) DeleteTemplate(ctx context.Context, actorID, id uuid.UUID) error {
	t, err := s.repo.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.CanManage(ctx, actorID, t.CourseID); err != nil {
		return err
	}
	if err := s.repo.DeleteTemplate(ctx, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	s.logger.Info("template deleted", zap.String("template_id", id.String()))
	return nil
}

// DuplicateTemplate deep-copies a template with all pages and elements.
// The copy gets fresh identifiers and starts with no issues.
func (s *Service) DuplicateTemplate(ctx context.Context, actorID, id uuid.UUID, targetCourseID *uuid.UUID) (*Template, error) {
	snap, err := s.repo.GetSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanView(ctx, actorID, snap.Template.CourseID); err != nil {
		return nil, err
	}
	if err := s.authz.CanManage(ctx, actorID, targetCourseID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	copy := &Template{
		ID:           uuid.New(),
		Name:         snap.Template.Name + " (copy)",
		CourseID:     targetCourseID,
		AllowReissue: snap.Template.AllowReissue,
		AutoAward:    snap.Template.AutoAward,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.CreateTemplate(ctx, copy); err != nil {
		return nil, fmt.Errorf("create template copy: %w", err)
	}
	for _, ps := range snap.Pages {
		page := ps.Page
		page.ID = uuid.New()
		page.TemplateID = copy.ID
		page.CreatedAt = now
		page.UpdatedAt = now
		if err := s.repo.CreatePage(ctx, &page); err != nil {
			return nil, fmt.Errorf("copy page: %w", err)
		}
		for _, el := range ps.Elements {
			el.ID = uuid.New()
			el.PageID = page.ID
			el.CreatedAt = now
			el.UpdatedAt = now
			if err := s.repo.CreateElement(ctx, &el); err != nil {
				return nil, fmt.Errorf("copy element: %w", err)
			}
		}
	}

	s.logger.Info("template duplicated",
		zap.String("source_id", id.String()),
		zap.String("copy_id", copy.ID.String()))
	return copy, nil
}

// AddPage appends a page to a template.
func (s *Service) AddPage(ctx context.Context, actorID, templateID uuid.UUID, widthMM, heightMM, marginMM float64) (*Page, error) {
	t, err := s.repo.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanManage(ctx, actorID, t.CourseID); err != nil {
		return nil, err
	}
	if widthMM <= 0 || heightMM <= 0 {
		return nil, fmt.Errorf("page dimensions must be positive, got %gx%g", widthMM, heightMM)
	}
	if marginMM < 0 {
		return nil, fmt.Errorf("page margin must not be negative, got %g", marginMM)
	}

	pages, err := s.repo.ListPages(ctx, templateID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Page{
		ID:         uuid.New(),
		TemplateID: templateID,
		Sequence:   len(pages) + 1,
		WidthMM:    widthMM,
		HeightMM:   heightMM,
		MarginMM:   marginMM,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreatePage(ctx, p); err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	return p, nil
}

// UpdatePage edits page dimensions and margin. Elements validate their
// positions against the page dimensions, so a page may not shrink below
// any position an existing element already references.
func (s *Service) UpdatePage(ctx context.Context, actorID, pageID uuid.UUID, widthMM, heightMM, marginMM float64) (*Page, error) {
	p, err := s.repo.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.GetTemplate(ctx, p.TemplateID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanManage(ctx, actorID, t.CourseID); err != nil {
		return nil, err
	}
	if widthMM <= 0 || heightMM <= 0 {
		return nil, fmt.Errorf("page dimensions must be positive, got %gx%g", widthMM, heightMM)
	}
	if marginMM < 0 {
		return nil, fmt.Errorf("page margin must not be negative, got %g", marginMM)
	}

	els, err := s.repo.ListElements(ctx, pageID)
	if err != nil {
		return nil, err
	}
	for _, el := range els {
		if el.PosX > widthMM || el.PosY > heightMM {
			return nil, fmt.Errorf("page cannot shrink to %gx%g: element %s sits at (%g,%g)",
				widthMM, heightMM, el.ID, el.PosX, el.PosY)
		}
	}

	p.WidthMM = widthMM
	p.HeightMM = heightMM
	p.MarginMM = marginMM
	p.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdatePage(ctx, p); err != nil {
		return nil, fmt.Errorf("update page: %w", err)
	}
	return p, nil
}

// DeletePage removes a page and exactly its own elements.
func (s *Service) DeletePage(ctx context.Context, actorID, pageID uuid.UUID) error {
	p, err := s.repo.GetPage(ctx, pageID)
	if err != nil {
		return err
	}
	t, err := s.repo.GetTemplate(ctx, p.TemplateID)
	if err != nil {
		return err
	}
	if err := s.authz.CanManage(ctx, actorID, t.CourseID); err != nil {
		return err
	}
	return s.repo.DeletePage(ctx, pageID)
}

// AddElement creates an element of the given kind at a position on a page.
// The kind must be registered; an unknown tag fails fast rather than
// persisting an element nothing can render. The repository assigns the
// paint-order sequence at insert time.
func (s *Service) AddElement(ctx context.Context, actorID, pageID uuid.UUID, typeTag string, posX, posY float64) (*Element, error) {
	p, err := s.repo.GetPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.GetTemplate(ctx, p.TemplateID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanManage(ctx, actorID, t.CourseID); err != nil {
		return nil, err
	}
	if !s.registry.Has(typeTag) {
		return nil, &elements.UnknownTypeError{Tag: typeTag}
	}
	if err := validatePosition(p, posX, posY); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	el := &Element{
		ID:        uuid.New(),
		PageID:    pageID,
		TypeTag:   typeTag,
		PosX:      posX,
		PosY:      posY,
		Config:    ConfigJSON{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateElement(ctx, el); err != nil {
		return nil, fmt.Errorf("create element: %w", err)
	}

	s.logger.Info("element added",
		zap.String("element_id", el.ID.String()),
		zap.String("type_tag", typeTag),
		zap.String("page_id", pageID.String()))
	return el, nil
}

// UpdateElement validates raw field values through the element's kind and
// persists the normalized configuration. The kind rejects unknown keys and
// out-of-range values with a *elements.ValidationError.
func (s *Service) UpdateElement(ctx context.Context, actorID, elementID uuid.UUID, fieldValues map[string]string) (*Element, error) {
	el, t, err := s.getElementScope(ctx, elementID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanManage(ctx, actorID, t.CourseID); err != nil {
		return nil, err
	}

	kind, err := s.registry.Create(el.TypeTag, elements.Config(el.Config))
	if err != nil {
		return nil, err
	}
	cfg, err := kind.ValidateAndNormalize(fieldValues)
	if err != nil {
		return nil, err
	}

	el.Config = ConfigJSON(cfg)
	el.UpdatedAt = time.Now().UTC()
	if err := s.repo.UpdateElement(ctx, el); err != nil {
		return nil, fmt.Errorf("update element: %w", err)
	}
	return el, nil
}

// MoveElement repositions an element within its page's bounds and
// optionally sets its width.
func (s *Service) MoveElement(ctx context.Context, actorID, elementID uuid.UUID, posX, posY, width float64) (*Element, error) {
	el, t, err := s.getElementScope(ctx, elementID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.CanManage(ctx, actorID, t.CourseID); err != nil {
		return nil, err
	}
	p, err := s.repo.GetPage(ctx, el.PageID)
	if err != nil {
		return nil, err
	}
	if err := validatePosition(p, posX, posY); err != nil {
		return nil, err
	}
	if width < 0 {
		return nil, fmt.Errorf("element width must not be negative, got %g", width)
	}

	el.PosX = posX
	el.PosY = posY
	el.Width = width
	el.UpdatedAt = time.Now().UTC()
	return el, s.repo.UpdateElement(ctx, el)
}

// ReorderElements sets a page's paint order. orderedIDs must list exactly
// the page's elements; anything else leaves the order untouched.
func (s *Service) ReorderElements(ctx context.Context, actorID, pageID uuid.UUID, orderedIDs []uuid.UUID) error {
	p, err := s.repo.GetPage(ctx, pageID)
	if err != nil {
		return err
	}
	t, err := s.repo.GetTemplate(ctx, p.TemplateID)
	if err != nil {
		return err
	}
	if err := s.authz.CanManage(ctx, actorID, t.CourseID); err != nil {
		return err
	}

	existing, err := s.repo.ListElements(ctx, pageID)
	if err != nil {
		return err
	}
	if len(orderedIDs) != len(existing) {
		return fmt.Errorf("order lists %d elements, page has %d", len(orderedIDs), len(existing))
	}
	onPage := make(map[uuid.UUID]bool, len(existing))
	for _, el := range existing {
		onPage[el.ID] = true
	}
	seen := make(map[uuid.UUID]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		if !onPage[id] {
			return fmt.Errorf("element %s is not on page %s", id, pageID)
		}
		if seen[id] {
			return fmt.Errorf("element %s listed twice", id)
		}
		seen[id] = true
	}

	if err := s.repo.ReorderElements(ctx, pageID, orderedIDs); err != nil {
		return fmt.Errorf("reorder elements: %w", err)
	}
	s.logger.Debug("elements reordered", zap.String("page_id", pageID.String()))
	return nil
}

// RemoveElement deletes an element.
func (s *Service) RemoveElement(ctx context.Context, actorID, elementID uuid.UUID) error {
	_, t, err := s.getElementScope(ctx, elementID)
	if err != nil {
		return err
	}
	if err := s.authz.CanManage(ctx, actorID, t.CourseID); err != nil {
		return err
	}
	return s.repo.DeleteElement(ctx, elementID)
}

// ElementPreview renders the editor-facing HTML fragment for an element's
// stored configuration.
func (s *Service) ElementPreview(ctx context.Context, actorID, elementID uuid.UUID) (string, error) {
	el, t, err := s.getElementScope(ctx, elementID)
	if err != nil {
		return "", err
	}
	if err := s.authz.CanView(ctx, actorID, t.CourseID); err != nil {
		return "", err
	}
	kind, err := s.registry.Create(el.TypeTag, elements.Config(el.Config))
	if err != nil {
		return "", err
	}
	return kind.RenderPreview(elements.Config(el.Config))
}

func (s *Service) getElementScope(ctx context.Context, elementID uuid.UUID) (*Element, *Template, error) {
	el, err := s.repo.GetElement(ctx, elementID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.repo.GetPage(ctx, el.PageID)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.repo.GetTemplate(ctx, p.TemplateID)
	if err != nil {
		return nil, nil, err
	}
	return el, t, nil
}

func validatePosition(p *Page, posX, posY float64) error {
	if posX < 0 || posY < 0 || posX > p.WidthMM || posY > p.HeightMM {
		return fmt.Errorf("position (%g,%g) is outside the %gx%g page", posX, posY, p.WidthMM, p.HeightMM)
	}
	return nil
}
