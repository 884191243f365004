package templates

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/certforge/certforge/internal/elements"
	"github.com/certforge/certforge/pkg/pdfsink"
	"github.com/certforge/certforge/pkg/units"
)

// RenderError reports a failure while rendering one element. It aborts the
// whole document: a half-rendered certificate is never returned.
type RenderError struct {
	ElementID uuid.UUID
	TypeTag   string
	Err       error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render element %s (%s): %v", e.ElementID, e.TypeTag, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// SinkFactory produces a fresh document sink for one render. Each render
// exclusively owns the sink it is given.
type SinkFactory func() pdfsink.Sink

// Renderer turns a template snapshot plus a recipient context into a
// finalized document. It holds only read-only collaborators, so one
// Renderer serves any number of concurrent renders.
type Renderer struct {
	repo     Repository
	registry *elements.Registry
	newSink  SinkFactory
	logger   *zap.Logger
}

// NewRenderer creates a renderer. If newSink is nil the gofpdf sink with
// default options is used.
func NewRenderer(repo Repository, registry *elements.Registry, newSink SinkFactory, logger *zap.Logger) *Renderer {
	if newSink == nil {
		newSink = func() pdfsink.Sink { return pdfsink.NewFPDF(pdfsink.DefaultOptions()) }
	}
	return &Renderer{
		repo:     repo,
		registry: registry,
		newSink:  newSink,
		logger:   logger,
	}
}

// Render produces the document for one recipient. It snapshots the
// template's element tree at start; concurrent configuration edits are
// observed either entirely or not at all. All pages must render: the first
// failing element aborts with a *RenderError carrying its identifier, and
// no document is returned.
func (r *Renderer) Render(ctx context.Context, templateID uuid.UUID, rc elements.RecipientContext) ([]byte, error) {
	snap, err := r.repo.GetSnapshot(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("load template snapshot: %w", err)
	}
	return r.RenderSnapshot(ctx, snap, rc)
}

// RenderSnapshot renders an already-loaded snapshot. The award worker uses
// this to render one snapshot for many recipients without re-reading it.
func (r *Renderer) RenderSnapshot(ctx context.Context, snap *Snapshot, rc elements.RecipientContext) ([]byte, error) {
	sink := r.newSink()

	for _, ps := range snap.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := sink.OpenPage(ps.Page.WidthMM, ps.Page.HeightMM); err != nil {
			return nil, fmt.Errorf("open page %s: %w", ps.Page.ID, err)
		}
		for _, el := range ps.Elements {
			kind, err := r.registry.Create(el.TypeTag, elements.Config(el.Config))
			if err != nil {
				return nil, &RenderError{ElementID: el.ID, TypeTag: el.TypeTag, Err: err}
			}
			at := elements.Placement{
				Pos:   units.Point{X: el.PosX, Y: el.PosY},
				Width: el.Width,
				Page:  units.Size{Width: ps.Page.WidthMM, Height: ps.Page.HeightMM},
			}
			cfg := elements.Config(el.Config).Clone()
			if err := kind.RenderOnto(sink, at, cfg, rc); err != nil {
				return nil, &RenderError{ElementID: el.ID, TypeTag: el.TypeTag, Err: err}
			}
		}
	}

	doc, err := sink.Finalize()
	if err != nil {
		return nil, fmt.Errorf("finalize document: %w", err)
	}

	r.logger.Debug("document rendered",
		zap.String("template_id", snap.Template.ID.String()),
		zap.Int("pages", len(snap.Pages)),
		zap.Int("bytes", len(doc)))
	return doc, nil
}
