package elements

import (
	"github.com/certforge/certforge/pkg/pdfsink"
	"github.com/certforge/certforge/pkg/units"
)

// recordingSink captures writes so element tests can assert on the
// primitives a kind produced.
type recordingSink struct {
	pages  []units.Size
	texts  []pdfsink.TextOptions
	images []pdfsink.ImageOptions
	shapes []pdfsink.ShapeOptions
	err    error
}

func (s *recordingSink) OpenPage(w, h float64) error {
	s.pages = append(s.pages, units.Size{Width: w, Height: h})
	return s.err
}

func (s *recordingSink) WriteText(opts pdfsink.TextOptions) error {
	s.texts = append(s.texts, opts)
	return s.err
}

func (s *recordingSink) WriteImage(opts pdfsink.ImageOptions) error {
	s.images = append(s.images, opts)
	return s.err
}

func (s *recordingSink) WriteShape(opts pdfsink.ShapeOptions) error {
	s.shapes = append(s.shapes, opts)
	return s.err
}

func (s *recordingSink) Finalize() ([]byte, error) {
	return []byte("%PDF-fake"), s.err
}
