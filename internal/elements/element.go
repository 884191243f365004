package elements

import (
	"github.com/certforge/certforge/pkg/pdfsink"
	"github.com/certforge/certforge/pkg/units"
)

// Config is the stored configuration of one element: a flat key/value map
// whose keys must be a subset of the keys the element kind declares.
type Config map[string]string

// Get returns the configured value for key, or fallback when absent.
func (c Config) Get(key, fallback string) string {
	if v, ok := c[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Clone returns a copy of the config. Renders snapshot configuration at
// start, so stored configs are never shared mutable state.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Placement locates an element on a page. Coordinates and sizes are in the
// page's millimetre space; Page carries the page dimensions so kinds that
// span the page (borders, backgrounds) can size themselves.
type Placement struct {
	Pos   units.Point
	Width float64 // 0 means the kind's natural width
	Page  units.Size
}

// RecipientContext supplies resolved values for dynamic placeholders
// (user name, course name, completion date, verification code) for the
// recipient a document is being rendered for. Resolve reports ok=false for
// unavailable keys rather than failing; by policy such keys render as the
// empty string.
type RecipientContext interface {
	Resolve(key string) (value string, ok bool)
}

// MapContext is a RecipientContext backed by a plain map.
type MapContext map[string]string

func (m MapContext) Resolve(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Well-known recipient context keys.
const (
	CtxUserFullName   = "fullname"
	CtxUserFirstName  = "firstname"
	CtxUserLastName   = "lastname"
	CtxUserEmail      = "email"
	CtxUserIDNumber   = "idnumber"
	CtxUserInstitution = "institution"
	CtxUserDepartment = "department"
	CtxCourseFullName  = "coursefullname"
	CtxCourseShortName = "courseshortname"
	CtxGrade           = "grade"
	CtxCompletionDate  = "completiondate" // RFC 3339
	CtxIssueDate       = "issuedate"      // RFC 3339
	CtxCode            = "code"
	CtxVerifyURL       = "verifyurl"
)

// Element is the behavior of one element kind. Implementations are
// stateless: configuration is passed into every call, so a single instance
// is safely shared across concurrent renders.
type Element interface {
	// TypeTag is the immutable tag the kind registers under.
	TypeTag() string

	// Keys returns the configuration keys the kind accepts. Values for any
	// other key are rejected at save time.
	Keys() []string

	// ValidateAndNormalize checks raw field values from an editing caller
	// and returns the normalized config to persist. Returns *ValidationError
	// on any rejected field.
	ValidateAndNormalize(raw map[string]string) (Config, error)

	// RenderPreview produces an editor-facing HTML fragment for the stored
	// config. Pure: same config, same fragment.
	RenderPreview(cfg Config) (string, error)

	// RenderOnto writes the element into the sink at the given placement,
	// resolving dynamic values against rc. Implementations must not touch
	// any state beyond the sink.
	RenderOnto(sink pdfsink.Sink, at Placement, cfg Config, rc RecipientContext) error
}

// Factory produces the Element implementation for a type tag.
type Factory func() Element
