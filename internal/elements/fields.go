package elements

import (
	"fmt"

	"github.com/certforge/certforge/pkg/pdfsink"
)

const keyField = "field"

var userFields = map[string]string{
	"fullname":    CtxUserFullName,
	"firstname":   CtxUserFirstName,
	"lastname":    CtxUserLastName,
	"email":       CtxUserEmail,
	"idnumber":    CtxUserIDNumber,
	"institution": CtxUserInstitution,
	"department":  CtxUserDepartment,
}

var courseFields = map[string]string{
	"fullname":  CtxCourseFullName,
	"shortname": CtxCourseShortName,
	"grade":     CtxGrade,
}

// FieldElement renders one enumerated field of the recipient context as a
// styled text run. The user and course kinds share this behavior and differ
// only in the fields they expose.
type FieldElement struct {
	tag    string
	fields map[string]string
}

// NewUserFieldElement returns the kind rendering recipient profile fields.
func NewUserFieldElement() *FieldElement {
	return &FieldElement{tag: "userfield", fields: userFields}
}

// NewCourseFieldElement returns the kind rendering course fields.
func NewCourseFieldElement() *FieldElement {
	return &FieldElement{tag: "coursefield", fields: courseFields}
}

func (e *FieldElement) TypeTag() string { return e.tag }

func (e *FieldElement) Keys() []string {
	return append([]string{keyField}, styleKeys()...)
}

func (e *FieldElement) ValidateAndNormalize(raw map[string]string) (Config, error) {
	ve := &ValidationError{TypeTag: e.tag}
	cfg := Config{}

	if err := rejectUnknownKeys(e, raw, ve); err == nil {
		field, ok := raw[keyField]
		if !ok || field == "" {
			ve.add(keyField, "required", "field is required")
		} else if _, known := e.fields[field]; !known {
			ve.add(keyField, "invalid", fmt.Sprintf("unsupported field %q for %s elements", field, e.tag))
		} else {
			cfg[keyField] = field
		}
		validateStyleFields(raw, cfg, ve)
	}

	if !ve.ok() {
		return nil, ve
	}
	return cfg, nil
}

func (e *FieldElement) RenderPreview(cfg Config) (string, error) {
	// The editor has no recipient, so the preview shows the field marker.
	return previewSpan(cfg, "["+cfg.Get(keyField, "?")+"]"), nil
}

func (e *FieldElement) RenderOnto(sink pdfsink.Sink, at Placement, cfg Config, rc RecipientContext) error {
	ctxKey := e.fields[cfg.Get(keyField, "")]
	value, _ := rc.Resolve(ctxKey)
	return writeStyledText(sink, at, cfg, value)
}
