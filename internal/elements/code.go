package elements

import (
	"github.com/certforge/certforge/pkg/pdfsink"
)

// CodeElement renders the document's verification code so a reader can
// check authenticity against the verify endpoint.
type CodeElement struct{}

func (e *CodeElement) TypeTag() string { return "code" }

func (e *CodeElement) Keys() []string { return styleKeys() }

func (e *CodeElement) ValidateAndNormalize(raw map[string]string) (Config, error) {
	ve := &ValidationError{TypeTag: e.TypeTag()}
	cfg := Config{}

	if err := rejectUnknownKeys(e, raw, ve); err == nil {
		validateStyleFields(raw, cfg, ve)
	}

	if !ve.ok() {
		return nil, ve
	}
	return cfg, nil
}

func (e *CodeElement) RenderPreview(cfg Config) (string, error) {
	return previewSpan(cfg, "[verification code]"), nil
}

func (e *CodeElement) RenderOnto(sink pdfsink.Sink, at Placement, cfg Config, rc RecipientContext) error {
	code, _ := rc.Resolve(CtxCode)
	return writeStyledText(sink, at, cfg, code)
}
