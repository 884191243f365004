package elements

import (
	"github.com/certforge/certforge/pkg/pdfsink"
)

const keyContent = "content"

// TextElement renders a static text block. The content may carry {key}
// placeholders resolved against the recipient context at render time.
type TextElement struct{}

func (e *TextElement) TypeTag() string { return "text" }

func (e *TextElement) Keys() []string {
	return append([]string{keyContent}, styleKeys()...)
}

func (e *TextElement) ValidateAndNormalize(raw map[string]string) (Config, error) {
	ve := &ValidationError{TypeTag: e.TypeTag()}
	cfg := Config{}

	if err := rejectUnknownKeys(e, raw, ve); err == nil {
		content, ok := raw[keyContent]
		if !ok || content == "" {
			ve.add(keyContent, "required", "content is required")
		} else {
			// Markup in stored content would otherwise flow into editor
			// previews unescaped downstream.
			cfg[keyContent] = sanitizeText(content)
		}
		validateStyleFields(raw, cfg, ve)
	}

	if !ve.ok() {
		return nil, ve
	}
	return cfg, nil
}

func (e *TextElement) RenderPreview(cfg Config) (string, error) {
	return previewSpan(cfg, cfg.Get(keyContent, "")), nil
}

func (e *TextElement) RenderOnto(sink pdfsink.Sink, at Placement, cfg Config, rc RecipientContext) error {
	text := ResolvePlaceholders(cfg.Get(keyContent, ""), rc)
	return writeStyledText(sink, at, cfg, text)
}
