package elements

import (
	"fmt"
	"time"

	"github.com/certforge/certforge/pkg/pdfsink"
)

const (
	keyDateItem   = "dateitem"
	keyDateFormat = "dateformat"
)

const (
	dateItemIssue      = "issue"
	dateItemCompletion = "completion"
)

// Date formats a template author can pick from. The context delivers dates
// as RFC 3339; the element reformats for display.
var dateFormats = map[string]string{
	"long":  "2 January 2006",
	"short": "02/01/2006",
	"us":    "January 2, 2006",
	"iso":   "2006-01-02",
}

// DateElement renders the issue or completion date of the document.
type DateElement struct{}

func (e *DateElement) TypeTag() string { return "date" }

func (e *DateElement) Keys() []string {
	return append([]string{keyDateItem, keyDateFormat}, styleKeys()...)
}

func (e *DateElement) ValidateAndNormalize(raw map[string]string) (Config, error) {
	ve := &ValidationError{TypeTag: e.TypeTag()}
	cfg := Config{}

	if err := rejectUnknownKeys(e, raw, ve); err == nil {
		item, ok := raw[keyDateItem]
		if !ok || item == "" {
			ve.add(keyDateItem, "required", "dateitem is required")
		} else if item != dateItemIssue && item != dateItemCompletion {
			ve.add(keyDateItem, "invalid", fmt.Sprintf("dateitem must be issue or completion, got %q", item))
		} else {
			cfg[keyDateItem] = item
		}
		if format, ok := raw[keyDateFormat]; ok {
			if _, known := dateFormats[format]; !known {
				ve.add(keyDateFormat, "invalid", fmt.Sprintf("dateformat must be long, short, us or iso, got %q", format))
			} else {
				cfg[keyDateFormat] = format
			}
		}
		validateStyleFields(raw, cfg, ve)
	}

	if !ve.ok() {
		return nil, ve
	}
	return cfg, nil
}

func (e *DateElement) RenderPreview(cfg Config) (string, error) {
	return previewSpan(cfg, "["+cfg.Get(keyDateItem, "?")+" date]"), nil
}

func (e *DateElement) RenderOnto(sink pdfsink.Sink, at Placement, cfg Config, rc RecipientContext) error {
	ctxKey := CtxIssueDate
	if cfg.Get(keyDateItem, "") == dateItemCompletion {
		ctxKey = CtxCompletionDate
	}
	raw, ok := rc.Resolve(ctxKey)

	text := ""
	if ok && raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("parse %s value %q: %w", ctxKey, raw, err)
		}
		text = t.Format(dateFormats[cfg.Get(keyDateFormat, "long")])
	}
	return writeStyledText(sink, at, cfg, text)
}
