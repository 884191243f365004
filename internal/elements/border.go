package elements

import (
	"fmt"
	"strconv"

	"github.com/certforge/certforge/pkg/pdfsink"
)

const (
	keyBorderWidth = "borderwidth"
	keyBorderColor = "bordercolor"
	keyBorderInset = "inset"
)

// BorderElement strokes a rectangle around the page. Position is ignored;
// the inset from the page edge comes from configuration.
type BorderElement struct{}

func (e *BorderElement) TypeTag() string { return "border" }

func (e *BorderElement) Keys() []string {
	return []string{keyBorderWidth, keyBorderColor, keyBorderInset}
}

func (e *BorderElement) ValidateAndNormalize(raw map[string]string) (Config, error) {
	ve := &ValidationError{TypeTag: e.TypeTag()}
	cfg := Config{}

	if err := rejectUnknownKeys(e, raw, ve); err == nil {
		if v, ok := raw[keyBorderWidth]; ok {
			w, err := strconv.ParseFloat(v, 64)
			if err != nil || w <= 0 {
				ve.add(keyBorderWidth, "invalid", fmt.Sprintf("borderwidth must be a positive number, got %q", v))
			} else {
				cfg[keyBorderWidth] = strconv.FormatFloat(w, 'f', -1, 64)
			}
		}
		if v, ok := raw[keyBorderColor]; ok {
			if _, err := parseHexColor(v); err != nil {
				ve.add(keyBorderColor, "invalid", fmt.Sprintf("bordercolor must be #rrggbb, got %q", v))
			} else {
				cfg[keyBorderColor] = v
			}
		}
		if v, ok := raw[keyBorderInset]; ok {
			inset, err := strconv.ParseFloat(v, 64)
			if err != nil || inset < 0 {
				ve.add(keyBorderInset, "invalid", fmt.Sprintf("inset must be zero or positive, got %q", v))
			} else {
				cfg[keyBorderInset] = strconv.FormatFloat(inset, 'f', -1, 64)
			}
		}
	}

	if !ve.ok() {
		return nil, ve
	}
	return cfg, nil
}

func (e *BorderElement) RenderPreview(cfg Config) (string, error) {
	return fmt.Sprintf(`<div class="border-preview" style="border:%smm solid %s"></div>`,
		cfg.Get(keyBorderWidth, "1"), cfg.Get(keyBorderColor, "#000000")), nil
}

func (e *BorderElement) RenderOnto(sink pdfsink.Sink, at Placement, cfg Config, rc RecipientContext) error {
	width, _ := strconv.ParseFloat(cfg.Get(keyBorderWidth, "1"), 64)
	inset, _ := strconv.ParseFloat(cfg.Get(keyBorderInset, "0"), 64)
	color, err := parseHexColor(cfg.Get(keyBorderColor, "#000000"))
	if err != nil {
		return err
	}
	return sink.WriteShape(pdfsink.ShapeOptions{
		Kind:      pdfsink.ShapeRect,
		X:         inset,
		Y:         inset,
		Width:     at.Page.Width - 2*inset,
		Height:    at.Page.Height - 2*inset,
		LineWidth: width,
		Stroke:    color,
	})
}
