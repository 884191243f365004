package elements

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/certforge/certforge/pkg/pdfsink"
)

// Shared configuration keys for text-bearing element kinds.
const (
	keyFont  = "font"
	keySize  = "size"
	keyColor = "color"
	keyAlign = "align"
	keyWidth = "width"
)

const (
	defaultFont     = "Helvetica"
	defaultFontSize = 12.0
	maxFontSize     = 200.0
)

var allowedFonts = map[string]bool{
	"Helvetica": true,
	"Times":     true,
	"Courier":   true,
}

var hexColorPattern = regexp.MustCompile(`^#[0-9a-f]{6}$`)

// textStyle is the parsed form of the shared styling keys.
type textStyle struct {
	Font  string
	Size  float64
	Color pdfsink.Color
	Align pdfsink.Align
	Width float64
}

func styleKeys() []string {
	return []string{keyFont, keySize, keyColor, keyAlign, keyWidth}
}

// validateStyleFields checks the shared styling keys present in raw and
// copies their normalized form into out. Missing keys are left absent;
// defaults apply at render time.
func validateStyleFields(raw map[string]string, out Config, ve *ValidationError) {
	if v, ok := raw[keyFont]; ok {
		if !allowedFonts[v] {
			ve.add(keyFont, "invalid", fmt.Sprintf("font must be one of Helvetica, Times, Courier, got %q", v))
		} else {
			out[keyFont] = v
		}
	}
	if v, ok := raw[keySize]; ok {
		size, err := strconv.ParseFloat(v, 64)
		if err != nil || size <= 0 || size > maxFontSize {
			ve.add(keySize, "invalid", fmt.Sprintf("size must be a positive number up to %g, got %q", maxFontSize, v))
		} else {
			out[keySize] = strconv.FormatFloat(size, 'f', -1, 64)
		}
	}
	if v, ok := raw[keyColor]; ok {
		normalized := strings.ToLower(strings.TrimSpace(v))
		if !hexColorPattern.MatchString(normalized) {
			ve.add(keyColor, "invalid", fmt.Sprintf("color must be #rrggbb, got %q", v))
		} else {
			out[keyColor] = normalized
		}
	}
	if v, ok := raw[keyAlign]; ok {
		switch pdfsink.Align(v) {
		case pdfsink.AlignLeft, pdfsink.AlignCenter, pdfsink.AlignRight:
			out[keyAlign] = v
		default:
			ve.add(keyAlign, "invalid", fmt.Sprintf("align must be L, C or R, got %q", v))
		}
	}
	if v, ok := raw[keyWidth]; ok {
		width, err := strconv.ParseFloat(v, 64)
		if err != nil || width < 0 {
			ve.add(keyWidth, "invalid", fmt.Sprintf("width must be zero or a positive number, got %q", v))
		} else {
			out[keyWidth] = strconv.FormatFloat(width, 'f', -1, 64)
		}
	}
}

// styleFromConfig parses the shared styling keys with their documented
// defaults. Stored configs passed validation, so parse failures fall back
// to the defaults rather than erroring.
func styleFromConfig(cfg Config) textStyle {
	st := textStyle{
		Font:  cfg.Get(keyFont, defaultFont),
		Size:  defaultFontSize,
		Align: pdfsink.AlignLeft,
	}
	if v, err := strconv.ParseFloat(cfg.Get(keySize, ""), 64); err == nil && v > 0 {
		st.Size = v
	}
	if c, err := parseHexColor(cfg.Get(keyColor, "#000000")); err == nil {
		st.Color = c
	}
	if a := cfg.Get(keyAlign, ""); a != "" {
		st.Align = pdfsink.Align(a)
	}
	if v, err := strconv.ParseFloat(cfg.Get(keyWidth, ""), 64); err == nil && v > 0 {
		st.Width = v
	}
	return st
}

func parseHexColor(s string) (pdfsink.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !hexColorPattern.MatchString(s) {
		return pdfsink.Color{}, fmt.Errorf("invalid color %q", s)
	}
	r, _ := strconv.ParseInt(s[1:3], 16, 0)
	g, _ := strconv.ParseInt(s[3:5], 16, 0)
	b, _ := strconv.ParseInt(s[5:7], 16, 0)
	return pdfsink.Color{R: int(r), G: int(g), B: int(b)}, nil
}

// writeStyledText writes one resolved text run at the placement using the
// shared styling keys.
func writeStyledText(sink pdfsink.Sink, at Placement, cfg Config, text string) error {
	st := styleFromConfig(cfg)
	width := st.Width
	if at.Width > 0 {
		width = at.Width
	}
	return sink.WriteText(pdfsink.TextOptions{
		X:        at.Pos.X,
		Y:        at.Pos.Y,
		Text:     text,
		Font:     st.Font,
		FontSize: st.Size,
		Color:    st.Color,
		Align:    st.Align,
		MaxWidth: width,
	})
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// sanitizeText strips any markup from user-supplied free text. The stored
// value is plain text: the sanitizer entity-encodes on the way out, so the
// result is unescaped again and escaping happens once, at preview time.
func sanitizeText(raw string) string {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(raw)))
}

// previewSpan renders a styled preview fragment for text-bearing kinds.
func previewSpan(cfg Config, text string) string {
	st := styleFromConfig(cfg)
	return fmt.Sprintf(`<span style="font-family:%s;font-size:%gpt;color:%s">%s</span>`,
		st.Font, st.Size, cfg.Get(keyColor, "#000000"), html.EscapeString(text))
}
