package elements

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certforge/certforge/pkg/pdfsink"
	"github.com/certforge/certforge/pkg/units"
)

func TestTextValidateAndNormalize(t *testing.T) {
	el := &TextElement{}

	cfg, err := el.ValidateAndNormalize(map[string]string{
		"content": "Awarded to {fullname}",
		"font":    "Times",
		"size":    "24",
		"color":   "#1A2B3C",
		"align":   "C",
	})
	require.NoError(t, err)
	assert.Equal(t, "Awarded to {fullname}", cfg["content"])
	assert.Equal(t, "Times", cfg["font"])
	assert.Equal(t, "24", cfg["size"])
	assert.Equal(t, "#1a2b3c", cfg["color"])
}

func TestTextValidateRejectsUnknownKey(t *testing.T) {
	el := &TextElement{}
	_, err := el.ValidateAndNormalize(map[string]string{"content": "x", "fontsize": "12"})
	require.Error(t, err)

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve.Errors, 1)
	assert.Equal(t, "fontsize", ve.Errors[0].Field)
	assert.Equal(t, "unknown", ve.Errors[0].Code)
}

func TestTextValidateFieldErrors(t *testing.T) {
	el := &TextElement{}

	tests := []struct {
		name  string
		raw   map[string]string
		field string
	}{
		{"missing content", map[string]string{"size": "12"}, "content"},
		{"bad font", map[string]string{"content": "x", "font": "Comic Sans"}, "font"},
		{"zero size", map[string]string{"content": "x", "size": "0"}, "size"},
		{"huge size", map[string]string{"content": "x", "size": "9000"}, "size"},
		{"bad color", map[string]string{"content": "x", "color": "red"}, "color"},
		{"bad align", map[string]string{"content": "x", "align": "J"}, "align"},
		{"negative width", map[string]string{"content": "x", "width": "-5"}, "width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := el.ValidateAndNormalize(tt.raw)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			require.Len(t, ve.Errors, 1)
			assert.Equal(t, tt.field, ve.Errors[0].Field)
		})
	}
}

func TestTextContentIsSanitized(t *testing.T) {
	el := &TextElement{}
	cfg, err := el.ValidateAndNormalize(map[string]string{
		"content": `Hello <script>alert("x")</script>world`,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", cfg["content"])
}

func TestTextPreviewReflectsNormalizedFields(t *testing.T) {
	el := &TextElement{}
	cfg, err := el.ValidateAndNormalize(map[string]string{
		"content": "Congratulations & well done",
		"font":    "Courier",
		"size":    "18",
		"color":   "#ff0000",
	})
	require.NoError(t, err)

	htmlFrag, err := el.RenderPreview(cfg)
	require.NoError(t, err)
	assert.Contains(t, htmlFrag, "Courier")
	assert.Contains(t, htmlFrag, "18pt")
	assert.Contains(t, htmlFrag, "#ff0000")
	assert.Contains(t, htmlFrag, "Congratulations &amp; well done")
}

func TestTextRenderOntoResolvesPlaceholders(t *testing.T) {
	el := &TextElement{}
	sink := &recordingSink{}
	cfg := Config{"content": "Awarded to {fullname}", "size": "16"}

	err := el.RenderOnto(sink, Placement{Pos: units.Point{X: 10, Y: 10}}, cfg, MapContext{"fullname": "Ada"})
	require.NoError(t, err)
	require.Len(t, sink.texts, 1)
	assert.Equal(t, "Awarded to Ada", sink.texts[0].Text)
	assert.Equal(t, 10.0, sink.texts[0].X)
	assert.Equal(t, 16.0, sink.texts[0].FontSize)
}

func TestTextRenderOntoMissingPlaceholderRendersEmpty(t *testing.T) {
	el := &TextElement{}
	sink := &recordingSink{}

	err := el.RenderOnto(sink, Placement{}, Config{"content": "{fullname}"}, MapContext{})
	require.NoError(t, err)
	require.Len(t, sink.texts, 1)
	assert.Equal(t, "", sink.texts[0].Text)
}

func TestTextDefaultStyle(t *testing.T) {
	el := &TextElement{}
	sink := &recordingSink{}

	err := el.RenderOnto(sink, Placement{}, Config{"content": "x"}, MapContext{})
	require.NoError(t, err)
	require.Len(t, sink.texts, 1)
	assert.Equal(t, "Helvetica", sink.texts[0].Font)
	assert.Equal(t, 12.0, sink.texts[0].FontSize)
	assert.Equal(t, pdfsink.Color{}, sink.texts[0].Color)
	assert.Equal(t, pdfsink.AlignLeft, sink.texts[0].Align)
}
