package elements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateValidate(t *testing.T) {
	el := &DateElement{}

	cfg, err := el.ValidateAndNormalize(map[string]string{"dateitem": "completion", "dateformat": "iso"})
	require.NoError(t, err)
	assert.Equal(t, "completion", cfg["dateitem"])

	_, err = el.ValidateAndNormalize(map[string]string{"dateitem": "birthday"})
	assert.Error(t, err)

	_, err = el.ValidateAndNormalize(map[string]string{"dateitem": "issue", "dateformat": "roman"})
	assert.Error(t, err)
}

func TestDateRenderOnto(t *testing.T) {
	el := &DateElement{}
	rc := MapContext{
		CtxIssueDate:      "2026-03-15T12:00:00Z",
		CtxCompletionDate: "2026-02-28T09:30:00Z",
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"issue long", Config{"dateitem": "issue"}, "15 March 2026"},
		{"issue iso", Config{"dateitem": "issue", "dateformat": "iso"}, "2026-03-15"},
		{"completion short", Config{"dateitem": "completion", "dateformat": "short"}, "28/02/2026"},
		{"completion us", Config{"dateitem": "completion", "dateformat": "us"}, "February 28, 2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			require.NoError(t, el.RenderOnto(sink, Placement{}, tt.cfg, rc))
			require.Len(t, sink.texts, 1)
			assert.Equal(t, tt.want, sink.texts[0].Text)
		})
	}
}

func TestDateRenderOntoMissingDateRendersEmpty(t *testing.T) {
	el := &DateElement{}
	sink := &recordingSink{}
	require.NoError(t, el.RenderOnto(sink, Placement{}, Config{"dateitem": "completion"}, MapContext{}))
	require.Len(t, sink.texts, 1)
	assert.Equal(t, "", sink.texts[0].Text)
}

func TestDateRenderOntoMalformedDateFails(t *testing.T) {
	el := &DateElement{}
	sink := &recordingSink{}
	err := el.RenderOnto(sink, Placement{}, Config{"dateitem": "issue"}, MapContext{CtxIssueDate: "yesterday"})
	assert.Error(t, err)
}
