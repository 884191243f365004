package elements

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/certforge/certforge/pkg/units"
)

func tinyPNG(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestImageValidate(t *testing.T) {
	el := &ImageElement{}
	data := tinyPNG(t)

	cfg, err := el.ValidateAndNormalize(map[string]string{
		"data": data, "format": "png", "imagewidth": "40", "imageheight": "30",
	})
	require.NoError(t, err)
	assert.Equal(t, data, cfg["data"])

	_, err = el.ValidateAndNormalize(map[string]string{
		"data": "not-base64!!", "format": "png", "imagewidth": "40", "imageheight": "30",
	})
	assert.Error(t, err)

	_, err = el.ValidateAndNormalize(map[string]string{
		"data": data, "format": "bmp", "imagewidth": "40", "imageheight": "30",
	})
	assert.Error(t, err)

	_, err = el.ValidateAndNormalize(map[string]string{
		"data": data, "format": "png", "imagewidth": "0", "imageheight": "30",
	})
	assert.Error(t, err)
}

func TestImagePreview(t *testing.T) {
	el := &ImageElement{}
	data := tinyPNG(t)
	cfg, err := el.ValidateAndNormalize(map[string]string{
		"data": data, "format": "png", "imagewidth": "40", "imageheight": "30",
	})
	require.NoError(t, err)

	frag, err := el.RenderPreview(cfg)
	require.NoError(t, err)
	assert.Contains(t, frag, "data:image/png;base64,")
	assert.Contains(t, frag, data)
}

func TestImageRenderOnto(t *testing.T) {
	el := &ImageElement{}
	sink := &recordingSink{}
	cfg := Config{"data": tinyPNG(t), "format": "png", "imagewidth": "40", "imageheight": "30"}

	err := el.RenderOnto(sink, Placement{Pos: units.Point{X: 20, Y: 60}}, cfg, MapContext{})
	require.NoError(t, err)
	require.Len(t, sink.images, 1)
	assert.Equal(t, 20.0, sink.images[0].X)
	assert.Equal(t, 40.0, sink.images[0].Width)
	assert.Equal(t, 30.0, sink.images[0].Height)
	assert.True(t, bytes.HasPrefix(sink.images[0].Data, pngMagic))
}

func TestBorderRenderOntoSpansPage(t *testing.T) {
	el := &BorderElement{}
	sink := &recordingSink{}
	cfg, err := el.ValidateAndNormalize(map[string]string{"borderwidth": "1.5", "inset": "5", "bordercolor": "#336699"})
	require.NoError(t, err)

	at := Placement{Page: units.Size{Width: 210, Height: 297}}
	require.NoError(t, el.RenderOnto(sink, at, cfg, MapContext{}))
	require.Len(t, sink.shapes, 1)
	assert.Equal(t, 5.0, sink.shapes[0].X)
	assert.Equal(t, 200.0, sink.shapes[0].Width)
	assert.Equal(t, 287.0, sink.shapes[0].Height)
	assert.Equal(t, 1.5, sink.shapes[0].LineWidth)
}
