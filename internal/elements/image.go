package elements

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/certforge/certforge/pkg/pdfsink"
)

const (
	keyImageData   = "data"
	keyImageFormat = "format"
	keyImageWidth  = "imagewidth"
	keyImageHeight = "imageheight"
)

var allowedImageFormats = map[string]bool{
	"png": true,
	"jpg": true,
	"gif": true,
}

// ImageElement places a stored raster image. The image bytes travel in the
// config as base64 so the element set stays a flat key/value store.
type ImageElement struct{}

func (e *ImageElement) TypeTag() string { return "image" }

func (e *ImageElement) Keys() []string {
	return []string{keyImageData, keyImageFormat, keyImageWidth, keyImageHeight}
}

func (e *ImageElement) ValidateAndNormalize(raw map[string]string) (Config, error) {
	ve := &ValidationError{TypeTag: e.TypeTag()}
	cfg := Config{}

	if err := rejectUnknownKeys(e, raw, ve); err == nil {
		data, ok := raw[keyImageData]
		if !ok || data == "" {
			ve.add(keyImageData, "required", "image data is required")
		} else if _, err := base64.StdEncoding.DecodeString(data); err != nil {
			ve.add(keyImageData, "invalid", "image data must be base64 encoded")
		} else {
			cfg[keyImageData] = data
		}

		format := raw[keyImageFormat]
		if !allowedImageFormats[format] {
			ve.add(keyImageFormat, "invalid", fmt.Sprintf("format must be png, jpg or gif, got %q", format))
		} else {
			cfg[keyImageFormat] = format
		}

		for _, key := range []string{keyImageWidth, keyImageHeight} {
			v, ok := raw[key]
			if !ok {
				ve.add(key, "required", key+" is required")
				continue
			}
			dim, err := strconv.ParseFloat(v, 64)
			if err != nil || dim <= 0 {
				ve.add(key, "invalid", fmt.Sprintf("%s must be a positive number, got %q", key, v))
			} else {
				cfg[key] = strconv.FormatFloat(dim, 'f', -1, 64)
			}
		}
	}

	if !ve.ok() {
		return nil, ve
	}
	return cfg, nil
}

func (e *ImageElement) RenderPreview(cfg Config) (string, error) {
	mime := "image/" + cfg.Get(keyImageFormat, "png")
	if cfg.Get(keyImageFormat, "") == "jpg" {
		mime = "image/jpeg"
	}
	return fmt.Sprintf(`<img src="data:%s;base64,%s" width="%s" height="%s" alt="">`,
		mime, cfg.Get(keyImageData, ""), cfg.Get(keyImageWidth, "0"), cfg.Get(keyImageHeight, "0")), nil
}

func (e *ImageElement) RenderOnto(sink pdfsink.Sink, at Placement, cfg Config, rc RecipientContext) error {
	data, err := base64.StdEncoding.DecodeString(cfg.Get(keyImageData, ""))
	if err != nil {
		return fmt.Errorf("decode image data: %w", err)
	}
	width, _ := strconv.ParseFloat(cfg.Get(keyImageWidth, "0"), 64)
	height, _ := strconv.ParseFloat(cfg.Get(keyImageHeight, "0"), 64)
	return sink.WriteImage(pdfsink.ImageOptions{
		X:      at.Pos.X,
		Y:      at.Pos.Y,
		Width:  width,
		Height: height,
		Data:   data,
		Format: cfg.Get(keyImageFormat, "png"),
	})
}
