package elements

import (
	"fmt"
	"html"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/certforge/certforge/pkg/pdfsink"
)

const (
	keyQRContent = "content"
	keyQRSize    = "qrsize"
)

// qrPixelDensity is the rendered PNG resolution per millimetre of placed
// size. High enough that the modules stay sharp at print resolution.
const qrPixelDensity = 8

// QRCodeElement renders a QR code. The default content is the verification
// URL for the issued document, so a scan lands on the verify page.
type QRCodeElement struct{}

func (e *QRCodeElement) TypeTag() string { return "qrcode" }

func (e *QRCodeElement) Keys() []string {
	return []string{keyQRContent, keyQRSize}
}

func (e *QRCodeElement) ValidateAndNormalize(raw map[string]string) (Config, error) {
	ve := &ValidationError{TypeTag: e.TypeTag()}
	cfg := Config{}

	if err := rejectUnknownKeys(e, raw, ve); err == nil {
		size, ok := raw[keyQRSize]
		if !ok || size == "" {
			ve.add(keyQRSize, "required", "qrsize is required")
		} else if n, err := strconv.Atoi(size); err != nil || n <= 0 {
			ve.add(keyQRSize, "invalid", fmt.Sprintf("qrsize must be a positive integer, got %q", size))
		} else {
			cfg[keyQRSize] = strconv.Itoa(n)
		}
		if content, ok := raw[keyQRContent]; ok && content != "" {
			cfg[keyQRContent] = content
		}
	}

	if !ve.ok() {
		return nil, ve
	}
	return cfg, nil
}

func (e *QRCodeElement) RenderPreview(cfg Config) (string, error) {
	size := cfg.Get(keyQRSize, "0")
	return fmt.Sprintf(`<div class="qrcode-placeholder" data-size="%s" data-content="%s"></div>`,
		size, html.EscapeString(cfg.Get(keyQRContent, "{"+CtxVerifyURL+"}"))), nil
}

func (e *QRCodeElement) RenderOnto(sink pdfsink.Sink, at Placement, cfg Config, rc RecipientContext) error {
	content := ResolvePlaceholders(cfg.Get(keyQRContent, "{"+CtxVerifyURL+"}"), rc)
	if content == "" {
		// Nothing to encode for this recipient; leave the spot blank rather
		// than failing the document.
		return nil
	}
	sizeMM, _ := strconv.Atoi(cfg.Get(keyQRSize, "0"))
	png, err := qrcode.Encode(content, qrcode.Medium, sizeMM*qrPixelDensity)
	if err != nil {
		return fmt.Errorf("encode qr code: %w", err)
	}
	return sink.WriteImage(pdfsink.ImageOptions{
		X:      at.Pos.X,
		Y:      at.Pos.Y,
		Width:  float64(sizeMM),
		Height: float64(sizeMM),
		Data:   png,
		Format: "png",
	})
}
