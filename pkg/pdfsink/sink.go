package pdfsink

// Sink accumulates rendered primitives and finalizes them into an output
// document. Positions and dimensions are in millimetres from the top-left
// corner of the current page. A Sink instance belongs to exactly one render
// call; it is not safe for concurrent use.
type Sink interface {
	// OpenPage starts a new page with the given dimensions. Subsequent
	// writes target this page until the next OpenPage call.
	OpenPage(widthMM, heightMM float64) error

	WriteText(opts TextOptions) error
	WriteImage(opts ImageOptions) error
	WriteShape(opts ShapeOptions) error

	// Finalize closes the document and returns the encoded bytes. The sink
	// must not be written to after Finalize.
	Finalize() ([]byte, error)
}

// Align controls horizontal text alignment relative to the anchor point.
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// Color is an RGB color with 8-bit channels.
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// TextOptions describes a single text run.
type TextOptions struct {
	X        float64
	Y        float64
	Text     string
	Font     string
	FontSize float64 // in points
	Bold     bool
	Italic   bool
	Color    Color
	Align    Align
	// MaxWidth, when positive, wraps the text within the given width.
	MaxWidth float64
}

// ImageOptions describes an image placement. Data holds the encoded image
// bytes and Format its encoding ("png", "jpg" or "gif").
type ImageOptions struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
	Data   []byte
	Format string
}

// ShapeKind enumerates the supported vector shapes.
type ShapeKind string

const (
	ShapeRect ShapeKind = "rect"
	ShapeLine ShapeKind = "line"
)

// ShapeOptions describes a vector shape.
type ShapeOptions struct {
	Kind      ShapeKind
	X         float64
	Y         float64
	Width     float64
	Height    float64
	LineWidth float64 // in millimetres
	Stroke    Color
	Fill      *Color // nil means no fill
}
