package pdfsink

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/certforge/certforge/pkg/units"
)

// Options configures the gofpdf-backed sink.
type Options struct {
	// CreationDate is embedded as both CreationDate and ModDate in the
	// document metadata. Renders with identical input must produce
	// identical bytes, so this is fixed rather than defaulting to the
	// wall clock.
	CreationDate time.Time
	Title        string
	Author       string
}

// DefaultOptions returns the default sink options.
func DefaultOptions() Options {
	return Options{
		CreationDate: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// FPDF is a Sink writing to an in-memory PDF via gofpdf. The sink works in
// points internally; all millimetre inputs are converted on the way in.
type FPDF struct {
	pdf       *gofpdf.Fpdf
	imageSeq  int
	pageOpen  bool
	finalized bool
}

// NewFPDF creates an empty PDF sink. No page exists until OpenPage is called;
// a finalized sink with zero pages yields a valid single empty-page document,
// which gofpdf requires.
func NewFPDF(opts Options) *FPDF {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: units.MMToPt(210), Ht: units.MMToPt(297)},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(opts.CreationDate)
	pdf.SetModificationDate(opts.CreationDate)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	return &FPDF{pdf: pdf}
}

func (f *FPDF) OpenPage(widthMM, heightMM float64) error {
	if f.finalized {
		return fmt.Errorf("pdfsink: write after finalize")
	}
	if widthMM <= 0 || heightMM <= 0 {
		return fmt.Errorf("pdfsink: page dimensions must be positive, got %gx%g", widthMM, heightMM)
	}
	orientation := "P"
	if widthMM > heightMM {
		orientation = "L"
	}
	size := units.Size{Width: widthMM, Height: heightMM}.ToPt()
	f.pdf.AddPageFormat(orientation, gofpdf.SizeType{Wd: size.Width, Ht: size.Height})
	f.pageOpen = true
	return f.pdf.Error()
}

func (f *FPDF) WriteText(opts TextOptions) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	style := ""
	if opts.Bold {
		style += "B"
	}
	if opts.Italic {
		style += "I"
	}
	font := opts.Font
	if font == "" {
		font = "Helvetica"
	}
	f.pdf.SetFont(font, style, opts.FontSize)
	f.pdf.SetTextColor(opts.Color.R, opts.Color.G, opts.Color.B)

	pos := units.Point{X: opts.X, Y: opts.Y}.ToPt()
	lineHeight := opts.FontSize * 1.25

	if opts.MaxWidth > 0 {
		width := units.MMToPt(opts.MaxWidth)
		f.pdf.SetXY(pos.X, pos.Y)
		f.pdf.MultiCell(width, lineHeight, opts.Text, "", string(alignOrDefault(opts.Align)), false)
		return f.pdf.Error()
	}

	width := f.pdf.GetStringWidth(opts.Text)
	x := pos.X
	switch opts.Align {
	case AlignCenter:
		x -= width / 2
	case AlignRight:
		x -= width
	}
	f.pdf.SetXY(x, pos.Y)
	f.pdf.CellFormat(width, lineHeight, opts.Text, "", 0, "L", false, 0, "")
	return f.pdf.Error()
}

func (f *FPDF) WriteImage(opts ImageOptions) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	if len(opts.Data) == 0 {
		return fmt.Errorf("pdfsink: empty image data")
	}
	f.imageSeq++
	name := fmt.Sprintf("img%d", f.imageSeq)
	imgOpts := gofpdf.ImageOptions{ImageType: opts.Format, ReadDpi: false}
	f.pdf.RegisterImageOptionsReader(name, imgOpts, bytes.NewReader(opts.Data))
	if err := f.pdf.Error(); err != nil {
		return err
	}
	pos := units.Point{X: opts.X, Y: opts.Y}.ToPt()
	size := units.Size{Width: opts.Width, Height: opts.Height}.ToPt()
	f.pdf.ImageOptions(name, pos.X, pos.Y, size.Width, size.Height, false, imgOpts, 0, "")
	return f.pdf.Error()
}

func (f *FPDF) WriteShape(opts ShapeOptions) error {
	if err := f.checkWritable(); err != nil {
		return err
	}
	f.pdf.SetDrawColor(opts.Stroke.R, opts.Stroke.G, opts.Stroke.B)
	f.pdf.SetLineWidth(units.MMToPt(opts.LineWidth))

	pos := units.Point{X: opts.X, Y: opts.Y}.ToPt()
	size := units.Size{Width: opts.Width, Height: opts.Height}.ToPt()

	switch opts.Kind {
	case ShapeRect:
		styleStr := "D"
		if opts.Fill != nil {
			f.pdf.SetFillColor(opts.Fill.R, opts.Fill.G, opts.Fill.B)
			styleStr = "FD"
		}
		f.pdf.Rect(pos.X, pos.Y, size.Width, size.Height, styleStr)
	case ShapeLine:
		f.pdf.Line(pos.X, pos.Y, pos.X+size.Width, pos.Y+size.Height)
	default:
		return fmt.Errorf("pdfsink: unsupported shape kind %q", opts.Kind)
	}
	return f.pdf.Error()
}

func (f *FPDF) Finalize() ([]byte, error) {
	if f.finalized {
		return nil, fmt.Errorf("pdfsink: already finalized")
	}
	f.finalized = true
	if !f.pageOpen {
		// gofpdf cannot emit a zero-page document.
		f.pdf.AddPage()
	}
	var buf bytes.Buffer
	if err := f.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *FPDF) checkWritable() error {
	if f.finalized {
		return fmt.Errorf("pdfsink: write after finalize")
	}
	if !f.pageOpen {
		return fmt.Errorf("pdfsink: no open page")
	}
	return nil
}

func alignOrDefault(a Align) Align {
	if a == "" {
		return AlignLeft
	}
	return a
}
