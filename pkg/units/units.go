package units

// Template authors position elements in millimetres; the document sink
// works in PostScript points (1 pt = 1/72 inch, 25.4 mm = 1 inch).
const ptPerMM = 72.0 / 25.4

// MMToPt converts millimetres to points.
func MMToPt(mm float64) float64 {
	return mm * ptPerMM
}

// PtToMM converts points to millimetres.
func PtToMM(pt float64) float64 {
	return pt / ptPerMM
}

// Point is a position in page units (millimetres from the top-left corner).
type Point struct {
	X float64
	Y float64
}

// Size is a width/height pair in page units.
type Size struct {
	Width  float64
	Height float64
}

// ToPt converts a position from millimetres to points.
func (p Point) ToPt() Point {
	return Point{X: MMToPt(p.X), Y: MMToPt(p.Y)}
}

// ToPt converts a size from millimetres to points.
func (s Size) ToPt() Size {
	return Size{Width: MMToPt(s.Width), Height: MMToPt(s.Height)}
}
