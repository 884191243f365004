package templates

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/certforge/certforge/internal/elements"
)

// Orientation of a page. Derived from the page dimensions at save time and
// stored for listing without arithmetic.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Template is an authored certificate layout. CourseID scopes ownership:
// nil means a platform-wide template that course staff can load as a
// starting point.
type Template struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Name         string     `db:"name" json:"name"`
	CourseID     *uuid.UUID `db:"course_id" json:"course_id,omitempty"`
	AllowReissue bool       `db:"allow_reissue" json:"allow_reissue"`
	AutoAward    bool       `db:"auto_award" json:"auto_award"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Page belongs to exactly one template. Dimensions are in millimetres;
// Sequence is the page order within the template.
type Page struct {
	ID         uuid.UUID `db:"id" json:"id"`
	TemplateID uuid.UUID `db:"template_id" json:"template_id"`
	Sequence   int       `db:"sequence" json:"sequence"`
	WidthMM    float64   `db:"width_mm" json:"width_mm"`
	HeightMM   float64   `db:"height_mm" json:"height_mm"`
	MarginMM   float64   `db:"margin_mm" json:"margin_mm"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Orientation reports the page orientation from its dimensions.
func (p *Page) Orientation() Orientation {
	if p.WidthMM > p.HeightMM {
		return OrientationLandscape
	}
	return OrientationPortrait
}

// ConfigJSON stores an element's configuration map in a JSONB column.
type ConfigJSON elements.Config

// Value implements driver.Valuer.
func (c ConfigJSON) Value() (driver.Value, error) {
	if c == nil {
		return json.Marshal(elements.Config{})
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner.
func (c *ConfigJSON) Scan(value interface{}) error {
	if value == nil {
		*c = ConfigJSON{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("templates: cannot scan %T into ConfigJSON", value)
	}
	return json.Unmarshal(bytes, c)
}

// Element is one positioned, typed unit of content on a page. TypeTag is
// immutable after creation: changing the kind of an element is a delete
// plus recreate, never an in-place retype. Sequence is the paint order;
// later elements draw over earlier ones.
type Element struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	PageID    uuid.UUID  `db:"page_id" json:"page_id"`
	TypeTag   string     `db:"type_tag" json:"type_tag"`
	Sequence  int        `db:"sequence" json:"sequence"`
	PosX      float64    `db:"pos_x" json:"pos_x"`
	PosY      float64    `db:"pos_y" json:"pos_y"`
	Width     float64    `db:"width" json:"width"`
	Config    ConfigJSON `db:"config" json:"config"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Snapshot is a template with its full page and element tree as read in a
// single repository transaction. Renders work from a snapshot, so a render
// observes either the pre-mutation or post-mutation configuration in full.
type Snapshot struct {
	Template Template
	Pages    []PageSnapshot
}

// PageSnapshot is a page with its elements in paint order.
type PageSnapshot struct {
	Page     Page
	Elements []Element
}
