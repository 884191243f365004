package settings

import "time"

// SiteSettings is the single sitewide configuration row for the
// certificate engine. Defaults apply when no row has been saved yet.
type SiteSettings struct {
	// PublicVerify lets anyone check a verification code without
	// logging in. When off, the verify endpoint requires a session.
	PublicVerify bool `db:"public_verify" json:"public_verify"`
	// ShowRevoked reports revoked issues on the verify page instead of
	// treating their codes as unknown.
	ShowRevoked bool `db:"show_revoked" json:"show_revoked"`

	// Default page geometry for new template pages, millimetres.
	DefaultWidthMM  float64 `db:"default_width_mm" json:"default_width_mm"`
	DefaultHeightMM float64 `db:"default_height_mm" json:"default_height_mm"`
	DefaultMarginMM float64 `db:"default_margin_mm" json:"default_margin_mm"`

	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DefaultSiteSettings are A4 portrait with open verification.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		PublicVerify:    true,
		ShowRevoked:     true,
		DefaultWidthMM:  210,
		DefaultHeightMM: 297,
		DefaultMarginMM: 0,
	}
}
