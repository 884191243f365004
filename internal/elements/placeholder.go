package elements

import "regexp"

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z][a-zA-Z0-9_]*)\}`)

// ResolvePlaceholders substitutes {key} markers in s with values from rc.
// Keys the context cannot resolve become the empty string: a missing field
// must never fail a whole document render, so the gap is rendered blank.
func ResolvePlaceholders(s string, rc RecipientContext) string {
	return placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := rc.Resolve(key); ok {
			return v
		}
		return ""
	})
}
