package sanitize

import "regexp"

// DefaultColor replaces any color that does not match the accepted grammar.
const DefaultColor = "#000000"

var colorPattern = regexp.MustCompile(`^(?:` +
	`#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})` +
	`|rgb\(\s*\d{1,3}\s*,\s*\d{1,3}\s*,\s*\d{1,3}\s*\)` +
	`|rgba\(\s*\d{1,3}\s*,\s*\d{1,3}\s*,\s*\d{1,3}\s*,\s*(?:0|1|0?\.\d+|1\.0+)\s*\)` +
	`)$`)

// IsColor reports whether value is a hex triplet or sextet, rgb(...) or rgba(...).
func IsColor(value string) bool {
	return colorPattern.MatchString(value)
}

// Color returns value when it is an accepted color and DefaultColor otherwise.
// The empty string is returned unchanged so that callers can still detect a missing color.
func Color(value string) string {
	if value == "" || IsColor(value) {
		return value
	}
	return DefaultColor
}
