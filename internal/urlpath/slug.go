package urlpath

import "strings"

// Slugify converts a display name into its URL segment form: lowercase,
// whitespace collapsed to single hyphens. "Town House" -> "town-house".
func Slugify(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	return strings.Join(fields, "-")
}
