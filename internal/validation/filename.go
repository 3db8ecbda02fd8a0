package validation

import (
	"regexp"
)

const maxDisplayFilename = 120

var unsafeFilenameChars = regexp.MustCompile(`[^\w.\-() ]+`)

// SanitizeFilename makes a display filename safe for a Content-Disposition
// header: characters outside a conservative set are replaced and the result
// is capped in length. Never used for storage addressing.
func SanitizeFilename(name string) string {
	safe := unsafeFilenameChars.ReplaceAllString(name, "_")
	if len(safe) > maxDisplayFilename {
		safe = safe[:maxDisplayFilename]
	}
	if safe == "" {
		return "evidence"
	}
	return safe
}
