package utils

import "strings"

// Slugify derives a URL-safe identifier from a display name: lowercase
// alphanumerics with runs of anything else collapsed to single dashes.
func Slugify(s string) string {
	var sb strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !isAlnum {
			pendingDash = sb.Len() > 0
			continue
		}
		if pendingDash {
			sb.WriteByte('-')
			pendingDash = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
