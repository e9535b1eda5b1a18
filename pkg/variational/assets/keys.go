package assets

import "strings"

// Namespace prefixes every Redis key written by this package.
const Namespace = "variational"

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// SupportedAssetsKey holds the supported-asset map, optionally restricted to
// verified listings.
func SupportedAssetsKey(verified bool) string {
	if verified {
		return formatKey("assets", "supported", "verified")
	}
	return formatKey("assets", "supported")
}
