package vault

import "strings"

// MaskIdentifier hides an account identifier for listing views. At most the
// first two and the last character survive; short identifiers are fully
// masked. For email-shaped identifiers only the local part is masked so the
// provider domain stays recognizable.
func MaskIdentifier(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if at := strings.LastIndex(id, "@"); at > 0 {
		return maskPart(id[:at]) + id[at:]
	}
	return maskPart(id)
}

func maskPart(s string) string {
	if len(s) <= 4 {
		return "***"
	}
	return s[:2] + "***" + s[len(s)-1:]
}
