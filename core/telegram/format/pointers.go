package format

import "strings"

// DerefString safely dereferences a *string and returns a default value if nil.
func DerefString(s *string, defaultVal string) string {
	if s != nil {
		return *s
	}
	return defaultVal
}

// Present reports whether s points at non-blank text.
func Present(s *string) bool {
	return strings.TrimSpace(DerefString(s, "")) != ""
}
