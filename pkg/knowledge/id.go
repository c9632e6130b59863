package knowledge

import "strings"

// CanonicalName normalizes a display name for identity purposes: lower-case,
// spaces and hyphens become underscores, apostrophes are removed. Every call
// site that derives an id from a name goes through this function so identity
// never drifts between insertion and lookup.
func CanonicalName(name string) string {
	clean := strings.ToLower(name)
	clean = strings.ReplaceAll(clean, " ", "_")
	clean = strings.ReplaceAll(clean, "'", "")
	clean = strings.ReplaceAll(clean, "-", "_")
	return clean
}

// EntityID derives the deterministic id for a (type, name) pair.
func EntityID(entityType string, name string) string {
	return entityType + ":" + CanonicalName(name)
}

func lower(s string) string {
	return strings.ToLower(s)
}
