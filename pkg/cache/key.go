package cache

import (
	"strings"
)

// keyPrefix scopes every key this package writes.
const keyPrefix = "patreon-roster"

// Key identifies a cached roster.
type Key struct {
	// Namespace groups related entries (e.g., "patrons")
	Namespace string

	// Name distinguishes entries within a namespace (e.g., a campaign or owner)
	Name string
}

// String generates the Redis key.
// Format: patreon-roster:namespace:name
func (k Key) String() string {
	parts := []string{keyPrefix}

	if ns := strings.Trim(k.Namespace, ":"); ns != "" {
		parts = append(parts, ns)
	}
	if name := strings.Trim(k.Name, ":"); name != "" {
		parts = append(parts, name)
	}

	return strings.Join(parts, ":")
}
