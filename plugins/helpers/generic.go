// Package helpers contains small utilities shared by integrations.
package helpers

import (
	"strings"
)

// GetNameFromID converts entity ID to readable name.
// Used if name is not provided by the device.
func GetNameFromID(entityID string) string {
	parts := strings.Split(entityID, ".")
	return strings.Replace(parts[len(parts)-1], "_", " ", -1)
}

// SliceContainsString slice.contains implementation for strings.
func SliceContainsString(s []string, e string) bool {
	for _, a := range s {
		if a == e {
			return true
		}
	}
	return false
}
