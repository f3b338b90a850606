package utils

import (
	"strings"
	"time"
)

// TimeNow returns epoch UTC.
func TimeNow() int64 {
	return time.Now().UTC().Unix()
}

// NormalizeDeviceName validates that final device name is correct.
func NormalizeDeviceName(raw string) string {
	raw = strings.ToLower(raw)
	replacer := strings.NewReplacer("%", "_",
		"/", "_",
		"\\", "_",
		":", "_",
		";", "_",
		".", "_",
		"$", "_",
		"-", "_",
		" ", "_")
	return replacer.Replace(raw)
}

// EntityID builds entity ID from the domain and object ID.
func EntityID(domain string, objectID string) string {
	return domain + "." + NormalizeDeviceName(objectID)
}
