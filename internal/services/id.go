package services

import (
	"strings"

	"github.com/google/uuid"
)

// shortID returns the first n characters of a dash-stripped UUID.
func shortID(n int) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n > 0 && n < len(id) {
		return id[:n]
	}
	return id
}
