// Package uuid generates the correlation ids attached to sync passes.
package uuid

import "github.com/google/uuid"

// New generates a new UUID v4 string.
func New() string {
	return uuid.New().String()
}
