package util

import "github.com/google/uuid"

// GenerateUUID returns a random (v4) UUID used for event and outbox ids.
func GenerateUUID() string {
	return uuid.NewString()
}
