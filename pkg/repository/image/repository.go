package image

import (
	"context"
	"time"
)

// Stored is an encoded stego image kept for later download.
type Stored struct {
	ID        string
	Data      []byte
	Scheme    string
	CreatedAt time.Time
}

// Repository keeps encoded images in memory with automatic cleanup via TTL.
type Repository interface {
	// Save stores a copy of data and returns a UUID identifier.
	// ttl defines how long the image should be kept in memory.
	Save(ctx context.Context, data []byte, scheme string, ttl time.Duration) (string, error)
	// Get returns a copy of the image by id. The boolean indicates presence.
	Get(ctx context.Context, id string) (Stored, bool)
	// Delete removes an image before TTL expiration.
	Delete(ctx context.Context, id string) error
}
