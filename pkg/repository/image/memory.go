package image

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"stegosuite/pkg/metrics"
)

type entry struct {
	img   Stored
	timer *time.Timer
}

// MemoryRepository is an in-memory Repository implementation.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[string]*entry
	reg  *metrics.Registry
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository(reg *metrics.Registry) *MemoryRepository {
	return &MemoryRepository{data: make(map[string]*entry), reg: reg}
}

// Save stores image bytes under a new UUID with TTL-based auto-deletion.
func (r *MemoryRepository) Save(ctx context.Context, b []byte, scheme string, ttl time.Duration) (string, error) {
	if len(b) == 0 {
		return "", errors.New("empty image data")
	}

	id := uuid.NewString()
	e := &entry{img: Stored{
		ID:        id,
		Data:      append([]byte(nil), b...),
		Scheme:    scheme,
		CreatedAt: time.Now(),
	}}

	r.mu.Lock()
	r.data[id] = e
	// armed under the lock so an instant expiry finds the entry
	if ttl > 0 {
		e.timer = time.AfterFunc(ttl, func() {
			_ = r.expire(id)
		})
	}
	r.mu.Unlock()

	log.Ctx(ctx).Info().Str("image_id", id).Str("scheme", scheme).Int("bytes", len(b)).Dur("ttl", ttl).Msg("stego image stored")
	if r.reg != nil {
		r.reg.Inc(ctx, "images_stored_total", metrics.Labels{"scheme": scheme}, 1)
		r.reg.Inc(ctx, "images_bytes_stored_total", nil, int64(len(b)))
	}
	return id, nil
}

// Get returns a copy of the stored image without deleting it.
func (r *MemoryRepository) Get(_ context.Context, id string) (Stored, bool) {
	r.mu.RLock()
	e, ok := r.data[id]
	r.mu.RUnlock()
	if !ok {
		return Stored{}, false
	}
	out := e.img
	out.Data = append([]byte(nil), e.img.Data...)
	return out, true
}

// Delete stops the TTL timer and removes the entry from memory.
func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	return r.remove(ctx, id, "deleted")
}

func (r *MemoryRepository) expire(id string) error {
	return r.remove(context.Background(), id, "expired")
}

func (r *MemoryRepository) remove(ctx context.Context, id, reason string) error {
	r.mu.Lock()
	e, ok := r.data[id]
	if ok {
		delete(r.data, id)
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}
	if e.timer != nil {
		e.timer.Stop()
	}

	log.Ctx(ctx).Info().Str("image_id", id).Str("reason", reason).Int("bytes", len(e.img.Data)).Msg("stego image freed")
	if r.reg != nil {
		r.reg.Inc(ctx, "images_freed_total", metrics.Labels{"reason": reason}, 1)
	}
	return nil
}

// Len reports how many images are held.
func (r *MemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Close stops all pending expiry timers and drops every image.
func (r *MemoryRepository) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.data {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(r.data, id)
	}
}
