package services

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrDuplicate is returned when a submission with the same fingerprint was claimed recently
var ErrDuplicate = errors.New("duplicate submission")

// Guard suppresses repeated delivery of identical submissions
type Guard interface {
	// Claim reserves key for the guard window. It returns ErrDuplicate when key is already held.
	Claim(ctx context.Context, key string) error
	// Release frees key so a retry is delivered again
	Release(ctx context.Context, key string) error
}

// NoopGuard claims every key
type NoopGuard struct{}

// Claim always succeeds
func (NoopGuard) Claim(context.Context, string) error { return nil }

// Release is a no-op
func (NoopGuard) Release(context.Context, string) error { return nil }

// MemoryGuard is an in-process Guard with per-key expiry
type MemoryGuard struct {
	mu     sync.Mutex
	window time.Duration
	claims map[string]time.Time
	now    func() time.Time
}

// NewMemoryGuard creates an in-process guard holding keys for window
func NewMemoryGuard(window time.Duration) *MemoryGuard {
	return &MemoryGuard{window: window, claims: make(map[string]time.Time), now: time.Now}
}

// Claim reserves key unless an unexpired claim exists
func (g *MemoryGuard) Claim(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if until, ok := g.claims[key]; ok && now.Before(until) {
		return ErrDuplicate
	}
	g.claims[key] = now.Add(g.window)
	return nil
}

// Release drops the claim on key
func (g *MemoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claims, key)
	return nil
}
