package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	// ReplayWindow is the maximum clock difference accepted between the
	// client timestamp and server time.
	ReplayWindow = 5 * time.Minute

	// maxTrackedNonces bounds the in-memory seen-nonce set. When the set
	// grows past this ceiling it is cleared entirely, which briefly
	// reopens the replay window. That coarse eviction is a deliberate
	// memory bound, not an oversight.
	maxTrackedNonces = 10000
)

var (
	// ErrTimestampOutOfWindow is returned when the client timestamp is
	// too far from server time
	ErrTimestampOutOfWindow = errors.New("request timestamp outside accepted window")
	// ErrNonceReplayed is returned when a nonce has been seen before
	ErrNonceReplayed = errors.New("nonce already used")
)

// ReplayGuard validates a (nonce, timestamp) pair supplied with a login
// request. Check returns nil and records the nonce when the pair is
// fresh; otherwise it returns ErrTimestampOutOfWindow or
// ErrNonceReplayed.
type ReplayGuard interface {
	Check(ctx context.Context, nonce string, timestampMillis int64) error
}

// MemoryReplayGuard tracks seen nonces in a process-wide mutex-guarded
// set. Suitable for single-replica deployments; multi-replica setups
// should use RedisReplayGuard so replicas share the seen set.
type MemoryReplayGuard struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	capacity int
	now      func() time.Time
}

// NewMemoryReplayGuard creates an in-memory replay guard
func NewMemoryReplayGuard() *MemoryReplayGuard {
	return &MemoryReplayGuard{
		seen:     make(map[string]struct{}),
		capacity: maxTrackedNonces,
		now:      time.Now,
	}
}

// Check validates the timestamp window, then the nonce's novelty.
// Accepted nonces are recorded; the set is cleared wholesale once it
// exceeds its capacity.
func (g *MemoryReplayGuard) Check(ctx context.Context, nonce string, timestampMillis int64) error {
	nowMillis := g.now().UnixMilli()
	diff := nowMillis - timestampMillis
	if diff < 0 {
		diff = -diff
	}
	if diff > ReplayWindow.Milliseconds() {
		return ErrTimestampOutOfWindow
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, used := g.seen[nonce]; used {
		return ErrNonceReplayed
	}
	g.seen[nonce] = struct{}{}
	if len(g.seen) > g.capacity {
		g.seen = make(map[string]struct{})
	}
	return nil
}
