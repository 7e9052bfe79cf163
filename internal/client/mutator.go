package client

import (
	"context"
	"fmt"
	"sync"

	"linkdesk/internal/logger"
)

// Phase is one of the three observable states of a mutation.
type Phase string

const (
	PhasePending Phase = "pending"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// MutationKey scopes the in-flight guard to one action on one resource, not
// a process-wide boolean: deleting order 5 does not block commenting on
// order 7, but a second delete of order 5 is rejected.
type MutationKey struct {
	Resource string
	ID       string
	Action   string
}

func (k MutationKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Resource, k.ID, k.Action)
}

// Notifier receives phase transitions for user-visible feedback (spinner,
// toast). message carries the server's error text on PhaseError.
type Notifier func(key MutationKey, phase Phase, message string)

// Mutator sequences a single in-flight write per mutation key around the
// pending/success/error lifecycle. On success the registered cache prefixes
// are invalidated; on error the caller's state is left as-is for a retry.
// Failed mutations are never retried automatically.
type Mutator struct {
	cache  *Cache
	notify Notifier
	logger *logger.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

func NewMutator(cache *Cache, notify Notifier, log *logger.Logger) *Mutator {
	if notify == nil {
		notify = func(MutationKey, Phase, string) {}
	}
	return &Mutator{
		cache:    cache,
		notify:   notify,
		logger:   log,
		inflight: make(map[string]bool),
	}
}

// Do runs fn under the in-flight guard for key. A duplicate submission while
// the first is pending returns ErrMutationInFlight without touching the
// network. On success every key in invalidates is prefix-invalidated.
func (m *Mutator) Do(ctx context.Context, key MutationKey, invalidates []Key, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	if m.inflight[key.String()] {
		m.mu.Unlock()
		return ErrMutationInFlight
	}
	m.inflight[key.String()] = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.inflight, key.String())
		m.mu.Unlock()
	}()

	m.notify(key, PhasePending, "")

	if err := fn(ctx); err != nil {
		if m.logger != nil {
			m.logger.Error("MUTATION", fmt.Sprintf("%s failed: %v", key, err))
		}
		m.notify(key, PhaseError, ServerMessage(err))
		return err
	}

	for _, k := range invalidates {
		m.cache.Invalidate(k)
	}
	m.notify(key, PhaseSuccess, "")
	return nil
}
