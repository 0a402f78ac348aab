// Package waitqueue implements a registry of waiters keyed by string, fed by
// PostgreSQL notifications. pgstore uses it to let one process block until
// another process clears a slot identifier.
package waitqueue

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgxlisten"
)

// ClearedHandler dispatches cleared-slot notifications to registered
// waiters. The notification payload is the key waiters registered under,
// i.e. the decimal slot identifier. Several waiters may wait on one key.
type ClearedHandler struct {
	mu sync.RWMutex

	waiters map[string]map[string]func(context.Context) error
}

var _ pgxlisten.Handler = (*ClearedHandler)(nil)

// HandleNotification implements the pgxlisten.Handler interface.
func (h *ClearedHandler) HandleNotification(ctx context.Context, notification *pgconn.Notification, _ *pgx.Conn) error {
	h.mu.RLock()
	callbacks := make([]func(context.Context) error, 0, len(h.waiters[notification.Payload]))
	for _, callback := range h.waiters[notification.Payload] {
		callbacks = append(callbacks, callback)
	}
	h.mu.RUnlock()

	// Dispatch asynchronously so a slow waiter cannot block the listener
	// connection.
	for _, callback := range callbacks {
		go func() {
			_ = callback(ctx)
		}()
	}
	return nil
}

// Register adds a waiter callback under key. The id must be unique among the
// key's waiters.
func (h *ClearedHandler) Register(key, id string, callback func(context.Context) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.waiters == nil {
		h.waiters = make(map[string]map[string]func(context.Context) error)
	}
	if h.waiters[key] == nil {
		h.waiters[key] = make(map[string]func(context.Context) error)
	}
	if _, exists := h.waiters[key][id]; exists {
		return fmt.Errorf("duplicate waiter id %q for key %q", id, key)
	}
	h.waiters[key][id] = callback
	return nil
}

// Has reports whether a waiter with the given id is registered under key.
func (h *ClearedHandler) Has(key, id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.waiters[key][id]
	return exists
}

// Unregister removes a waiter from key. It reports whether the waiter was
// registered.
func (h *ClearedHandler) Unregister(key, id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.waiters[key][id]; !exists {
		return false
	}
	delete(h.waiters[key], id)
	if len(h.waiters[key]) == 0 {
		delete(h.waiters, key)
	}
	return true
}
