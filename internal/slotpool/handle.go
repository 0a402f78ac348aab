package slotpool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Handle is a single-owner capability wrapping one checked-out slot. Exactly
// one active handle exists per in-use slot; the pool enforces that at
// allocation time. The holder must release the handle before discarding it:
// a handle collected while still active is a leaked slot and is reported
// through the leak handler.
type Handle struct {
	pool   *Pool
	poolID uuid.UUID
	index  int
	slot   SlotID

	// state is shared with the leak-detection cleanup, which must be able
	// to observe release without keeping the handle itself reachable.
	state   *handleState
	cleanup runtime.Cleanup
}

type handleState struct {
	released atomic.Bool
}

// LeakInfo describes a handle that was garbage collected while still active.
type LeakInfo struct {
	Pool  uuid.UUID
	Slot  SlotID
	Index int
}

var leakHandler struct {
	mu sync.RWMutex
	fn func(LeakInfo)
}

// SetLeakHandler replaces the function invoked when a handle is collected
// without having been released. The default logs an error through the pool's
// logger. Tests and debug builds may install a handler that panics. Passing
// nil restores the default.
func SetLeakHandler(fn func(LeakInfo)) {
	leakHandler.mu.Lock()
	leakHandler.fn = fn
	leakHandler.mu.Unlock()
}

type leakArg struct {
	state  *handleState
	logger logrus.FieldLogger
	info   LeakInfo
}

func reportLeak(arg leakArg) {
	if arg.state.released.Load() {
		return
	}
	leakHandler.mu.RLock()
	fn := leakHandler.fn
	leakHandler.mu.RUnlock()
	if fn != nil {
		fn(arg.info)
		return
	}
	arg.logger.WithFields(logrus.Fields{
		"pool":  arg.info.Pool,
		"slot":  arg.info.Slot,
		"index": arg.info.Index,
	}).Error("slotpool: handle went out of scope without being released: slot leaked")
}

func newHandle(p *Pool, index int, slot SlotID) *Handle {
	h := &Handle{
		pool:   p,
		poolID: p.id,
		index:  index,
		slot:   slot,
		state:  &handleState{},
	}
	h.cleanup = runtime.AddCleanup(h, reportLeak, leakArg{
		state:  h.state,
		logger: p.logger,
		info:   LeakInfo{Pool: p.id, Slot: slot, Index: index},
	})
	return h
}

// invalidate transitions the handle to released. Called by the pool once the
// slot has been reclaimed, either individually or through FreeAll.
func (h *Handle) invalidate() {
	h.state.released.Store(true)
	h.cleanup.Stop()
}

// Index returns the index of the slot this handle occupies. Valid even after
// release, for reporting.
func (h *Handle) Index() int {
	return h.index
}

// Slot returns the slot identifier this handle addresses in the external
// store. It fails with ErrUseAfterRelease once the handle has been released;
// the check runs on every call because release can happen far from use in
// long-running work.
func (h *Handle) Slot() (SlotID, error) {
	if h.state.released.Load() {
		return 0, ErrUseAfterRelease
	}
	return h.slot, nil
}

// Released reports whether the handle has been released.
func (h *Handle) Released() bool {
	return h.state.released.Load()
}

// Release releases h back to its pool, clearing the slot's data in the
// store. It is safe to call Release multiple times; subsequent calls are
// no-ops. This allows both defer h.Release(ctx) and explicit release
// patterns.
func (h *Handle) Release(ctx context.Context) error {
	return h.pool.release(ctx, h)
}

// Close releases the handle back to the pool, ignoring any error. It is
// provided for convenience with defer statements and is equivalent to
// calling Release with a background context.
func (h *Handle) Close() {
	_ = h.Release(context.Background())
}
