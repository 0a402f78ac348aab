package waitqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Wait blocks until a notification for key arrives on handler or ctx is
// done. It registers a waiter, optionally runs a callback once registration
// is in place (so the caller can re-check state and avoid a lost wakeup),
// and unregisters on return.
func Wait(ctx context.Context, handler *ClearedHandler, key string, opts ...WaitOption) error {
	if handler == nil {
		return errors.New("handler cannot be nil")
	}

	options := &WaitOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.id == "" {
		options.id = uuid.NewString()
	}

	notify := make(chan struct{}, 1)

	err := handler.Register(key, options.id, func(ctx context.Context) error {
		select {
		case notify <- struct{}{}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register waiter: %w", err)
	}
	defer handler.Unregister(key, options.id)

	if options.afterRegister != nil {
		if err := options.afterRegister(); err != nil {
			return fmt.Errorf("after register callback failed: %w", err)
		}
	}

	select {
	case <-notify:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type WaitOptions struct {
	// id is the unique identifier for the waiter.
	id string

	// afterRegister is a callback invoked after the waiter is registered.
	afterRegister func() error
}

type WaitOption func(*WaitOptions)

// WithID sets a unique identifier for the waiter.
func WithID(id string) WaitOption {
	return func(opts *WaitOptions) {
		opts.id = id
	}
}

// WithAfterRegister sets a callback invoked after the waiter is registered.
func WithAfterRegister(callback func() error) WaitOption {
	return func(opts *WaitOptions) {
		opts.afterRegister = callback
	}
}
