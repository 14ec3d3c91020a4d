// Package shutdown runs cleanup hooks when catdesk-cli exits.
//
// Commands register hooks (close storage, stop the metrics listener) on a
// Handler built at startup. The hooks run once, newest first, either when
// the command returns or when SIGINT/SIGTERM arrives.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Hook is a cleanup step. It should give up when ctx is done.
type Hook func(context.Context) error

// Handler handles graceful shutdown.
type Handler struct {
	timeout time.Duration
	mu      sync.Mutex
	hooks   []Hook
	once    sync.Once
	err     error
	done    chan struct{}
}

// NewHandler creates a new shutdown handler. timeout bounds the hooks when
// shutdown is triggered by a signal.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		hooks:   make([]Hook, 0),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Shutdown runs the hooks once. Later calls return the first result. Every
// hook runs even if an earlier one fails; the errors are joined.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.once.Do(func() {
		h.mu.Lock()
		hooks := make([]Hook, len(h.hooks))
		copy(hooks, h.hooks)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			if err := hooks[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		h.err = errors.Join(errs...)
		close(h.done)
	})
	return h.err
}

// Wait blocks until SIGINT, SIGTERM or ctx is done, then runs Shutdown with
// the handler's timeout.
func (h *Handler) Wait(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
	case <-ctx.Done():
	case <-h.done:
		return h.err
	}

	sctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	return h.Shutdown(sctx)
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// WithSignals returns a context cancelled on SIGINT or SIGTERM.
func WithSignals(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
