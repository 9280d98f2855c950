package registry

import (
	"context"
	"sync"

	"github.com/displayhub/displayhub/internal/display"
	"github.com/displayhub/displayhub/internal/executor"
	"github.com/displayhub/displayhub/internal/logger"
	"github.com/google/uuid"
)

// registration binds one listener to the execution context its callbacks
// run on. The id exists only so individual registrations stay distinct in
// the set.
type registration struct {
	id       uuid.UUID
	listener display.Listener
	exec     executor.Executor
}

// Hub fans authority change events out to registered listeners. Each
// listener's callbacks run on the executor it was registered with, so one
// slow listener never delays another. Registering the same listener twice
// yields two independent deliveries per event.
type Hub struct {
	mu   sync.Mutex
	regs []registration

	// fallback runs callbacks for listeners registered without an
	// executor.
	fallback *executor.Serial
}

// NewHub creates a hub with its own default execution context.
func NewHub() *Hub {
	return &Hub{fallback: executor.NewSerial()}
}

// Register adds a listener. A nil exec binds the listener to the hub's
// default context. A nil listener is ignored.
func (h *Hub) Register(listener display.Listener, exec executor.Executor) {
	if listener == nil {
		return
	}
	if exec == nil {
		exec = h.fallback
	}

	h.mu.Lock()
	h.regs = append(h.regs, registration{
		id:       uuid.New(),
		listener: listener,
		exec:     exec,
	})
	h.mu.Unlock()
}

// Unregister removes every registration for the listener. Removing a
// listener that was never registered is a no-op. Callbacks already
// submitted to an execution context may still run.
func (h *Hub) Unregister(listener display.Listener) {
	if listener == nil {
		return
	}

	h.mu.Lock()
	kept := h.regs[:0]
	for _, reg := range h.regs {
		if reg.listener != listener {
			kept = append(kept, reg)
		}
	}
	h.regs = kept
	h.mu.Unlock()
}

// Run consumes authority events until the channel closes or the context is
// cancelled. It is the hub's single intake goroutine, which preserves the
// authority's per-id emission order through each listener's serial
// executor.
func (h *Hub) Run(ctx context.Context, events <-chan display.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.Dispatch(ev)
		}
	}
}

// Dispatch delivers one event to every currently registered listener. The
// registration set is snapshotted first; no lock is held while a callback
// runs, so a callback may re-enter Register or Unregister.
func (h *Hub) Dispatch(ev display.Event) {
	h.mu.Lock()
	snapshot := make([]registration, len(h.regs))
	copy(snapshot, h.regs)
	h.mu.Unlock()

	logger.WithComponent("hub").Debug().
		Str("event", ev.Kind.String()).
		Int("display_id", ev.ID).
		Int("listeners", len(snapshot)).
		Msg("Dispatching display event")

	for _, reg := range snapshot {
		listener := reg.listener
		reg.exec.Submit(func() {
			switch ev.Kind {
			case display.EventAdded:
				listener.OnDisplayAdded(ev.ID)
			case display.EventRemoved:
				listener.OnDisplayRemoved(ev.ID)
			case display.EventChanged:
				listener.OnDisplayChanged(ev.ID)
			}
		})
	}
}

// Close stops the hub's default execution context after draining it.
func (h *Hub) Close() {
	h.fallback.Close()
}
