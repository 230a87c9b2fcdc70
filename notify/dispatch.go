package notify

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Event is a kind of lifecycle event.
type Event int

const (
	EventLoaded Event = iota
	EventUnloaded
	EventSettingsChanged
	EventStreamStarted
	EventStreamStopped
)

func (ev Event) String() string {
	switch ev {
	case EventLoaded:
		return "Loaded"
	case EventUnloaded:
		return "Unloaded"
	case EventSettingsChanged:
		return "SettingsChanged"
	case EventStreamStarted:
		return "StreamStarted"
	case EventStreamStopped:
		return "StreamStopped"
	default:
		return fmt.Sprintf("Event(%d)", int(ev))
	}
}

// Handler handles an event.
type Handler func(ctx context.Context)

// Dispatcher maps events to handlers. The zero value has no handlers and is
// ready to use.
// Handlers should all be registered before the first dispatch.
// A Dispatcher is not safe for concurrent use.
type Dispatcher struct {
	handlers map[Event][]Handler
}

// NewDispatcher creates a dispatcher with no handlers.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Event][]Handler)}
}

// On registers a handler for an event. Handlers for the same event run in
// the order they are registered.
func (d *Dispatcher) On(ev Event, h Handler) {
	if d.handlers == nil {
		d.handlers = make(map[Event][]Handler)
	}
	d.handlers[ev] = append(d.handlers[ev], h)
}

// Dispatch runs every handler for an event in order.
// A handler which panics is logged, and the remaining handlers still run.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	hs := d.handlers[ev]
	slog.DebugContext(ctx, "dispatch", slog.String("event", ev.String()), slog.Int("handlers", len(hs)))
	for i, h := range hs {
		d.run(ctx, ev, i, h)
	}
}

func (d *Dispatcher) run(ctx context.Context, ev Event, i int, h Handler) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "handler panicked",
				slog.String("event", ev.String()),
				slog.Int("handler", i),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()
	h(ctx)
}
