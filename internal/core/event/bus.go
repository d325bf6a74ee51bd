package event

import "sync"

// Bus is a double-buffered event bus. Events emitted during tick N are
// dispatched in tick N+1: the owner calls SwapBuffers then DispatchAll once
// at the start of each tick. Dispatch follows emission order.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	front    []Event
	back     []Event
	handlers map[Kind][]func(Event)
}

func NewBus() *Bus {
	return &Bus{
		front:    make([]Event, 0, 16),
		back:     make([]Event, 0, 16),
		handlers: make(map[Kind][]func(Event)),
	}
}

// Emit queues an event into the back buffer.
func (b *Bus) Emit(ev Event) {
	b.back = append(b.back, ev)
}

// Subscribe registers a handler for one event kind.
func (b *Bus) Subscribe(k Kind, fn func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[k] = append(b.handlers[k], fn)
}

// On registers a typed handler. Dispatch is by the Kind of a zero T, so T
// must report a constant Kind.
func On[T Event](b *Bus, fn func(T)) {
	var zero T
	b.Subscribe(zero.Kind(), func(ev Event) {
		if v, ok := ev.(T); ok {
			fn(v)
		}
	})
}

// SwapBuffers rotates back to front and clears the new back buffer.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front[:0]
}

// Pending returns the number of events waiting for the next swap.
func (b *Bus) Pending() int { return len(b.back) }

// DispatchAll delivers the front buffer to subscribed handlers. Handlers may
// Emit; those events land in the back buffer for the next tick.
func (b *Bus) DispatchAll() int {
	for _, ev := range b.front {
		for _, h := range b.handlers[ev.Kind()] {
			h(ev)
		}
	}
	n := len(b.front)
	clear(b.front)
	b.front = b.front[:0]
	return n
}
