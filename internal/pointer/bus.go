// Package pointer distributes pointer clicks to scoped observers.
//
// The bus is owned by the event loop and is not safe for concurrent use.
// Observers only watch clicks; publishing never stops a click from reaching
// the UI element underneath.
package pointer

// Event is a pointer click in terminal cell coordinates
type Event struct {
	X int
	Y int
}

// Handler observes a click
type Handler func(Event)

// Bus fans clicks out to the current subscribers
type Bus struct {
	next int
	subs map[int]Handler
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]Handler)}
}

// Subscribe installs a handler until the returned subscription is closed
func (b *Bus) Subscribe(h Handler) *Subscription {
	b.next++
	id := b.next
	b.subs[id] = h
	return &Subscription{bus: b, id: id}
}

// Publish delivers the event to every subscriber and returns how many saw it
func (b *Bus) Publish(ev Event) int {
	// Handlers may close their own subscription; deliver to a snapshot
	handlers := make([]Handler, 0, len(b.subs))
	for i := 1; i <= b.next; i++ {
		if h, ok := b.subs[i]; ok {
			handlers = append(handlers, h)
		}
	}
	for _, h := range handlers {
		h(ev)
	}
	return len(handlers)
}

// Len returns the number of live subscriptions
func (b *Bus) Len() int {
	return len(b.subs)
}

// Subscription is a handle on one installed handler
type Subscription struct {
	bus *Bus
	id  int
}

// Close removes the handler. Safe to call more than once and on nil.
func (s *Subscription) Close() {
	if s == nil || s.bus == nil {
		return
	}
	delete(s.bus.subs, s.id)
	s.bus = nil
}

// Active reports whether the handler is still installed
func (s *Subscription) Active() bool {
	return s != nil && s.bus != nil
}
