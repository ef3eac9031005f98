package recorder

import (
	"time"

	"github.com/google/uuid"
	"github.com/riordanpawley/clickrec/internal/domain"
	"github.com/riordanpawley/clickrec/internal/pointer"
)

// MarkerSink draws a transient ring at a click position. Implementations must
// not block; the marker removes itself after lifetime.
type MarkerSink interface {
	ShowMarker(x, y int, lifetime time.Duration)
}

// Correlator timestamps clicks while it is attached to the pointer bus
type Correlator struct {
	bus      *pointer.Bus
	markers  MarkerSink
	lifetime time.Duration
	now      func() time.Time
	newID    func() string

	sub    *pointer.Subscription
	clicks []domain.ClickEvent
}

// NewCorrelator creates a detached correlator. markers may be nil.
func NewCorrelator(bus *pointer.Bus, markers MarkerSink, lifetime time.Duration) *Correlator {
	return &Correlator{
		bus:      bus,
		markers:  markers,
		lifetime: lifetime,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// Attach subscribes to the pointer bus if not already subscribed
func (c *Correlator) Attach() {
	if c.sub.Active() {
		return
	}
	c.sub = c.bus.Subscribe(c.observe)
}

// Detach removes the pointer subscription
func (c *Correlator) Detach() {
	c.sub.Close()
	c.sub = nil
}

// Attached reports whether clicks are currently being tracked
func (c *Correlator) Attached() bool {
	return c.sub.Active()
}

// Reset clears the click list for a new session
func (c *Correlator) Reset() {
	c.clicks = nil
}

// Count returns the number of tracked clicks
func (c *Correlator) Count() int {
	return len(c.clicks)
}

// Clicks returns a copy of the tracked clicks in arrival order
func (c *Correlator) Clicks() []domain.ClickEvent {
	out := make([]domain.ClickEvent, len(c.clicks))
	copy(out, c.clicks)
	return out
}

func (c *Correlator) observe(ev pointer.Event) {
	c.clicks = append(c.clicks, domain.ClickEvent{
		X:         ev.X,
		Y:         ev.Y,
		Timestamp: c.now().UnixMilli(),
		ID:        c.newID(),
	})
	if c.markers != nil {
		c.markers.ShowMarker(ev.X, ev.Y, c.lifetime)
	}
}
