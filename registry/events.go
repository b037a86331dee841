package registry

import (
	"sync"

	"github.com/gaugeflow/passthrough/model/passthrough"
)

// EventConsumer receives committed events together with their commit log
// sequence number, in commit order and one at a time. Events are delivered
// after the emitter released its lock, so a consumer may query any factory or
// passthrough. Implementations must be non-blocking.
type EventConsumer interface {
	OnEvent(sequence uint64, event passthrough.Event)
}

// EventConsumerFunc adapts a function to EventConsumer.
type EventConsumerFunc func(sequence uint64, event passthrough.Event)

func (f EventConsumerFunc) OnEvent(sequence uint64, event passthrough.Event) {
	f(sequence, event)
}

// committed is an operation that reached the commit log. ticket orders
// delivery; it follows the commit log without gaps.
type committed struct {
	ticket   uint64
	sequence uint64
	event    passthrough.Event
}

// dispatcher delivers committed operations to the consumers in ticket order.
// Whichever caller finds delivery idle drains the queue; the others only
// enqueue. A caller whose ticket is not next leaves it for the caller holding
// the missing one.
type dispatcher struct {
	mu         sync.Mutex
	consumers  []EventConsumer
	next       uint64
	pending    map[uint64]committed
	delivering bool
}

func newDispatcher(consumers []EventConsumer) *dispatcher {
	return &dispatcher{
		consumers: consumers,
		pending:   make(map[uint64]committed),
	}
}

func (d *dispatcher) dispatch(c committed) {
	d.mu.Lock()
	d.pending[c.ticket] = c
	if d.delivering {
		d.mu.Unlock()
		return
	}
	d.delivering = true

	for {
		next, ok := d.pending[d.next]
		if !ok {
			d.delivering = false
			d.mu.Unlock()
			return
		}
		delete(d.pending, d.next)
		d.next++
		d.mu.Unlock()

		for _, consumer := range d.consumers {
			consumer.OnEvent(next.sequence, next.event)
		}

		d.mu.Lock()
	}
}

// EventRecorder keeps every event it receives. It is safe for concurrent use.
type EventRecorder struct {
	mu     sync.Mutex
	events []passthrough.Event
}

var _ EventConsumer = (*EventRecorder)(nil)

func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

func (r *EventRecorder) OnEvent(_ uint64, event passthrough.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns the recorded events in arrival order.
func (r *EventRecorder) Events() []passthrough.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]passthrough.Event(nil), r.events...)
}

// ByType returns the recorded events of the given type in arrival order.
func (r *EventRecorder) ByType(eventType passthrough.EventType) []passthrough.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []passthrough.Event
	for _, event := range r.events {
		if event.Type() == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

// Last returns the most recent event, if any.
func (r *EventRecorder) Last() (passthrough.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) == 0 {
		return passthrough.Event{}, false
	}
	return r.events[len(r.events)-1], true
}
