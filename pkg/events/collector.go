package events

import "slices"

// EventCollector is embedded in aggregates. Events are recorded as state
// changes and drained once by whoever persists or publishes the aggregate.
type EventCollector struct {
	pending []DomainEvent
}

// Record queues events in the order given.
func (c *EventCollector) Record(evts ...DomainEvent) {
	c.pending = append(c.pending, evts...)
}

// Events returns a copy of the queued events.
func (c *EventCollector) Events() []DomainEvent {
	return slices.Clone(c.pending)
}

// ClearEvents returns the queued events and empties the queue.
func (c *EventCollector) ClearEvents() []DomainEvent {
	drained := c.pending
	c.pending = nil
	return drained
}
