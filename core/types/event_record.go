package types

// EventRecord is the generic rendering of an events.Event, kept in core/types
// alongside the other persisted layouts so both core/events and its
// consumers (reporting, streaming) can depend on it without a cycle.
type EventRecord struct {
	Type       string
	Attributes map[string]string
}
