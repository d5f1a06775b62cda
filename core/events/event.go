// Package events implements spec §4.J: every mutating entrypoint emits
// typed records onto the host's log stream. The shape follows the teacher's
// core/events package — a small Event interface plus per-record structs that
// render themselves into a generic attribute map for the host to persist or
// stream.
package events

import "novaperp/core/types"

// Event is anything emittable onto the host log stream.
type Event interface {
	EventType() string
	Record() *types.EventRecord
}

// Emitter broadcasts events to downstream subscribers (streaming, reporting).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter discards every event; used by components that only optionally
// want to emit (mirrors the teacher's events.NoopEmitter).
type NoopEmitter struct{}

func (NoopEmitter) Emit(Event) {}

// MultiEmitter fans a single emitted event out to every wrapped Emitter in
// order, letting cmd/matchingd attach the reporting store and the
// streaming hub to the same Engine.Emit without either depending on the
// other.
type MultiEmitter []Emitter

func (m MultiEmitter) Emit(e Event) {
	for _, emitter := range m {
		if emitter != nil {
			emitter.Emit(e)
		}
	}
}

// Recorder collects emitted events in program order for inspection by tests
// and by the reporting/streaming outer layers.
type Recorder struct {
	events []Event
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Emit(e Event) { r.events = append(r.events, e) }

func (r *Recorder) Events() []Event { return r.events }

func (r *Recorder) Reset() { r.events = nil }
