// Package streaming fans emitted events (core/events) out to websocket
// subscribers, spec §11's "event streaming to subscribers" concern,
// following the teacher's core.Node POS-finality pub/sub in
// core/pos_stream.go: a sequence-numbered ring buffer of recent updates
// plus a map of per-subscriber channels, so a reconnecting client can
// replay everything since its last-seen cursor before receiving live
// updates.
package streaming

import (
	"strconv"
	"strings"
	"sync"

	"novaperp/core/events"
)

const historyLimit = 4096

// Update is one emitted event tagged with the sequence number it was
// assigned at publish time, used as the replay cursor.
type Update struct {
	Sequence uint64
	Type     string
	Attributes map[string]string
}

// Hub is an events.Emitter that also fans every emitted event out to
// websocket subscribers, mirroring core.Node's posStreamSubs/posStreamHistory
// pair but generalized to any events.Event rather than one POS update type.
type Hub struct {
	mu       sync.Mutex
	subs     map[uint64]chan Update
	nextSubID uint64
	history  []Update
	seq      uint64
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]chan Update)}
}

// Emit satisfies events.Emitter: every engine-emitted record is assigned
// the next sequence number, appended to the bounded history ring, and
// pushed (non-blocking) to every live subscriber channel.
func (h *Hub) Emit(e events.Event) {
	rec := e.Record()
	h.mu.Lock()
	h.seq++
	update := Update{Sequence: h.seq, Type: rec.Type, Attributes: rec.Attributes}
	h.history = append(h.history, update)
	if len(h.history) > historyLimit {
		excess := len(h.history) - historyLimit
		trimmed := make([]Update, historyLimit)
		copy(trimmed, h.history[excess:])
		h.history = trimmed
	}
	subs := make([]chan Update, 0, len(h.subs))
	for _, ch := range h.subs {
		subs = append(subs, ch)
	}
	h.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- update:
		default:
		}
	}
}

// Subscribe registers a new subscriber starting after cursor (an empty or
// unparsable cursor replays the full bounded history) and returns the live
// update channel, a cancel func, and the backlog to replay before it.
func (h *Hub) Subscribe(cursor string) (<-chan Update, func(), []Update) {
	updates := make(chan Update, 64)

	var since uint64
	if trimmed := strings.TrimSpace(cursor); trimmed != "" {
		if parsed, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
			since = parsed
		}
	}

	h.mu.Lock()
	id := h.nextSubID
	h.nextSubID++
	h.subs[id] = updates
	backlog := make([]Update, 0, len(h.history))
	for _, u := range h.history {
		if u.Sequence > since {
			backlog = append(backlog, u)
		}
	}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
			h.mu.Unlock()
		})
	}
	return updates, cancel, backlog
}
