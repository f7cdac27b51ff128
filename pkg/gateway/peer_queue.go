package gateway

import (
	"errors"
	"sync"

	"vkcommands/pkg/bus"
)

var errPeerBacklogFull = errors.New("peer backlog is full")

type peerKey struct {
	channel string
	peerID  int64
}

func keyOf(event bus.InboundEvent) peerKey {
	key := peerKey{channel: event.Channel}
	if event.Message != nil && event.Message.PeerID != nil {
		key.peerID = *event.Message.PeerID
	}

	return key
}

// peerQueues keeps one dispatch in flight per peer. While a peer is busy its later events
// wait in a FIFO backlog that the worker owning the peer drains; other peers keep flowing
// through the shared queue.
type peerQueues struct {
	mu    sync.Mutex
	limit int
	// A present key means a worker owns the peer; the slice is its backlog.
	busy map[peerKey][]bus.InboundEvent
}

func newPeerQueues(limit int) *peerQueues {
	return &peerQueues{limit: limit, busy: make(map[peerKey][]bus.InboundEvent)}
}

// admit reports whether event may enter the shared queue now. Otherwise it is held in the
// peer's backlog, or rejected when the backlog already holds limit events.
func (q *peerQueues) admit(event bus.InboundEvent) (bool, error) {
	key := keyOf(event)

	q.mu.Lock()
	defer q.mu.Unlock()

	backlog, busy := q.busy[key]
	if !busy {
		q.busy[key] = nil
		return true, nil
	}
	if q.limit > 0 && len(backlog) >= q.limit {
		return false, errPeerBacklogFull
	}

	q.busy[key] = append(backlog, event)
	return false, nil
}

// release is called when the dispatch of event finishes. It hands back the peer's next held
// event, or marks the peer idle.
func (q *peerQueues) release(event bus.InboundEvent) (bus.InboundEvent, bool) {
	key := keyOf(event)

	q.mu.Lock()
	defer q.mu.Unlock()

	backlog := q.busy[key]
	if len(backlog) == 0 {
		delete(q.busy, key)
		return bus.InboundEvent{}, false
	}

	next := backlog[0]
	backlog[0] = bus.InboundEvent{}
	q.busy[key] = backlog[1:]
	return next, true
}

// held returns the number of events waiting behind busy peers.
func (q *peerQueues) held() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, backlog := range q.busy {
		n += len(backlog)
	}

	return n
}

func (q *peerQueues) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.busy)
}
