package exchange

import (
	"sync"
	"time"
)

// exchangeKey uniquely identifies an exchange for table lookups: the spec's
// {Session Context, Exchange ID, Exchange Role} tuple.
type exchangeKey struct {
	localSessionID uint16
	exchangeID     uint16
	role           ExchangeRole
}

// AckEntry tracks one exchange's outstanding obligation to acknowledge a
// received reliable message (spec 4.12.6.2). Only one can be pending per
// exchange at a time.
type AckEntry struct {
	// MessageCounter is the counter of the message awaiting acknowledgement.
	MessageCounter uint32

	// StandaloneAckSent is set once a bare ACK has gone out for this entry.
	// Per spec 4.12.5.2.2 the entry then lingers until the exchange closes
	// or a later outbound message piggybacks the same ACK.
	StandaloneAckSent bool

	timer    *time.Timer
	callback func()
}

func (e *AckEntry) stopTimer() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// AckTable is the set of pending-ACK entries for every live exchange on a
// node (spec 4.12.6.2). Safe for concurrent use.
type AckTable struct {
	mu      sync.Mutex
	pending map[exchangeKey]*AckEntry
}

// NewAckTable builds an empty AckTable.
func NewAckTable() *AckTable {
	return &AckTable{pending: make(map[exchangeKey]*AckEntry)}
}

// Add records that key owes its peer an ACK for messageCounter, arming a
// fallback timer that calls onTimeout after MRPStandaloneAckTimeout if the
// ACK hasn't piggybacked onto an outbound message by then.
//
// Per spec 4.12.5.2.2, an un-flushed prior entry (StandaloneAckSent still
// false) is displaced rather than silently dropped: it is returned so the
// caller can send its standalone ACK immediately.
func (t *AckTable) Add(key exchangeKey, messageCounter uint32, onTimeout func()) *AckEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	var displaced *AckEntry
	if existing, ok := t.pending[key]; ok {
		existing.stopTimer()
		if !existing.StandaloneAckSent {
			displaced = existing
		}
	}

	entry := &AckEntry{MessageCounter: messageCounter, callback: onTimeout}
	entry.timer = time.AfterFunc(MRPStandaloneAckTimeout, func() {
		t.fireTimeout(key, entry)
	})
	t.pending[key] = entry

	return displaced
}

// fireTimeout runs when entry's standalone-ack timer expires: it flips the
// entry to StandaloneAckSent (if it's still the live entry for key) and
// invokes the caller's callback outside the lock.
func (t *AckTable) fireTimeout(key exchangeKey, entry *AckEntry) {
	t.mu.Lock()
	if current, ok := t.pending[key]; ok && current == entry && !current.StandaloneAckSent {
		current.StandaloneAckSent = true
	}
	t.mu.Unlock()

	if entry.callback != nil {
		entry.callback()
	}
}

// Get returns the pending entry for key, if any.
func (t *AckTable) Get(key exchangeKey) (*AckEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.pending[key]
	return entry, ok
}

// MarkAcked records that key's pending ACK piggybacked onto an outbound
// message and removes the entry, per spec 4.12.5.1.1. Returns the
// acknowledged counter, or 0 if nothing was pending.
func (t *AckTable) MarkAcked(key exchangeKey) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.pending[key]
	if !ok {
		return 0
	}
	counter := entry.MessageCounter
	entry.stopTimer()
	delete(t.pending, key)
	return counter
}

// MarkStandaloneAckSent records that a bare ACK went out for key's pending
// entry; per spec 4.12.5.2.2 the entry itself survives until closed or
// piggybacked.
func (t *AckTable) MarkStandaloneAckSent(key exchangeKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry, ok := t.pending[key]; ok {
		entry.stopTimer()
		entry.StandaloneAckSent = true
	}
}

// Remove drops key's pending entry unconditionally, e.g. on exchange close.
func (t *AckTable) Remove(key exchangeKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry, ok := t.pending[key]; ok {
		entry.stopTimer()
		delete(t.pending, key)
	}
}

// HasPendingAck reports whether key has an entry that hasn't yet had a
// standalone ACK sent for it.
func (t *AckTable) HasPendingAck(key exchangeKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.pending[key]
	return ok && !entry.StandaloneAckSent
}

// PendingCounter returns the message counter key's entry is tracking,
// regardless of StandaloneAckSent — (0, false) if no entry exists at all.
func (t *AckTable) PendingCounter(key exchangeKey) (uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.pending[key]
	if !ok {
		return 0, false
	}
	return entry.MessageCounter, true
}

// Count returns the number of entries currently tracked.
func (t *AckTable) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Clear removes every entry, stopping their timers.
func (t *AckTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, entry := range t.pending {
		entry.stopTimer()
		delete(t.pending, key)
	}
}
