package state

import (
	"context"
	"sync"
)

// Tracker hands out one live token per key. Beginning a new request for a
// key cancels the previous one, whose response must then be discarded.
type Tracker struct {
	mu      sync.Mutex
	seq     uint64
	current map[string]entry
}

type entry struct {
	seq    uint64
	cancel context.CancelFunc
}

func NewTracker() *Tracker {
	return &Tracker{current: make(map[string]entry)}
}

type Token struct {
	key     string
	seq     uint64
	tracker *Tracker
	cancel  context.CancelFunc
}

// Begin supersedes any in-flight request for key. The returned context is
// canceled when a newer Begin for the same key happens or Done is called.
func (t *Tracker) Begin(ctx context.Context, key string) (context.Context, *Token) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.current[key]; ok {
		prev.cancel()
	}
	t.seq++
	ctx, cancel := context.WithCancel(ctx)
	t.current[key] = entry{seq: t.seq, cancel: cancel}
	return ctx, &Token{key: key, seq: t.seq, tracker: t, cancel: cancel}
}

// Valid reports whether no newer request for the same key has begun.
func (tok *Token) Valid() bool {
	tok.tracker.mu.Lock()
	defer tok.tracker.mu.Unlock()
	cur, ok := tok.tracker.current[tok.key]
	return ok && cur.seq == tok.seq
}

// Done releases the token. Safe to call more than once.
func (tok *Token) Done() {
	tok.tracker.mu.Lock()
	defer tok.tracker.mu.Unlock()
	if cur, ok := tok.tracker.current[tok.key]; ok && cur.seq == tok.seq {
		delete(tok.tracker.current, tok.key)
	}
	tok.cancel()
}

func (t *Tracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.current)
}
