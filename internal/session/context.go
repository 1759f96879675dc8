// Package session resolves who a visitor is and carries their client state
// between requests.
package session

import (
	"context"
	"sync"

	"github.com/flicky/go-storefront/internal/state"
)

// Context is passed explicitly to every orchestrator call. It remembers the
// state it was opened with and the actions dispatched since, so a save can
// replay them onto whatever another request stored in the meantime.
type Context struct {
	ID      string
	Store   state.Store
	Tracker *state.Tracker

	mu      sync.Mutex
	base    state.State
	journal []state.Action
}

func NewContext(id string, store state.Store, tracker *state.Tracker) *Context {
	return &Context{ID: id, Store: store, Tracker: tracker, base: store.GetState()}
}

func (c *Context) State() state.State { return c.Store.GetState() }

func (c *Context) Identity() Identity { return IdentityFromState(c.Store.GetState()) }

func (c *Context) Dispatch(actions ...state.Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, a := range actions {
		if state.Persistent(a) {
			c.journal = append(c.journal, a)
		}
	}
	c.Store.Dispatch(actions...)
}

// Journal returns the persistent actions dispatched through c, oldest first.
func (c *Context) Journal() []state.Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]state.Action(nil), c.journal...)
}

// Begin starts a screen read under key, usually a state.Screen name. Any
// earlier read with the same key in this session is canceled and its token
// invalidated.
func (c *Context) Begin(ctx context.Context, key string) (context.Context, *state.Token) {
	return c.Tracker.Begin(ctx, c.ID+":"+key)
}
