package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/go-storefront/internal/state"
)

func NewGuestID() string {
	return "guest_" + uuid.NewString()
}

// Resolver opens and saves sessions. It guarantees every opened session has
// a guest identifier and no expired token.
type Resolver struct {
	store   *RedisStore
	tracker *state.Tracker
	log     *slog.Logger
	now     func() time.Time
}

func NewResolver(store *RedisStore, tracker *state.Tracker, log *slog.Logger) *Resolver {
	return &Resolver{store: store, tracker: tracker, log: log, now: time.Now}
}

// Open loads the session id, or starts a new one when id is empty or unknown.
func (r *Resolver) Open(ctx context.Context, id string) (*Context, error) {
	var (
		st    state.State
		found bool
		err   error
	)
	if id != "" {
		st, found, err = r.store.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("open session: %w", err)
		}
	}
	if !found {
		id = uuid.NewString()
		r.log.Debug("new session", "session_id", id)
	}

	sc := NewContext(id, state.NewMemoryStore(st), r.tracker)
	if st.Auth.GuestID == "" {
		sc.Dispatch(state.GuestIssued{GuestID: NewGuestID()})
	}
	if ident := sc.Identity(); !ident.IsGuest() && ident.Expired(r.now()) {
		r.log.Info("dropping expired token", "session_id", id, "user_id", ident.UserID)
		sc.Dispatch(state.TokenDropped{})
	}
	return sc, nil
}

// Save writes back what the request changed. Only the request's own
// actions are replayed onto the stored state, so overlapping requests of one
// visitor do not undo each other.
func (r *Resolver) Save(ctx context.Context, sc *Context) error {
	actions := sc.Journal()
	if len(actions) == 0 {
		return r.store.Touch(ctx, sc.ID)
	}
	_, err := r.store.Apply(ctx, sc.ID, sc.base, actions)
	return err
}
