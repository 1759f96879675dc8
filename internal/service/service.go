// Package service holds the storefront orchestrators. Each call takes an
// explicit session.Context and records its progress in that session's state.
package service

import (
	"context"

	"github.com/flicky/go-storefront/internal/apperr"
	"github.com/flicky/go-storefront/internal/session"
	"github.com/flicky/go-storefront/internal/state"
)

const loginForCheckout = "/login?redirect=checkout"

// fail records err against screen and returns it unchanged.
func fail(sc *session.Context, screen state.Screen, err error) error {
	sc.Dispatch(state.Failed{Screen: screen, Err: apperr.Message(err)})
	return err
}

// read runs fetch as a cancellable screen read keyed by key. A response that
// arrives after a newer read of the same key began is dropped without
// touching state and reported as apperr.ErrCanceled. The Pending it
// dispatched is not persistent, so saving the session keeps the newer
// read's status.
func read[T any](
	ctx context.Context,
	sc *session.Context,
	screen state.Screen,
	key string,
	fetch func(context.Context) (T, error),
	loaded func(T) state.Action,
) (T, error) {
	ctx, tok := sc.Begin(ctx, key)
	defer tok.Done()

	sc.Dispatch(state.Pending{Screen: screen})
	out, err := fetch(ctx)
	if !tok.Valid() {
		var zero T
		return zero, apperr.ErrCanceled
	}
	if err != nil {
		var zero T
		return zero, fail(sc, screen, err)
	}
	sc.Dispatch(loaded(out))
	return out, nil
}
