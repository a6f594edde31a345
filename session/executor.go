package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Op is one remote call sequence parameterized by a credential.
type Op func(ctx context.Context, cred Credential) error

// NotifyFunc receives the single user-facing message emitted when a session
// expires mid-sequence. The UI layer decides how to display it.
type NotifyFunc func(msg string)

// Executor runs an Op with a currently-valid credential and applies the
// single-attempt expiry policy: if the op reports ErrAuthExpired the
// credential is invalidated exactly once and the error is surfaced as
// ErrSessionExpired. The op is never executed twice — retrying with a
// silently re-acquired credential could switch the active account.
type Executor struct {
	provider Provider
	log      *slog.Logger
	notify   NotifyFunc
}

// NewExecutor builds an Executor. notify may be nil.
func NewExecutor(provider Provider, log *slog.Logger, notify NotifyFunc) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{provider: provider, log: log, notify: notify}
}

// Do fetches a credential and runs op at most once.
//
// Error contract:
//   - no stored grant: ErrSignInRequired, op never runs
//   - op returns ErrAuthExpired: credential invalidated once, caller gets
//     ErrSessionExpired
//   - anything else: propagated unchanged
func (e *Executor) Do(ctx context.Context, op Op) error {
	cred, err := e.provider.Credential(ctx)
	if err != nil {
		return err
	}

	err = op(ctx, cred)
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrAuthExpired) {
		if ierr := e.provider.Invalidate(ctx); ierr != nil {
			e.log.Warn("session: invalidate after expiry failed", "error", ierr)
		}
		e.log.Info("session: credential expired, sign-in required")
		if e.notify != nil {
			e.notify("Your session has expired. Please sign in again.")
		}
		return fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	return err
}
