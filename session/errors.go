package session

import "errors"

// ErrSignInRequired means no stored grant exists at all. The user has to go
// through the interactive sign-in flow, which lives outside this pipeline.
var ErrSignInRequired = errors.New("session: sign-in required")

// ErrAuthExpired is the internal signal raised by any remote client when a
// call comes back with an authentication-failure status. It is consumed by
// Executor.Do and should not normally escape to callers.
var ErrAuthExpired = errors.New("session: credential expired")

// ErrSessionExpired is what callers see after Executor.Do has detected an
// expired credential and invalidated it. Recovery requires the interactive
// sign-in flow; there is no silent re-acquisition because that could switch
// the active account underneath the user.
var ErrSessionExpired = errors.New("session: session expired, re-authentication required")
