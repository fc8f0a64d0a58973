// Package session owns the promstudy client's authentication state.
//
// # Overview
//
// A Manager holds the bearer token, the profile hydrated from it, a loading
// flag, and the marketplace statistics fetched at startup. It is built once
// by the application root and handed to every consumer; nothing in the
// package is global.
//
// # States
//
//	Anonymous     no token, no profile
//	Hydrating     a token is being acquired or its profile fetched
//	Authenticated token and profile both present
//	Failed        stored token rejected, teardown pending
//
// Init starts in Hydrating when a token was persisted, otherwise the
// session stays Anonymous. Every transition is recorded with a reason
// (see Transitions) and logged.
//
// # Mutators
//
// Login, SignupAndCreateProfile and Logout are the only operations that
// change the session. Login and SignupAndCreateProfile either leave the
// session Authenticated with token and profile persisted together, or
// leave it exactly as it was. Logout never fails and is idempotent.
//
// # Concurrency
//
// Init, Login and SignupAndCreateProfile share one in-flight slot; a call
// made while another holds it fails with ErrOperationInProgress. Logout is
// always accepted and invalidates whatever is in flight, which then fails
// with ErrSessionReset instead of committing. Readers may call the
// accessors from any goroutine.
//
// # Errors
//
// User-initiated operations return *AuthenticationError or
// *RegistrationError whose Error() is a message fit for display. Failures
// of automatic work (profile hydration at startup, stats) are handled
// inside the package and only logged.
package session
