// Package cli provides the promstudy command-line client.
//
// It wires configuration, the local session database, the REST client and
// the session manager, and exposes them as cobra subcommands plus an
// interactive shell. Typical flow: restore the persisted session, then run
// the requested command (or the shell when none is given).
//
// Key features:
//   - login / signup / logout
//   - whoami: the hydrated profile
//   - stats: marketplace-wide prompt and like counters
//
// See NewRootCommand, App and runREPL for details.
package cli
