// Package repository persists the client state that must survive a
// restart of the storefront agent: the bearer token and the serialized
// user snapshot.  Values live under fixed, well-known keys so that every
// backend (memory, Redis, MySQL) can be swapped without touching callers.
package repository

import "errors"

// ErrStateNotFound is returned by Get when a key has no stored value.
// Callers treat it as "absent", not as a failure.
var ErrStateNotFound = errors.New("state not found")
