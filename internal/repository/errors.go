// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers
// such as services and handlers to distinguish between failure
// scenarios without inspecting SQL errors. For example, ErrNotFound
// indicates that a row does not exist, while ErrStaleState signals
// that an optimistic status transition found the row in a different
// state than expected.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist. It is
// also the error handlers surface for reads the caller is not allowed
// to see, so that resource existence never leaks across tenants.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate this into an HTTP 403
// response on mutations.
var ErrForbidden = errors.New("forbidden")

// ErrStaleState is returned when a status transition's optimistic
// precondition fails: the row exists but its current status is not one
// of the expected pre-states. Handlers translate this into HTTP 409.
var ErrStaleState = errors.New("stale state")

// ErrEmailExists is returned when registering a user with an email
// that is already taken.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicateBooking is returned when a booking would collide with an
// existing non-cancelled booking for the same event, provider and
// service category. Handlers translate this into HTTP 409.
var ErrDuplicateBooking = errors.New("duplicate booking")
