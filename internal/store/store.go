// Package store provides persistence operations for participants,
// submissions, and the program-wide enrollment instant.
package store

import "errors"

// ErrPersistence indicates the backing store rejected or failed an
// operation. Surfaced to participants as a generic failure; callers do not
// retry automatically.
var ErrPersistence = errors.New("store: persistence failure")

// ErrAlreadyStarted is returned when an operator tries to start a program
// that already has an enrollment instant.
var ErrAlreadyStarted = errors.New("store: program already started")

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")
