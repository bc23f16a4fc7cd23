// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrConflict signals that an operation cannot proceed due to
// existing dependent records (e.g. deleting a table that is still
// referenced by active reservations).
package repository

import "errors"

// ErrTableNotFound is returned when no table exists for the
// requested identifier. Handlers should translate this into an
// HTTP 404 response.
var ErrTableNotFound = errors.New("table not found")

// ErrReservationNotFound is returned when no reservation exists for
// the requested identifier. Handlers should translate this into an
// HTTP 404 response.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a table that still has active reservations. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
