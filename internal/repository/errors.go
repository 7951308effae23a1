// Package repository contains data access logic separated from HTTP
// handlers.  Each entity gets its own repository over a shared *sql.DB.
// This file defines error values reused across repositories so that
// handlers can translate failure scenarios into HTTP statuses.
package repository

import "errors"

// ErrConflict is returned when an update cannot be performed because of
// conflicting state, such as completing a visit that is not pending.
// Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")
