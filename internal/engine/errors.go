// Package engine implements the queue ordering and live estimation core:
// the position store over the durable member sequence, the per-queue state
// machine, the rolling service-time estimator and the update broadcaster.
// Surrounding concerns (HTTP, auth, tenancy CRUD) live outside and drive
// the engine through its exported operations.
package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the engine's error taxonomy.  Store and state
// machine errors propagate through the engine unchanged so the HTTP
// boundary can map each kind to a stable outward response.  Broadcaster
// errors are the exception: they are logged and swallowed, never returned.
var (
	// ErrNotFound signals an unknown queue, member or customer id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState signals an illegal lifecycle transition, such as
	// pausing an inactive queue or completing a member that is not serving.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidArgument signals a client-correctable request problem,
	// such as an out-of-range target position.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict signals transaction or lock contention that the caller
	// may retry.  It is surfaced distinctly from ErrInvalidArgument.
	ErrConflict = errors.New("conflict")
)

// ErrEmptyQueue is returned by CallNext when no member is waiting.  It is a
// client-caused condition, so it belongs to the InvalidArgument kind.
var ErrEmptyQueue = fmt.Errorf("no waiting customers: %w", ErrInvalidArgument)

// ErrDuplicateMember is returned when a customer is added to a queue they
// already belong to.  Duplicate membership would corrupt the position
// sequence, so it is rejected before the append happens.
var ErrDuplicateMember = fmt.Errorf("customer already in queue: %w", ErrInvalidArgument)
