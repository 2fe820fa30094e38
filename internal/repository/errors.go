// Package repository is the data access boundary of the service.  The
// facilities, bookings and uploaded files all live in a headless CMS
// reached over its REST API; this package talks to it and converts its
// response shapes into the canonical model types exactly once.
//
// The sentinel errors below let handlers distinguish failure kinds.
// Not-found is detected by inspecting query results rather than relying
// on upstream status codes, because the CMS answers list queries with an
// empty page instead of a 404.
package repository

import "errors"

// ErrFacilityNotFound is returned when no facility matches the requested
// id.  Handlers translate it into an HTTP 404 response.
var ErrFacilityNotFound = errors.New("facility not found")

// ErrBookingNotFound is returned when no booking matches the lookup.
// Handlers translate it into an HTTP 404 response.
var ErrBookingNotFound = errors.New("booking not found")

// ErrConflict is returned when the CMS rejects a write because of
// conflicting state, such as a duplicate booking number.  Handlers
// translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrUpstream wraps every other CMS failure: transport errors, non-2xx
// answers and undecodable bodies.  Handlers translate it into an HTTP 500
// response with a generic message.
var ErrUpstream = errors.New("cms request failed")
