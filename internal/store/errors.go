package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when creating a user whose email is already
// taken. The store maps the backend's unique violation so the invariant
// holds even when two registrations race past the existence check.
var ErrDuplicateEmail = errors.New("email already in use")
