// Package httperr holds the sentinel errors the repos surface so every
// handler maps store outcomes to the same HTTP statuses.
package httperr

import "errors"

var (
	// ErrNotFound is returned when the addressed entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned on unique-key collisions (duplicate email,
	// duplicate category name).
	ErrConflict = errors.New("already exists")
)
