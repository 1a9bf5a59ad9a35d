package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("entity conflicts with existing data")

	// ErrReferenced is returned when a delete is blocked by rows that reference the entity.
	ErrReferenced = errors.New("entity is still referenced")
)
