package service

import "errors"

var (
	// ErrNotFound is returned when a scene, its diagram or an item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for requests that fail basic validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict is returned when a name is already taken.
	ErrConflict = errors.New("already exists")
)
