package repository

import "errors"

var (
	// ErrNotFound is returned by mutations whose target row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateUser is returned when the email is already registered.
	ErrDuplicateUser = errors.New("user already exists")
)
