package storage

import "errors"

// Common client storage errors
var (
	// ErrAuthNotFound indicates that no saved session exists
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrAccountNotFound indicates that offline account was not found
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountAlreadyExists indicates that offline account with this email exists
	ErrAccountAlreadyExists = errors.New("account already exists")

	// ErrProfileNotFound indicates that vault profile was not found
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileAlreadyExists indicates that profile was already created
	ErrProfileAlreadyExists = errors.New("profile already exists")

	// ErrItemNotFound indicates that item was not found
	ErrItemNotFound = errors.New("item not found")

	// ErrItemAlreadyExists indicates that item id is already taken
	ErrItemAlreadyExists = errors.New("item already exists")

	// ErrCategoryNotFound indicates that category was not found
	ErrCategoryNotFound = errors.New("category not found")
)
