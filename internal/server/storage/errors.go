package storage

import "errors"

// Common storage errors
var (
	// ErrAccountNotFound indicates that account was not found in storage
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountAlreadyExists indicates that account with this email already exists
	ErrAccountAlreadyExists = errors.New("account already exists")

	// ErrProfileNotFound indicates that vault profile was not found
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileAlreadyExists indicates that profile was already created for the account
	ErrProfileAlreadyExists = errors.New("profile already exists")

	// ErrItemNotFound indicates that item was not found or belongs to another user
	ErrItemNotFound = errors.New("item not found")

	// ErrItemAlreadyExists indicates that item id is already taken
	ErrItemAlreadyExists = errors.New("item already exists")

	// ErrCategoryNotFound indicates that category was not found or belongs to another user
	ErrCategoryNotFound = errors.New("category not found")

	// ErrTokenNotFound indicates that refresh token was not found
	ErrTokenNotFound = errors.New("refresh token not found")

	// ErrTokenExpired indicates that refresh token was consumed after its expiry
	ErrTokenExpired = errors.New("refresh token expired")
)
