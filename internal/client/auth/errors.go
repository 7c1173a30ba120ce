package auth

import "errors"

var (
	// ErrInvalidCredentials - неверный email или auth secret
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotSignedIn - операция требует выполненного входа
	ErrNotSignedIn = errors.New("not signed in")
)
