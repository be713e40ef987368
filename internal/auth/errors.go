package auth

import "errors"

var (
	// ErrUnauthenticated means the request carries no valid session.
	ErrUnauthenticated = errors.New("not signed in")
	// ErrInvalidCredentials covers both unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
)
