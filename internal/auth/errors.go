package auth

import "errors"

// Operation-level errors surfaced by the auth flow. The HTTP layer maps each
// kind to a status code.
var (
	// ErrMissingFields is returned when a required input is absent.
	ErrMissingFields = errors.New("please enter all fields")

	// ErrInvalidCredentials is returned on login with an unknown email or a
	// wrong password. One error for both cases, so responses do not reveal
	// which part was wrong.
	ErrInvalidCredentials = errors.New("invalid password or email")

	// ErrForbidden is returned when an authenticated caller targets a user
	// record that is not their own and they are not an administrator.
	ErrForbidden = errors.New("not allowed to access this user")

	// ErrNoToken is returned when a protected route is called without a
	// bearer token, or with one that fails verification.
	ErrNoToken = errors.New("authorization denied")
)
