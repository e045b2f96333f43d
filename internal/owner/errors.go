package owner

import "errors"

var (
	// ErrNameAlreadyExists indicates the owner name is taken.
	ErrNameAlreadyExists = errors.New("owner name already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrOwnerNotFound signals that the owner could not be located.
	ErrOwnerNotFound = errors.New("owner not found")
	// ErrUnauthorized represents missing or invalid access tokens.
	ErrUnauthorized = errors.New("unauthorized")
)
