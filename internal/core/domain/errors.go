package domain

import "errors"

// --- ERREURS DU DOMAINE ---
// Les adapters traduisent leurs erreurs techniques vers celles-ci.
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation error")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrCannotFollowSelf   = errors.New("cannot follow yourself")
)
