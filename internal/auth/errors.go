package auth

import "errors"

// Failure codes the screens switch on when mapping to user-facing messages.
var (
	ErrInvalidEmail      = errors.New("auth: invalid email")
	ErrUserNotFound      = errors.New("auth: user not found")
	ErrWrongPassword     = errors.New("auth: wrong password")
	ErrInvalidCredential = errors.New("auth: invalid credential")
	ErrEmailInUse        = errors.New("auth: email already in use")
	ErrWeakPassword      = errors.New("auth: weak password")
	ErrNotAuthenticated  = errors.New("auth: not authenticated")
)
