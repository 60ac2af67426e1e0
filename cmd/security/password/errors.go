package password

import "errors"

// Public, stable errors for callers.
var (
	ErrInvalidHash   = errors.New("invalid password hash")
	ErrInvalidConfig = errors.New("invalid argon2 config")
)
