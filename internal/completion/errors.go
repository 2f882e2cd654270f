package completion

import "errors"

var (
	// ErrOverloaded indicates the provider rejected the call with a
	// rate-limit signal (HTTP 429).
	ErrOverloaded = errors.New("completion service overloaded")

	// ErrUnauthorized indicates the provider rejected the credentials
	// (HTTP 401/403).
	ErrUnauthorized = errors.New("completion service rejected credentials")
)
