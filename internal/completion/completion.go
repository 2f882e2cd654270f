// Package completion wraps the external text-completion service behind a
// throttled, retrying client. The provider is treated as untrusted, rate
// limited, and fallible; callers are expected to degrade when it is down.
package completion

import "context"

// Completer defines the interface contract for text-completion services.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	ModelName() string
}
