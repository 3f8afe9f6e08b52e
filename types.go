package identity

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// KeyedStore is the contract for the ephemeral token store. Implementations
// own key expiry; callers never run cleanup of their own. Connectivity
// failures surface as errors, an absent key is not an error.
type KeyedStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	IsHealthy() bool
}

// JobEmitter hands work off to an external queue. Emit-only: consumption
// happens in another process.
type JobEmitter interface {
	Enqueue(ctx context.Context, payload any) error
}

// PasswordHasher is the one-way hash capability used for credential
// verification and registration.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) error
}

// HealthReporter exposes the last observed connection state of a backing
// store. The value reflects events, not a live probe, so it can be stale
// between events.
type HealthReporter interface {
	IsHealthy() bool
}

// Headers is the minimal header accessor the resolver needs. http.Header
// satisfies it; framework contexts adapt to it.
type Headers interface {
	Get(key string) string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
