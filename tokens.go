package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenKeyPrefix namespaces token keys in the ephemeral store.
const TokenKeyPrefix = "auth_"

// TokenTTL is how long an issued token lives without an explicit revoke.
const TokenTTL = 24 * time.Hour

// TokenService owns the bearer token lifecycle: absent -> active on issue,
// back to absent on revoke or TTL expiry. The keyed store is the sole owner
// of token state.
type TokenService struct {
	store  KeyedStore
	ttl    time.Duration
	logger Logger
}

func NewTokenService(store KeyedStore) *TokenService {
	return &TokenService{
		store:  store,
		ttl:    TokenTTL,
		logger: defLogger{},
	}
}

func (ts *TokenService) WithLogger(l Logger) *TokenService {
	if l != nil {
		ts.logger = l
	}
	return ts
}

// WithTTL overrides the token lifetime. Meant for tests; production keeps
// the 24h default.
func (ts *TokenService) WithTTL(ttl time.Duration) *TokenService {
	if ttl > 0 {
		ts.ttl = ttl
	}
	return ts
}

// Issue generates a random token for the user and stores the association
// with the configured TTL. Uniqueness is probabilistic (v4 UUID space);
// concurrent sessions per user are allowed, so there is no pre-existing
// token check.
func (ts *TokenService) Issue(ctx context.Context, userID uuid.UUID) (string, error) {
	token := uuid.NewString()

	if err := ts.store.Set(ctx, TokenKeyPrefix+token, userID.String(), ts.ttl); err != nil {
		return "", err
	}

	return token, nil
}

// Resolve returns the user id a live token maps to. A token that was never
// issued and one whose TTL elapsed are indistinguishable: both come back as
// ErrUnauthenticated.
func (ts *TokenService) Resolve(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrUnauthenticated
	}

	value, found, err := ts.store.Get(ctx, TokenKeyPrefix+token)
	if err != nil {
		return uuid.Nil, err
	}
	if !found {
		return uuid.Nil, ErrUnauthenticated
	}

	id, err := uuid.Parse(value)
	if err != nil {
		// A corrupted value is as good as no value.
		ts.logger.Error("token %s resolved to malformed user id", token)
		return uuid.Nil, ErrUnauthenticated
	}

	return id, nil
}

// Revoke deletes the token association. Revoking an unknown or already
// revoked token is a silent no-op.
func (ts *TokenService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return ts.store.Del(ctx, TokenKeyPrefix+token)
}
