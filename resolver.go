package identity

import (
	"context"

	"github.com/goliatone/go-repository-bun"
)

// HeaderXToken carries the opaque bearer token.
const HeaderXToken = "X-Token"

// HeaderAuthorization carries Basic credentials.
const HeaderAuthorization = "Authorization"

// Resolver turns inbound request headers into an authenticated user, or the
// collapsed unauthenticated outcome. Which endpoints require which header is
// route-layer policy, not the resolver's concern.
type Resolver struct {
	verifier *CredentialVerifier
	tokens   *TokenService
	users    Users
	logger   Logger
}

func NewResolver(verifier *CredentialVerifier, tokens *TokenService, users Users) *Resolver {
	return &Resolver{
		verifier: verifier,
		tokens:   tokens,
		users:    users,
		logger:   defLogger{},
	}
}

func (r *Resolver) WithLogger(l Logger) *Resolver {
	if l != nil {
		r.logger = l
	}
	return r
}

// UserFromToken resolves the x-token header value to a user. Absence at
// either step, in the keyed store or the durable store, yields
// ErrUnauthenticated.
func (r *Resolver) UserFromToken(ctx context.Context, token string) (*User, error) {
	id, err := r.tokens.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := r.users.FindByID(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUnauthenticated
		}
		return nil, WrapConnectivity(err, "db")
	}

	return user, nil
}

// UserFromAuthorization resolves a Basic Authorization header value.
func (r *Resolver) UserFromAuthorization(ctx context.Context, header string) (*User, error) {
	return r.verifier.VerifyHeader(ctx, header)
}

// Resolve dispatches on the headers present: x-token wins, then Basic
// Authorization, otherwise unauthenticated.
func (r *Resolver) Resolve(ctx context.Context, headers Headers) (*User, error) {
	if token := headers.Get(HeaderXToken); token != "" {
		return r.UserFromToken(ctx, token)
	}

	if header := headers.Get(HeaderAuthorization); header != "" {
		return r.UserFromAuthorization(ctx, header)
	}

	return nil, ErrUnauthenticated
}
