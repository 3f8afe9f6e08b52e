package identity

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// ParseBasicAuth decodes an Authorization header in the Basic scheme. The
// decoded payload splits at the FIRST colon so passwords may themselves
// contain colons. ok is false for a missing header, a different scheme, bad
// base64, or a payload without a colon.
func ParseBasicAuth(header string) (email, password string, ok bool) {
	if header == "" {
		return "", "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Basic" {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", "", false
	}

	sep := strings.Index(string(decoded), ":")
	if sep < 0 {
		return "", "", false
	}

	return string(decoded[:sep]), string(decoded[sep+1:]), true
}

// CredentialVerifier validates email/password pairs against the durable
// store using a one-way hash comparison.
type CredentialVerifier struct {
	users  Users
	hasher PasswordHasher
	logger Logger
}

func NewCredentialVerifier(users Users, hasher PasswordHasher) *CredentialVerifier {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &CredentialVerifier{
		users:  users,
		hasher: hasher,
		logger: defLogger{},
	}
}

func (v *CredentialVerifier) WithLogger(l Logger) *CredentialVerifier {
	if l != nil {
		v.logger = l
	}
	return v
}

// Verify returns the user matching the pair, or ErrUnauthenticated. An
// unknown email and a wrong password produce the same outcome on purpose;
// only store connectivity failures surface as distinct errors.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (*User, error) {
	user, err := v.users.FindByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUnauthenticated
		}
		return nil, WrapConnectivity(err, "db")
	}

	if err := v.hasher.Compare(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, ErrUnauthenticated
		}
		// Undecodable stored hash: same collapsed outcome, but worth a log line.
		v.logger.Error("credential compare failed: %v", err)
		return nil, ErrUnauthenticated
	}

	return user, nil
}

// VerifyHeader parses the Authorization header and verifies the pair it
// carries.
func (v *CredentialVerifier) VerifyHeader(ctx context.Context, header string) (*User, error) {
	email, password, ok := ParseBasicAuth(header)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return v.Verify(ctx, email, password)
}
