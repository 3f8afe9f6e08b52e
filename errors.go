package identity

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeUnauthorized     = "unauthorized"
	TextCodeMissingEmail     = "missing_email"
	TextCodeMissingPassword  = "missing_password"
	TextCodeEmailExists      = "email_already_exists"
	TextCodeStoreUnreachable = "store_unreachable"
)

// ErrUnauthenticated is the single outcome for every no-valid-identity case.
// Callers above the resolver must not be able to tell a wrong password from
// an unknown email from an expired token.
var ErrUnauthenticated = errors.New("unauthorized", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthorized).
	WithCode(errors.CodeUnauthorized)

// ErrMissingEmail is returned when registration input omits the email.
var ErrMissingEmail = errors.New("missing email", errors.CategoryValidation).
	WithTextCode(TextCodeMissingEmail).
	WithCode(errors.CodeBadRequest)

// ErrMissingPassword is returned when registration input omits the password.
var ErrMissingPassword = errors.New("missing password", errors.CategoryValidation).
	WithTextCode(TextCodeMissingPassword).
	WithCode(errors.CodeBadRequest)

// ErrEmailAlreadyExists is returned when a user with the email already exists.
var ErrEmailAlreadyExists = errors.New("email already exists", errors.CategoryValidation).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeConflict)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the internal mismatch signal; the verifier
// collapses it into ErrUnauthenticated before returning.
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// WrapConnectivity marks a backing-store failure. These propagate to the
// caller as failed operations and are never folded into "absent".
func WrapConnectivity(err error, store string) error {
	return errors.Wrap(err, errors.CategoryOperation, store+" unreachable").
		WithTextCode(TextCodeStoreUnreachable).
		WithMetadata(map[string]any{
			"store": store,
		})
}

// IsConnectivityError reports whether err originated in a failed store
// operation rather than a missing record or bad credentials.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.TextCode == TextCodeStoreUnreachable
}

// IsUnauthenticated reports whether err is the collapsed unauthenticated
// outcome.
func IsUnauthenticated(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnauthenticated) {
		return true
	}
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.TextCode == TextCodeUnauthorized
}
