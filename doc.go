// Package identity implements an HTTP-facing identity layer: callers
// authenticate with long-term credentials (email + password over Basic auth)
// or with a short-lived opaque bearer token carried in the x-token header.
//
// Token lifecycle:
//   - TokenService issues random tokens bound to a user id in an ephemeral
//     keyed store (Redis) under auth_<token> with a 24 hour TTL. Tokens die
//     on explicit revoke or when the TTL elapses; the store is the single
//     source of truth and nothing else caches token state.
//
// Failure collapsing:
//   - Every "no valid identity" case (missing header, malformed header,
//     unknown email, wrong password, expired token) collapses into the one
//     ErrUnauthenticated outcome before it reaches the route layer. Store
//     connectivity errors are the only failures that surface distinctly.
//
// Durable state lives behind Bun repositories; registration hashes the
// password with a pluggable PasswordHasher (bcrypt by default, legacy SHA-1
// available for wire compatibility) and emits a fire-and-forget job on the
// "email sending" work queue.
package identity
