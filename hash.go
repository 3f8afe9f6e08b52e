package identity

import (
	"crypto/sha1"
	"crypto/subtle"
	"encoding/hex"

	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher is the default PasswordHasher. Salted and deliberately slow.
type BcryptHasher struct {
	// Cost defaults to bcrypt.DefaultCost when zero.
	Cost int
}

var _ PasswordHasher = BcryptHasher{}

func (b BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(h), err
}

func (b BcryptHasher) Compare(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// SHA1Hasher reproduces the legacy digest: unsalted hex encoded SHA-1.
// Keep it only for stores that still hold rows written by the old stack;
// new deployments should stay on BcryptHasher.
type SHA1Hasher struct{}

var _ PasswordHasher = SHA1Hasher{}

func (SHA1Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	sum := sha1.Sum([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (s SHA1Hasher) Compare(password, hash string) error {
	digest, err := s.Hash(password)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(digest), []byte(hash)) != 1 {
		return ErrMismatchedHashAndPassword
	}
	return nil
}

// HashPassword will generate a password hash using the default hasher
func HashPassword(password string) (string, error) {
	return BcryptHasher{}.Hash(password)
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	return BcryptHasher{}.Compare(password, hash)
}
