package identity_test

import (
	"testing"

	identity "github.com/filevault/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{
			name:     "Valid password",
			password: "securePassword123!",
			wantErr:  false,
		},
		{
			name:     "Empty password",
			password: "",
			wantErr:  true, // rejected before bcrypt ever runs
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := identity.HashPassword(tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.NotEmpty(t, hash)

			err = identity.ComparePasswordAndHash(tt.password, hash)
			assert.NoError(t, err)
		})
	}
}

func TestBcryptHasherCompare(t *testing.T) {
	password := "testPassword123!"
	hasher := identity.BcryptHasher{}
	hash, err := hasher.Hash(password)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		hash     string
		wantErr  bool
	}{
		{
			name:     "Matching password",
			password: password,
			hash:     hash,
			wantErr:  false,
		},
		{
			name:     "Wrong password",
			password: "wrongPassword",
			hash:     hash,
			wantErr:  true,
		},
		{
			name:     "Invalid hash",
			password: password,
			hash:     "invalidhash",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := hasher.Compare(tt.password, tt.hash)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSHA1HasherLegacyDigest(t *testing.T) {
	hasher := identity.SHA1Hasher{}

	// Digest written by the legacy stack: unsalted hex sha1.
	hash, err := hasher.Hash("password")
	require.NoError(t, err)
	assert.Equal(t, "5baa61e4c9b93f3f0682250b6cf8331b7ee68fd8", hash)

	assert.NoError(t, hasher.Compare("password", hash))
	assert.ErrorIs(t, hasher.Compare("Password", hash), identity.ErrMismatchedHashAndPassword)

	_, err = hasher.Hash("")
	assert.Error(t, err)
}

func TestHashersAreInterchangeable(t *testing.T) {
	for _, hasher := range []identity.PasswordHasher{
		identity.BcryptHasher{Cost: 4},
		identity.SHA1Hasher{},
	} {
		hash, err := hasher.Hash("toto1234!")
		require.NoError(t, err)
		assert.NoError(t, hasher.Compare("toto1234!", hash))
		assert.Error(t, hasher.Compare("nope", hash))
	}
}
