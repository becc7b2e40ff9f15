package auth

import (
	"strings"
	"testing"

	domainerrors "school/internal/domain/errors"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	hasher := newBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	assert.True(t, hasher.VerifyPassword("correct horse", hash))
	assert.False(t, hasher.VerifyPassword("wrong", hash))
}

func TestBcryptHasher_MalformedHashNeverMatches(t *testing.T) {
	hasher := newBcryptHasher(bcrypt.MinCost)

	for _, hash := range []string{"", "plain-text", "$2a$10$short", "$2a$99$abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyzab"} {
		assert.NotPanics(t, func() {
			assert.False(t, hasher.VerifyPassword("anything", hash), hash)
		})
	}
}

func TestBcryptHasher_RejectsInvalidPasswords(t *testing.T) {
	hasher := newBcryptHasher(bcrypt.MinCost)

	_, err := hasher.HashPassword(strings.Repeat("a", 73))
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))

	_, err = hasher.HashPassword("")
	assert.True(t, errors.Is(err, domainerrors.ErrValidationFailed))

	_, err = hasher.HashPassword(strings.Repeat("a", 72))
	assert.NoError(t, err)
}

func TestNewBcryptHasher_OutOfRangeCostFallsBack(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, newBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, newBcryptHasher(99).cost)
	assert.Equal(t, 12, newBcryptHasher(12).cost)
}
