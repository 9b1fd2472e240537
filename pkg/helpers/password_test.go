package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	t.Parallel()
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("pass@word")
	require.NoError(t, err)
	assert.NotEqual(t, "pass@word", hash)

	assert.True(t, h.Verify("pass@word", hash))
	assert.False(t, h.Verify("wrongpass", hash))
	assert.False(t, h.Verify("", hash))
}

func TestBcryptHasher_SaltedOutputs(t *testing.T) {
	t.Parallel()
	h := NewBcryptHasher(bcrypt.MinCost)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("same", a))
	assert.True(t, h.Verify("same", b))
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	t.Parallel()
	h := NewBcryptHasher(bcrypt.MinCost)

	for _, hash := range []string{"", "not-a-hash", "$2a$04$short"} {
		assert.False(t, h.Verify("pass@word", hash), "hash %q", hash)
	}
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(99).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}
