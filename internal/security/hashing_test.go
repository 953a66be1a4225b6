package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash([]byte("secret123"))
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.NoError(t, h.Compare(hash, []byte("secret123")))
}

func TestHasher_CompareWrongPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash([]byte("secret123"))
	require.NoError(t, err)
	assert.ErrorIs(t, h.Compare(hash, []byte("wrong")), ErrPasswordMismatch)
}

func TestHasher_CompareMalformedHash(t *testing.T) {
	err := NewHasher(bcrypt.MinCost).Compare("not-a-hash", []byte("x"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPasswordMismatch)
}

func TestHasher_HashesDiffer(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	a, _ := h.Hash([]byte("same"))
	b, _ := h.Hash([]byte("same"))
	assert.NotEqual(t, a, b)
}

func TestNewHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, 12, NewHasher(12).Cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).Cost)
	assert.Equal(t, bcrypt.MinCost, NewHasher(2).Cost)
	assert.Equal(t, bcrypt.MaxCost, NewHasher(50).Cost)
}

func TestHasher_NeedsRehash(t *testing.T) {
	low := NewHasher(bcrypt.MinCost)
	hash, err := low.Hash([]byte("pw"))
	require.NoError(t, err)
	assert.False(t, low.NeedsRehash(hash))
	assert.True(t, NewHasher(bcrypt.MinCost+1).NeedsRehash(hash))
	assert.True(t, low.NeedsRehash("garbage"))
}
