package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashers_RoundTrip(t *testing.T) {
	hashers := map[string]Hasher{
		"bcrypt":   NewBcrypt(bcrypt.MinCost),
		"argon2id": &ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32},
	}

	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			hash, err := h.Hash("secret1")
			require.NoError(t, err)
			assert.NotContains(t, hash, "secret1")

			ok, err := h.Verify("secret1", hash)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = h.Verify("secret2", hash)
			require.NoError(t, err)
			assert.False(t, ok)

			// Salted, so hashing twice never gives the same string
			again, err := h.Hash("secret1")
			require.NoError(t, err)
			assert.NotEqual(t, hash, again)
		})
	}
}

func TestBcrypt_LongPassword(t *testing.T) {
	b := NewBcrypt(bcrypt.MinCost)
	p := strings.Repeat("a", 72)

	hash, err := b.Hash(p)
	require.NoError(t, err)

	ok, err := b.Verify(p, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	// Same first 72 bytes, different password
	ok, err = b.Verify(p+"DIFFERENT", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	m, err := NewHasher("bcrypt", bcrypt.MinCost)
	require.NoError(t, err)
	ok, err = m.Verify(p+"X", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon_BadFormat(t *testing.T) {
	a := NewArgon()

	for _, bad := range []string{"", "plain", "$argon2id$v=19$m=1$salt", "$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA"} {
		_, err := a.Verify("x", bad)
		assert.ErrorIs(t, err, ErrHashFormat, bad)
	}
}

func TestMultiHasher(t *testing.T) {
	b, err := NewHasher("bcrypt", bcrypt.MinCost)
	require.NoError(t, err)

	a, err := NewHasher("argon2id", bcrypt.MinCost)
	require.NoError(t, err)
	a.argon.Memory = 1024
	a.argon.Iterations = 1

	bHash, err := b.Hash("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(bHash, "$2"))

	aHash, err := a.Hash("secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(aHash, argonPrefix))

	// Each verifies the other's hashes
	for _, h := range []*MultiHasher{a, b} {
		for _, hash := range []string{aHash, bHash} {
			ok, err := h.Verify("secret1", hash)
			require.NoError(t, err)
			assert.True(t, ok)
		}
	}

	_, err = NewHasher("md5", 10)
	assert.Error(t, err)
}
