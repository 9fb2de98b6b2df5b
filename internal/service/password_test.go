package service

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

func TestPasswordHashVerify(t *testing.T) {
	h := NewPasswordHasher()

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$"))
	assert.True(t, h.Verify(hash, "correct horse"))
	assert.False(t, h.Verify(hash, "correct horse "))
	assert.False(t, h.Verify(hash, ""))
}

func TestPasswordHashIsSalted(t *testing.T) {
	h := NewPasswordHasher()

	a, err := h.Hash("secret1")
	require.NoError(t, err)
	b, err := h.Hash("secret1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestPasswordVerifyRejectsMalformed(t *testing.T) {
	h := NewPasswordHasher()
	hash, err := h.Hash("secret1")
	require.NoError(t, err)

	for _, encoded := range []string{
		"",
		"plaintext",
		strings.Replace(hash, "argon2id", "argon2i", 1),
		strings.Replace(hash, "v=19", "v=16", 1),
		strings.Replace(hash, "m=19456", "m=abc", 1),
		hash[:strings.LastIndex(hash, "$")],
		hash + "$extra",
	} {
		assert.False(t, h.Verify(encoded, "secret1"), encoded)
	}
}

func TestPasswordVerifyReadsStoredParameters(t *testing.T) {
	// A hash created with other cost parameters keeps verifying.
	salt := []byte("0123456789abcdef")
	key := argon2.IDKey([]byte("secret1"), salt, 1, 8192, 2, 24)
	encoded := "$argon2id$v=19$m=8192,t=1,p=2$" +
		base64.RawStdEncoding.EncodeToString(salt) + "$" +
		base64.RawStdEncoding.EncodeToString(key)

	h := NewPasswordHasher()
	assert.True(t, h.Verify(encoded, "secret1"))
	assert.False(t, h.Verify(strings.Replace(encoded, "t=1", "t=2", 1), "secret1"))
}
