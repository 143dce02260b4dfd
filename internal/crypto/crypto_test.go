package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHexKey = "0f1e2d3c4b5a69788796a5b4c3d2e1f00f1e2d3c4b5a69788796a5b4c3d2e1f0"

func TestNewKeychainKeyDerivation(t *testing.T) {
	t.Run("hex secret", func(t *testing.T) {
		kc, err := NewKeychain(testHexKey)
		require.NoError(t, err)
		require.NotNil(t, kc)
	})

	t.Run("base64 secret", func(t *testing.T) {
		// 32 bytes of zeroes, canonically encoded.
		kc, err := NewKeychain("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=")
		require.NoError(t, err)
		require.NotNil(t, kc)
	})

	t.Run("raw passphrase", func(t *testing.T) {
		kc, err := NewKeychain(strings.Repeat("correct-horse-", 3))
		require.NoError(t, err)
		require.NotNil(t, kc)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := NewKeychain("")
		require.Error(t, err)
	})

	t.Run("short secret", func(t *testing.T) {
		_, err := NewKeychain("too-short")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least 32 bytes")
	})
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	kc, err := NewKeychain(testHexKey)
	require.NoError(t, err)

	plaintexts := []string{
		"",
		"pin:1234",
		`{"account":"alice@example.com","secret":"hunter2"}`,
		strings.Repeat("long credential payload ", 200),
	}

	for _, plain := range plaintexts {
		opaque, err := kc.Encrypt([]byte(plain))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(opaque, "v1:"))
		if plain != "" {
			assert.NotContains(t, opaque, plain)
		}

		got, err := kc.Decrypt(opaque)
		require.NoError(t, err)
		assert.Equal(t, plain, string(got))
	}
}

func TestEncryptUniqueNonces(t *testing.T) {
	kc, err := NewKeychain(testHexKey)
	require.NoError(t, err)

	a, err := kc.Encrypt([]byte("same plaintext"))
	require.NoError(t, err)
	b, err := kc.Encrypt([]byte("same plaintext"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDecryptFailures(t *testing.T) {
	kc, err := NewKeychain(testHexKey)
	require.NoError(t, err)

	opaque, err := kc.Encrypt([]byte("secret material"))
	require.NoError(t, err)

	t.Run("unknown format", func(t *testing.T) {
		_, err := kc.Decrypt("plaintext-not-opaque")
		assert.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("malformed base64", func(t *testing.T) {
		_, err := kc.Decrypt("v1:!!!not-base64!!!")
		assert.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := kc.Decrypt("v1:AAAA")
		assert.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		tampered := []byte(opaque)
		tampered[len(tampered)-2] ^= 'x'
		_, err := kc.Decrypt(string(tampered))
		assert.ErrorIs(t, err, ErrDecrypt)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := NewKeychain(strings.Repeat("f", 64))
		require.NoError(t, err)
		_, err = other.Decrypt(opaque)
		assert.ErrorIs(t, err, ErrDecrypt)
	})
}

func TestEncryptDecryptJSON(t *testing.T) {
	kc, err := NewKeychain(testHexKey)
	require.NoError(t, err)

	type payload struct {
		Account string   `json:"account"`
		PINs    []string `json:"pins"`
	}

	in := payload{Account: "alice@example.com", PINs: []string{"1111", "2222"}}
	opaque, err := kc.EncryptJSON(in)
	require.NoError(t, err)

	var out payload
	require.NoError(t, kc.DecryptJSON(opaque, &out))
	assert.Equal(t, in, out)
}
