// Package crypto seals credential payloads with AES-256-GCM.
// The key is resolved once from an operator-supplied secret at startup;
// nothing else in the process ever sees raw key material.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ErrDecrypt reports any decryption failure: tampered ciphertext, wrong key,
// or a malformed opaque string. Callers match it with errors.Is.
var ErrDecrypt = errors.New("decryption failed")

// opaquePrefix versions the ciphertext format so it can evolve without
// guessing at stored blobs.
const opaquePrefix = "v1:"

const minKeyBytes = 32

var hexKeyPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// Keychain holds the derived credential key. It is constructed once in main
// and injected into every component that encrypts or decrypts.
type Keychain struct {
	key []byte
}

// NewKeychain derives the credential key from the operator secret.
// A 64-character hex secret is hex-decoded, a canonical base64 secret is
// base64-decoded, and anything else is used as raw UTF-8 bytes. The derived
// material must be at least 32 bytes; the first 32 become the AES-256 key.
func NewKeychain(secret string) (*Keychain, error) {
	if secret == "" {
		return nil, errors.New("credential key secret is empty")
	}

	material := deriveKeyMaterial(secret)
	if len(material) < minKeyBytes {
		return nil, fmt.Errorf("credential key must be at least %d bytes, got %d", minKeyBytes, len(material))
	}

	return &Keychain{key: material[:minKeyBytes]}, nil
}

func deriveKeyMaterial(secret string) []byte {
	if hexKeyPattern.MatchString(secret) {
		material, err := hex.DecodeString(secret)
		if err == nil {
			return material
		}
	}
	if material, err := base64.StdEncoding.Strict().DecodeString(secret); err == nil {
		// Only treat as base64 when the round trip is exact, so a raw
		// passphrase that happens to decode is not silently mangled.
		if base64.StdEncoding.EncodeToString(material) == secret {
			return material
		}
	}
	return []byte(secret)
}

// Encrypt seals plaintext and returns an opaque string that embeds the
// random nonce and the GCM tag, so decryption needs no external state.
func (k *Keychain) Encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(k.key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("creating GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return opaquePrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an opaque string produced by Encrypt. Any failure is
// reported as ErrDecrypt; plaintext is never returned on a partial success.
func (k *Keychain) Decrypt(opaque string) ([]byte, error) {
	if !strings.HasPrefix(opaque, opaquePrefix) {
		return nil, fmt.Errorf("%w: unknown format", ErrDecrypt)
	}

	sealed, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(opaque, opaquePrefix))
	if err != nil {
		return nil, fmt.Errorf("%w: malformed encoding", ErrDecrypt)
	}

	block, err := aes.NewCipher(k.key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	if len(sealed) < gcm.NonceSize() {
		return nil, fmt.Errorf("%w: truncated ciphertext", ErrDecrypt)
	}

	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: authentication failed", ErrDecrypt)
	}
	return plaintext, nil
}

// EncryptJSON seals the JSON encoding of v.
func (k *Keychain) EncryptJSON(v interface{}) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding payload: %w", err)
	}
	return k.Encrypt(payload)
}

// DecryptJSON opens an opaque string and unmarshals the plaintext into v.
func (k *Keychain) DecryptJSON(opaque string, v interface{}) error {
	plaintext, err := k.Decrypt(opaque)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("%w: payload is not valid JSON", ErrDecrypt)
	}
	return nil
}
