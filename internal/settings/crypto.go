package settings

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

// scrypt parameters per the package recommendation for interactive use.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// keySalt is a context string, not a secret. The secret itself comes
// from configuration and is unique per deployment.
var keySalt = []byte("supplier-bridge/settings/v1")

// ErrDecrypt is returned when a stored value cannot be authenticated,
// typically because the configured secret changed.
var ErrDecrypt = errors.New("settings: cannot decrypt value")

// SecretBox encrypts and decrypts sensitive setting values with
// AES-256-GCM using a key derived from the configured secret.
type SecretBox struct {
	aead cipher.AEAD
}

// NewSecretBox derives the encryption key from secret via scrypt.
func NewSecretBox(secret string) (*SecretBox, error) {
	if secret == "" {
		return nil, errors.New("settings: empty secret")
	}

	key, err := scrypt.Key([]byte(secret), keySalt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	return &SecretBox{aead: aead}, nil
}

// Seal encrypts plaintext and returns base64(nonce || ciphertext).
func (b *SecretBox) Seal(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decrypts a value produced by Seal.
func (b *SecretBox) Open(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrDecrypt, "invalid encoding")
	}

	ns := b.aead.NonceSize()
	if len(raw) < ns {
		return "", fmt.Errorf("%w: %s", ErrDecrypt, "truncated value")
	}

	plaintext, err := b.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plaintext), nil
}
