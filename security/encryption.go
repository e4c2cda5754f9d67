// Package security encrypts credentials kept at rest, such as the WhatsApp API token.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const keySize = 32

// ErrNoKey is returned when a Cipher is built without a key.
var ErrNoKey = errors.New("encryption key not configured")

// Cipher encrypts short strings with AES-256-GCM. Output is base64(nonce || ciphertext).
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives a 32-byte key from key, padding short keys with zero bytes and
// truncating long ones.
func NewCipher(key string) (*Cipher, error) {
	if key == "" {
		return nil, ErrNoKey
	}

	block, err := aes.NewCipher(normalizeKey(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create block cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Cipher{aead: gcm}, nil
}

func normalizeKey(key string) []byte {
	k := make([]byte, keySize)
	copy(k, key)
	return k
}

// Encrypt encrypts a string using AES-GCM
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a string using AES-GCM
func (c *Cipher) Decrypt(encrypted string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", err
	}

	if len(ciphertext) < c.aead.NonceSize() {
		return "", errors.New("ciphertext too short")
	}

	nonce := ciphertext[:c.aead.NonceSize()]
	ciphertext = ciphertext[c.aead.NonceSize():]

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// MaskedSecret is what API responses show in place of a stored secret.
const MaskedSecret = "********"
