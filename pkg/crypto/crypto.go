// Package crypto seals history exports with a passphrase.
//
// A sealed payload is laid out as
//
//	[magic(6)][salt(16)][nonce(12)][ciphertext][tag(16)]
//
// with the key derived from the passphrase by PBKDF2-SHA256.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// AES-256
	keySize = 32

	saltSize  = 16
	nonceSize = 12
	tagSize   = 16

	pbkdf2Iterations = 100000
)

// magic prefixes every sealed payload
var magic = []byte("HXENC1")

var (
	// ErrEmptyPassphrase is returned when no passphrase was given
	ErrEmptyPassphrase = errors.New("passphrase cannot be empty")

	// ErrNotSealed is returned when decrypting data without the hx envelope
	ErrNotSealed = errors.New("data is not an encrypted hx export")
)

// IsSealed reports whether data starts with the envelope marker
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keySize, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return gcm, nil
}

// Encrypt seals plaintext with passphrase using AES-256-GCM
func Encrypt(plaintext []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, 0, len(magic)+saltSize+nonceSize+len(plaintext)+tagSize)
	out = append(out, magic...)
	out = append(out, salt...)
	out = append(out, nonce...)

	// Seal appends ciphertext and tag
	return gcm.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt opens data sealed by Encrypt
func Decrypt(data []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if !IsSealed(data) {
		return nil, ErrNotSealed
	}

	data = data[len(magic):]
	if len(data) < saltSize+nonceSize+tagSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+nonceSize]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, data[saltSize+nonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong passphrase or corrupted data): %w", err)
	}

	return plaintext, nil
}

// EncryptTo seals plaintext and writes it to w
func EncryptTo(w io.Writer, plaintext []byte, passphrase string) error {
	sealed, err := Encrypt(plaintext, passphrase)
	if err != nil {
		return err
	}

	if _, err := w.Write(sealed); err != nil {
		return fmt.Errorf("failed to write encrypted data: %w", err)
	}

	return nil
}
