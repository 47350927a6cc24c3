package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

// ivSize is the standard AES-GCM nonce length.
const ivSize = 12

// ErrDecryptionFailed is returned whenever ciphertext cannot be recovered,
// regardless of whether the key, the IV, or the ciphertext is at fault.
// Callers must not surface any finer detail to clients.
var ErrDecryptionFailed = errors.New("decryption failed")

// deriveKey maps an org key string onto a 32-byte AES-256 key.
func deriveKey(orgKey string) []byte {
	sum := sha256.Sum256([]byte(orgKey))
	return sum[:]
}

// Encrypt encrypts plaintext under the given org key with AES-256-GCM and a
// fresh random IV. The same key encrypts many independent payloads, so the IV
// is never reused; it must be persisted alongside the ciphertext reference.
func Encrypt(plaintext []byte, orgKey string) (ciphertext, iv []byte, err error) {
	block, err := aes.NewCipher(deriveKey(orgKey))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	iv = make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, nil, fmt.Errorf("failed to generate IV: %w", err)
	}

	return aead.Seal(nil, iv, plaintext, nil), iv, nil
}

// Decrypt recovers the plaintext produced by Encrypt. A mismatched key/IV
// pair, or tampered ciphertext, yields ErrDecryptionFailed with no further
// detail.
func Decrypt(ciphertext []byte, orgKey string, iv []byte) ([]byte, error) {
	if len(iv) != ivSize {
		return nil, ErrDecryptionFailed
	}
	block, err := aes.NewCipher(deriveKey(orgKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
