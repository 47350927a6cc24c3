// Package encryption implements the symmetric envelope protecting channel
// version content at rest.
//
// Payloads are encrypted with AES-256-GCM under a key derived from the
// organization's active org key. Every call to Encrypt draws a fresh random
// IV, since one tenant key protects many independent payloads. Decryption
// failures collapse into the single ErrDecryptionFailed value so callers
// cannot distinguish a wrong key from corrupted ciphertext.
package encryption
