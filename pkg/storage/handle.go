package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/relayops/channelstore/pkg/encryption"
	"github.com/relayops/channelstore/pkg/observability"
)

// pointerVersion is the current serialized pointer format version.
const pointerVersion = 1

// pointer is the self-describing descriptor persisted in the version record's
// content field. It carries everything needed to rebind a Handle later,
// independent of configuration changes in the meantime.
type pointer struct {
	Version  int    `json:"v"`
	Kind     Kind   `json:"kind"`
	Location string `json:"location,omitempty"`
	Bucket   string `json:"bucket"`
	Path     string `json:"path"`
}

// Handle binds one logical content identity (path, bucket, location) to a
// chosen Backend. Handles are produced by the Factory, either fresh on the
// write path or reconstructed from a serialized pointer on the read path.
type Handle struct {
	kind     Kind
	location string
	bucket   string
	path     string

	backend Backend
	logger  *observability.Logger
	metrics *observability.Metrics
}

// Bucket returns the bucket this handle addresses.
func (h *Handle) Bucket() string { return h.bucket }

// Path returns the path this handle addresses.
func (h *Handle) Path() string { return h.path }

// SetDataAndEncrypt encrypts content under the org key and writes the
// ciphertext to the backend. It returns the base64-encoded IV, which must be
// persisted alongside the serialized pointer for later decryption.
func (h *Handle) SetDataAndEncrypt(ctx context.Context, content []byte, orgKey string) (string, error) {
	ciphertext, iv, err := encryption.Encrypt(content, orgKey)
	if err != nil {
		return "", err
	}

	start := time.Now()
	err = h.backend.Put(ctx, h.bucket, h.path, ciphertext)
	h.metrics.ObserveStorageOp(string(h.kind), "put", start, err)
	if err != nil {
		return "", err
	}

	h.logger.WithFields(map[string]any{
		"backend": h.kind,
		"bucket":  h.bucket,
		"path":    h.path,
		"bytes":   len(ciphertext),
	}).Debug("blob written")
	return base64.StdEncoding.EncodeToString(iv), nil
}

// GetDataAndDecrypt reads the ciphertext back and decrypts it with the org
// key and the IV recorded at write time. A missing blob yields
// ErrBlobNotFound; a key/IV mismatch yields encryption.ErrDecryptionFailed.
func (h *Handle) GetDataAndDecrypt(ctx context.Context, orgKey, iv string) ([]byte, error) {
	rawIV, err := base64.StdEncoding.DecodeString(iv)
	if err != nil {
		return nil, encryption.ErrDecryptionFailed
	}

	start := time.Now()
	ciphertext, err := h.backend.Get(ctx, h.bucket, h.path)
	h.metrics.ObserveStorageOp(string(h.kind), "get", start, err)
	if err != nil {
		return nil, err
	}

	return encryption.Decrypt(ciphertext, orgKey, rawIV)
}

// DeleteData removes the backend blob. It is idempotent: deleting an already
// deleted blob succeeds.
func (h *Handle) DeleteData(ctx context.Context) error {
	start := time.Now()
	err := h.backend.Delete(ctx, h.bucket, h.path)
	h.metrics.ObserveStorageOp(string(h.kind), "delete", start, err)
	if err != nil {
		return err
	}
	h.logger.WithFields(map[string]any{
		"backend": h.kind,
		"bucket":  h.bucket,
		"path":    h.path,
	}).Debug("blob deleted")
	return nil
}

// Serialize produces the compact, versioned, backend-tagged pointer stored in
// the version record. Deserialize on the Factory inverts it.
func (h *Handle) Serialize() (string, error) {
	data, err := json.Marshal(pointer{
		Version:  pointerVersion,
		Kind:     h.kind,
		Location: h.location,
		Bucket:   h.bucket,
		Path:     h.path,
	})
	if err != nil {
		return "", fmt.Errorf("failed to serialize storage pointer: %w", err)
	}
	return string(data), nil
}
