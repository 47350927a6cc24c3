// Package storage provides the pluggable blob backends and the storage
// handle abstraction for channel version content.
//
// # Backends
//
// Backend is the physical store: LocalBackend writes blobs under a root
// directory and serves as the fallback when no object-store locations are
// configured; S3Backend talks to one S3-compatible location (AWS, MinIO)
// via aws-sdk-go-v2. Delete is idempotent on every backend.
//
// # Handles and pointers
//
// A Handle binds one logical content identity (path, bucket, location) to a
// backend and runs content through the encryption envelope:
//
//	handler, _ := factory.NewResourceHandler(path, bucket, location)
//	iv, _ := handler.SetDataAndEncrypt(ctx, content, orgKey)
//	pointer, _ := handler.Serialize()
//
// Serialize emits a compact, versioned, backend-tagged JSON descriptor. The
// pointer, not current configuration, drives backend selection on read-back:
//
//	handler, _ := factory.Deserialize(pointer)
//	content, _ := handler.GetDataAndDecrypt(ctx, orgKey, iv)
//
// Storing a self-describing pointer instead of a bare path is what lets one
// schema span multiple concurrently configured backends and keeps historical
// content resolvable after the default location changes.
//
// # Factory
//
// Factory maps location identifiers to backends and is the sole extension
// point for new backend variants: extend the Kind switch in Deserialize and
// the construction in NewResourceHandler.
package storage
