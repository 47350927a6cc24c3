package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayops/channelstore/pkg/encryption"
)

// stubBackend records operations in memory for factory and handle tests.
type stubBackend struct {
	kind  Kind
	blobs map[string][]byte
}

func newStubBackend(kind Kind) *stubBackend {
	return &stubBackend{kind: kind, blobs: map[string][]byte{}}
}

func (s *stubBackend) Kind() Kind { return s.kind }

func (s *stubBackend) Put(ctx context.Context, bucket, path string, data []byte) error {
	s.blobs[bucket+"/"+path] = data
	return nil
}

func (s *stubBackend) Get(ctx context.Context, bucket, path string) ([]byte, error) {
	data, ok := s.blobs[bucket+"/"+path]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return data, nil
}

func (s *stubBackend) Delete(ctx context.Context, bucket, path string) error {
	delete(s.blobs, bucket+"/"+path)
	return nil
}

func testFactory(t *testing.T) *Factory {
	t.Helper()
	factory, err := NewFactory(context.Background(), Config{LocalRoot: t.TempDir()}, nil, nil)
	require.NoError(t, err)
	return factory
}

func TestPointerRoundTrip(t *testing.T) {
	factory := testFactory(t)
	ctx := context.Background()
	orgKey := "orgApiKey-roundtrip"
	content := []byte("kind: Deployment\n---\nkind: Service\n")

	handler, err := factory.NewResourceHandler("org1-chan1-v1", "channel-data", "")
	require.NoError(t, err)

	iv, err := handler.SetDataAndEncrypt(ctx, content, orgKey)
	require.NoError(t, err)

	serialized, err := handler.Serialize()
	require.NoError(t, err)

	// The pointer is self-describing: kind, bucket and path all survive.
	var p map[string]any
	require.NoError(t, json.Unmarshal([]byte(serialized), &p))
	assert.Equal(t, "local", p["kind"])
	assert.Equal(t, "channel-data", p["bucket"])
	assert.Equal(t, "org1-chan1-v1", p["path"])
	assert.Equal(t, float64(1), p["v"])

	restored, err := factory.Deserialize(serialized)
	require.NoError(t, err)

	got, err := restored.GetDataAndDecrypt(ctx, orgKey, iv)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestHandleDeleteIdempotent(t *testing.T) {
	factory := testFactory(t)
	ctx := context.Background()

	handler, err := factory.NewResourceHandler("p", "b", "")
	require.NoError(t, err)

	_, err = handler.SetDataAndEncrypt(ctx, []byte("data"), "key")
	require.NoError(t, err)

	require.NoError(t, handler.DeleteData(ctx))
	require.NoError(t, handler.DeleteData(ctx))
}

func TestHandleGetMissingBlob(t *testing.T) {
	factory := testFactory(t)

	handler, err := factory.NewResourceHandler("never-written", "b", "")
	require.NoError(t, err)

	_, err = handler.GetDataAndDecrypt(context.Background(), "key", "aXY=")
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestHandleDecryptionMismatch(t *testing.T) {
	factory := testFactory(t)
	ctx := context.Background()

	handler, err := factory.NewResourceHandler("p", "b", "")
	require.NoError(t, err)

	iv, err := handler.SetDataAndEncrypt(ctx, []byte("data"), "right-key")
	require.NoError(t, err)

	_, err = handler.GetDataAndDecrypt(ctx, "wrong-key", iv)
	assert.ErrorIs(t, err, encryption.ErrDecryptionFailed)
}

func TestDeserializeRejectsGarbage(t *testing.T) {
	factory := testFactory(t)

	for _, serialized := range []string{
		"not json",
		`{"v":99,"kind":"local","bucket":"b","path":"p"}`,
		`{"v":1,"kind":"carrier-pigeon","bucket":"b","path":"p"}`,
	} {
		_, err := factory.Deserialize(serialized)
		assert.ErrorIs(t, err, ErrInvalidPointer, "pointer %q", serialized)
	}
}

func TestDeserializeUnknownLocation(t *testing.T) {
	factory := testFactory(t)

	_, err := factory.Deserialize(`{"v":1,"kind":"s3","location":"gone","bucket":"b","path":"p"}`)
	assert.ErrorIs(t, err, ErrUnknownLocation)
}

func TestNewResourceHandlerUnknownLocation(t *testing.T) {
	factory := testFactory(t)

	_, err := factory.NewResourceHandler("p", "b", "nowhere")
	assert.ErrorIs(t, err, ErrUnknownLocation)
}

func TestRemoteLocationRouting(t *testing.T) {
	east := newStubBackend(KindS3)
	factory, err := NewFactoryWithBackends(
		Config{
			LocalBucket:     "local-data",
			DefaultLocation: "east",
			Locations:       map[string]LocationConfig{"east": {Bucket: "bucket-east"}},
		},
		newStubBackend(KindLocal),
		map[string]Backend{"east": east},
		nil, nil,
	)
	require.NoError(t, err)
	ctx := context.Background()

	assert.True(t, factory.HasLocations())
	assert.True(t, factory.HasLocation("EAST"))
	assert.False(t, factory.HasLocation("west"))
	assert.Equal(t, []string{"east"}, factory.Locations())
	assert.Equal(t, "bucket-east", factory.ChannelBucket("east"))
	assert.Equal(t, "local-data", factory.ChannelBucket(""))

	handler, err := factory.NewResourceHandler("p", "bucket-east", "east")
	require.NoError(t, err)

	iv, err := handler.SetDataAndEncrypt(ctx, []byte("remote content"), "key")
	require.NoError(t, err)
	assert.Len(t, east.blobs, 1)

	serialized, err := handler.Serialize()
	require.NoError(t, err)
	assert.Contains(t, serialized, `"location":"east"`)

	restored, err := factory.Deserialize(serialized)
	require.NoError(t, err)
	got, err := restored.GetDataAndDecrypt(ctx, "key", iv)
	require.NoError(t, err)
	assert.Equal(t, []byte("remote content"), got)
}

func TestFactoryRejectsUnknownDefaultLocation(t *testing.T) {
	_, err := NewFactoryWithBackends(
		Config{DefaultLocation: "missing"},
		newStubBackend(KindLocal),
		nil, nil, nil,
	)
	assert.ErrorIs(t, err, ErrUnknownLocation)
}
