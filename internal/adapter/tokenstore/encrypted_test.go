package tokenstore

import (
	"context"
	"os"
	"testing"

	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
	"github.com/saisriabhiramnelluri/hiresphere/internal/platform/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func newEncrypted(t *testing.T) (*EncryptedStore, *FileStore) {
	t.Helper()
	inner, _ := newFileStore(t)
	c, err := crypto.NewAESGCM(testKey)
	require.NoError(t, err)
	return NewEncryptedStore(inner, c), inner
}

func TestEncryptedStore_RoundTrip(t *testing.T) {
	store, inner := newEncrypted(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "tok-secret"))

	raw, err := os.ReadFile(inner.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tok-secret")

	token, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-secret", token)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrNoToken)
}

func TestEncryptedStore_PlaintextLeftoverIsAnError(t *testing.T) {
	store, inner := newEncrypted(t)
	ctx := context.Background()
	require.NoError(t, inner.Save(ctx, "plain-token"))

	_, err := store.Load(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, crypto.ErrMalformed)
	assert.NotErrorIs(t, err, domain.ErrNoToken)
}

func TestEncryptedStore_Ping(t *testing.T) {
	store, _ := newEncrypted(t)

	assert.NoError(t, store.Ping(context.Background()))
}
