package tokenstore

import (
	"context"
	"fmt"

	"github.com/saisriabhiramnelluri/hiresphere/internal/domain"
	"github.com/saisriabhiramnelluri/hiresphere/internal/platform/crypto"
)

// EncryptedStore seals tokens before handing them to the wrapped store. A
// stored value that cannot be opened (different key, plaintext left from an
// unencrypted setup) is reported as an error, which the session treats like
// any unreadable token and logs out.
type EncryptedStore struct {
	inner  domain.TokenStore
	cipher crypto.Cipher
}

var _ domain.TokenStore = (*EncryptedStore)(nil)

func NewEncryptedStore(inner domain.TokenStore, c crypto.Cipher) *EncryptedStore {
	return &EncryptedStore{inner: inner, cipher: c}
}

func (s *EncryptedStore) Load(ctx context.Context) (string, error) {
	sealed, err := s.inner.Load(ctx)
	if err != nil {
		return "", err
	}
	token, err := s.cipher.Decrypt(sealed)
	if err != nil {
		return "", fmt.Errorf("open stored token: %w", err)
	}
	return token, nil
}

func (s *EncryptedStore) Save(ctx context.Context, token string) error {
	sealed, err := s.cipher.Encrypt(token)
	if err != nil {
		return fmt.Errorf("seal token: %w", err)
	}
	return s.inner.Save(ctx, sealed)
}

func (s *EncryptedStore) Clear(ctx context.Context) error {
	return s.inner.Clear(ctx)
}

// Ping forwards to the wrapped store when it supports health checks.
func (s *EncryptedStore) Ping(ctx context.Context) error {
	if p, ok := s.inner.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
