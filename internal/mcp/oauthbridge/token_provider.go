// Package oauthbridge connects the mcp-oauth token storage to the Google
// token-provider interface used by the calendar client.
package oauthbridge

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/giantswarm/mcp-oauth/storage"

	"github.com/clinicdesk/clinicsched/internal/google"
)

// TokenProvider implements the google.TokenProvider interface using the
// mcp-oauth library's storage. It lets HTTP transport sessions reuse the
// tokens acquired through the OAuth flow instead of reading token files.
type TokenProvider struct {
	store storage.TokenStore
}

// NewTokenProvider creates a new token provider from an mcp-oauth TokenStore.
func NewTokenProvider(store storage.TokenStore) *TokenProvider {
	return &TokenProvider{
		store: store,
	}
}

// GetToken retrieves a Google OAuth token for the given user ID.
func (p *TokenProvider) GetToken(ctx context.Context, userID string) (*oauth2.Token, error) {
	return p.store.GetToken(ctx, userID)
}

// GetTokenForAccount retrieves a Google OAuth token for the specified account.
// This implements the google.TokenProvider interface (account is typically an email address).
func (p *TokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	return p.store.GetToken(ctx, account)
}

// HasTokenForAccount checks if a token exists for the specified account.
// This implements the google.TokenProvider interface.
func (p *TokenProvider) HasTokenForAccount(account string) bool {
	ctx := context.Background()
	_, err := p.store.GetToken(ctx, account)
	return err == nil
}

// SaveToken saves a Google OAuth token for the given user ID.
// This is used when tokens are refreshed or initially acquired.
func (p *TokenProvider) SaveToken(ctx context.Context, userID string, token *oauth2.Token) error {
	return p.store.SaveToken(ctx, userID, token)
}

// CachingProvider layers an mcp-oauth TokenStore in front of another token
// provider. HTTP transport sessions hit the store first and only fall back
// to the inner provider (typically file-based) on a miss.
type CachingProvider struct {
	inner google.TokenProvider
	store storage.TokenStore
}

// NewCachingProvider creates a provider that caches tokens from inner in the
// given store.
func NewCachingProvider(inner google.TokenProvider, store storage.TokenStore) *CachingProvider {
	return &CachingProvider{
		inner: inner,
		store: store,
	}
}

// GetTokenForAccount retrieves a token from the cache, falling back to the
// inner provider and populating the cache on a miss.
func (p *CachingProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	if token, err := p.store.GetToken(ctx, account); err == nil {
		return token, nil
	}

	token, err := p.inner.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	if err := p.store.SaveToken(ctx, account, token); err == nil {
		return token, nil
	}
	return token, nil
}

// HasTokenForAccount checks the cache first, then the inner provider.
func (p *CachingProvider) HasTokenForAccount(account string) bool {
	if _, err := p.store.GetToken(context.Background(), account); err == nil {
		return true
	}
	return p.inner.HasTokenForAccount(account)
}
