package oauthbridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/giantswarm/mcp-oauth/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestTokenProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	provider := NewTokenProvider(memory.New())

	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}

	require.NoError(t, provider.SaveToken(ctx, "frontdesk@example.com", token))

	got, err := provider.GetTokenForAccount(ctx, "frontdesk@example.com")
	require.NoError(t, err)
	assert.Equal(t, "access", got.AccessToken)

	assert.True(t, provider.HasTokenForAccount("frontdesk@example.com"))
	assert.False(t, provider.HasTokenForAccount("unknown@example.com"))
}

// fakeInnerProvider counts lookups so tests can verify the cache short-circuits.
type fakeInnerProvider struct {
	tokens map[string]*oauth2.Token
	calls  int
}

func (p *fakeInnerProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	p.calls++
	token, ok := p.tokens[account]
	if !ok {
		return nil, errNoToken
	}
	return token, nil
}

func (p *fakeInnerProvider) HasTokenForAccount(account string) bool {
	_, ok := p.tokens[account]
	return ok
}

var errNoToken = errors.New("no token for account")

func TestCachingProviderPopulatesCache(t *testing.T) {
	ctx := context.Background()
	inner := &fakeInnerProvider{
		tokens: map[string]*oauth2.Token{
			"surgery@example.com": {
				AccessToken: "inner-access",
				TokenType:   "Bearer",
				Expiry:      time.Now().Add(time.Hour),
			},
		},
	}
	provider := NewCachingProvider(inner, memory.New())

	got, err := provider.GetTokenForAccount(ctx, "surgery@example.com")
	require.NoError(t, err)
	assert.Equal(t, "inner-access", got.AccessToken)
	assert.Equal(t, 1, inner.calls)

	// Second lookup comes from the store.
	got, err = provider.GetTokenForAccount(ctx, "surgery@example.com")
	require.NoError(t, err)
	assert.Equal(t, "inner-access", got.AccessToken)
	assert.Equal(t, 1, inner.calls)
}

func TestCachingProviderMiss(t *testing.T) {
	provider := NewCachingProvider(&fakeInnerProvider{}, memory.New())

	_, err := provider.GetTokenForAccount(context.Background(), "unknown@example.com")
	require.Error(t, err)
	assert.False(t, provider.HasTokenForAccount("unknown@example.com"))
}

func TestCachingProviderHasTokenFallsBack(t *testing.T) {
	inner := &fakeInnerProvider{
		tokens: map[string]*oauth2.Token{
			"frontdesk@example.com": {AccessToken: "x"},
		},
	}
	provider := NewCachingProvider(inner, memory.New())

	assert.True(t, provider.HasTokenForAccount("frontdesk@example.com"))
	assert.False(t, provider.HasTokenForAccount("unknown@example.com"))
}
