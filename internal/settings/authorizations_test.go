package settings_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hal9000y/gmail-provider/internal/provider"
	"github.com/hal9000y/gmail-provider/internal/settings"
)

func TestAuthorizationStoreLoad(t *testing.T) {
	cases := []struct {
		name     string
		tokens   map[string]provider.TokenMetadata
		expected []string
	}{
		{
			name:     "absent",
			expected: []string{},
		},
		{
			name:     "empty",
			tokens:   map[string]provider.TokenMetadata{},
			expected: []string{},
		},
		{
			name: "two",
			tokens: map[string]provider.TokenMetadata{
				"a@test.com": {Scopes: []string{string(provider.ScopeRead)}},
				"b@test.com": {Scopes: []string{string(provider.ScopeSend)}},
			},
			expected: []string{"a@test.com", "b@test.com"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ch := newBackendMock(&backendState{tokens: tc.tokens})
			store := settings.NewAuthorizationStore(ch)

			records, err := store.Load(context.Background(), provider.Gmail)
			require.NoError(t, err)
			require.NotNil(t, records)
			assert.Equal(t, tc.expected, emails(records))

			calls := ch.SendCalls()
			require.Len(t, calls, 1)
			assert.Equal(t, provider.OpGetOAuthTokens, calls[0].Op)
			assert.Equal(t, provider.GetOAuthTokensRequest{Provider: provider.Gmail}, calls[0].Payload)
		})
	}
}

func TestAuthorizationStoreLoadKeepsMetadata(t *testing.T) {
	ch := newBackendMock(&backendState{tokens: map[string]provider.TokenMetadata{
		"a@test.com": {Scopes: []string{string(provider.ScopeRead)}, Expiry: "2026-01-01T00:00:00Z"},
	}})

	records, err := settings.NewAuthorizationStore(ch).Load(context.Background(), provider.Gmail)
	require.NoError(t, err)
	assert.Equal(t, []provider.AuthorizationRecord{{
		Email: "a@test.com",
		TokenMetadata: provider.TokenMetadata{
			Scopes: []string{string(provider.ScopeRead)},
			Expiry: "2026-01-01T00:00:00Z",
		},
	}}, records)
}

func TestAuthorizationStoreRevoke(t *testing.T) {
	ch := newBackendMock(&backendState{tokens: map[string]provider.TokenMetadata{
		"a@test.com": {},
		"b@test.com": {},
	}})
	store := settings.NewAuthorizationStore(ch)

	records, err := store.Revoke(context.Background(), provider.Gmail, "a@test.com")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b@test.com"}, emails(records))
	assert.Equal(t, []string{provider.OpRemoveOAuthToken, provider.OpGetOAuthTokens}, ch.SentOps())

	records, err = store.Load(context.Background(), provider.Gmail)
	require.NoError(t, err)
	assert.NotContains(t, emails(records), "a@test.com")
}

func TestAuthorizationStoreRevokeAbsentReloads(t *testing.T) {
	ch := newBackendMock(&backendState{tokens: map[string]provider.TokenMetadata{"b@test.com": {}}})

	records, err := settings.NewAuthorizationStore(ch).Revoke(context.Background(), provider.Gmail, "a@test.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"b@test.com"}, emails(records))
	assert.Equal(t, []string{provider.OpRemoveOAuthToken, provider.OpGetOAuthTokens}, ch.SentOps())
}

func TestAuthorizationStoreRevokeTransportFailure(t *testing.T) {
	ch := &channelMock{
		SendFunc: func(context.Context, string, any, any) error {
			return errors.New("simulated error: remove failed")
		},
	}

	_, err := settings.NewAuthorizationStore(ch).Revoke(context.Background(), provider.Gmail, "a@test.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulated error: remove failed")
	assert.Equal(t, []string{provider.OpRemoveOAuthToken}, ch.SentOps())
}

func TestAuthorizationStoreGrant(t *testing.T) {
	ch := newBackendMock(&backendState{})
	store := settings.NewAuthorizationStore(ch)

	pending := provider.PendingAuthorization{Email: "x@y.com", Scope: provider.ScopeSend, CorrelationID: "c1"}
	records, err := store.Grant(context.Background(), provider.Gmail, pending)
	require.NoError(t, err)
	assert.Equal(t, []string{"x@y.com"}, emails(records))

	calls := ch.SendCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, provider.OpAuthorizeGmail, calls[0].Op)
	assert.Equal(t, provider.AuthorizeRequest{
		Provider:      provider.Gmail,
		Email:         "x@y.com",
		Scope:         provider.ScopeSend,
		CorrelationID: "c1",
	}, calls[0].Payload)
	assert.Equal(t, provider.OpGetOAuthTokens, calls[1].Op)
}
