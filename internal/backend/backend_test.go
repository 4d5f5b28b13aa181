package backend_test

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/hal9000y/gmail-provider/internal/auth"
	"github.com/hal9000y/gmail-provider/internal/backend"
	"github.com/hal9000y/gmail-provider/internal/provider"
	"github.com/hal9000y/gmail-provider/internal/store"
)

type authorizerMock struct {
	mu     sync.Mutex
	grants []auth.Grant
}

func (m *authorizerMock) AuthURL(g auth.Grant) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants = append(m.grants, g)
	return fmt.Sprintf("https://accounts.example.com/auth?login_hint=%s", g.Email), nil
}

type fixture struct {
	ctx       context.Context
	db        *store.DB
	authz     *authorizerMock
	client    *mcp.ClientSession
	opened    []string
	activated []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "provider.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{ctx: context.Background(), db: db, authz: &authorizerMock{}}

	ids := 0
	b := backend.New(db, f.authz, backend.Options{
		OpenURL:    func(url string) { f.opened = append(f.opened, url) },
		OnActivate: func(id string) { f.activated = append(f.activated, id) },
		NewID: func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		},
	})

	server := backend.NewServer(b)
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.Connect(f.ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	f.client, err = client.Connect(f.ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.client.Close() })

	return f
}

// call invokes a tool and decodes its result into out. It returns the error
// text when the tool failed.
func (f *fixture) call(t *testing.T, name string, args, out any) string {
	t.Helper()

	if args == nil {
		args = provider.Empty{}
	}
	result, err := f.client.CallTool(f.ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	text := result.Content[0].(*mcp.TextContent).Text
	if result.IsError {
		return text
	}
	if out != nil {
		require.NoError(t, json.Unmarshal([]byte(text), out))
	}
	return ""
}

func TestPrefs(t *testing.T) {
	f := newFixture(t)

	var prefs provider.GetPrefsResponse
	require.Empty(t, f.call(t, provider.OpGetPrefs, nil, &prefs))
	assert.False(t, prefs.Provider.GmailIntegration)

	enabled := true
	var ack provider.Ack
	require.Empty(t, f.call(t, provider.OpSetPrefs, provider.SetPrefsRequest{
		Prefs: provider.PrefsUpdate{Provider: provider.PreferencesPatch{GmailIntegration: &enabled}},
	}, &ack))
	assert.True(t, ack.OK)

	require.Empty(t, f.call(t, provider.OpGetPrefs, nil, &prefs))
	assert.True(t, prefs.Provider.GmailIntegration)
}

func TestGetWatchList(t *testing.T) {
	f := newFixture(t)

	var wl provider.WatchListResponse
	require.Empty(t, f.call(t, provider.OpGetWatchList, nil, &wl))
	assert.Empty(t, wl.Entries)

	_, err := f.db.SeedWatchList(f.ctx, backend.DefaultWatchList())
	require.NoError(t, err)

	require.Empty(t, f.call(t, provider.OpGetWatchList, nil, &wl))
	assert.Equal(t, backend.DefaultWatchList(), wl.Entries)
	assert.Equal(t, provider.GmailMatchPattern, wl.Entries[0].Frames[0].Frame)
}

func TestOAuthTokens(t *testing.T) {
	f := newFixture(t)

	var raw map[string]json.RawMessage
	require.Empty(t, f.call(t, provider.OpGetOAuthTokens, provider.GetOAuthTokensRequest{Provider: provider.Gmail}, &raw))
	assert.NotContains(t, raw, "tokens", "absent when nothing is granted")

	require.NoError(t, f.db.SaveToken(f.ctx, provider.Gmail, "a@test.com",
		&oauth2.Token{AccessToken: "secret-access", RefreshToken: "secret-refresh"},
		[]string{string(provider.ScopeRead)}))
	require.NoError(t, f.db.SaveToken(f.ctx, provider.Gmail, "b@test.com",
		&oauth2.Token{AccessToken: "secret-access-2"},
		[]string{string(provider.ScopeSend)}))

	result, err := f.client.CallTool(f.ctx, &mcp.CallToolParams{
		Name:      provider.OpGetOAuthTokens,
		Arguments: provider.GetOAuthTokensRequest{Provider: provider.Gmail},
	})
	require.NoError(t, err)
	text := result.Content[0].(*mcp.TextContent).Text
	assert.NotContains(t, text, "secret", "token secrets stay in the backend")

	var resp provider.GetOAuthTokensResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	require.Len(t, resp.Tokens, 2)
	assert.Equal(t, []string{string(provider.ScopeRead)}, resp.Tokens["a@test.com"].Scopes)
	assert.Equal(t, []string{string(provider.ScopeSend)}, resp.Tokens["b@test.com"].Scopes)

	var ack provider.Ack
	require.Empty(t, f.call(t, provider.OpRemoveOAuthToken,
		provider.RemoveOAuthTokenRequest{Provider: provider.Gmail, Email: "a@test.com"}, &ack))
	assert.True(t, ack.OK)

	resp = provider.GetOAuthTokensResponse{}
	require.Empty(t, f.call(t, provider.OpGetOAuthTokens, provider.GetOAuthTokensRequest{Provider: provider.Gmail}, &resp))
	assert.Len(t, resp.Tokens, 1)
	assert.NotContains(t, resp.Tokens, "a@test.com")

	ack = provider.Ack{}
	require.Empty(t, f.call(t, provider.OpRemoveOAuthToken,
		provider.RemoveOAuthTokenRequest{Provider: provider.Gmail, Email: "a@test.com"}, &ack),
		"removing an absent token succeeds")
	assert.True(t, ack.OK)
}

func TestRequestAuthorizationSlot(t *testing.T) {
	f := newFixture(t)

	errText := f.call(t, provider.OpGetAppDataSlot, nil, nil)
	assert.Contains(t, errText, backend.ErrNoPendingAction.Error())

	var staged provider.RequestAuthorizationResponse
	require.Empty(t, f.call(t, provider.OpRequestAuthorization,
		provider.RequestAuthorizationRequest{Email: "x@y.com", Scope: "read"}, &staged))
	assert.Equal(t, provider.RequestAuthorizationResponse{CorrelationID: "id-1", Route: provider.AuthRoute}, staged)

	var pending provider.PendingAuthorization
	require.Empty(t, f.call(t, provider.OpGetAppDataSlot, nil, &pending))
	assert.Equal(t, provider.PendingAuthorization{Email: "x@y.com", Scope: provider.ScopeRead, CorrelationID: "id-1"}, pending)

	errText = f.call(t, provider.OpGetAppDataSlot, nil, nil)
	assert.Contains(t, errText, backend.ErrNoPendingAction.Error(), "the slot is one-shot")
}

func TestRequestAuthorizationValidation(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		req  provider.RequestAuthorizationRequest
		err  string
	}{
		{name: "missing_email", req: provider.RequestAuthorizationRequest{Scope: provider.ScopeRead}, err: "email must be provided"},
		{name: "unknown_scope", req: provider.RequestAuthorizationRequest{Email: "x@y.com", Scope: "admin"}, err: "unknown scope"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Contains(t, f.call(t, provider.OpRequestAuthorization, tc.req, nil), tc.err)
		})
	}
}

func TestAuthorizeGmail(t *testing.T) {
	f := newFixture(t)

	var resp provider.AuthorizeResponse
	require.Empty(t, f.call(t, provider.OpAuthorizeGmail, provider.AuthorizeRequest{
		Provider:      provider.Gmail,
		Email:         "x@y.com",
		Scope:         provider.ScopeSend,
		CorrelationID: "c1",
	}, &resp))

	assert.True(t, resp.OK)
	assert.Equal(t, "https://accounts.example.com/auth?login_hint=x@y.com", resp.AuthURL)
	assert.Equal(t, []string{resp.AuthURL}, f.opened)
	assert.Equal(t, []auth.Grant{{Email: "x@y.com", Scope: provider.ScopeSend, CorrelationID: "c1"}}, f.authz.grants)

	errText := f.call(t, provider.OpAuthorizeGmail, provider.AuthorizeRequest{
		Provider: "outlook",
		Email:    "x@y.com",
		Scope:    provider.ScopeRead,
	}, nil)
	assert.Contains(t, errText, `unsupported provider "outlook"`)
	assert.Len(t, f.opened, 1)
}

func TestActivateComponent(t *testing.T) {
	f := newFixture(t)

	var ack provider.Ack
	require.Empty(t, f.call(t, provider.OpActivateComponent, provider.ActivateComponentRequest{CorrelationID: "c1"}, &ack))
	assert.True(t, ack.OK)
	assert.Equal(t, []string{"c1"}, f.activated)
}

func TestGrantedActivatesRequester(t *testing.T) {
	var activated []string
	b := backend.New(nil, nil, backend.Options{OnActivate: func(id string) { activated = append(activated, id) }})

	b.Granted(auth.Grant{Email: "x@y.com", Scope: provider.ScopeRead, CorrelationID: "c1"})
	b.Granted(auth.Grant{Email: "x@y.com", Scope: provider.ScopeRead})

	assert.Equal(t, []string{"c1"}, activated)
}
