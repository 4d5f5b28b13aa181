package settings_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hal9000y/gmail-provider/internal/provider"
)

type channelCall struct {
	Op      string
	Payload any
}

type channelMock struct {
	SendFunc func(ctx context.Context, op string, payload, out any) error
	EmitFunc func(ctx context.Context, op string, payload any) error

	mu    sync.Mutex
	sends []channelCall
	emits []channelCall
}

func (m *channelMock) Send(ctx context.Context, op string, payload, out any) error {
	if m.SendFunc == nil {
		panic("channelMock.SendFunc: method is nil but Channel.Send was just called")
	}
	m.mu.Lock()
	m.sends = append(m.sends, channelCall{Op: op, Payload: payload})
	m.mu.Unlock()
	return m.SendFunc(ctx, op, payload, out)
}

func (m *channelMock) Emit(ctx context.Context, op string, payload any) error {
	m.mu.Lock()
	m.emits = append(m.emits, channelCall{Op: op, Payload: payload})
	m.mu.Unlock()
	if m.EmitFunc == nil {
		return nil
	}
	return m.EmitFunc(ctx, op, payload)
}

func (m *channelMock) SendCalls() []channelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]channelCall{}, m.sends...)
}

func (m *channelMock) SentOps() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ops := make([]string, 0, len(m.sends))
	for _, c := range m.sends {
		ops = append(ops, c.Op)
	}
	return ops
}

func (m *channelMock) EmitCalls() []channelCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]channelCall{}, m.emits...)
}

func (m *channelMock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = nil
	m.emits = nil
}

// respond copies v into out the way a JSON transport would.
func respond(out, v any) error {
	if out == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// backendState is an in-memory backend behind newBackendMock.
type backendState struct {
	mu        sync.Mutex
	prefs     provider.Preferences
	watchList []provider.WatchListEntry
	tokens    map[string]provider.TokenMetadata
	slot      *provider.PendingAuthorization
}

func gmailWatchList() []provider.WatchListEntry {
	return []provider.WatchListEntry{
		{Site: "Gmail", Active: true, Frames: []provider.Frame{{Scan: true, Frame: provider.GmailMatchPattern}}},
	}
}

func newBackendMock(st *backendState) *channelMock {
	return &channelMock{
		SendFunc: func(_ context.Context, op string, payload, out any) error {
			st.mu.Lock()
			defer st.mu.Unlock()

			switch op {
			case provider.OpGetPrefs:
				return respond(out, provider.GetPrefsResponse{Provider: st.prefs})
			case provider.OpSetPrefs:
				req := payload.(provider.SetPrefsRequest)
				if v := req.Prefs.Provider.GmailIntegration; v != nil {
					st.prefs.GmailIntegration = *v
				}
				return respond(out, provider.Ack{OK: true})
			case provider.OpGetWatchList:
				return respond(out, provider.WatchListResponse{Entries: st.watchList})
			case provider.OpGetOAuthTokens:
				resp := provider.GetOAuthTokensResponse{}
				if len(st.tokens) > 0 {
					resp.Tokens = st.tokens
				}
				return respond(out, resp)
			case provider.OpRemoveOAuthToken:
				req := payload.(provider.RemoveOAuthTokenRequest)
				delete(st.tokens, req.Email)
				return respond(out, provider.Ack{OK: true})
			case provider.OpAuthorizeGmail:
				req := payload.(provider.AuthorizeRequest)
				if st.tokens == nil {
					st.tokens = map[string]provider.TokenMetadata{}
				}
				st.tokens[req.Email] = provider.TokenMetadata{Scopes: []string{string(req.Scope)}}
				return respond(out, provider.AuthorizeResponse{OK: true})
			case provider.OpGetAppDataSlot:
				if st.slot == nil {
					return fmt.Errorf("no pending action")
				}
				slot := *st.slot
				st.slot = nil
				return respond(out, slot)
			default:
				return fmt.Errorf("unexpected op %s", op)
			}
		},
	}
}

func emails(records []provider.AuthorizationRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Email)
	}
	return out
}
