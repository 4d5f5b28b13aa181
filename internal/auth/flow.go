// Package auth runs the OAuth2 authorization code flow for Gmail accounts and
// hands the resulting tokens to storage.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"

	"github.com/hal9000y/gmail-provider/internal/provider"
)

var (
	// ErrInvalidState indicates an unknown, reused or expired state parameter.
	ErrInvalidState = errors.New("invalid or expired state parameter")
	// ErrEmailMismatch indicates consent was given for a different account.
	ErrEmailMismatch = errors.New("authorized account does not match requested email")
)

const stateTTL = 10 * time.Minute

// Grant is an authorization requested for one email address.
type Grant struct {
	Email         string
	Scope         provider.Scope
	CorrelationID string
}

type tokenSaver interface {
	SaveToken(ctx context.Context, providerKey, email string, tok *oauth2.Token, scopes []string) error
}

type profileReader interface {
	EmailAddress(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token, scope provider.Scope) (string, error)
}

type pendingGrant struct {
	Grant
	expires time.Time
}

// Flow issues consent URLs and exchanges authorization codes.
type Flow struct {
	mu      sync.Mutex
	cfg     *oauth2.Config
	tokens  tokenSaver
	profile profileReader
	pending map[string]pendingGrant
}

// NewFlow creates a Flow. cfg supplies client credentials, endpoint and redirect URL;
// its scopes are replaced per grant.
func NewFlow(cfg *oauth2.Config, tokens tokenSaver, profile profileReader) *Flow {
	return &Flow{
		cfg:     cfg,
		tokens:  tokens,
		profile: profile,
		pending: make(map[string]pendingGrant),
	}
}

// AuthURL returns the consent URL for g with a fresh state parameter.
func (f *Flow) AuthURL(g Grant) (string, error) {
	state, err := f.generateState(g)
	if err != nil {
		return "", fmt.Errorf("generateState failed: %w", err)
	}

	return f.scoped(g.Scope).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("login_hint", g.Email),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	), nil
}

// AuthorizeCode exchanges code, checks the consenting account and stores the token.
func (f *Flow) AuthorizeCode(ctx context.Context, code, state string) (Grant, error) {
	g, ok := f.takeState(state)
	if !ok {
		return Grant{}, ErrInvalidState
	}

	cfg := f.scoped(g.Scope)

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return Grant{}, fmt.Errorf("cfg.Exchange failed: %w", err)
	}

	email, err := f.profile.EmailAddress(ctx, cfg, tok, g.Scope)
	if err != nil {
		return Grant{}, fmt.Errorf("profile.EmailAddress failed: %w", err)
	}
	if !strings.EqualFold(email, g.Email) {
		return Grant{}, fmt.Errorf("%w: got %s, requested %s", ErrEmailMismatch, email, g.Email)
	}

	if err := f.tokens.SaveToken(ctx, provider.Gmail, g.Email, tok, []string{string(g.Scope)}); err != nil {
		return Grant{}, fmt.Errorf("tokens.SaveToken failed: %w", err)
	}

	return g, nil
}

// scoped copies the base config with the scopes needed for s and for reading
// the account address.
func (f *Flow) scoped(s provider.Scope) *oauth2.Config {
	cfg := *f.cfg
	cfg.Scopes = []string{string(s), oauth2api.UserinfoEmailScope}
	return &cfg
}

func (f *Flow) generateState(g Grant) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	state := base64.URLEncoding.EncodeToString(b)

	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	f.pending[state] = pendingGrant{Grant: g, expires: now.Add(stateTTL)}

	for s, p := range f.pending {
		if p.expires.Before(now) {
			delete(f.pending, s)
		}
	}

	return state, nil
}

func (f *Flow) takeState(state string) (Grant, bool) {
	if state == "" {
		return Grant{}, false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	p, exists := f.pending[state]
	if !exists {
		return Grant{}, false
	}

	delete(f.pending, state)

	return p.Grant, !time.Now().After(p.expires)
}
