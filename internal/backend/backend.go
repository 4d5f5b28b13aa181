// Package backend is the privileged side of the settings channel. It owns
// preferences, the watch list, OAuth tokens and the pending authorization slot,
// and exposes every operation as an MCP tool.
package backend

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/hal9000y/gmail-provider/internal/auth"
	"github.com/hal9000y/gmail-provider/internal/provider"
	"github.com/hal9000y/gmail-provider/internal/store"
)

// ErrNoPendingAction is returned when the pending authorization slot is empty.
var ErrNoPendingAction = errors.New("no pending authorization")

type dataStore interface {
	Preferences(ctx context.Context) (provider.Preferences, error)
	UpdatePreferences(ctx context.Context, patch provider.PreferencesPatch) error
	WatchList(ctx context.Context) ([]provider.WatchListEntry, error)
	Tokens(ctx context.Context, providerKey string) (map[string]store.Token, error)
	DeleteToken(ctx context.Context, providerKey, email string) error
}

type authorizer interface {
	AuthURL(g auth.Grant) (string, error)
}

// Options configures a Backend.
type Options struct {
	// OpenURL shows the consent screen. Defaults to logging the URL.
	OpenURL func(url string)
	// OnActivate focuses the context identified by a correlation id. Defaults to logging.
	OnActivate func(correlationID string)
	// NewID generates correlation ids. Defaults to random UUIDs.
	NewID func() string
}

// Backend implements the backend operations.
type Backend struct {
	store dataStore
	authz authorizer
	opts  Options

	mu   sync.Mutex
	slot *provider.PendingAuthorization
}

// New creates a Backend.
func New(st dataStore, authz authorizer, opts Options) *Backend {
	if opts.OpenURL == nil {
		opts.OpenURL = func(url string) {
			log.Println("Open the following URL to grant access:", url)
		}
	}
	if opts.OnActivate == nil {
		opts.OnActivate = func(correlationID string) {
			log.Println("Activate component", correlationID)
		}
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	return &Backend{store: st, authz: authz, opts: opts}
}

// Granted is called once the OAuth callback stored a token for g.
func (b *Backend) Granted(g auth.Grant) {
	log.Printf("Authorization for %s granted (%s)", g.Email, g.Scope)
	if g.CorrelationID != "" {
		b.opts.OnActivate(g.CorrelationID)
	}
}

func (b *Backend) stage(p provider.PendingAuthorization) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.slot = &p
}

func (b *Backend) take() (provider.PendingAuthorization, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.slot == nil {
		return provider.PendingAuthorization{}, false
	}
	p := *b.slot
	b.slot = nil

	return p, true
}
