package settings

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/hal9000y/gmail-provider/internal/provider"
)

// AuthorizationStore reads and changes the authorizations granted per provider.
// Every change is followed by a full reload from the backend.
type AuthorizationStore struct {
	ch Channel
}

// NewAuthorizationStore creates an AuthorizationStore backed by ch.
func NewAuthorizationStore(ch Channel) *AuthorizationStore {
	return &AuthorizationStore{ch: ch}
}

// Load returns the authorizations of providerKey ordered by email. A provider
// without tokens yields an empty, non-nil slice.
func (s *AuthorizationStore) Load(ctx context.Context, providerKey string) ([]provider.AuthorizationRecord, error) {
	var resp provider.GetOAuthTokensResponse
	err := s.ch.Send(ctx, provider.OpGetOAuthTokens, provider.GetOAuthTokensRequest{Provider: providerKey}, &resp)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", provider.OpGetOAuthTokens, err)
	}

	records := make([]provider.AuthorizationRecord, 0, len(resp.Tokens))
	for email, meta := range resp.Tokens {
		records = append(records, provider.AuthorizationRecord{Email: email, TokenMetadata: meta})
	}
	slices.SortFunc(records, func(a, b provider.AuthorizationRecord) int {
		return strings.Compare(a.Email, b.Email)
	})

	return records, nil
}

// Revoke removes the authorization of email and returns the reloaded collection.
func (s *AuthorizationStore) Revoke(ctx context.Context, providerKey, email string) ([]provider.AuthorizationRecord, error) {
	req := provider.RemoveOAuthTokenRequest{Provider: providerKey, Email: email}
	if err := s.ch.Send(ctx, provider.OpRemoveOAuthToken, req, nil); err != nil {
		return nil, fmt.Errorf("%s failed: %w", provider.OpRemoveOAuthToken, err)
	}

	return s.Load(ctx, providerKey)
}

// Grant asks the backend to start the authorization flow for pending and returns
// the reloaded collection once the request was acknowledged.
func (s *AuthorizationStore) Grant(ctx context.Context, providerKey string, pending provider.PendingAuthorization) ([]provider.AuthorizationRecord, error) {
	req := provider.AuthorizeRequest{
		Provider:      providerKey,
		Email:         pending.Email,
		Scope:         pending.Scope,
		CorrelationID: pending.CorrelationID,
	}

	var resp provider.AuthorizeResponse
	if err := s.ch.Send(ctx, provider.OpAuthorizeGmail, req, &resp); err != nil {
		return nil, fmt.Errorf("%s failed: %w", provider.OpAuthorizeGmail, err)
	}
	if resp.AuthURL != "" {
		log.Printf("Authorization of %s started: %s", pending.Email, resp.AuthURL)
	}

	return s.Load(ctx, providerKey)
}
