package backend

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-provider/internal/auth"
	"github.com/hal9000y/gmail-provider/internal/provider"
)

// AuthorizeGmail starts the authorization flow of a confirmed request by
// opening the consent screen. The token is stored once the OAuth callback
// completes.
func (b *Backend) AuthorizeGmail(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input provider.AuthorizeRequest,
) (*mcp.CallToolResult, provider.AuthorizeResponse, error) {
	if input.Provider != "" && input.Provider != provider.Gmail {
		return nil, provider.AuthorizeResponse{}, fmt.Errorf("unsupported provider %q", input.Provider)
	}

	scope, err := validateRequest(input.Email, input.Scope)
	if err != nil {
		return nil, provider.AuthorizeResponse{}, err
	}

	authURL, err := b.authz.AuthURL(auth.Grant{
		Email:         input.Email,
		Scope:         scope,
		CorrelationID: input.CorrelationID,
	})
	if err != nil {
		return nil, provider.AuthorizeResponse{}, fmt.Errorf("authz.AuthURL failed: %w", err)
	}

	b.opts.OpenURL(authURL)

	return nil, provider.AuthorizeResponse{OK: true, AuthURL: authURL}, nil
}

// RequestAuthorization stages an authorization request for confirmation in the
// provider settings. A newer request replaces a staged one.
func (b *Backend) RequestAuthorization(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input provider.RequestAuthorizationRequest,
) (*mcp.CallToolResult, provider.RequestAuthorizationResponse, error) {
	scope, err := validateRequest(input.Email, input.Scope)
	if err != nil {
		return nil, provider.RequestAuthorizationResponse{}, err
	}

	id := b.opts.NewID()
	b.stage(provider.PendingAuthorization{Email: input.Email, Scope: scope, CorrelationID: id})
	log.Printf("Authorization of %s staged as %s, confirm at %s", input.Email, id, provider.AuthRoute)

	return nil, provider.RequestAuthorizationResponse{CorrelationID: id, Route: provider.AuthRoute}, nil
}

func validateRequest(email string, scope provider.Scope) (provider.Scope, error) {
	if strings.TrimSpace(email) == "" {
		return "", errors.New("email must be provided")
	}

	s, err := provider.ParseScope(string(scope))
	if err != nil {
		return "", fmt.Errorf("provider.ParseScope failed: %w", err)
	}

	return s, nil
}
