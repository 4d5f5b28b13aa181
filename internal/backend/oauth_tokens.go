package backend

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-provider/internal/provider"
	"github.com/hal9000y/gmail-provider/internal/store"
)

// GetOAuthTokens returns token metadata keyed by email. A provider without
// tokens yields a response without the tokens field.
func (b *Backend) GetOAuthTokens(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input provider.GetOAuthTokensRequest,
) (*mcp.CallToolResult, provider.GetOAuthTokensResponse, error) {
	tokens, err := b.store.Tokens(ctx, input.Provider)
	if err != nil {
		return nil, provider.GetOAuthTokensResponse{}, fmt.Errorf("store.Tokens failed: %w", err)
	}

	if len(tokens) == 0 {
		return nil, provider.GetOAuthTokensResponse{}, nil
	}

	resp := provider.GetOAuthTokensResponse{Tokens: make(map[string]provider.TokenMetadata, len(tokens))}
	for email, tok := range tokens {
		resp.Tokens[email] = tok.Metadata()
	}

	return nil, resp, nil
}

// RemoveOAuthToken forgets the token of an email address. Removing a token
// that is already gone succeeds.
func (b *Backend) RemoveOAuthToken(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input provider.RemoveOAuthTokenRequest,
) (*mcp.CallToolResult, provider.Ack, error) {
	err := b.store.DeleteToken(ctx, input.Provider, input.Email)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("No %s authorization for %s to remove", input.Provider, input.Email)
		return nil, provider.Ack{OK: true}, nil
	}
	if err != nil {
		return nil, provider.Ack{}, fmt.Errorf("store.DeleteToken failed: %w", err)
	}

	return nil, provider.Ack{OK: true}, nil
}
