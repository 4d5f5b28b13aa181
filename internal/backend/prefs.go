package backend

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-provider/internal/provider"
)

// GetPrefs returns the provider preferences.
func (b *Backend) GetPrefs(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ provider.Empty,
) (*mcp.CallToolResult, provider.GetPrefsResponse, error) {
	prefs, err := b.store.Preferences(ctx)
	if err != nil {
		return nil, provider.GetPrefsResponse{}, fmt.Errorf("store.Preferences failed: %w", err)
	}

	return nil, provider.GetPrefsResponse{Provider: prefs}, nil
}

// SetPrefs applies a preference patch.
func (b *Backend) SetPrefs(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input provider.SetPrefsRequest,
) (*mcp.CallToolResult, provider.Ack, error) {
	if err := b.store.UpdatePreferences(ctx, input.Prefs.Provider); err != nil {
		return nil, provider.Ack{}, fmt.Errorf("store.UpdatePreferences failed: %w", err)
	}

	return nil, provider.Ack{OK: true}, nil
}
