package backend

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-provider/internal/provider"
)

// GetAppDataSlot hands out the staged authorization request once.
func (b *Backend) GetAppDataSlot(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ provider.Empty,
) (*mcp.CallToolResult, provider.PendingAuthorization, error) {
	p, ok := b.take()
	if !ok {
		return nil, provider.PendingAuthorization{}, ErrNoPendingAction
	}

	return nil, p, nil
}

// ActivateComponent focuses the context that requested an authorization.
func (b *Backend) ActivateComponent(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input provider.ActivateComponentRequest,
) (*mcp.CallToolResult, provider.Ack, error) {
	b.opts.OnActivate(input.CorrelationID)

	return nil, provider.Ack{OK: true}, nil
}
