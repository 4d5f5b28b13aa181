package backend

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-provider/internal/provider"
)

// DefaultWatchList is stored on first start.
func DefaultWatchList() []provider.WatchListEntry {
	return []provider.WatchListEntry{
		{Site: "Gmail", Active: true, Frames: []provider.Frame{{Scan: true, Frame: provider.GmailMatchPattern}}},
		{Site: "Outlook.com", Active: true, Frames: []provider.Frame{
			{Scan: true, Frame: "*.outlook.live.com"},
			{Scan: true, Frame: "*.outlook.office.com"},
		}},
		{Site: "Yahoo", Active: true, Frames: []provider.Frame{{Scan: true, Frame: "*.mail.yahoo.com"}}},
		{Site: "GMX", Active: true, Frames: []provider.Frame{{Scan: true, Frame: "*.gmx.net"}}},
		{Site: "Posteo", Active: true, Frames: []provider.Frame{{Scan: true, Frame: "*.posteo.de"}}},
	}
}

// GetWatchList returns the watch list in stored order.
func (b *Backend) GetWatchList(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ provider.Empty,
) (*mcp.CallToolResult, provider.WatchListResponse, error) {
	entries, err := b.store.WatchList(ctx)
	if err != nil {
		return nil, provider.WatchListResponse{}, fmt.Errorf("store.WatchList failed: %w", err)
	}

	return nil, provider.WatchListResponse{Entries: entries}, nil
}
