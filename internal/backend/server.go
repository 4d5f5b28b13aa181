package backend

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/gmail-provider/internal/provider"
)

// NewServer creates an MCP server exposing the backend operations as tools.
func NewServer(b *Backend) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "gmail-provider-backend", Version: "v1.0.0"}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        provider.OpGetPrefs,
		Description: "Get provider preferences",
	}, b.GetPrefs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        provider.OpSetPrefs,
		Description: "Update provider preferences; only the fields present are changed",
	}, b.SetPrefs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        provider.OpGetWatchList,
		Description: "Get the watch list of scanned sites and frames",
	}, b.GetWatchList)

	mcp.AddTool(server, &mcp.Tool{
		Name:        provider.OpGetOAuthTokens,
		Description: "Get metadata of the OAuth tokens granted for a provider, keyed by email",
	}, b.GetOAuthTokens)

	mcp.AddTool(server, &mcp.Tool{
		Name:        provider.OpRemoveOAuthToken,
		Description: "Remove the OAuth token of an email address",
	}, b.RemoveOAuthToken)

	mcp.AddTool(server, &mcp.Tool{
		Name:        provider.OpAuthorizeGmail,
		Description: "Start the Google authorization flow for an email address and scope",
	}, b.AuthorizeGmail)

	mcp.AddTool(server, &mcp.Tool{
		Name:        provider.OpRequestAuthorization,
		Description: "Stage an authorization request to be confirmed in the provider settings",
	}, b.RequestAuthorization)

	mcp.AddTool(server, &mcp.Tool{
		Name:        provider.OpGetAppDataSlot,
		Description: "Take the staged authorization request",
	}, b.GetAppDataSlot)

	mcp.AddTool(server, &mcp.Tool{
		Name:        provider.OpActivateComponent,
		Description: "Focus the context that requested an authorization",
	}, b.ActivateComponent)

	return server
}
