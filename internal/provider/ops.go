package provider

// Backend operation names. Each is exposed as one tool of the backend server.
const (
	OpGetPrefs             = "get-prefs"
	OpSetPrefs             = "set-prefs"
	OpGetWatchList         = "getWatchList"
	OpGetOAuthTokens       = "get-oauth-tokens"
	OpRemoveOAuthToken     = "remove-oauth-token"
	OpAuthorizeGmail       = "authorize-gmail"
	OpGetAppDataSlot       = "get-app-data-slot"
	OpActivateComponent    = "activate-component"
	OpRequestAuthorization = "request-authorization"
)

// AuthRoute is the settings route that opens the pending authorization dialog.
const AuthRoute = "/settings/provider/auth"

// Empty is the payload of operations that take no arguments.
type Empty struct{}

// Ack acknowledges a write.
type Ack struct {
	OK bool `json:"ok" jsonschema:"true when the operation was applied"`
}

type GetPrefsResponse struct {
	Provider Preferences `json:"provider" jsonschema:"provider preferences"`
}

type PrefsUpdate struct {
	Provider PreferencesPatch `json:"provider" jsonschema:"provider preference patch"`
}

type SetPrefsRequest struct {
	Prefs PrefsUpdate `json:"prefs" jsonschema:"preference update"`
}

type WatchListResponse struct {
	Entries []WatchListEntry `json:"entries" jsonschema:"watch list entries in order"`
}

type GetOAuthTokensRequest struct {
	Provider string `json:"provider" jsonschema:"provider key, e.g. gmail"`
}

type GetOAuthTokensResponse struct {
	Tokens map[string]TokenMetadata `json:"tokens,omitempty" jsonschema:"token metadata keyed by email"`
}

type RemoveOAuthTokenRequest struct {
	Provider string `json:"provider" jsonschema:"provider key, e.g. gmail"`
	Email    string `json:"email" jsonschema:"email address of the authorization"`
}

type AuthorizeResponse struct {
	OK      bool   `json:"ok" jsonschema:"true when the authorization flow was started"`
	AuthURL string `json:"auth_url" jsonschema:"consent screen URL"`
}

type ActivateComponentRequest struct {
	CorrelationID string `json:"correlation_id" jsonschema:"id of the context to focus"`
}

type RequestAuthorizationRequest struct {
	Email string `json:"email" jsonschema:"email address to authorize"`
	Scope Scope  `json:"scope" jsonschema:"requested OAuth scope"`
}

type RequestAuthorizationResponse struct {
	CorrelationID string `json:"correlation_id" jsonschema:"id assigned to the request"`
	Route         string `json:"route" jsonschema:"settings route that shows the dialog"`
}

type AuthorizeRequest struct {
	Provider      string `json:"provider,omitempty" jsonschema:"provider key, defaults to gmail"`
	Email         string `json:"email" jsonschema:"email address to authorize"`
	Scope         Scope  `json:"scope" jsonschema:"requested OAuth scope"`
	CorrelationID string `json:"correlation_id" jsonschema:"id of the requesting context"`
}
