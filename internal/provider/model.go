// Package provider holds the wire model shared by the settings controller and the
// privileged backend: operation names, preferences, watch list and OAuth token shapes.
package provider

import (
	"fmt"

	"google.golang.org/api/gmail/v1"
)

// Gmail is the provider key used for token bookkeeping.
const Gmail = "gmail"

// GmailMatchPattern must be covered by the watch list before Gmail integration can be enabled.
const GmailMatchPattern = "*.mail.google.com"

// Scope is the permission class requested from the OAuth provider.
type Scope string

const (
	ScopeRead Scope = gmail.GmailReadonlyScope
	ScopeSend Scope = gmail.GmailSendScope
)

// ParseScope accepts the scope URL or the short names "read" and "send".
func ParseScope(s string) (Scope, error) {
	switch s {
	case string(ScopeRead), "read", "READ":
		return ScopeRead, nil
	case string(ScopeSend), "send", "SEND":
		return ScopeSend, nil
	default:
		return "", fmt.Errorf("unknown scope %q", s)
	}
}

// Description returns the human readable permission shown in the confirmation dialog.
func (s Scope) Description() string {
	switch s {
	case ScopeRead:
		return "Read emails"
	case ScopeSend:
		return "Send emails"
	default:
		return string(s)
	}
}

// Preferences are the provider settings owned by the backend.
type Preferences struct {
	GmailIntegration bool `json:"gmail_integration" jsonschema:"whether Gmail integration is enabled"`
}

// PreferencesPatch carries only the fields a caller wants to change.
type PreferencesPatch struct {
	GmailIntegration *bool `json:"gmail_integration,omitempty" jsonschema:"new Gmail integration flag"`
}

// Frame is a single match pattern of a watch list entry.
type Frame struct {
	Scan  bool   `json:"scan" jsonschema:"whether frames matching the pattern are scanned"`
	Frame string `json:"frame" jsonschema:"match pattern"`
}

// WatchListEntry groups the frames of one site.
type WatchListEntry struct {
	Site   string  `json:"site,omitempty" jsonschema:"display name of the site"`
	Active bool    `json:"active" jsonschema:"whether the entry is active"`
	Frames []Frame `json:"frames" jsonschema:"frames of the site"`
}

// TokenMetadata describes a granted authorization without exposing token secrets.
type TokenMetadata struct {
	Scopes    []string `json:"scopes" jsonschema:"granted OAuth scopes"`
	Expiry    string   `json:"expiry,omitempty" jsonschema:"access token expiry, RFC3339"`
	GrantedAt string   `json:"granted_at,omitempty" jsonschema:"time of the last grant, RFC3339"`
}

// AuthorizationRecord is one granted authorization keyed by email.
type AuthorizationRecord struct {
	Email string `json:"email"`
	TokenMetadata
}

// PendingAuthorization is an authorization requested by an external caller and
// waiting for confirmation.
type PendingAuthorization struct {
	Email         string `json:"email" jsonschema:"email address to authorize"`
	Scope         Scope  `json:"scope" jsonschema:"requested OAuth scope"`
	CorrelationID string `json:"correlation_id" jsonschema:"id of the requesting context"`
}
