// Package settings implements the Gmail provider settings: host verification
// against the watch list, the authorization collection and the controller that
// drives the settings view and its authorization dialog.
package settings

import "context"

// Channel is the request/response port to the privileged backend.
type Channel interface {
	// Send issues op with payload and decodes the response into out. A nil out
	// discards the response.
	Send(ctx context.Context, op string, payload, out any) error
	// Emit delivers a notification without waiting for a response payload.
	Emit(ctx context.Context, op string, payload any) error
}
