// Package gservice wraps the Google APIs the backend calls after consent.
package gservice

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/hal9000y/gmail-provider/internal/provider"
)

const gmailUserID = "me"

// Profile looks up the address of the account a token belongs to.
type Profile struct {
	opts []option.ClientOption
}

// NewProfile creates a Profile. opts are appended to the client options of every
// service, e.g. option.WithEndpoint in tests.
func NewProfile(opts ...option.ClientOption) *Profile {
	return &Profile{opts: opts}
}

// EmailAddress returns the account address of tok. Read grants ask the Gmail
// profile; send grants cannot read it and use the userinfo endpoint instead.
func (p *Profile) EmailAddress(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token, scope provider.Scope) (string, error) {
	clt := cfg.Client(ctx, tok)

	if scope == provider.ScopeRead {
		return p.gmailAddress(ctx, clt)
	}

	return p.userinfoAddress(ctx, clt)
}

func (p *Profile) gmailAddress(ctx context.Context, clt *http.Client) (string, error) {
	svc, err := gmail.NewService(ctx, p.clientOptions(clt)...)
	if err != nil {
		return "", fmt.Errorf("gmail.NewService failed: %w", err)
	}

	profile, err := svc.Users.GetProfile(gmailUserID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("users.GetProfile failed: %w", err)
	}

	return profile.EmailAddress, nil
}

func (p *Profile) userinfoAddress(ctx context.Context, clt *http.Client) (string, error) {
	svc, err := oauth2api.NewService(ctx, p.clientOptions(clt)...)
	if err != nil {
		return "", fmt.Errorf("oauth2api.NewService failed: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("userinfo.Get failed: %w", err)
	}

	return info.Email, nil
}

func (p *Profile) clientOptions(clt *http.Client) []option.ClientOption {
	return append([]option.ClientOption{option.WithHTTPClient(clt)}, p.opts...)
}
