// Package sso runs the authorization code flow against external identity
// providers and returns their verified id tokens.
package sso

import (
	"context"
	"errors"
	"fmt"

	"technowear/internal/domain"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Issuers of the supported providers.
const (
	GoogleIssuer = "https://accounts.google.com"
	AppleIssuer  = "https://appleid.apple.com"
)

// ProviderConfig holds the client registration of one provider.
type ProviderConfig struct {
	Name         domain.OAuthProviderName
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

type provider struct {
	oauth2   oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// Registry implements domain.OAuthProvider for the configured providers.
type Registry struct {
	providers map[domain.OAuthProviderName]*provider
}

var _ domain.OAuthProvider = (*Registry)(nil)

// ErrUnknownProvider is returned for a provider that is not configured.
var ErrUnknownProvider = errors.New("oauth provider not configured")

// New discovers every configured provider. Entries without a client id are
// skipped, so an empty registry is valid.
func New(ctx context.Context, configs []ProviderConfig) (*Registry, error) {
	r := &Registry{providers: make(map[domain.OAuthProviderName]*provider)}
	for _, c := range configs {
		if c.ClientID == "" {
			continue
		}
		p, err := oidc.NewProvider(ctx, c.Issuer)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", c.Name, err)
		}
		scopes := c.Scopes
		if len(scopes) == 0 {
			scopes = []string{oidc.ScopeOpenID, "email", "profile"}
		}
		r.providers[c.Name] = &provider{
			oauth2: oauth2.Config{
				ClientID:     c.ClientID,
				ClientSecret: c.ClientSecret,
				RedirectURL:  c.RedirectURL,
				Endpoint:     p.Endpoint(),
				Scopes:       scopes,
			},
			verifier: p.Verifier(&oidc.Config{ClientID: c.ClientID}),
		}
	}
	return r, nil
}

// Len returns the number of configured providers.
func (r *Registry) Len() int { return len(r.providers) }

// AuthCodeURL returns the provider consent URL carrying state.
func (r *Registry) AuthCodeURL(name domain.OAuthProviderName, state string) (string, error) {
	p, ok := r.providers[name]
	if !ok {
		return "", ErrUnknownProvider
	}
	return p.oauth2.AuthCodeURL(state), nil
}

// Exchange trades the code for tokens and returns the verified raw id token.
func (r *Registry) Exchange(ctx context.Context, name domain.OAuthProviderName, code string) (string, error) {
	p, ok := r.providers[name]
	if !ok {
		return "", ErrUnknownProvider
	}
	token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("exchange code: %w", err)
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return "", errors.New("no id_token in token response")
	}
	if _, err := p.verifier.Verify(ctx, rawIDToken); err != nil {
		return "", fmt.Errorf("verify id_token: %w", err)
	}
	return rawIDToken, nil
}
