// Package oidc wraps the authorization-code round-trip against the national
// identity provider. The provider is an opaque OIDC collaborator; this
// package only drives discovery, the code exchange, and claim retrieval.
package oidc

import (
	"context"
	"fmt"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// ScopeNationalID requests the claim carrying the national identifier.
const ScopeNationalID = "national_id"

// defaultExchangeTimeout bounds the token exchange and claims fetch. A
// timeout is reported identically to any other provider error; the broker
// never retries on its own.
const defaultExchangeTimeout = 10 * time.Second

// Identity is the subset of provider claims the broker consumes.
type Identity struct {
	NationalID string `json:"national_id"`
}

// Client drives the authorization-code flow against a discovered provider.
type Client struct {
	provider *gooidc.Provider
	verifier *gooidc.IDTokenVerifier
	o2cfg    oauth2.Config
	timeout  time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithTimeout overrides the provider call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Discover fetches provider metadata from the issuer and builds a client
// requesting the openid and national_id scopes.
func Discover(ctx context.Context, issuer, clientID, clientSecret, redirectURL string, opts ...Option) (*Client, error) {
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discover provider: %w", err)
	}

	c := &Client{
		provider: provider,
		verifier: provider.Verifier(&gooidc.Config{ClientID: clientID}),
		o2cfg: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  redirectURL,
			Scopes:       []string{gooidc.ScopeOpenID, ScopeNationalID},
		},
		timeout: defaultExchangeTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AuthCodeURL builds the URL the user is redirected to, binding the request
// to the attempt's state and nonce.
func (c *Client) AuthCodeURL(state, nonce string) string {
	return c.o2cfg.AuthCodeURL(state, gooidc.Nonce(nonce))
}

// Exchange swaps the authorization code for tokens, verifies the ID token,
// and extracts the national identifier claim. Falls back to the userinfo
// endpoint when the ID token does not carry the claim. The nonce observed in
// the verified ID token is returned so the caller can bind the exchange to
// its stored session context; this package never decides whether it matches.
func (c *Client) Exchange(ctx context.Context, code string) (Identity, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	token, err := c.o2cfg.Exchange(ctx, code)
	if err != nil {
		return Identity{}, "", fmt.Errorf("exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return Identity{}, "", fmt.Errorf("token response missing id_token")
	}

	idToken, err := c.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Identity{}, "", fmt.Errorf("verify id_token: %w", err)
	}

	var identity Identity
	if err := idToken.Claims(&identity); err != nil {
		return Identity{}, "", fmt.Errorf("decode id_token claims: %w", err)
	}
	if identity.NationalID != "" {
		return identity, idToken.Nonce, nil
	}

	// Some providers only expose national_id via userinfo.
	userInfo, err := c.provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return Identity{}, "", fmt.Errorf("fetch userinfo: %w", err)
	}
	if err := userInfo.Claims(&identity); err != nil {
		return Identity{}, "", fmt.Errorf("decode userinfo claims: %w", err)
	}
	return identity, idToken.Nonce, nil
}
