// Package provider performs the token-bearing exchanges against the
// OAuth2 provider's token endpoint.
package provider

import (
	"context"
	"fmt"
)

// Endpoint identifies the provider's token endpoint together with the
// client credentials used to authenticate against it.
type Endpoint struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
}

// TokenResponse is the provider's successful token payload, returned by
// both the code exchange and the refresh exchange.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// Error is a failed exchange: a non-200 status, or a 200 without an
// access token. Detail carries the provider's error_description when
// one was sent.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// Exchanger is the provider surface the session manager depends on.
type Exchanger interface {
	// ExchangeCode exchanges an authorization code for tokens. The
	// redirect URI must exactly match the one sent on the authorize
	// redirect; the provider rejects the exchange otherwise.
	ExchangeCode(ctx context.Context, ep Endpoint, code, redirectURI string) (*TokenResponse, error)

	// RefreshToken obtains a new access token from a refresh token.
	RefreshToken(ctx context.Context, ep Endpoint, refreshToken, redirectURI string) (*TokenResponse, error)
}
