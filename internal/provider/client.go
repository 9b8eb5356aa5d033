package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// exchangeTimeout bounds each call to the token endpoint.
const exchangeTimeout = 15 * time.Second

// Client talks to the provider's token endpoint with form-encoded POSTs
// authenticated by HTTP Basic client credentials.
type Client struct {
	http *http.Client
}

// NewClient creates a provider client with the default exchange timeout.
func NewClient() *Client {
	return &Client{
		http: &http.Client{Timeout: exchangeTimeout},
	}
}

// ExchangeCode exchanges an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, ep Endpoint, code, redirectURI string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}
	return c.post(ctx, ep, data)
}

// RefreshToken obtains a new access token from a refresh token.
func (c *Client) RefreshToken(ctx context.Context, ep Endpoint, refreshToken, redirectURI string) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"redirect_uri":  {redirectURI},
	}
	return c.post(ctx, ep, data)
}

// post sends the token request and applies the single success rule:
// HTTP 200 with a non-empty access_token. Anything else is an *Error
// carrying the provider's error_description when present.
func (c *Client) post(ctx context.Context, ep Endpoint, data url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(ep.ClientID, ep.ClientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Status: resp.StatusCode, Detail: errorDetail(body)}
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, &Error{Status: resp.StatusCode, Detail: errorDetail(body)}
	}

	return &token, nil
}

// errorDetail extracts the provider's error_description, if any.
func errorDetail(body []byte) string {
	var errResp struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return ""
	}
	return errResp.ErrorDescription
}
