// Package session manages the OAuth2 authorization-code session
// lifecycle: initiating a login, completing the callback exchange,
// refreshing and tearing down the persisted token set.
package session

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/qvintus/oauth2-session-agent/internal/pending"
	"github.com/qvintus/oauth2-session-agent/internal/provider"
	"github.com/qvintus/oauth2-session-agent/internal/tokenstore"
)

// Manager orchestrates the session state machine. It holds no session
// state itself; every operation reconstructs the current state from the
// stores.
type Manager struct {
	static         Credentials
	tokens         tokenstore.Store
	pending        pending.Store
	provider       provider.Exchanger
	tokenStorePath string
}

// Option configures the manager.
type Option func(*Manager)

// WithTokenStorePath records the token store location into each pending
// credential record, so the persisted state is self-describing.
func WithTokenStorePath(path string) Option {
	return func(m *Manager) {
		m.tokenStorePath = path
	}
}

// NewManager creates a session manager over the given stores and
// provider client. static supplies the defaults that request parameters
// may override per operation.
func NewManager(static Credentials, tokens tokenstore.Store, bridge pending.Store, client provider.Exchanger, opts ...Option) *Manager {
	m := &Manager{
		static:   static,
		tokens:   tokens,
		pending:  bridge,
		provider: client,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Resolve merges request-supplied credentials over the static defaults.
func (m *Manager) Resolve(clientID, clientSecret string) Credentials {
	return m.static.Override(clientID, clientSecret)
}

// BeginLogin initiates a login: it stashes the resolved credentials for
// the callback request and returns the provider authorize URL to
// redirect the user to. Without usable credentials it fails with
// ErrNotConfigured rather than redirecting with an empty client id.
func (m *Manager) BeginLogin(ctx context.Context, creds Credentials) (string, error) {
	if !creds.CanLogin() {
		return "", ErrNotConfigured
	}

	rec := &pending.Record{
		ClientID:       creds.ClientID,
		ClientSecret:   creds.ClientSecret,
		RedirectURI:    creds.RedirectURI,
		TokenEndpoint:  creds.TokenEndpoint,
		TokenStorePath: m.tokenStorePath,
	}
	if err := m.pending.Stash(ctx, rec); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	conf := &oauth2.Config{
		ClientID:    creds.ClientID,
		RedirectURL: creds.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL: creds.AuthorizeEndpoint,
		},
	}
	return conf.AuthCodeURL("", oauth2.SetAuthURLParam("language", "en-us")), nil
}

// CompleteLogin finishes the login started by BeginLogin: it exchanges
// the authorization code using the stashed credentials and persists the
// resulting token record. A stale or reused code surfaces as a normal
// ErrExchangeFailed with the provider's detail.
func (m *Manager) CompleteLogin(ctx context.Context, code string) error {
	creds, err := m.callbackCredentials(ctx)
	if err != nil {
		return err
	}
	if !creds.Configured() {
		return ErrNotConfigured
	}

	ep := provider.Endpoint{
		TokenURL:     creds.TokenEndpoint,
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
	}
	token, err := m.provider.ExchangeCode(ctx, ep, code, creds.RedirectURI)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	if err := m.saveToken(ctx, token); err != nil {
		return err
	}
	return nil
}

// Refresh obtains a new access token from the stored refresh token and
// overwrites the token record through the same save path as the
// callback. A missing record or refresh token is ErrNoRefreshToken; any
// provider failure is reported uniformly as ErrRefreshFailed and leaves
// the stored record untouched.
func (m *Manager) Refresh(ctx context.Context, creds Credentials) error {
	rec, err := m.tokens.Load(ctx)
	if err != nil {
		// An unreadable record cannot be trusted; the caller has to
		// log in again.
		return ErrNoRefreshToken
	}
	if rec == nil || rec.RefreshToken == "" {
		return ErrNoRefreshToken
	}

	ep := provider.Endpoint{
		TokenURL:     creds.TokenEndpoint,
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
	}
	token, err := m.provider.RefreshToken(ctx, ep, rec.RefreshToken, creds.RedirectURI)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	return m.saveToken(ctx, token)
}

// Status is the derived session state. It is computed on demand from
// the token record and never stored.
type Status struct {
	Configured    bool
	Authenticated bool
	TokenPresent  bool
	Expired       bool
	HasRefresh    bool
}

// Status reports the current session state without contacting the
// provider. An unreadable token record counts as no valid session.
func (m *Manager) Status(ctx context.Context, creds Credentials) Status {
	st := Status{Configured: creds.Configured()}

	rec, err := m.tokens.Load(ctx)
	if err != nil || rec == nil {
		return st
	}

	now := time.Now()
	st.TokenPresent = true
	st.Authenticated = rec.Valid(now)
	st.Expired = rec.Expired(now)
	st.HasRefresh = rec.RefreshToken != ""
	return st
}

// Logout deletes the token record. Deleting an absent record succeeds;
// the pending credential record is left alone.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.tokens.Delete(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// callbackCredentials resolves the configuration for the callback
// request: the pending record stashed at login initiation, overlaid on
// the static defaults.
func (m *Manager) callbackCredentials(ctx context.Context) (Credentials, error) {
	creds := m.static

	rec, err := m.pending.Take(ctx)
	if err != nil {
		return creds, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if rec == nil {
		return creds, nil
	}

	if rec.ClientID != "" {
		creds.ClientID = rec.ClientID
	}
	if rec.ClientSecret != "" {
		creds.ClientSecret = rec.ClientSecret
	}
	if rec.RedirectURI != "" {
		creds.RedirectURI = rec.RedirectURI
	}
	if rec.TokenEndpoint != "" {
		creds.TokenEndpoint = rec.TokenEndpoint
	}
	return creds, nil
}

// saveToken persists a provider token response as the current record.
func (m *Manager) saveToken(ctx context.Context, token *provider.TokenResponse) error {
	rec := &tokenstore.Record{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		ExpiresIn:    token.ExpiresIn,
	}
	if err := m.tokens.Save(ctx, rec); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
