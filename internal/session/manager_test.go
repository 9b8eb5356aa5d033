package session

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/qvintus/oauth2-session-agent/internal/pending"
	"github.com/qvintus/oauth2-session-agent/internal/provider"
	"github.com/qvintus/oauth2-session-agent/internal/tokenstore"
)

// mockTokenStore implements tokenstore.Store in memory for testing.
type mockTokenStore struct {
	rec     *tokenstore.Record
	loadErr error
	saveErr error
	saves   int
	deletes int
}

func (m *mockTokenStore) Load(ctx context.Context) (*tokenstore.Record, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.rec, nil
}

func (m *mockTokenStore) Save(ctx context.Context, rec *tokenstore.Record) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	rec.Stamp(time.Now())
	m.rec = rec
	m.saves++
	return nil
}

func (m *mockTokenStore) Delete(ctx context.Context) error {
	m.rec = nil
	m.deletes++
	return nil
}

func (m *mockTokenStore) CheckHealth(ctx context.Context) error { return nil }

// mockBridge implements pending.Store in memory for testing.
type mockBridge struct {
	rec *pending.Record
}

func (m *mockBridge) Stash(ctx context.Context, rec *pending.Record) error {
	rec.CreatedAt = time.Now()
	m.rec = rec
	return nil
}

func (m *mockBridge) Take(ctx context.Context) (*pending.Record, error) {
	return m.rec, nil
}

func (m *mockBridge) CheckHealth(ctx context.Context) error { return nil }

// mockProvider implements provider.Exchanger with function fields.
type mockProvider struct {
	exchangeCode func(ctx context.Context, ep provider.Endpoint, code, redirectURI string) (*provider.TokenResponse, error)
	refreshToken func(ctx context.Context, ep provider.Endpoint, refreshToken, redirectURI string) (*provider.TokenResponse, error)
	exchanges    int
	refreshes    int
}

func (m *mockProvider) ExchangeCode(ctx context.Context, ep provider.Endpoint, code, redirectURI string) (*provider.TokenResponse, error) {
	m.exchanges++
	if m.exchangeCode != nil {
		return m.exchangeCode(ctx, ep, code, redirectURI)
	}
	return nil, errors.New("unexpected exchange")
}

func (m *mockProvider) RefreshToken(ctx context.Context, ep provider.Endpoint, refreshToken, redirectURI string) (*provider.TokenResponse, error) {
	m.refreshes++
	if m.refreshToken != nil {
		return m.refreshToken(ctx, ep, refreshToken, redirectURI)
	}
	return nil, errors.New("unexpected refresh")
}

var testStatic = Credentials{
	RedirectURI:       "http://localhost:8080/auth?action=callback",
	AuthorizeEndpoint: "https://provider.example/oauth/authorize",
	TokenEndpoint:     "https://provider.example/oauth/token",
}

func newTestManager(tokens *mockTokenStore, bridge *mockBridge, prov *mockProvider) *Manager {
	return NewManager(testStatic, tokens, bridge, prov, WithTokenStorePath("data/token.json"))
}

func TestBeginLogin(t *testing.T) {
	tokens := &mockTokenStore{}
	bridge := &mockBridge{}
	m := newTestManager(tokens, bridge, &mockProvider{})

	creds := m.Resolve("abc", "xyz")
	authURL, err := m.BeginLogin(context.Background(), creds)
	if err != nil {
		t.Fatalf("BeginLogin() error = %v", err)
	}

	if bridge.rec == nil {
		t.Fatal("pending record not stashed")
	}
	wantPending := &pending.Record{
		ClientID:       "abc",
		ClientSecret:   "xyz",
		RedirectURI:    testStatic.RedirectURI,
		TokenEndpoint:  testStatic.TokenEndpoint,
		TokenStorePath: "data/token.json",
		CreatedAt:      bridge.rec.CreatedAt,
	}
	if diff := cmp.Diff(wantPending, bridge.rec); diff != "" {
		t.Errorf("pending record mismatch (-want +got):\n%s", diff)
	}
	if bridge.rec.CreatedAt.IsZero() {
		t.Error("pending record CreatedAt not stamped")
	}

	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("parsing authorize URL: %v", err)
	}
	if !strings.HasPrefix(authURL, testStatic.AuthorizeEndpoint+"?") {
		t.Errorf("authorize URL = %q, want prefix %q", authURL, testStatic.AuthorizeEndpoint)
	}
	q := u.Query()
	for param, want := range map[string]string{
		"client_id":     "abc",
		"redirect_uri":  testStatic.RedirectURI,
		"response_type": "code",
		"language":      "en-us",
	} {
		if got := q.Get(param); got != want {
			t.Errorf("authorize URL %s = %q, want %q", param, got, want)
		}
	}
}

func TestBeginLoginNotConfigured(t *testing.T) {
	tests := []struct {
		name         string
		clientID     string
		clientSecret string
	}{
		{name: "no credentials"},
		{name: "placeholder client id", clientID: PlaceholderClientID, clientSecret: "xyz"},
		{name: "missing secret", clientID: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := &mockBridge{}
			m := newTestManager(&mockTokenStore{}, bridge, &mockProvider{})

			creds := m.Resolve(tt.clientID, tt.clientSecret)
			if _, err := m.BeginLogin(context.Background(), creds); !errors.Is(err, ErrNotConfigured) {
				t.Errorf("BeginLogin() error = %v, want ErrNotConfigured", err)
			}
			if bridge.rec != nil {
				t.Error("pending record stashed despite missing configuration")
			}
		})
	}
}

func TestCompleteLogin(t *testing.T) {
	tokens := &mockTokenStore{}
	bridge := &mockBridge{rec: &pending.Record{
		ClientID:      "abc",
		ClientSecret:  "xyz",
		RedirectURI:   testStatic.RedirectURI,
		TokenEndpoint: testStatic.TokenEndpoint,
	}}
	prov := &mockProvider{
		exchangeCode: func(ctx context.Context, ep provider.Endpoint, code, redirectURI string) (*provider.TokenResponse, error) {
			if ep.ClientID != "abc" || ep.ClientSecret != "xyz" {
				t.Errorf("exchange credentials = %s:%s, want abc:xyz", ep.ClientID, ep.ClientSecret)
			}
			if code != "CODE1" {
				t.Errorf("code = %q, want CODE1", code)
			}
			if redirectURI != testStatic.RedirectURI {
				t.Errorf("redirect_uri = %q, want %q", redirectURI, testStatic.RedirectURI)
			}
			return &provider.TokenResponse{
				AccessToken:  "AT1",
				RefreshToken: "RT1",
				ExpiresIn:    3600,
			}, nil
		},
	}
	m := newTestManager(tokens, bridge, prov)

	if err := m.CompleteLogin(context.Background(), "CODE1"); err != nil {
		t.Fatalf("CompleteLogin() error = %v", err)
	}

	if tokens.rec == nil {
		t.Fatal("token record not saved")
	}
	if tokens.rec.AccessToken != "AT1" || tokens.rec.RefreshToken != "RT1" {
		t.Errorf("saved record = %+v, want AT1/RT1", tokens.rec)
	}
	if want := tokens.rec.SavedAt.Add(3600 * time.Second); !tokens.rec.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want saved_at+3600s = %v", tokens.rec.ExpiresAt, want)
	}

	st := m.Status(context.Background(), m.Resolve("abc", ""))
	want := Status{Configured: true, Authenticated: true, TokenPresent: true, HasRefresh: true}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("Status after login (-want +got):\n%s", diff)
	}
}

func TestCompleteLoginExchangeFails(t *testing.T) {
	tokens := &mockTokenStore{}
	bridge := &mockBridge{rec: &pending.Record{ClientID: "abc", ClientSecret: "xyz"}}
	prov := &mockProvider{
		exchangeCode: func(ctx context.Context, ep provider.Endpoint, code, redirectURI string) (*provider.TokenResponse, error) {
			return nil, &provider.Error{Status: 400, Detail: "code expired"}
		},
	}
	m := newTestManager(tokens, bridge, prov)

	err := m.CompleteLogin(context.Background(), "STALE")
	if !errors.Is(err, ErrExchangeFailed) {
		t.Fatalf("CompleteLogin() error = %v, want ErrExchangeFailed", err)
	}
	if !strings.Contains(err.Error(), "code expired") {
		t.Errorf("error = %q, want provider detail included", err)
	}
	if tokens.rec != nil {
		t.Error("token record saved despite failed exchange")
	}
}

func TestCompleteLoginWithoutPendingFallsBackToStatic(t *testing.T) {
	static := testStatic
	static.ClientID = "static-id"
	static.ClientSecret = "static-secret"

	tokens := &mockTokenStore{}
	prov := &mockProvider{
		exchangeCode: func(ctx context.Context, ep provider.Endpoint, code, redirectURI string) (*provider.TokenResponse, error) {
			if ep.ClientID != "static-id" {
				t.Errorf("exchange client id = %q, want static-id", ep.ClientID)
			}
			return &provider.TokenResponse{AccessToken: "AT1"}, nil
		},
	}
	m := NewManager(static, tokens, &mockBridge{}, prov)

	if err := m.CompleteLogin(context.Background(), "CODE1"); err != nil {
		t.Fatalf("CompleteLogin() error = %v", err)
	}
}

func TestRefreshWithoutToken(t *testing.T) {
	tests := []struct {
		name string
		rec  *tokenstore.Record
	}{
		{name: "no record"},
		{name: "record without refresh token", rec: &tokenstore.Record{AccessToken: "AT1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prov := &mockProvider{}
			m := newTestManager(&mockTokenStore{rec: tt.rec}, &mockBridge{}, prov)

			err := m.Refresh(context.Background(), m.Resolve("abc", "xyz"))
			if !errors.Is(err, ErrNoRefreshToken) {
				t.Errorf("Refresh() error = %v, want ErrNoRefreshToken", err)
			}
			if prov.refreshes != 0 {
				t.Errorf("provider called %d times, want 0", prov.refreshes)
			}
		})
	}
}

func TestRefreshProviderFailure(t *testing.T) {
	old := &tokenstore.Record{AccessToken: "AT1", RefreshToken: "RT1"}
	tokens := &mockTokenStore{rec: old}
	prov := &mockProvider{
		refreshToken: func(ctx context.Context, ep provider.Endpoint, refreshToken, redirectURI string) (*provider.TokenResponse, error) {
			return nil, &provider.Error{Status: 401}
		},
	}
	m := newTestManager(tokens, &mockBridge{}, prov)

	err := m.Refresh(context.Background(), m.Resolve("abc", "xyz"))
	if !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("Refresh() error = %v, want ErrRefreshFailed", err)
	}
	// A failed refresh must not clear the old token.
	if tokens.rec != old {
		t.Error("token record changed by failed refresh")
	}
}

func TestRefreshSuccess(t *testing.T) {
	tokens := &mockTokenStore{rec: &tokenstore.Record{AccessToken: "AT1", RefreshToken: "RT1"}}
	prov := &mockProvider{
		refreshToken: func(ctx context.Context, ep provider.Endpoint, refreshToken, redirectURI string) (*provider.TokenResponse, error) {
			if refreshToken != "RT1" {
				t.Errorf("refresh token = %q, want RT1", refreshToken)
			}
			return &provider.TokenResponse{AccessToken: "AT2", RefreshToken: "RT2", ExpiresIn: 3600}, nil
		},
	}
	m := newTestManager(tokens, &mockBridge{}, prov)

	if err := m.Refresh(context.Background(), m.Resolve("abc", "xyz")); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if tokens.rec.AccessToken != "AT2" || tokens.rec.RefreshToken != "RT2" {
		t.Errorf("record after refresh = %+v, want AT2/RT2", tokens.rec)
	}
	if tokens.rec.ExpiresAt.IsZero() {
		t.Error("refreshed record missing fresh expiry")
	}
}

func TestStatus(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		clientID string
		rec      *tokenstore.Record
		loadErr  error
		want     Status
	}{
		{
			name: "no record, unconfigured",
			want: Status{},
		},
		{
			name:     "no record, configured",
			clientID: "abc",
			want:     Status{Configured: true},
		},
		{
			name:     "valid record",
			clientID: "abc",
			rec: &tokenstore.Record{
				AccessToken:  "AT1",
				RefreshToken: "RT1",
				ExpiresAt:    now.Add(time.Hour),
			},
			want: Status{Configured: true, Authenticated: true, TokenPresent: true, HasRefresh: true},
		},
		{
			name:     "expired record",
			clientID: "abc",
			rec: &tokenstore.Record{
				AccessToken: "AT1",
				ExpiresAt:   now.Add(-time.Hour),
			},
			want: Status{Configured: true, TokenPresent: true, Expired: true},
		},
		{
			name:     "unreadable record is no session",
			clientID: "abc",
			loadErr:  errors.New("corrupt"),
			want:     Status{Configured: true},
		},
		{
			name:     "placeholder client id is unconfigured",
			clientID: PlaceholderClientID,
			want:     Status{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(&mockTokenStore{rec: tt.rec, loadErr: tt.loadErr}, &mockBridge{}, &mockProvider{})

			st := m.Status(context.Background(), m.Resolve(tt.clientID, ""))
			if diff := cmp.Diff(tt.want, st); diff != "" {
				t.Errorf("Status() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	tokens := &mockTokenStore{rec: &tokenstore.Record{AccessToken: "AT1"}}
	bridge := &mockBridge{rec: &pending.Record{ClientID: "abc"}}
	m := newTestManager(tokens, bridge, &mockProvider{})

	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if tokens.rec != nil {
		t.Error("token record still present after logout")
	}
	if bridge.rec == nil {
		t.Error("logout must not touch the pending credential record")
	}

	st := m.Status(context.Background(), m.Resolve("abc", ""))
	if st.Authenticated {
		t.Error("authenticated after logout")
	}

	// Logging out twice is fine.
	if err := m.Logout(context.Background()); err != nil {
		t.Fatalf("second Logout() error = %v", err)
	}
}
