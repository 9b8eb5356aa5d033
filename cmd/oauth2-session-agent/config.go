package main

import (
	"time"

	"github.com/qvintus/oauth2-session-agent/internal/session"
)

// Config holds the static configuration loaded from environment
// variables. Request parameters may override the client credentials
// per operation.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	RedisURL string `envconfig:"REDIS_URL"` // optional; file stores are used when empty

	ClientID          string `envconfig:"OAUTH_CLIENT_ID"`
	ClientSecret      string `envconfig:"OAUTH_CLIENT_SECRET"`
	RedirectURI       string `envconfig:"OAUTH_REDIRECT_URI" default:"http://localhost:8080/auth?action=callback"`
	AuthorizeEndpoint string `envconfig:"OAUTH_AUTHORIZE_ENDPOINT" required:"true"`
	TokenEndpoint     string `envconfig:"OAUTH_TOKEN_ENDPOINT" required:"true"`

	TokenStorePath string `envconfig:"TOKEN_STORE_PATH" default:"data/token.json"`
	PendingPath    string `envconfig:"PENDING_CREDENTIALS_PATH" default:"data/pending.json"`

	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"5s"`
	ReadTimeout       time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout      time.Duration `envconfig:"WRITE_TIMEOUT" default:"30s"`
	IdleTimeout       time.Duration `envconfig:"IDLE_TIMEOUT" default:"120s"`
}

// staticCredentials returns the configuration-supplied defaults as the
// base credentials each request resolves against.
func (c Config) staticCredentials() session.Credentials {
	return session.Credentials{
		ClientID:          c.ClientID,
		ClientSecret:      c.ClientSecret,
		RedirectURI:       c.RedirectURI,
		AuthorizeEndpoint: c.AuthorizeEndpoint,
		TokenEndpoint:     c.TokenEndpoint,
	}
}
