package session

// PlaceholderClientID is the sentinel shipped in example configuration.
// A client id equal to it counts as unconfigured.
const PlaceholderClientID = "YOUR_CLIENT_ID"

// Credentials is the configuration a single operation runs with,
// resolved once per request from request-supplied values over static
// defaults.
type Credentials struct {
	ClientID          string
	ClientSecret      string
	RedirectURI       string
	AuthorizeEndpoint string
	TokenEndpoint     string
}

// Override returns a copy with the request-supplied client id and
// secret applied where present. Request values win over static ones.
func (c Credentials) Override(clientID, clientSecret string) Credentials {
	if clientID != "" {
		c.ClientID = clientID
	}
	if clientSecret != "" {
		c.ClientSecret = clientSecret
	}
	return c
}

// Configured reports whether a real client id is present.
func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientID != PlaceholderClientID
}

// CanLogin reports whether a login can be initiated: both client id and
// secret are required for the later code exchange.
func (c Credentials) CanLogin() bool {
	return c.Configured() && c.ClientSecret != ""
}
