package session

import "errors"

// Error kinds reported by session operations. Provider and storage
// failures are converted to one of these at the manager boundary; raw
// transport errors never escape it.
var (
	// ErrNotConfigured indicates no usable client credentials.
	ErrNotConfigured = errors.New("client credentials are not configured")

	// ErrProviderDenied indicates the provider redirected back with an
	// error or without an authorization code.
	ErrProviderDenied = errors.New("authorization denied by provider")

	// ErrExchangeFailed indicates the code-for-token exchange was
	// rejected or returned no access token.
	ErrExchangeFailed = errors.New("authorization code exchange failed")

	// ErrNoRefreshToken indicates there is no stored refresh token to
	// refresh with; the user has to log in again.
	ErrNoRefreshToken = errors.New("no refresh token available, please log in again")

	// ErrRefreshFailed indicates the refresh exchange was unsuccessful,
	// regardless of the underlying HTTP cause.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrStoreUnavailable indicates the session record could not be
	// read or written.
	ErrStoreUnavailable = errors.New("session storage unavailable")
)
