// Package main implements the OAuth2 session agent: a local HTTP
// entrypoint that logs a user in against the provider, persists the
// token set and keeps it fresh across process restarts.
package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/qvintus/oauth2-session-agent/internal/session"
	"github.com/qvintus/oauth2-session-agent/internal/templates"
)

// Health check handler
func (s *server) handleHealth() http.HandlerFunc {
	type healthResponse struct {
		Status  string `json:"status"`
		Version string `json:"version"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{
			Status:  "ok",
			Version: Version,
		}

		// Check storage backend health
		if err := s.checkHealth(r.Context()); err != nil {
			resp.Status = "degraded"
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		writeJSON(w, resp)
	}
}

// handleAuth dispatches the five session operations on the action
// query parameter.
func (s *server) handleAuth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch action := r.URL.Query().Get("action"); action {
		case "login":
			s.handleLogin(w, r)
		case "callback":
			s.handleCallback(w, r)
		case "refresh":
			s.handleRefresh(w, r)
		case "status":
			s.handleStatus(w, r)
		case "logout":
			s.handleLogout(w, r)
		default:
			writeFailure(w, http.StatusBadRequest, "unknown action "+strconv.Quote(action))
		}
	}
}

// handleLogin initiates a login and redirects the browser to the
// provider's authorize endpoint. Missing credentials fail fast instead
// of redirecting with an empty client id.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	creds := s.sessions.Resolve(q.Get("client_id"), q.Get("client_secret"))

	authURL, err := s.sessions.BeginLogin(r.Context(), creds)
	if err != nil {
		if errors.Is(err, session.ErrNotConfigured) {
			writeFailure(w, http.StatusBadRequest, err.Error())
			return
		}
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// handleCallback completes a login from the provider's redirect. It
// renders a notice page either way; error text from the query is
// untrusted and goes through the escaping templates.
func (s *server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	code := q.Get("code")
	if provErr := q.Get("error"); provErr != "" || code == "" {
		msg := provErr
		if msg == "" {
			msg = session.ErrProviderDenied.Error()
		}
		s.renderError(w, msg)
		return
	}

	if err := s.sessions.CompleteLogin(r.Context(), code); err != nil {
		s.renderError(w, err.Error())
		return
	}

	if err := s.templates.RenderSuccess(w, templates.SuccessData{
		Message: "You are signed in. Returning to the application.",
	}); err != nil {
		http.Error(w, "error rendering page", http.StatusInternalServerError)
	}
}

// handleRefresh exchanges the stored refresh token for a fresh access
// token.
func (s *server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	creds := s.sessions.Resolve(q.Get("client_id"), q.Get("client_secret"))

	if err := s.sessions.Refresh(r.Context(), creds); err != nil {
		writeFailure(w, http.StatusOK, err.Error())
		return
	}

	writeJSON(w, map[string]bool{"success": true})
}

// handleStatus reports the derived session state without contacting
// the provider.
func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	type statusResponse struct {
		Success       bool  `json:"success"`
		Authenticated bool  `json:"authenticated"`
		Configured    bool  `json:"configured"`
		Expired       *bool `json:"expired,omitempty"`
		HasRefresh    *bool `json:"has_refresh,omitempty"`
	}

	q := r.URL.Query()
	creds := s.sessions.Resolve(q.Get("client_id"), q.Get("client_secret"))

	st := s.sessions.Status(r.Context(), creds)
	resp := statusResponse{
		Success:       true,
		Authenticated: st.Authenticated,
		Configured:    st.Configured,
	}
	// Expiry fields only make sense while a token record exists.
	if st.TokenPresent {
		resp.Expired = &st.Expired
		resp.HasRefresh = &st.HasRefresh
	}

	writeJSON(w, resp)
}

// handleLogout deletes the token record. Logout always reports
// success; there is nothing useful the caller could do otherwise.
func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Logout(r.Context()); err != nil {
		log.Printf("logout: %v", err)
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (s *server) renderError(w http.ResponseWriter, msg string) {
	if err := s.templates.RenderError(w, templates.ErrorData{
		Title:   "Login Failed",
		Message: msg,
	}); err != nil {
		http.Error(w, "error rendering page", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "error encoding response", http.StatusInternalServerError)
		return
	}
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   msg,
	}); err != nil {
		http.Error(w, "error encoding response", http.StatusInternalServerError)
	}
}
