package twitch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/zephyrtronium/livenotify/auth"
)

// Session is an authenticated connection to the Twitch API.
// A Session is not safe for concurrent use.
type Session struct {
	client Client
	tokens auth.TokenSource
	// cfg is the app configuration for client credentials re-authentication.
	cfg oauth2.Config

	login  string
	userID string
	scopes []string

	authenticated bool
}

// Authenticate creates a session from credentials.
//
// If the credentials hold an access token, it is validated. Otherwise, if they
// hold a client ID and secret, they are exchanged for an app access token
// through the client credentials flow. If neither is present, the result is
// [ErrInvalidCredentials].
//
// A failure to validate or exchange does not fail Authenticate. Instead, the
// returned session reports false from [Session.Authenticated].
func Authenticate(ctx context.Context, client *http.Client, creds *auth.Credentials) (*Session, error) {
	cfg := oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     Endpoint,
		Scopes:       creds.Scopes,
	}
	s := &Session{client: Client{HTTP: client, ID: creds.ClientID}}
	switch {
	case creds.AccessToken != "":
		tok := creds.Token()
		v, err := Validate(ctx, client, tok)
		if err != nil {
			slog.WarnContext(ctx, "access token validation failed", slog.Any("err", err))
			return s, nil
		}
		s.client.ID = v.ClientID
		s.login, s.userID, s.scopes = v.Login, v.UserID, v.Scopes
		cfg.ClientID = v.ClientID
		s.cfg = cfg
		s.tokens = auth.RefreshFlow(cfg, client, tok)
		s.authenticated = true
		slog.InfoContext(ctx, "validated access token", slog.String("login", v.Login), slog.Int("expires_in", v.ExpiresIn))
		return s, nil

	case creds.ClientID != "" && creds.ClientSecret != "":
		src := auth.ClientCredentialsFlow(cfg, client)
		if _, err := src.Token(ctx); err != nil {
			slog.WarnContext(ctx, "client credentials exchange failed", slog.Any("err", err))
			return s, nil
		}
		s.cfg = cfg
		s.tokens = src
		s.authenticated = true
		slog.InfoContext(ctx, "obtained app access token", slog.String("client_id", creds.ClientID))
		return s, nil

	default:
		return nil, ErrInvalidCredentials
	}
}

// Authenticated reports whether the session can make API requests.
func (s *Session) Authenticated() bool {
	return s.authenticated
}

// ClientID returns the client ID used for requests.
func (s *Session) ClientID() string {
	return s.client.ID
}

// Login returns the login of the user who owns the session's access token.
// It is empty for app access tokens.
func (s *Session) Login() string {
	return s.login
}

// UserID returns the ID of the user who owns the session's access token.
// It is empty for app access tokens.
func (s *Session) UserID() string {
	return s.userID
}

// Scopes returns the scopes granted to a validated access token.
func (s *Session) Scopes() []string {
	return s.scopes
}

// Revoke revokes the session's access token.
// The session is unauthenticated afterward even if revocation fails.
func (s *Session) Revoke(ctx context.Context) error {
	if !s.authenticated {
		return ErrNotAuthenticated
	}
	defer func() { s.authenticated = false }()
	tok, err := s.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("couldn't get access token to revoke: %w", err)
	}
	if err := Revoke(ctx, s.client.HTTP, s.client.ID, tok); err != nil {
		return err
	}
	slog.InfoContext(ctx, "revoked access token", slog.String("client_id", s.client.ID))
	return nil
}

// call performs an authenticated API request. If the API rejects the token,
// the session attempts to re-authenticate once, and the original error is
// returned either way.
func call[Resp any](ctx context.Context, s *Session, method, url string, body []byte, u *Resp) (string, error) {
	if !s.authenticated {
		return "", ErrNotAuthenticated
	}
	tok, err := s.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("couldn't get access token: %w", err)
	}
	var r io.Reader
	var ct string
	if body != nil {
		r = bytes.NewReader(body)
		ct = "application/json"
	}
	pag, err := reqjsonbody(ctx, s.client, tok, method, url, ct, r, u)
	if errors.Is(err, ErrNeedRefresh) {
		s.reauth(ctx, tok)
	}
	return pag, err
}

func (s *Session) reauth(ctx context.Context, old *oauth2.Token) {
	slog.InfoContext(ctx, "access token rejected; re-authenticating")
	_, err := s.tokens.Refresh(ctx, old)
	if errors.Is(err, auth.ErrNoRefresh) && s.cfg.ClientSecret != "" {
		slog.InfoContext(ctx, "no refresh token; using client credentials")
		src := auth.ClientCredentialsFlow(s.cfg, s.client.HTTP)
		if _, err = src.Token(ctx); err == nil {
			s.tokens = src
		}
	}
	if err != nil {
		slog.ErrorContext(ctx, "re-authentication failed", slog.Any("err", err))
		s.authenticated = false
		return
	}
	slog.InfoContext(ctx, "re-authenticated")
}
