package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

type refresher struct {
	mu  sync.Mutex
	cur *oauth2.Token

	cfg    oauth2.Config
	client *http.Client
}

// RefreshFlow creates a TokenSource holding an existing token which is
// refreshed through the refresh token grant. The token must be non-nil.
// If client is nil, [http.DefaultClient] is used instead.
// If the held token has no refresh token, Refresh returns [ErrNoRefresh].
func RefreshFlow(cfg oauth2.Config, client *http.Client, tok *oauth2.Token) TokenSource {
	if tok == nil {
		panic("auth: RefreshFlow with nil token")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &refresher{
		cur:    tok,
		cfg:    cfg,
		client: client,
	}
}

// Token retrieves the current token.
func (r *refresher) Token(ctx context.Context) (*oauth2.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cur, nil
}

// Refresh forces a refresh of the token if its current value is identical
// to old in the sense of [Equal].
func (r *refresher) Refresh(ctx context.Context, old *oauth2.Token) (*oauth2.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !Equal(r.cur, old) {
		return r.cur, nil
	}
	if r.cur.RefreshToken == "" {
		return nil, ErrNoRefresh
	}
	slog.InfoContext(ctx, "refresh token")
	ctx = context.WithValue(ctx, oauth2.HTTPClient, r.client)
	// An empty access token forces the source to go straight to the grant.
	src := r.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: r.cur.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("couldn't refresh token: %w", err)
	}
	r.cur = tok
	return r.cur, nil
}
