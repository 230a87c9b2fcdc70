package twitch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-json-experiment/json"
	"golang.org/x/oauth2"
)

const (
	tokenURL    = "https://id.twitch.tv/oauth2/token"
	validateURL = "https://id.twitch.tv/oauth2/validate"
	revokeURL   = "https://id.twitch.tv/oauth2/revoke"
)

// Endpoint is the Twitch OAuth2 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://id.twitch.tv/oauth2/authorize",
	TokenURL:  tokenURL,
	AuthStyle: oauth2.AuthStyleInParams,
}

// Validate checks the status of an access token.
// If the API response indicates that the access token is invalid, the returned
// error wraps [ErrNeedRefresh].
// The returned Validation may be non-nil even if the error is also non-nil.
func Validate(ctx context.Context, client *http.Client, tok *oauth2.Token) (*Validation, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", validateURL, nil)
	if err != nil {
		return nil, fmt.Errorf("couldn't make validate request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+tok.AccessToken)
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("couldn't validate access token: %w (%w)", err, ErrUpstream)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("couldn't read token validation response: %w (%w)", err, ErrUpstream)
	}
	var s Validation
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("couldn't unmarshal token validation response: %w (%w)", err, ErrUpstream)
	}
	switch resp.StatusCode {
	case http.StatusOK: // do nothing
	case http.StatusUnauthorized:
		err = fmt.Errorf("token validation failed: %s (%w)", s.Message, ErrNeedRefresh)
	default:
		err = fmt.Errorf("token validation failed: %s (%s: %w)", s.Message, resp.Status, ErrUpstream)
	}
	return &s, err
}

// Validation describes an access token's validation status.
type Validation struct {
	ClientID  string   `json:"client_id"`
	Login     string   `json:"login"`
	Scopes    []string `json:"scopes"`
	UserID    string   `json:"user_id"`
	ExpiresIn int      `json:"expires_in"`

	Message string `json:"message"`
	Status  int    `json:"status"`
}

// Revoke invalidates an access token.
func Revoke(ctx context.Context, client *http.Client, clientID string, tok *oauth2.Token) error {
	v := url.Values{
		"client_id": {clientID},
		"token":     {tok.AccessToken},
	}
	req, err := http.NewRequestWithContext(ctx, "POST", revokeURL, strings.NewReader(v.Encode()))
	if err != nil {
		return fmt.Errorf("couldn't make revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "OAuth "+tok.AccessToken)
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("couldn't revoke access token: %w (%w)", err, ErrUpstream)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token revocation failed: %s (%s: %w)", body, resp.Status, ErrUpstream)
	}
	return nil
}

// ErrNeedRefresh is an error indicating that the access token needs to be refreshed.
// It must be checked using [errors.Is].
var ErrNeedRefresh = errors.New("need refresh")
