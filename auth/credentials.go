package auth

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-json-experiment/json"
	"golang.org/x/oauth2"
)

// Credentials is the contents of a credentials file.
// Authentication needs either AccessToken or both ClientID and ClientSecret.
type Credentials struct {
	// AccessToken is a user or app access token to validate.
	AccessToken string `json:"access_token,omitempty"`
	// ClientID is the application's client ID.
	ClientID string `json:"client_id,omitempty"`
	// ClientSecret is the application's client secret.
	ClientSecret string `json:"client_secret,omitempty"`
	// RefreshToken refreshes AccessToken when it expires.
	RefreshToken string `json:"refresh_token,omitempty"`
	// Scopes lists scopes to request in the client credentials flow.
	Scopes []string `json:"scopes,omitempty"`
}

// LoadCredentials reads a JSON credentials file.
func LoadCredentials(file string) (*Credentials, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("couldn't open credentials: %w", err)
	}
	defer f.Close()
	return DecodeCredentials(f)
}

// DecodeCredentials reads credentials as JSON from r.
// Surrounding whitespace is trimmed from every value.
func DecodeCredentials(r io.Reader) (*Credentials, error) {
	b, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("couldn't read credentials: %w", err)
	}
	var c Credentials
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("couldn't decode credentials: %w", err)
	}
	c.AccessToken = strings.TrimSpace(c.AccessToken)
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.ClientSecret = strings.TrimSpace(c.ClientSecret)
	c.RefreshToken = strings.TrimSpace(c.RefreshToken)
	return &c, nil
}

// Token returns the held access token, or nil if there is none.
func (c *Credentials) Token() *oauth2.Token {
	if c.AccessToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "bearer",
	}
}
