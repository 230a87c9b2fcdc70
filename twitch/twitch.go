// Package twitch provides a client for the parts of the Twitch API needed to
// announce streams.
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

// Client holds the context for requests to the Twitch API.
type Client struct {
	// HTTP is the HTTP client for performing requests.
	// If nil, http.DefaultClient is used.
	HTTP *http.Client
	// ID is the application's client ID.
	ID string
}

var (
	// ErrInvalidCredentials is an error indicating that credentials have
	// neither an access token nor a client ID and secret.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotAuthenticated is an error indicating that a session is not
	// authenticated.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrTooManyIDs is an error indicating that a lookup requested more
	// than 100 identifiers at once.
	ErrTooManyIDs = errors.New("too many ids requested")
	// ErrInvalidQuery is an error indicating that a query lacks any required
	// filter.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUpstream is an error indicating that the Twitch API could not be
	// reached or did not respond successfully.
	ErrUpstream = errors.New("upstream error")
)

// maxIDs is the maximum number of identifiers in one lookup.
const maxIDs = 100

// reqjson performs an HTTP request and decodes the response as JSON.
// The result is the pagination cursor, if the response has one.
func reqjson[Resp any](ctx context.Context, client Client, tok *oauth2.Token, method, url string, u *Resp) (string, error) {
	return reqjsonbody(ctx, client, tok, method, url, "", nil, u)
}

// reqjsonbody performs an HTTP request with a body and decodes the response
// as JSON. The response body is truncated to 2 MB.
func reqjsonbody[Resp any](ctx context.Context, client Client, tok *oauth2.Token, method, url, contentType string, body io.Reader, u *Resp) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return "", fmt.Errorf("couldn't make request: %w", err)
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Client-Id", client.ID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	hc := client.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("couldn't %s: %w (%w)", method, err, ErrUpstream)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	resp.Body.Close()
	if err != nil {
		return "", fmt.Errorf("couldn't read response: %w (%w)", err, ErrUpstream)
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted: // do nothing
	case http.StatusNoContent:
		return "", nil
	case http.StatusUnauthorized:
		if invalidToken(resp.Header.Get("WWW-Authenticate")) {
			return "", fmt.Errorf("request failed: %s (%w: %w)", b, ErrNeedRefresh, ErrUpstream)
		}
		return "", fmt.Errorf("request failed: %s (%s: %w)", b, resp.Status, ErrUpstream)
	default:
		return "", fmt.Errorf("request failed: %s (%s: %w)", b, resp.Status, ErrUpstream)
	}
	r := struct {
		Data       *Resp `json:"data"`
		Pagination struct {
			Cursor string `json:"cursor"`
		} `json:"pagination"`
	}{Data: u}
	if err := json.Unmarshal(b, &r); err != nil {
		return "", fmt.Errorf("couldn't decode JSON response: %w (%w)", err, ErrUpstream)
	}
	return r.Pagination.Cursor, nil
}

// invalidToken reports whether a WWW-Authenticate challenge on a 401 response
// describes an invalid or expired token. Twitch sometimes omits the header
// entirely, which also means the token was rejected.
func invalidToken(challenge string) bool {
	return challenge == "" || strings.Contains(challenge, "invalid_token")
}

// apiurl creates an api.twitch.tv URL for the given endpoint and with the
// given URL parameters.
func apiurl(ep string, values url.Values) string {
	u, err := url.JoinPath("https://api.twitch.tv/", ep)
	if err != nil {
		panic("twitch: bad url join with " + ep)
	}
	if len(values) == 0 {
		return u
	}
	return u + "?" + values.Encode()
}

// idvalues classifies each identifier as a numeric ID or a name and collects
// them into URL parameters. Names are sent under the name key.
func idvalues(ids []string, name string) (url.Values, error) {
	if len(ids) > maxIDs {
		return nil, fmt.Errorf("%d ids (%w)", len(ids), ErrTooManyIDs)
	}
	v := make(url.Values, 2)
	for _, id := range ids {
		if numeric(id) {
			v.Add("id", id)
		} else {
			v.Add(name, id)
		}
	}
	return v, nil
}

// numeric reports whether s is a non-empty string of ASCII digits.
func numeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range []byte(s) {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
