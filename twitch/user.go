package twitch

import (
	"context"
	"fmt"
)

// User is the response type from https://dev.twitch.tv/docs/api/reference/#get-users.
type User struct {
	ID              string `json:"id"`
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	Type            string `json:"type"`
	BroadcasterType string `json:"broadcaster_type"`
	Description     string `json:"description"`
	ProfileImageURL string `json:"profile_image_url"`
	OfflineImageURL string `json:"offline_image_url"`
	ViewCount       int    `json:"view_count"`
	Email           string `json:"email"`
	CreatedAt       string `json:"created_at"`
}

// Users looks up users by ID or login. Identifiers made entirely of digits
// are looked up as IDs and all others as logins, so the two may be mixed.
// At most 100 identifiers may be requested.
func (s *Session) Users(ctx context.Context, ids []string) ([]User, error) {
	v, err := idvalues(ids, "login")
	if err != nil {
		return nil, err
	}
	u := make([]User, 0, len(ids))
	url := apiurl("/helix/users", v)
	if _, err := call(ctx, s, "GET", url, nil, &u); err != nil {
		return nil, fmt.Errorf("couldn't get users info: %w", err)
	}
	return u, nil
}

// User looks up a single user by ID or login.
// If there is no such user, the result is nil with a nil error.
func (s *Session) User(ctx context.Context, id string) (*User, error) {
	u, err := s.Users(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(u) == 0 {
		return nil, nil
	}
	return &u[0], nil
}
