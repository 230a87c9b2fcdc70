package twitch

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUsers(t *testing.T) {
	t.Run("decode", func(t *testing.T) {
		var got *http.Request
		var mux http.ServeMux
		mux.HandleFunc("GET /helix/users", func(w http.ResponseWriter, r *http.Request) {
			got = r
			serveFile(200, "users.json")(w, r)
		})
		s := testSession(&mux)
		u, err := s.Users(context.Background(), []string{"141981764", "twitchdev"})
		if err != nil {
			t.Error(err)
		}
		if len(u) != 1 {
			t.Fatalf("wrong number of results: want 1, got %d", len(u))
		}
		want := User{
			ID:              "141981764",
			Login:           "twitchdev",
			DisplayName:     "TwitchDev",
			Type:            "",
			BroadcasterType: "partner",
			Description:     "Supporting third-party developers building Twitch integrations from chatbots to game integrations.",
			ProfileImageURL: "https://static-cdn.jtvnw.net/jtv_user_pictures/8a6381c7-d0c0-4576-b179-38bd5ce1d6af-profile_image-300x300.png",
			OfflineImageURL: "https://static-cdn.jtvnw.net/jtv_user_pictures/3f13ab61-ec78-4fe6-8481-8682cb3b0ac2-channel_offline_image-1920x1080.png",
			ViewCount:       5980557,
			Email:           "not-real@email.com",
			CreatedAt:       "2016-12-14T20:32:28Z",
		}
		if diff := cmp.Diff(u[0], want); diff != "" {
			t.Errorf("wrong result (+got/-want):\n%s", diff)
		}
		q := got.URL.Query()
		if diff := cmp.Diff(q["id"], []string{"141981764"}); diff != "" {
			t.Errorf("wrong ids (+got/-want):\n%s", diff)
		}
		if diff := cmp.Diff(q["login"], []string{"twitchdev"}); diff != "" {
			t.Errorf("wrong logins (+got/-want):\n%s", diff)
		}
		if got := got.Header.Get("Authorization"); got != "Bearer ryo" {
			t.Errorf(`wrong authorization: want "Bearer ryo", got %q`, got)
		}
	})
	t.Run("limit", func(t *testing.T) {
		var mux http.ServeMux
		mux.Handle("GET /helix/users", serveFile(200, "empty.json"))
		s := testSession(&mux)
		ids := make([]string, 101)
		for i := range ids {
			ids[i] = "bocchi" + strconv.Itoa(i)
		}
		if _, err := s.Users(context.Background(), ids[:100]); err != nil {
			t.Errorf("100 ids failed: %v", err)
		}
		if _, err := s.Users(context.Background(), ids); !errors.Is(err, ErrTooManyIDs) {
			t.Errorf("101 ids gave wrong error: want %v, got %v", ErrTooManyIDs, err)
		}
	})
	t.Run("unauthenticated", func(t *testing.T) {
		var mux http.ServeMux
		s := testSession(&mux)
		s.authenticated = false
		if _, err := s.Users(context.Background(), []string{"bocchi"}); !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("wrong error: want %v, got %v", ErrNotAuthenticated, err)
		}
	})
}

func TestUser(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		var mux http.ServeMux
		mux.Handle("GET /helix/users", serveFile(200, "users.json"))
		s := testSession(&mux)
		u, err := s.User(context.Background(), "twitchdev")
		if err != nil {
			t.Fatal(err)
		}
		if u == nil || u.ID != "141981764" {
			t.Errorf("wrong user: %+v", u)
		}
	})
	t.Run("none", func(t *testing.T) {
		var mux http.ServeMux
		mux.Handle("GET /helix/users", serveFile(200, "empty.json"))
		s := testSession(&mux)
		u, err := s.User(context.Background(), "twitchdev")
		if err != nil {
			t.Errorf("empty lookup returned error: %v", err)
		}
		if u != nil {
			t.Errorf("empty lookup returned a user: %+v", u)
		}
	})
}
