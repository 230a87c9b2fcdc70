package twitch

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGames(t *testing.T) {
	t.Run("decode", func(t *testing.T) {
		var got *http.Request
		var mux http.ServeMux
		mux.HandleFunc("GET /helix/games", func(w http.ResponseWriter, r *http.Request) {
			got = r
			serveFile(200, "games.json")(w, r)
		})
		s := testSession(&mux)
		g, err := s.Games(context.Background(), []string{"33214", "Fortnite"})
		if err != nil {
			t.Fatal(err)
		}
		want := []Game{
			{
				ID:        "33214",
				Name:      "Fortnite",
				BoxArtURL: "https://static-cdn.jtvnw.net/ttv-boxart/33214-{width}x{height}.jpg",
				IGDBID:    "1905",
			},
		}
		if diff := cmp.Diff(g, want); diff != "" {
			t.Errorf("wrong result (+got/-want):\n%s", diff)
		}
		q := got.URL.Query()
		if diff := cmp.Diff(q["id"], []string{"33214"}); diff != "" {
			t.Errorf("wrong ids (+got/-want):\n%s", diff)
		}
		if diff := cmp.Diff(q["name"], []string{"Fortnite"}); diff != "" {
			t.Errorf("wrong names (+got/-want):\n%s", diff)
		}
	})
	t.Run("limit", func(t *testing.T) {
		var mux http.ServeMux
		mux.Handle("GET /helix/games", serveFile(200, "empty.json"))
		s := testSession(&mux)
		ids := make([]string, 101)
		for i := range ids {
			ids[i] = strconv.Itoa(i)
		}
		if _, err := s.Games(context.Background(), ids[:100]); err != nil {
			t.Errorf("100 ids failed: %v", err)
		}
		if _, err := s.Games(context.Background(), ids); !errors.Is(err, ErrTooManyIDs) {
			t.Errorf("101 ids gave wrong error: want %v, got %v", ErrTooManyIDs, err)
		}
	})
	t.Run("none", func(t *testing.T) {
		var mux http.ServeMux
		mux.Handle("GET /helix/games", serveFile(200, "empty.json"))
		s := testSession(&mux)
		g, err := s.Game(context.Background(), "33214")
		if err != nil {
			t.Errorf("empty lookup returned error: %v", err)
		}
		if g != nil {
			t.Errorf("empty lookup returned a game: %+v", g)
		}
	})
}

func TestBoxArt(t *testing.T) {
	cases := []struct {
		name     string
		template string
		height   int
		want     string
	}{
		{
			name:     "small",
			template: "https://static-cdn.jtvnw.net/ttv-boxart/33214-{width}x{height}.jpg",
			height:   72,
			want:     "https://static-cdn.jtvnw.net/ttv-boxart/33214-52x72.jpg",
		},
		{
			name:     "default",
			template: "https://static-cdn.jtvnw.net/ttv-boxart/33214-{width}x{height}.jpg",
			height:   480,
			want:     "https://static-cdn.jtvnw.net/ttv-boxart/33214-347x480.jpg",
		},
		{
			name:     "empty",
			template: "",
			height:   72,
			want:     "",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := BoxArt(c.template, c.height); got != c.want {
				t.Errorf("wrong box art: want %q, got %q", c.want, got)
			}
		})
	}
}
