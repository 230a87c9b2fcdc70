package twitch

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Game is the response type from https://dev.twitch.tv/docs/api/reference/#get-games.
type Game struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// BoxArtURL is a template URL containing {width} and {height}
	// placeholders. Use [BoxArt] to fill them.
	BoxArtURL string `json:"box_art_url"`
	IGDBID    string `json:"igdb_id"`
}

// Games looks up games by ID or name. Identifiers made entirely of digits
// are looked up as IDs and all others as names, so the two may be mixed.
// At most 100 identifiers may be requested.
func (s *Session) Games(ctx context.Context, ids []string) ([]Game, error) {
	v, err := idvalues(ids, "name")
	if err != nil {
		return nil, err
	}
	g := make([]Game, 0, len(ids))
	url := apiurl("/helix/games", v)
	if _, err := call(ctx, s, "GET", url, nil, &g); err != nil {
		return nil, fmt.Errorf("couldn't get games info: %w", err)
	}
	return g, nil
}

// Game looks up a single game by ID or name.
// If there is no such game, the result is nil with a nil error.
func (s *Session) Game(ctx context.Context, id string) (*Game, error) {
	g, err := s.Games(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(g) == 0 {
		return nil, nil
	}
	return &g[0], nil
}

// BoxArt fills the size placeholders of a box art template URL for the given
// height. The width follows the standard 13:18 box art aspect ratio.
func BoxArt(template string, height int) string {
	if template == "" {
		return ""
	}
	w := BoxArtWidth(height)
	r := strings.NewReplacer("{width}", strconv.Itoa(w), "{height}", strconv.Itoa(height))
	return r.Replace(template)
}

// BoxArtWidth is the box art width corresponding to a height.
func BoxArtWidth(height int) int {
	return int(math.Round(float64(height) * 13 / 18))
}
