package twitch

import (
	"context"
	"fmt"
	"net/url"
)

// Channel is the response type from https://dev.twitch.tv/docs/api/reference/#get-channel-information.
type Channel struct {
	BroadcasterID       string   `json:"broadcaster_id"`
	BroadcasterLogin    string   `json:"broadcaster_login"`
	BroadcasterName     string   `json:"broadcaster_name"`
	BroadcasterLanguage string   `json:"broadcaster_language"`
	GameID              string   `json:"game_id"`
	GameName            string   `json:"game_name"`
	Title               string   `json:"title"`
	Delay               int      `json:"delay"`
	Tags                []string `json:"tags"`
}

// Channel gets the channel information for a broadcaster ID.
// If the broadcaster has no channel, the result is nil with a nil error.
func (s *Session) Channel(ctx context.Context, broadcaster string) (*Channel, error) {
	v := url.Values{"broadcaster_id": {broadcaster}}
	ch := make([]Channel, 0, 1)
	url := apiurl("/helix/channels", v)
	if _, err := call(ctx, s, "GET", url, nil, &ch); err != nil {
		return nil, fmt.Errorf("couldn't get channel info: %w", err)
	}
	if len(ch) == 0 {
		return nil, nil
	}
	return &ch[0], nil
}
