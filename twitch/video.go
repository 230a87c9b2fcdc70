package twitch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Video is the response type from https://dev.twitch.tv/docs/api/reference/#get-videos.
type Video struct {
	ID            string         `json:"id"`
	StreamID      string         `json:"stream_id"`
	UserID        string         `json:"user_id"`
	UserLogin     string         `json:"user_login"`
	UserName      string         `json:"user_name"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	CreatedAt     string         `json:"created_at"`
	PublishedAt   string         `json:"published_at"`
	URL           string         `json:"url"`
	ThumbnailURL  string         `json:"thumbnail_url"`
	Viewable      string         `json:"viewable"`
	ViewCount     int            `json:"view_count"`
	Language      string         `json:"language"`
	Type          string         `json:"type"`
	Duration      string         `json:"duration"`
	MutedSegments []MutedSegment `json:"muted_segments"`
}

// MutedSegment is a muted range of a video.
type MutedSegment struct {
	Duration int `json:"duration"`
	Offset   int `json:"offset"`
}

// VideoQuery filters videos. At least one of IDs, UserID, or GameID is
// required. The remaining fields are optional.
type VideoQuery struct {
	// IDs are video IDs to look up, at most 100.
	IDs []string
	// UserID selects videos by the owning user's ID.
	UserID string
	// GameID selects videos by game ID.
	GameID string

	// First is the page size. Zero means the Twitch default.
	First int
	// After and Before are pagination cursors.
	After  string
	Before string
	// Language, Period, Sort, and Type are the API filters of the same names.
	Language string
	Period   string
	Sort     string
	Type     string
}

func (q *VideoQuery) values() (url.Values, error) {
	if len(q.IDs) == 0 && q.UserID == "" && q.GameID == "" {
		return nil, fmt.Errorf("video query needs ids, user id, or game id (%w)", ErrInvalidQuery)
	}
	if len(q.IDs) > maxIDs {
		return nil, fmt.Errorf("%d video ids (%w)", len(q.IDs), ErrTooManyIDs)
	}
	v := make(url.Values, 4)
	for _, id := range q.IDs {
		v.Add("id", id)
	}
	opt := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	opt("user_id", q.UserID)
	opt("game_id", q.GameID)
	if q.First > 0 {
		v.Set("first", strconv.Itoa(q.First))
	}
	opt("after", q.After)
	opt("before", q.Before)
	opt("language", q.Language)
	opt("period", q.Period)
	opt("sort", q.Sort)
	opt("type", q.Type)
	return v, nil
}

// Videos gets videos matching a query, most recent first.
// The string result is the cursor of the next page, if there is one.
// If no videos match, the result is nil with a nil error.
func (s *Session) Videos(ctx context.Context, q VideoQuery) ([]Video, string, error) {
	v, err := q.values()
	if err != nil {
		return nil, "", err
	}
	var videos []Video
	url := apiurl("/helix/videos", v)
	pag, err := call(ctx, s, "GET", url, nil, &videos)
	if err != nil {
		return nil, "", fmt.Errorf("couldn't get videos info: %w", err)
	}
	if len(videos) == 0 {
		return nil, "", nil
	}
	return videos, pag, nil
}
