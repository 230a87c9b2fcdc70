package eventsub

import (
	"fmt"

	"github.com/go-json-experiment/json"
)

// Subscription types for stream status.
const (
	StreamOnline  = "stream.online"
	StreamOffline = "stream.offline"
)

// Stream is the payload for a stream.online or stream.offline notification.
type Stream struct {
	// ID is the stream ID.
	// Only present in stream.online messages.
	ID string `json:"id"`
	// Broadcaster is the broadcaster's user ID.
	Broadcaster string `json:"broadcaster_user_id"`
	// BroadcasterLogin is the broadcaster's user login.
	BroadcasterLogin string `json:"broadcaster_user_login"`
	// BroadcasterName is the broadcaster's display name.
	BroadcasterName string `json:"broadcaster_user_name"`
	// Type is the stream type, usually "live".
	Type string `json:"type"`
	// Started is the time at which the stream started in RFC3339Nano format.
	Started string `json:"started_at"`
}

// Stream decodes the event payload of a stream.online or stream.offline
// notification.
func (e *Event) Stream() (*Stream, error) {
	switch e.Subscription.Type {
	case StreamOnline, StreamOffline: // do nothing
	default:
		return nil, fmt.Errorf("%s event is not a stream event", e.Subscription.Type)
	}
	var s Stream
	if err := json.Unmarshal(e.Event, &s); err != nil {
		return nil, fmt.Errorf("couldn't decode stream event: %w", err)
	}
	return &s, nil
}
