package twitch

import (
	"context"
	"fmt"
	"net/url"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Subscription is an EventSub subscription.
type Subscription struct {
	ID        string                `json:"id"`
	Status    string                `json:"status"`
	Type      string                `json:"type"`
	Version   string                `json:"version"`
	Condition SubscriptionCondition `json:"condition"`
	Created   string                `json:"created_at"`
	Transport SubscriptionTransport `json:"transport"`
	Cost      int                   `json:"cost"`
}

type SubscriptionCondition struct {
	// Broadcaster is the broadcaster user ID for the condition.
	Broadcaster string `json:"broadcaster_user_id,omitempty"`
	// User is the user ID for the condition.
	User string `json:"user_id,omitempty"`
	// Extra holds any additional fields in the condition.
	Extra jsontext.Value `json:",unknown"`
}

type SubscriptionTransport struct {
	Method       string `json:"method"`
	Callback     string `json:"callback,omitempty"`
	Session      string `json:"session_id,omitempty"`
	Connected    string `json:"connected_at,omitempty"`
	Disconnected string `json:"disconnected_at,omitempty"`
}

// Subscribe calls the Create EventSub Subscription API to subscribe a
// WebSocket session to an event type for a broadcaster.
// Requires a user access token.
func (s *Session) Subscribe(ctx context.Context, typ, version, broadcaster, session string) (*Subscription, error) {
	req := struct {
		Type      string `json:"type"`
		Version   string `json:"version"`
		Condition struct {
			Broadcaster string `json:"broadcaster_user_id"`
		} `json:"condition"`
		Transport SubscriptionTransport `json:"transport"`
	}{
		Type:      typ,
		Version:   version,
		Transport: SubscriptionTransport{Method: "websocket", Session: session},
	}
	req.Condition.Broadcaster = broadcaster
	body, err := json.Marshal(&req)
	if err != nil {
		// should never happen
		panic(err)
	}
	var resp []Subscription
	url := apiurl("/helix/eventsub/subscriptions", nil)
	if _, err := call(ctx, s, "POST", url, body, &resp); err != nil {
		return nil, fmt.Errorf("couldn't subscribe to %s: %w", typ, err)
	}
	if len(resp) != 1 {
		return nil, fmt.Errorf("somehow created %d subscriptions", len(resp))
	}
	return &resp[0], nil
}

// Unsubscribe calls the Delete EventSub Subscription API to delete a subscription.
func (s *Session) Unsubscribe(ctx context.Context, id string) error {
	vals := url.Values{
		"id": {id},
	}
	url := apiurl("/helix/eventsub/subscriptions", vals)
	if _, err := call(ctx, s, "DELETE", url, nil, new(struct{})); err != nil {
		return fmt.Errorf("couldn't delete EventSub subscription: %w", err)
	}
	return nil
}
