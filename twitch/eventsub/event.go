package eventsub

import "github.com/go-json-experiment/json/jsontext"

// Event is the payload of a notification message: the subscription which
// fired and its raw event object, whose shape depends on the subscription type.
type Event struct {
	Subscription Subscription   `json:"subscription"`
	Event        jsontext.Value `json:"event"`
}

// Subscription describes the subscription which caused a notification.
type Subscription struct {
	// ID identifies the subscription for deletion.
	ID string `json:"id"`
	// Status is "enabled" for notifications and the revocation reason for
	// revocations.
	Status string `json:"status"`
	// Type is the subscription type, e.g. [StreamOnline].
	Type    string `json:"type"`
	Version string `json:"version"`
	Cost    int    `json:"cost"`
	// Condition names the broadcaster the subscription watches.
	Condition Condition `json:"condition"`
	Transport Transport `json:"transport"`
	// Created is the subscription creation time in RFC3339Nano format.
	Created string `json:"created_at"`
}

// Condition is the condition of a stream subscription.
type Condition struct {
	// Broadcaster is the user ID of the watched broadcaster.
	Broadcaster string `json:"broadcaster_user_id"`
	// Extra holds the fields of conditions for other subscription types.
	Extra jsontext.Value `json:",unknown"`
}

// Transport is the delivery method of a subscription.
type Transport struct {
	// Method is always "websocket" for WebSocket sessions.
	Method  string `json:"method"`
	Session string `json:"session_id"`
}

// Broadcaster returns the user ID of the broadcaster whose subscription
// produced the event.
func (e *Event) Broadcaster() string {
	return e.Subscription.Condition.Broadcaster
}

// message is a generic message received from EventSub.
type message struct {
	Metadata metadata `json:"metadata"`
	Payload  payload  `json:"payload"`
}

type payload struct {
	Subscription Subscription   `json:"subscription"`
	Session      session        `json:"session"`
	Event        jsontext.Value `json:"event"`
}

type metadata struct {
	// ID is the message UUID.
	ID string `json:"message_id"`
	// Type is the type of the associated payload.
	Type string `json:"message_type"`
	// Timestamp is the message time in RFC3339Nano format.
	Timestamp string `json:"message_timestamp"`
	// SubscriptionType is the subscription type for notification messages.
	SubscriptionType string `json:"subscription_type"`
	// SubscriptionVersion is the version of the subscription type.
	SubscriptionVersion string `json:"subscription_version"`
}

type session struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Keepalive int    `json:"keepalive_timeout_seconds"`
	Reconnect string `json:"reconnect_url"`
	Connected string `json:"connected_at"`
}
