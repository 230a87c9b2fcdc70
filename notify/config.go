package notify

import (
	"maps"
	"math/rand/v2"

	"gitlab.com/zephyrtronium/pick"
)

// Config is the notifier's configuration.
type Config struct {
	// Username is the broadcaster's login.
	Username string
	// Credentials is the path to the JSON credentials file.
	Credentials string
	// Webhooks lists the webhook URLs to notify, in order.
	Webhooks []string
	// WebhookUsername and WebhookAvatar override the username and avatar of
	// each webhook if not empty.
	WebhookUsername string
	WebhookAvatar   string
	// BoxArtHeight is the height in pixels of box art images.
	// The width follows from it.
	BoxArtHeight int
	// Start and Stop are the announcements for stream start and end.
	Start Announcement
	Stop  Announcement
}

// Announcement is the message sent for an event.
type Announcement struct {
	// Enabled sets whether to send a notification at all.
	Enabled bool
	// Message is the content of the notification.
	Message string
	// Variants are alternatives to Message and their weights.
	// When there are variants, Message has weight 1 among them.
	Variants map[string]int
}

// Text picks the content of a notification.
func (a *Announcement) Text() string {
	if len(a.Variants) == 0 {
		return a.Message
	}
	m := maps.Clone(a.Variants)
	maps.DeleteFunc(m, func(_ string, w int) bool { return w <= 0 })
	if a.Message != "" {
		m[a.Message]++
	}
	if len(m) == 0 {
		return ""
	}
	d := pick.New(pick.FromMap(m))
	return d.Pick(rand.Uint32())
}

// DefaultBoxArtHeight is the box art height used when none is configured.
const DefaultBoxArtHeight = 480

// Default start and stop messages.
const (
	DefaultStartMessage = "The stream has started, come watch!"
	DefaultStopMessage  = "The stream has ended. Go check out the VOD!"
)
