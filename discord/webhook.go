package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/go-json-experiment/json"
)

// Message limits.
const (
	MaxContent = 2000
	MaxEmbeds  = 10
)

var (
	// ErrEmbedLimit is an error indicating that a message already has the
	// maximum number of embeds.
	ErrEmbedLimit = errors.New("embed limit exceeded")
	// ErrNoTargets is an error indicating that a webhook was created with no
	// targets.
	ErrNoTargets = errors.New("no webhook targets")
	// ErrEmptyMessage is an error indicating that a message has neither
	// content nor any valid embed.
	ErrEmptyMessage = errors.New("empty message")
)

// Target is a webhook to deliver to.
type Target struct {
	// URL is the webhook URL, including its token.
	URL string
	// Username overrides the webhook's default username if not empty.
	Username string
	// AvatarURL overrides the webhook's default avatar if not empty.
	AvatarURL string
}

// Webhook is a message to deliver to a list of webhooks.
type Webhook struct {
	targets []Target
	content string
	embeds  []*Embed
}

// New creates a webhook message for the given targets.
func New(targets []Target, content string, embeds ...*Embed) (*Webhook, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	w := &Webhook{targets: targets}
	if err := w.SetContent(content); err != nil {
		return nil, err
	}
	for _, e := range embeds {
		if err := w.AddEmbed(e); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Targets creates targets for a list of webhook URLs, all with the same
// username and avatar overrides.
func Targets(urls []string, username, avatar string) []Target {
	if len(urls) == 0 {
		return nil
	}
	r := make([]Target, 0, len(urls))
	for _, u := range urls {
		r = append(r, Target{URL: u, Username: username, AvatarURL: avatar})
	}
	return r
}

// SetContent sets the text content of the message.
func (w *Webhook) SetContent(s string) error {
	s = strings.TrimSpace(s)
	if err := limit("content", s, MaxContent); err != nil {
		return err
	}
	w.content = s
	return nil
}

// AddEmbed adds an embed to the message.
func (w *Webhook) AddEmbed(e *Embed) error {
	if len(w.embeds) >= MaxEmbeds {
		return fmt.Errorf("message has %d embeds (%w)", len(w.embeds), ErrEmbedLimit)
	}
	w.embeds = append(w.embeds, e)
	return nil
}

type payload struct {
	Content   string      `json:"content,omitempty"`
	Embeds    []embedJSON `json:"embeds,omitempty"`
	Username  string      `json:"username,omitempty"`
	AvatarURL string      `json:"avatar_url,omitempty"`
}

// Execute delivers the message to each target in turn.
// Invalid embeds are dropped. Failure to deliver to one target does not
// prevent delivery to the rest. The returned count is the number of targets
// which acknowledged the message, and the error joins all failures.
// If the client is nil, [http.DefaultClient] is used instead.
func (w *Webhook) Execute(ctx context.Context, client *http.Client) (int, error) {
	msgs, err := w.ExecuteMessages(ctx, client)
	return len(msgs), err
}

// ExecuteMessages is like Execute, but it returns the message each
// acknowledging target created, in target order.
func (w *Webhook) ExecuteMessages(ctx context.Context, client *http.Client) ([]*discordgo.Message, error) {
	if client == nil {
		client = http.DefaultClient
	}
	embeds := make([]embedJSON, 0, len(w.embeds))
	for i, e := range w.embeds {
		if e == nil || !e.Valid() {
			slog.WarnContext(ctx, "dropping invalid embed", slog.Int("index", i))
			continue
		}
		embeds = append(embeds, e.wire())
	}
	if w.content == "" && len(embeds) == 0 {
		return nil, ErrEmptyMessage
	}
	var errs []error
	var sent []*discordgo.Message
	for _, t := range w.targets {
		p := payload{
			Content:   w.content,
			Embeds:    embeds,
			Username:  strings.TrimSpace(t.Username),
			AvatarURL: strings.TrimSpace(t.AvatarURL),
		}
		m, err := deliver(ctx, client, t.URL, &p)
		if err != nil {
			slog.ErrorContext(ctx, "webhook delivery failed", slog.String("webhook", Redact(t.URL)), slog.Any("err", err))
			errs = append(errs, err)
			continue
		}
		slog.InfoContext(ctx, "webhook delivered", slog.String("webhook", Redact(t.URL)), slog.String("message", m.ID))
		sent = append(sent, m)
	}
	return sent, errors.Join(errs...)
}

// Message delivers content and embeds to a list of webhook URLs.
func Message(ctx context.Context, client *http.Client, urls []string, content string, embeds ...*Embed) (int, error) {
	w, err := New(Targets(urls, "", ""), content, embeds...)
	if err != nil {
		return 0, err
	}
	return w.Execute(ctx, client)
}

// DeliveryError is an error indicating that a webhook responded with a
// status other than 200.
type DeliveryError struct {
	// Webhook is the redacted webhook URL.
	Webhook string
	// Status is the response status code.
	Status int
	// Body is the start of the response body.
	Body string
}

func (err *DeliveryError) Error() string {
	return fmt.Sprintf("webhook %s responded %d %s: %s", err.Webhook, err.Status, http.StatusText(err.Status), err.Body)
}

// deliver posts a message to one webhook and decodes the message the webhook
// created. A response which doesn't decode still counts as delivered.
func deliver(ctx context.Context, client *http.Client, addr string, p *payload) (*discordgo.Message, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("couldn't parse webhook URL %s: %w", Redact(addr), err)
	}
	q := u.Query()
	q.Set("wait", "true")
	u.RawQuery = q.Encode()
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("couldn't encode webhook message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", u.String(), bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("couldn't make request for %s: %w", Redact(addr), err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		// The error from the client includes the URL, so redact it.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = Redact(addr)
		}
		return nil, fmt.Errorf("couldn't post to webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &DeliveryError{Webhook: Redact(addr), Status: resp.StatusCode, Body: string(body)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var m discordgo.Message
	if err == nil {
		err = json.Unmarshal(body, &m)
	}
	if err != nil {
		slog.WarnContext(ctx, "couldn't decode webhook message", slog.String("webhook", Redact(addr)), slog.Any("err", err))
	}
	return &m, nil
}

// Redact removes the token from a webhook URL so that it can be logged.
func Redact(addr string) string {
	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		return "(invalid webhook URL)"
	}
	p := strings.TrimSuffix(u.Path, "/")
	if strings.Count(p, "/") > 1 {
		p = path.Dir(p) + "/…"
	}
	return u.Scheme + "://" + u.Host + p
}
