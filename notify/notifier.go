// Package notify announces stream starts and ends to Discord webhooks.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/zephyrtronium/livenotify/auth"
	"github.com/zephyrtronium/livenotify/discord"
	"github.com/zephyrtronium/livenotify/history"
	"github.com/zephyrtronium/livenotify/metrics"
	"github.com/zephyrtronium/livenotify/twitch"
)

// Lifecycle is the set of events a host delivers.
type Lifecycle interface {
	// Loaded is called once when the host activates the notifier.
	Loaded(ctx context.Context, cfg Config)
	// Unloaded is called when the host deactivates the notifier.
	Unloaded(ctx context.Context)
	// SettingsChanged is called when the host's configuration changes.
	SettingsChanged(ctx context.Context, cfg Config)
	// StreamStarted is called when the broadcast goes live.
	StreamStarted(ctx context.Context)
	// StreamStopped is called when the broadcast ends.
	StreamStopped(ctx context.Context)
}

// Options are the collaborators of a Notifier. All are optional.
type Options struct {
	// HTTP is the client for all outbound requests.
	// If nil, a client with a 30 second timeout is used.
	HTTP *http.Client
	// Metrics receives observations.
	Metrics *metrics.Metrics
	// History records delivered notifications.
	History *sqlitex.Pool
}

// Notifier sends notifications on stream lifecycle events.
// Its methods never return errors; failures are logged.
// A Notifier is not safe for concurrent use. The host must deliver events
// one at a time.
type Notifier struct {
	cfg     Config
	loaded  bool
	session *twitch.Session

	client  *http.Client
	metrics *metrics.Metrics
	history *sqlitex.Pool

	streaming bool
	started   time.Time
}

var _ Lifecycle = (*Notifier)(nil)

// New creates a notifier.
func New(opts Options) *Notifier {
	n := &Notifier{
		client:  opts.HTTP,
		metrics: opts.Metrics,
		history: opts.History,
	}
	if n.client == nil {
		n.client = &http.Client{Timeout: 30 * time.Second}
	}
	if n.metrics == nil {
		n.metrics = new(metrics.Metrics)
	}
	return n
}

// Register adds the notifier's stream and unload handlers to a dispatcher.
func (n *Notifier) Register(d *Dispatcher) {
	d.On(EventStreamStarted, n.StreamStarted)
	d.On(EventStreamStopped, n.StreamStopped)
	d.On(EventUnloaded, n.Unloaded)
}

// Streaming reports whether the stream is live as far as the notifier knows.
func (n *Notifier) Streaming() bool {
	return n.streaming
}

// Authenticated reports whether the notifier holds an authenticated session.
func (n *Notifier) Authenticated() bool {
	return n.session != nil && n.session.Authenticated()
}

// Session returns the notifier's platform session, or nil if there is none.
func (n *Notifier) Session() *twitch.Session {
	return n.session
}

// Config returns the current configuration.
func (n *Notifier) Config() Config {
	return n.cfg
}

// Loaded stores the configuration and authenticates with it.
// If the notifier is already loaded and authenticated, Loaded behaves like
// SettingsChanged, so at most one session is ever live.
func (n *Notifier) Loaded(ctx context.Context, cfg Config) {
	defer n.latency(ctx, EventLoaded, time.Now())
	if n.loaded && n.Authenticated() {
		slog.InfoContext(ctx, "already loaded")
		n.settings(ctx, cfg)
		return
	}
	n.cfg = cfg
	n.loaded = true
	n.revoke(ctx)
	n.login(ctx)
}

// Unloaded revokes the session.
func (n *Notifier) Unloaded(ctx context.Context) {
	defer n.latency(ctx, EventUnloaded, time.Now())
	n.revoke(ctx)
	n.loaded = false
}

// SettingsChanged replaces the configuration. If the credentials path
// changed after the notifier was loaded, the old session is revoked and the
// new credentials are used.
func (n *Notifier) SettingsChanged(ctx context.Context, cfg Config) {
	defer n.latency(ctx, EventSettingsChanged, time.Now())
	n.settings(ctx, cfg)
}

func (n *Notifier) settings(ctx context.Context, cfg Config) {
	old := n.cfg.Credentials
	n.cfg = cfg
	if !n.loaded || old == cfg.Credentials {
		return
	}
	slog.InfoContext(ctx, "credentials changed", slog.String("old", old), slog.String("new", cfg.Credentials))
	n.revoke(ctx)
	n.login(ctx)
}

func (n *Notifier) login(ctx context.Context) {
	if n.cfg.Credentials == "" {
		slog.WarnContext(ctx, "no credentials configured")
		return
	}
	creds, err := auth.LoadCredentials(n.cfg.Credentials)
	if err != nil {
		slog.ErrorContext(ctx, "couldn't load credentials", slog.String("path", n.cfg.Credentials), slog.Any("err", err))
		metrics.Observe(n.metrics.AuthAttempts, 1, "unreadable")
		return
	}
	s, err := twitch.Authenticate(ctx, n.client, creds)
	if err != nil {
		slog.ErrorContext(ctx, "couldn't authenticate", slog.String("path", n.cfg.Credentials), slog.Any("err", err))
		metrics.Observe(n.metrics.AuthAttempts, 1, "invalid")
		return
	}
	n.session = s
	if !s.Authenticated() {
		slog.ErrorContext(ctx, "authentication failed", slog.String("path", n.cfg.Credentials))
		metrics.Observe(n.metrics.AuthAttempts, 1, "failed")
		return
	}
	metrics.Observe(n.metrics.AuthAttempts, 1, "ok")
}

func (n *Notifier) revoke(ctx context.Context) {
	s := n.session
	n.session = nil
	if s == nil || !s.Authenticated() {
		return
	}
	if err := s.Revoke(ctx); err != nil {
		slog.WarnContext(ctx, "couldn't revoke session", slog.Any("err", err))
		return
	}
	slog.InfoContext(ctx, "revoked session")
}

// StreamStarted sends the stream start notification.
// The notifier considers the stream live afterward regardless of whether
// the notification succeeds.
func (n *Notifier) StreamStarted(ctx context.Context) {
	defer n.latency(ctx, EventStreamStarted, time.Now())
	n.streaming = true
	n.started = time.Now()
	metrics.Observe(n.metrics.Streaming, 1)

	trace := uuid.NewString()
	log := slog.With(slog.String("trace", trace), slog.String("event", EventStreamStarted.String()))
	s, ok := n.ready(ctx, log)
	if !ok {
		return
	}
	u, ok := n.user(ctx, log, s)
	if !ok {
		return
	}
	ch, err := s.Channel(ctx, u.ID)
	if err != nil {
		log.ErrorContext(ctx, "couldn't get channel", slog.String("user", u.ID), slog.Any("err", err))
		metrics.Observe(n.metrics.APIFailures, 1, "channel")
		return
	}
	if ch == nil {
		log.ErrorContext(ctx, "user has no channel", slog.String("user", u.ID))
		return
	}
	var art string
	h := n.cfg.BoxArtHeight
	if h <= 0 {
		h = DefaultBoxArtHeight
	}
	if ch.GameID != "" {
		g, err := s.Game(ctx, ch.GameID)
		switch {
		case err != nil:
			log.WarnContext(ctx, "couldn't get game", slog.String("game", ch.GameID), slog.Any("err", err))
			metrics.Observe(n.metrics.APIFailures, 1, "game")
		case g != nil:
			art = twitch.BoxArt(g.BoxArtURL, h)
		}
	}
	if !n.cfg.Start.Enabled {
		log.InfoContext(ctx, "start notification disabled")
		return
	}

	var e discord.Embed
	title := fmt.Sprintf("%s is streaming %s on twitch.tv  | %s", ch.BroadcasterName, ch.GameName, ch.Title)
	if err := e.SetTitle(clip(title, discord.MaxTitle)); err != nil {
		log.WarnContext(ctx, "couldn't set title", slog.Any("err", err))
	}
	e.SetURL(ChannelURL(n.cfg.Username))
	if art != "" {
		e.SetImage(art, twitch.BoxArtWidth(h), h)
	}
	e.SetTimestamp(time.Time{})
	n.send(ctx, log, EventStreamStarted, trace, &n.cfg.Start, &e)
}

// StreamStopped sends the stream end notification linking the most recent
// video. The notifier considers the stream no longer live afterward
// regardless of whether the notification succeeds.
func (n *Notifier) StreamStopped(ctx context.Context) {
	defer n.latency(ctx, EventStreamStopped, time.Now())
	if n.streaming && !n.started.IsZero() {
		metrics.Observe(n.metrics.StreamDuration, time.Since(n.started).Seconds())
	}
	n.streaming = false
	n.started = time.Time{}
	metrics.Observe(n.metrics.Streaming, 0)

	trace := uuid.NewString()
	log := slog.With(slog.String("trace", trace), slog.String("event", EventStreamStopped.String()))
	s, ok := n.ready(ctx, log)
	if !ok {
		return
	}
	u, ok := n.user(ctx, log, s)
	if !ok {
		return
	}
	videos, _, err := s.Videos(ctx, twitch.VideoQuery{UserID: u.ID, First: 1})
	if err != nil {
		log.ErrorContext(ctx, "couldn't get videos", slog.String("user", u.ID), slog.Any("err", err))
		metrics.Observe(n.metrics.APIFailures, 1, "videos")
		return
	}
	if len(videos) == 0 {
		log.ErrorContext(ctx, "user has no videos", slog.String("user", u.ID))
		return
	}
	if !n.cfg.Stop.Enabled {
		log.InfoContext(ctx, "stop notification disabled")
		return
	}

	v := &videos[0]
	var e discord.Embed
	if err := e.SetTitle(clip(v.Title, discord.MaxTitle)); err != nil {
		log.WarnContext(ctx, "couldn't set title", slog.Any("err", err))
	}
	e.SetURL(v.URL)
	e.SetTimestamp(time.Time{})
	n.send(ctx, log, EventStreamStopped, trace, &n.cfg.Stop, &e)
}

// ready returns the session if it is authenticated.
func (n *Notifier) ready(ctx context.Context, log *slog.Logger) (*twitch.Session, bool) {
	if !n.Authenticated() {
		log.ErrorContext(ctx, "can't notify", slog.Any("err", twitch.ErrNotAuthenticated))
		return nil, false
	}
	return n.session, true
}

// user looks up the configured broadcaster.
func (n *Notifier) user(ctx context.Context, log *slog.Logger, s *twitch.Session) (*twitch.User, bool) {
	u, err := s.User(ctx, n.cfg.Username)
	if err != nil {
		log.ErrorContext(ctx, "couldn't get user", slog.String("username", n.cfg.Username), slog.Any("err", err))
		metrics.Observe(n.metrics.APIFailures, 1, "users")
		return nil, false
	}
	if u == nil {
		log.ErrorContext(ctx, "no such user", slog.String("username", n.cfg.Username))
		return nil, false
	}
	return u, true
}

func (n *Notifier) send(ctx context.Context, log *slog.Logger, ev Event, trace string, a *Announcement, e *discord.Embed) {
	targets := discord.Targets(n.cfg.Webhooks, n.cfg.WebhookUsername, n.cfg.WebhookAvatar)
	w, err := discord.New(targets, a.Text(), e)
	if err != nil {
		log.ErrorContext(ctx, "couldn't build notification", slog.Any("err", err))
		return
	}
	sent, err := w.Execute(ctx, n.client)
	if errors.Is(err, discord.ErrEmptyMessage) {
		log.WarnContext(ctx, "nothing to send", slog.Any("err", err))
		return
	}
	metrics.Observe(n.metrics.Notifications, 1, ev.String())
	metrics.Observe(n.metrics.Deliveries, float64(sent), "ok")
	metrics.Observe(n.metrics.Deliveries, float64(len(targets)-sent), "failed")
	if err != nil {
		log.ErrorContext(ctx, "notification not fully delivered", slog.Int("sent", sent), slog.Int("targets", len(targets)), slog.Any("err", err))
	} else {
		log.InfoContext(ctx, "notification delivered", slog.Int("sent", sent))
	}
	if n.history == nil {
		return
	}
	entry := history.Entry{
		Event:     ev.String(),
		Trace:     trace,
		Time:      time.Now(),
		Title:     e.Title(),
		URL:       e.URL(),
		Targets:   len(targets),
		Delivered: sent,
	}
	if err := history.Record(ctx, n.history, &entry); err != nil {
		log.ErrorContext(ctx, "couldn't record notification", slog.Any("err", err))
	}
}

func (n *Notifier) latency(ctx context.Context, ev Event, start time.Time) {
	d := time.Since(start)
	metrics.Observe(n.metrics.HandlerLatency, d.Seconds(), ev.String())
	slog.DebugContext(ctx, "handled", slog.String("event", ev.String()), slog.Duration("took", d))
}

// ChannelURL is the link to a broadcaster's channel.
func ChannelURL(username string) string {
	return "https://www.twitch.tv/" + username + "/"
}

// clip truncates s to at most n characters.
func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
