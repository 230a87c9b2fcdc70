package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/zephyrtronium/livenotify/history"
	"github.com/zephyrtronium/livenotify/notify"
)

// Load loads the notifier configuration from TOML.
func Load(ctx context.Context, r io.Reader) (*Config, *toml.MetaData, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't decode config: %w", err)
	}
	expandcfg(&cfg, os.Getenv)
	if u := md.Undecoded(); len(u) != 0 {
		slog.WarnContext(ctx, "unknown config keys", slog.Any("keys", u))
	}
	return &cfg, &md, nil
}

// loadFile loads the configuration from a file.
func loadFile(ctx context.Context, file string) (*Config, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("couldn't open config file: %w", err)
	}
	defer r.Close()
	cfg, _, err := Load(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("couldn't load config: %w", err)
	}
	return cfg, nil
}

// Config is the marshaled structure of the configuration.
type Config struct {
	// Twitch is the broadcaster to watch.
	Twitch TwitchCfg `toml:"twitch"`
	// Discord is the webhooks to notify.
	Discord DiscordCfg `toml:"discord"`
	// HTTP is the metrics server and outbound request settings.
	HTTP HTTPCfg `toml:"http"`
	// DB is the table of database connection strings.
	DB DBCfg `toml:"db"`
}

// TwitchCfg is the configuration for the broadcaster.
type TwitchCfg struct {
	// Username is the broadcaster's login.
	Username string `toml:"username"`
	// Credentials is the path to the JSON credentials file.
	Credentials string `toml:"credentials"`
}

// DiscordCfg is the configuration for notifications.
type DiscordCfg struct {
	// Webhooks is the list of webhook URLs to notify.
	Webhooks []string `toml:"webhooks"`
	// Username overrides the webhook username.
	Username string `toml:"username"`
	// Avatar overrides the webhook avatar.
	Avatar string `toml:"avatar"`
	// BoxArtHeight is the height of box art images in pixels.
	BoxArtHeight int `toml:"boxart_height"`
	// Start is the stream start announcement.
	Start AnnouncementCfg `toml:"start"`
	// Stop is the stream end announcement.
	Stop AnnouncementCfg `toml:"stop"`
}

// AnnouncementCfg is the configuration for one kind of notification.
type AnnouncementCfg struct {
	// Enabled sets whether to send the notification. Default true.
	Enabled *bool `toml:"enabled"`
	// Message is the message content.
	Message *string `toml:"message"`
	// Messages are weighted alternatives to Message.
	Messages map[string]int `toml:"messages"`
}

// HTTPCfg is the configuration for HTTP.
type HTTPCfg struct {
	// Listen is the address on which to serve metrics.
	// If empty, there is no metrics server.
	Listen string `toml:"listen"`
	// Timeout is the timeout for outbound requests in seconds. Default 30.
	Timeout float64 `toml:"timeout"`
}

// DBCfg is the configuration of databases.
type DBCfg struct {
	// History is the SQLite DSN of the notification history.
	// If empty, history is not recorded.
	History string `toml:"history"`
}

func expandcfg(cfg *Config, expand func(s string) string) {
	fields := []*string{
		&cfg.Twitch.Username,
		&cfg.Twitch.Credentials,
		&cfg.Discord.Username,
		&cfg.Discord.Avatar,
		&cfg.HTTP.Listen,
		&cfg.DB.History,
	}
	for _, f := range fields {
		*f = os.Expand(*f, expand)
	}
	for i, s := range cfg.Discord.Webhooks {
		cfg.Discord.Webhooks[i] = os.Expand(s, expand)
	}
}

// announcement converts an announcement config with the given default message.
func (a *AnnouncementCfg) announcement(def string) notify.Announcement {
	r := notify.Announcement{
		Enabled:  a.Enabled == nil || *a.Enabled,
		Message:  def,
		Variants: a.Messages,
	}
	if a.Message != nil {
		r.Message = *a.Message
	}
	return r
}

// Notify converts the configuration to the notifier's form.
func (cfg *Config) Notify() notify.Config {
	h := cfg.Discord.BoxArtHeight
	if h <= 0 {
		h = notify.DefaultBoxArtHeight
	}
	return notify.Config{
		Username:        cfg.Twitch.Username,
		Credentials:     cfg.Twitch.Credentials,
		Webhooks:        cfg.Discord.Webhooks,
		WebhookUsername: cfg.Discord.Username,
		WebhookAvatar:   cfg.Discord.Avatar,
		BoxArtHeight:    h,
		Start:           cfg.Discord.Start.announcement(notify.DefaultStartMessage),
		Stop:            cfg.Discord.Stop.announcement(notify.DefaultStopMessage),
	}
}

// client creates the HTTP client for outbound requests.
func (cfg *HTTPCfg) client() *http.Client {
	t := cfg.Timeout
	if t <= 0 {
		t = 30
	}
	return &http.Client{Timeout: fseconds(t)}
}

func fseconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// loadHistory opens and initializes the history database.
// If no DSN is configured, the result is nil.
func loadHistory(ctx context.Context, cfg DBCfg) (*sqlitex.Pool, error) {
	if cfg.History == "" {
		slog.DebugContext(ctx, "no history db")
		return nil, nil
	}
	slog.DebugContext(ctx, "history db", slog.String("path", cfg.History))
	db, err := sqlitex.NewPool(cfg.History, sqlitex.PoolOptions{})
	if err != nil {
		return nil, fmt.Errorf("couldn't open history db: %w", err)
	}
	if err := history.Init(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
