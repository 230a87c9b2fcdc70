package main_test

import (
	"context"
	_ "embed"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	main "github.com/zephyrtronium/livenotify"
	"github.com/zephyrtronium/livenotify/notify"
)

//go:embed example.toml
var exampleToml string

func eqcase[T comparable](t *testing.T, name string, val T, eq T) {
	t.Helper()
	if val != eq {
		t.Errorf("wrong %s: want %#v, got %#v", name, eq, val)
	}
}

func TestExampleConfig(t *testing.T) {
	t.Setenv("LIVENOTIFY_CREDENTIALS", "/etc/livenotify")
	t.Setenv("LIVENOTIFY_DB", "/var/livenotify")
	cfg, _, err := main.Load(context.Background(), strings.NewReader(exampleToml))
	if err != nil {
		t.Fatalf("failed to load example.toml: %v", err)
	}

	eqcase(t, "Twitch.Username", cfg.Twitch.Username, `bocchi`)
	eqcase(t, "Twitch.Credentials", cfg.Twitch.Credentials, `/etc/livenotify/twitch.json`)
	eqcase(t, "Discord.Webhooks[0]", cfg.Discord.Webhooks[0], `https://discord.com/api/webhooks/1235/kessoku`)
	eqcase(t, "Discord.Webhooks[1]", cfg.Discord.Webhooks[1], `https://discord.com/api/webhooks/1312/starry`)
	eqcase(t, "Discord.Username", cfg.Discord.Username, `Kessoku Band`)
	eqcase(t, "Discord.Avatar", cfg.Discord.Avatar, `https://example.com/kessoku.png`)
	eqcase(t, "Discord.BoxArtHeight", cfg.Discord.BoxArtHeight, 72)
	eqcase(t, "Discord.Start.Messages[`Guitar Hero`]", cfg.Discord.Start.Messages[`Guitar Hero is on stage!`], 3)
	eqcase(t, "HTTP.Listen", cfg.HTTP.Listen, `:4959`)
	eqcase(t, "HTTP.Timeout", cfg.HTTP.Timeout, 10.0)
	eqcase(t, "DB.History", cfg.DB.History, `file:/var/livenotify/history.db`)

	got := cfg.Notify()
	want := notify.Config{
		Username:        "bocchi",
		Credentials:     "/etc/livenotify/twitch.json",
		Webhooks:        []string{"https://discord.com/api/webhooks/1235/kessoku", "https://discord.com/api/webhooks/1312/starry"},
		WebhookUsername: "Kessoku Band",
		WebhookAvatar:   "https://example.com/kessoku.png",
		BoxArtHeight:    72,
		Start: notify.Announcement{
			Enabled: true,
			Message: "Bocchi is live, come watch!",
			Variants: map[string]int{
				"Guitar Hero is on stage!":            3,
				"The stream has started, come watch!": 1,
			},
		},
		Stop: notify.Announcement{
			Enabled: false,
			Message: notify.DefaultStopMessage,
		},
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("wrong notifier config (+got/-want):\n%s", diff)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg, _, err := main.Load(context.Background(), strings.NewReader("[twitch]\nusername = 'ryo'\n"))
	if err != nil {
		t.Fatal(err)
	}
	got := cfg.Notify()
	eqcase(t, "BoxArtHeight", got.BoxArtHeight, notify.DefaultBoxArtHeight)
	eqcase(t, "Start.Enabled", got.Start.Enabled, true)
	eqcase(t, "Start.Message", got.Start.Message, notify.DefaultStartMessage)
	eqcase(t, "Stop.Enabled", got.Stop.Enabled, true)
	eqcase(t, "Stop.Message", got.Stop.Message, notify.DefaultStopMessage)
	eqcase(t, "len(Webhooks)", len(got.Webhooks), 0)
}
