package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/zephyrtronium/livenotify/notify"
	"github.com/zephyrtronium/livenotify/twitch"
	"github.com/zephyrtronium/livenotify/twitch/eventsub"
)

// host delivers lifecycle events from EventSub to a notifier.
type host struct {
	// file is the config file to reload on SIGHUP.
	file string
	// notifier receives events. Only the event loop touches it.
	notifier *notify.Notifier
	// dispatch holds the handlers for stream events.
	dispatch *notify.Dispatcher
	// eventsub is the EventSub server address. Empty means the default.
	eventsub string
}

// serve loads the notifier and relays stream events to it until the context
// is canceled or EventSub fails.
func (h *host) serve(ctx context.Context, cfg *Config) error {
	h.notifier.Loaded(ctx, cfg.Notify())
	// Unload even when the context is canceled, since that's how we usually
	// stop.
	defer h.dispatch.Dispatch(context.WithoutCancel(ctx), notify.EventUnloaded)
	s := h.notifier.Session()
	if s == nil || !s.Authenticated() {
		return fmt.Errorf("can't serve without a session: %w", twitch.ErrNotAuthenticated)
	}
	u, err := s.User(ctx, cfg.Twitch.Username)
	if err != nil {
		return fmt.Errorf("couldn't get broadcaster: %w", err)
	}
	if u == nil {
		return fmt.Errorf("no such user %q", cfg.Twitch.Username)
	}

	es, err := eventsub.Connect(ctx, nil, 0, h.eventsub)
	if err != nil {
		return err
	}
	for _, typ := range []string{eventsub.StreamOnline, eventsub.StreamOffline} {
		sub, err := s.Subscribe(ctx, typ, "1", u.ID, es.ID())
		if err != nil {
			es.Close()
			return fmt.Errorf("couldn't subscribe to %s: %w", typ, err)
		}
		slog.InfoContext(ctx, "subscribed", slog.String("type", typ), slog.String("id", sub.ID), slog.String("broadcaster", u.ID))
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	events := make(chan notify.Event)
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return relay(ctx, es, events) })
	group.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev := <-events:
				h.dispatch.Dispatch(ctx, ev)
			case <-hup:
				h.reload(ctx)
			}
		}
	})
	return group.Wait()
}

// reload reloads the config file and reports the new settings.
func (h *host) reload(ctx context.Context) {
	slog.InfoContext(ctx, "reloading config", slog.String("file", h.file))
	cfg, err := loadFile(ctx, h.file)
	if err != nil {
		slog.ErrorContext(ctx, "couldn't reload config", slog.Any("err", err))
		return
	}
	h.notifier.SettingsChanged(ctx, cfg.Notify())
}

// relay sends stream events from an EventSub session until it fails.
// Reconnects are followed transparently. Revocations are errors.
// The session is closed on return.
func relay(ctx context.Context, es *eventsub.Session, events chan<- notify.Event) error {
	defer func() { es.Close() }()
	for {
		ev, err := es.Recv(ctx)
		var rc *eventsub.ReconnectError
		switch {
		case errors.As(err, &rc):
			slog.InfoContext(ctx, "EventSub reconnecting", slog.String("session", rc.Session))
			next, err := eventsub.Connect(ctx, nil, 0, rc.ReconnectURL)
			if err != nil {
				return fmt.Errorf("couldn't reconnect to EventSub: %w", err)
			}
			es.Close()
			es = next
			continue
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("EventSub failed: %w", err)
		}
		var e notify.Event
		switch ev.Subscription.Type {
		case eventsub.StreamOnline:
			e = notify.EventStreamStarted
		case eventsub.StreamOffline:
			e = notify.EventStreamStopped
		default:
			slog.WarnContext(ctx, "unexpected EventSub notification", slog.String("type", ev.Subscription.Type))
			continue
		}
		login := ev.Broadcaster()
		if st, err := ev.Stream(); err == nil {
			login = st.BroadcasterLogin
		}
		slog.InfoContext(ctx, "stream event", slog.String("type", ev.Subscription.Type), slog.String("broadcaster", login))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case events <- e:
		}
	}
}
