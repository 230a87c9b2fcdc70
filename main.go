package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/zephyrtronium/livenotify/history"
	"github.com/zephyrtronium/livenotify/metrics"
	"github.com/zephyrtronium/livenotify/notify"
)

var app = cli.Command{
	Name:  "livenotify",
	Usage: "Announce Twitch streams to Discord webhooks",

	Flags: []cli.Flag{
		&flagConfig,
		&flagLog,
		&flagLogFormat,
	},
	Commands: []*cli.Command{
		{
			Name:   "serve",
			Usage:  "Watch the stream through EventSub and announce starts and ends",
			Action: cliServe,
		},
		{
			Name:   "start",
			Usage:  "Announce that the stream has started",
			Action: cliOneShot(notify.EventStreamStarted),
		},
		{
			Name:   "stop",
			Usage:  "Announce that the stream has ended",
			Action: cliOneShot(notify.EventStreamStopped),
		},
		{
			Name:  "history",
			Usage: "Show recent notifications",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "n",
					Usage: "Number of notifications to show",
					Value: 10,
				},
			},
			Action: cliHistory,
		},
	},

	Authors: []any{
		"Branden J Brown  @zephyrtronium",
	},
	Copyright: "Copyright 2024 Branden J Brown",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		stop()
	}()
	err := app.Run(ctx, os.Args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func cliServe(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	file := cmd.String("config")
	cfg, err := loadFile(ctx, file)
	if err != nil {
		return err
	}
	db, err := loadHistory(ctx, cfg.DB)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	m := newMetrics()
	n := notify.New(notify.Options{
		HTTP:    cfg.HTTP.client(),
		Metrics: m,
		History: db,
	})
	d := notify.NewDispatcher()
	n.Register(d)
	h := host{file: file, notifier: n, dispatch: d}

	group, ctx := errgroup.WithContext(ctx)
	if cfg.HTTP.Listen != "" {
		group.Go(func() error { return api(ctx, cfg.HTTP.Listen, m.Collectors()) })
	}
	group.Go(func() error { return h.serve(ctx, cfg) })
	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		// If the first error is context canceled, then we are shutting down
		// normally in response to a sigint.
		err = nil
	}
	return err
}

// cliOneShot creates an action which loads the notifier, dispatches a single
// event, and unloads.
func cliOneShot(ev notify.Event) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		slog.SetDefault(loggerFromFlags(cmd))
		cfg, err := loadFile(ctx, cmd.String("config"))
		if err != nil {
			return err
		}
		db, err := loadHistory(ctx, cfg.DB)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close()
		}
		n := notify.New(notify.Options{HTTP: cfg.HTTP.client(), History: db})
		d := notify.NewDispatcher()
		n.Register(d)
		n.Loaded(ctx, cfg.Notify())
		if !n.Authenticated() {
			d.Dispatch(ctx, notify.EventUnloaded)
			return errors.New("couldn't authenticate; see logs")
		}
		d.Dispatch(ctx, ev)
		d.Dispatch(context.WithoutCancel(ctx), notify.EventUnloaded)
		return nil
	}
}

func cliHistory(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	cfg, err := loadFile(ctx, cmd.String("config"))
	if err != nil {
		return err
	}
	db, err := loadHistory(ctx, cfg.DB)
	if err != nil {
		return err
	}
	if db == nil {
		return errors.New("no history db configured")
	}
	defer db.Close()
	entries, err := history.Latest(ctx, db, int(cmd.Int("n")))
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s\t%s\t%d/%d\t%s\t%s\t%s\n", e.Time.Format(time.RFC3339), e.Event, e.Delivered, e.Targets, e.Title, e.URL, e.Trace)
	}
	return nil
}

var (
	flagConfig = cli.StringFlag{
		Name:       "config",
		Required:   true,
		Usage:      "TOML config file",
		Persistent: true,
		Action: func(ctx context.Context, cmd *cli.Command, s string) error {
			i, err := os.Stat(s)
			if err != nil {
				return err
			}
			if !i.Mode().IsRegular() {
				return errors.New("config must be a regular file")
			}
			return nil
		},
	}

	flagLog = cli.StringFlag{
		Name:       "log",
		Usage:      "Logging level, one of debug, info, warn, error",
		Value:      "info",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			var l slog.Level
			return l.UnmarshalText([]byte(s))
		},
	}

	flagLogFormat = cli.StringFlag{
		Name:       "log-format",
		Usage:      "Logging format, either text or json",
		Value:      "text",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			switch strings.ToLower(s) {
			case "text", "json":
				return nil
			default:
				return errors.New("unknown logging format")
			}
		},
	}
)

func loggerFromFlags(cmd *cli.Command) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(cmd.String("log"))); err != nil {
		panic(err)
	}
	var h slog.Handler
	switch strings.ToLower(cmd.String("log-format")) {
	case "text":
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	case "json":
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	}
	return slog.New(h)
}

// metrics configuration
func newMetrics() *metrics.Metrics {
	return &metrics.Metrics{
		Notifications: metrics.NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "livenotify",
					Subsystem: "notify",
					Name:      "notifications",
					Help:      "Number of notifications sent.",
				},
				[]string{"event"},
			),
		),
		Deliveries: metrics.NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "livenotify",
					Subsystem: "discord",
					Name:      "deliveries",
					Help:      "Number of webhook deliveries attempted.",
				},
				[]string{"result"},
			),
		),
		AuthAttempts: metrics.NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "livenotify",
					Subsystem: "twitch",
					Name:      "auth_attempts",
					Help:      "Number of attempts to authenticate with Twitch.",
				},
				[]string{"result"},
			),
		),
		APIFailures: metrics.NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "livenotify",
					Subsystem: "twitch",
					Name:      "api_failures",
					Help:      "Number of failed Twitch API lookups.",
				},
				[]string{"op"},
			),
		),
		HandlerLatency: metrics.NewPromObserverVec(
			prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Buckets:   []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 5, 10, 30},
					Namespace: "livenotify",
					Subsystem: "notify",
					Name:      "handler_latency",
					Help:      "How long event handlers take in seconds.",
				},
				[]string{"event"},
			),
		),
		StreamDuration: metrics.NewPromHistogram(
			prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Buckets:   prometheus.ExponentialBuckets(900, 2, 6),
					Namespace: "livenotify",
					Subsystem: "notify",
					Name:      "stream_duration",
					Help:      "Length of observed streams in seconds.",
				},
			),
		),
		Streaming: metrics.NewPromGauge(
			prometheus.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "livenotify",
					Subsystem: "notify",
					Name:      "streaming",
					Help:      "1 while the stream is live.",
				},
			),
		),
	}
}
