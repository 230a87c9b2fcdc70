// Package history records delivered notifications in SQLite.
package history

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-json-experiment/json"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// Entry is a delivered notification.
type Entry struct {
	// Event is the lifecycle event which sent the notification,
	// e.g. "StreamStarted".
	Event string
	// Trace is the trace ID of the notification.
	Trace string
	// Time is the time at which delivery finished.
	Time time.Time
	// Title is the embed title.
	Title string
	// URL is the embed link.
	URL string
	// Targets is the number of webhooks the notification was sent to.
	Targets int
	// Delivered is the number of webhooks which acknowledged it.
	Delivered int
}

// meta is the JSON details of an entry.
type meta struct {
	Title     string `json:"title,omitempty"`
	URL       string `json:"url,omitempty"`
	Targets   int    `json:"targets,omitzero"`
	Delivered int    `json:"delivered,omitzero"`
}

func take[DB *sqlitex.Pool | *sqlite.Conn](ctx context.Context, db DB) (*sqlite.Conn, func(), error) {
	switch db := any(db).(type) {
	case *sqlite.Conn:
		return db, func() {}, nil
	case *sqlitex.Pool:
		conn, err := db.Take(ctx)
		if err != nil {
			return nil, nil, err
		}
		return conn, func() { db.Put(conn) }, nil
	}
	panic("unreachable")
}

// Record adds an entry to the history.
func Record[DB *sqlitex.Pool | *sqlite.Conn](ctx context.Context, db DB, e *Entry) error {
	conn, put, err := take(ctx, db)
	if err != nil {
		return fmt.Errorf("couldn't get conn to record notification: %w", err)
	}
	defer put()
	const insert = `INSERT INTO history (event, trace, time, meta) VALUES (:event, :trace, :time, JSONB(CAST(:meta AS TEXT)))`
	st, err := conn.Prepare(insert)
	if err != nil {
		return fmt.Errorf("couldn't prepare statement to record notification: %w", err)
	}
	m := meta{
		Title:     e.Title,
		URL:       e.URL,
		Targets:   e.Targets,
		Delivered: e.Delivered,
	}
	md, err := json.Marshal(&m)
	if err != nil {
		// Should be impossible. Explode loudly.
		go panic(fmt.Errorf("history: couldn't marshal metadata %#v: %w", m, err))
	}
	st.SetText(":event", e.Event)
	st.SetText(":trace", e.Trace)
	st.SetInt64(":time", e.Time.UnixNano())
	st.SetBytes(":meta", md)
	if _, err := st.Step(); err != nil {
		return fmt.Errorf("couldn't insert notification: %w", err)
	}
	return nil
}

// Latest returns up to n of the most recent entries, newest first.
func Latest[DB *sqlitex.Pool | *sqlite.Conn](ctx context.Context, db DB, n int) ([]Entry, error) {
	conn, put, err := take(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("couldn't get conn to read history: %w", err)
	}
	defer put()
	const sel = `SELECT event, trace, time, JSON(meta) FROM history ORDER BY time DESC LIMIT :n`
	st, err := conn.Prepare(sel)
	if err != nil {
		return nil, fmt.Errorf("couldn't prepare statement to read history: %w", err)
	}
	st.SetInt64(":n", int64(n))
	var r []Entry
	for {
		ok, err := st.Step()
		if err != nil {
			return r, fmt.Errorf("couldn't read history: %w", err)
		}
		if !ok {
			break
		}
		var m meta
		if err := json.Unmarshal([]byte(st.ColumnText(3)), &m); err != nil {
			st.Reset()
			return r, fmt.Errorf("couldn't decode history metadata: %w", err)
		}
		r = append(r, Entry{
			Event:     st.ColumnText(0),
			Trace:     st.ColumnText(1),
			Time:      time.Unix(0, st.ColumnInt64(2)),
			Title:     m.Title,
			URL:       m.URL,
			Targets:   m.Targets,
			Delivered: m.Delivered,
		})
	}
	return r, nil
}

//go:embed schema.sql
var schemaSQL string

// Init initializes an SQLite DB to record notifications.
func Init[DB *sqlitex.Pool | *sqlite.Conn](ctx context.Context, db DB) error {
	conn, put, err := take(ctx, db)
	if err != nil {
		return fmt.Errorf("couldn't get conn to initialize history: %w", err)
	}
	defer put()
	if err := sqlitex.ExecuteScript(conn, schemaSQL, nil); err != nil {
		return fmt.Errorf("couldn't initialize history schema: %w", err)
	}
	return nil
}
