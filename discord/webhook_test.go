package discord

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/go-cmp/cmp"
)

// hook is a fake webhook endpoint recording what it receives.
type hook struct {
	mu     sync.Mutex
	status int
	bodies []map[string]any
	query  []string
	ctype  []string
	// reply is the response body. If empty, it is a message with ID 1.
	reply string
	// delay is how long to wait before responding.
	delay time.Duration
}

func (h *hook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	var m map[string]any
	json.Unmarshal(b, &m)
	h.mu.Lock()
	h.bodies = append(h.bodies, m)
	h.query = append(h.query, r.URL.RawQuery)
	h.ctype = append(h.ctype, r.Header.Get("Content-Type"))
	h.mu.Unlock()
	if h.delay > 0 {
		select {
		case <-time.After(h.delay):
		case <-r.Context().Done():
			return
		}
	}
	reply := h.reply
	if reply == "" {
		reply = `{"id":"1","content":"ok"}`
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(h.status)
	io.WriteString(w, reply)
}

func hostHook(t *testing.T, status int) (*hook, string) {
	t.Helper()
	return serveHook(t, &hook{status: status})
}

func serveHook(t *testing.T, h *hook) (*hook, string) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return h, srv.URL + "/api/webhooks/1235/kessoku"
}

func TestNewNoTargets(t *testing.T) {
	_, err := New(nil, "bocchi")
	if !errors.Is(err, ErrNoTargets) {
		t.Errorf("wrong error: want %v, got %v", ErrNoTargets, err)
	}
	_, err = Message(context.Background(), nil, nil, "bocchi")
	if !errors.Is(err, ErrNoTargets) {
		t.Errorf("wrong error from Message: want %v, got %v", ErrNoTargets, err)
	}
}

func TestEmbedLimit(t *testing.T) {
	w, err := New([]Target{{URL: "https://example.com/api/webhooks/1/2"}}, "")
	if err != nil {
		t.Fatal(err)
	}
	for i := range MaxEmbeds {
		if err := w.AddEmbed(new(Embed)); err != nil {
			t.Fatalf("embed %d rejected: %v", i+1, err)
		}
	}
	if err := w.AddEmbed(new(Embed)); !errors.Is(err, ErrEmbedLimit) {
		t.Errorf("wrong error: want %v, got %v", ErrEmbedLimit, err)
	}
	embeds := make([]*Embed, MaxEmbeds+1)
	if _, err := New([]Target{{URL: "https://example.com/"}}, "", embeds...); !errors.Is(err, ErrEmbedLimit) {
		t.Errorf("wrong error from New: want %v, got %v", ErrEmbedLimit, err)
	}
}

func TestContentLimit(t *testing.T) {
	_, err := New([]Target{{URL: "https://example.com/"}}, strings.Repeat("a", MaxContent+1))
	if !errors.Is(err, ErrFieldTooLong) {
		t.Errorf("wrong error: want %v, got %v", ErrFieldTooLong, err)
	}
}

func TestExecuteEmpty(t *testing.T) {
	h, u := hostHook(t, 200)
	// An empty embed is invalid, so it doesn't count.
	w, err := New([]Target{{URL: u}}, "", new(Embed))
	if err != nil {
		t.Fatal(err)
	}
	n, err := w.Execute(context.Background(), nil)
	if !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("wrong error: want %v, got %v", ErrEmptyMessage, err)
	}
	if n != 0 {
		t.Errorf("wrong count: want 0, got %d", n)
	}
	if len(h.bodies) != 0 {
		t.Errorf("empty message was sent: %v", h.bodies)
	}
}

func TestExecute(t *testing.T) {
	h, u := hostHook(t, 200)
	var e, bad Embed
	e.SetTitle("bocchi is streaming Guitar Hero on twitch.tv  | practice")
	e.SetURL("https://www.twitch.tv/bocchi/")
	bad.SetDescription(strings.Repeat("a", MaxDescription))
	bad.SetFooter(strings.Repeat("a", MaxFooter), "")
	bad.SetAuthor(strings.Repeat("a", MaxAuthorName), "", "")
	for range 2 {
		bad.AddField(strings.Repeat("a", MaxFieldName), strings.Repeat("a", MaxFieldValue), false)
	}
	targets := []Target{{URL: u + "?thread_id=17", Username: "Kessoku Band", AvatarURL: "https://example.com/starry.png"}}
	w, err := New(targets, "The stream has started, come watch!", &e, &bad)
	if err != nil {
		t.Fatal(err)
	}
	n, err := w.Execute(context.Background(), nil)
	if err != nil {
		t.Errorf("couldn't execute: %v", err)
	}
	if n != 1 {
		t.Errorf("wrong count: want 1, got %d", n)
	}
	want := []map[string]any{
		{
			"content": "The stream has started, come watch!",
			"embeds": []any{
				map[string]any{
					"title": "bocchi is streaming Guitar Hero on twitch.tv  | practice",
					"url":   "https://www.twitch.tv/bocchi/",
				},
			},
			"username":   "Kessoku Band",
			"avatar_url": "https://example.com/starry.png",
		},
	}
	if diff := cmp.Diff(h.bodies, want); diff != "" {
		t.Errorf("wrong bodies (+got/-want):\n%s", diff)
	}
	if diff := cmp.Diff(h.query, []string{"thread_id=17&wait=true"}); diff != "" {
		t.Errorf("wrong query (+got/-want):\n%s", diff)
	}
	if diff := cmp.Diff(h.ctype, []string{"application/json"}); diff != "" {
		t.Errorf("wrong content type (+got/-want):\n%s", diff)
	}
}

func TestExecuteFanOut(t *testing.T) {
	fail, u1 := hostHook(t, 500)
	ok, u2 := hostHook(t, 200)
	n, err := Message(context.Background(), nil, []string{u1, u2}, "ryo")
	if n != 1 {
		t.Errorf("wrong count: want 1, got %d", n)
	}
	var d *DeliveryError
	if !errors.As(err, &d) {
		t.Fatalf("wrong error: want delivery error, got %v", err)
	}
	if d.Status != 500 {
		t.Errorf("wrong status: want 500, got %d", d.Status)
	}
	if strings.Contains(d.Webhook, "kessoku") || strings.Contains(err.Error(), "kessoku") {
		t.Errorf("error contains webhook token: %v", err)
	}
	want := []map[string]any{{"content": "ryo"}}
	if diff := cmp.Diff(fail.bodies, want); diff != "" {
		t.Errorf("wrong body to failing hook (+got/-want):\n%s", diff)
	}
	if diff := cmp.Diff(ok.bodies, want); diff != "" {
		t.Errorf("wrong body to ok hook (+got/-want):\n%s", diff)
	}
}

func TestExecuteMessages(t *testing.T) {
	_, u1 := serveHook(t, &hook{status: 200, reply: `{"id":"1312","channel_id":"17","content":"seika"}`})
	_, u2 := serveHook(t, &hook{status: 200, reply: `not a message`})
	w, err := New(Targets([]string{u1, u2}, "", ""), "seika")
	if err != nil {
		t.Fatal(err)
	}
	msgs, err := w.ExecuteMessages(context.Background(), nil)
	if err != nil {
		t.Errorf("couldn't execute: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("wrong number of messages: want 2, got %d", len(msgs))
	}
	if msgs[0].ID != "1312" || msgs[0].ChannelID != "17" || msgs[0].Content != "seika" {
		t.Errorf("wrong first message: %+v", msgs[0])
	}
	// An undecodable acknowledgment still counts as delivered.
	if msgs[1].ID != "" {
		t.Errorf("wrong second message: %+v", msgs[1])
	}
}

func TestExecuteTimeout(t *testing.T) {
	_, slow := serveHook(t, &hook{status: 200, delay: 2 * time.Second})
	ok, fast := hostHook(t, 200)
	cl := &http.Client{Timeout: 50 * time.Millisecond}
	n, err := Message(context.Background(), cl, []string{slow, fast}, "nijika")
	if n != 1 {
		t.Errorf("wrong count: want 1, got %d", n)
	}
	var uerr *url.Error
	if !errors.As(err, &uerr) || !uerr.Timeout() {
		t.Fatalf("wrong error: want timeout, got %v", err)
	}
	if strings.Contains(uerr.URL, "kessoku") {
		t.Errorf("timeout error contains webhook token: %v", err)
	}
	if len(ok.bodies) != 1 {
		t.Errorf("target after timeout got %d posts", len(ok.bodies))
	}
}

func TestRedact(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"https://discord.com/api/webhooks/1235/kessoku", "https://discord.com/api/webhooks/1235/…"},
		{"https://discord.com/api/webhooks/1235/kessoku/?wait=true", "https://discord.com/api/webhooks/1235/…"},
		{"https://example.com/hook", "https://example.com/hook"},
		{"not a url", "(invalid webhook URL)"},
	}
	for _, c := range cases {
		if got := Redact(c.in); got != c.want {
			t.Errorf("wrong redaction of %q: want %q, got %q", c.in, c.want, got)
		}
	}
}
