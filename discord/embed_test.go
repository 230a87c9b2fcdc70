package discord

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/go-cmp/cmp"
)

func TestAddFieldLimit(t *testing.T) {
	var e Embed
	for i := range MaxFields {
		if err := e.AddField("bocchi", "guitar", i%2 == 0); err != nil {
			t.Fatalf("field %d rejected: %v", i+1, err)
		}
	}
	if err := e.AddField("bocchi", "guitar", false); !errors.Is(err, ErrFieldLimit) {
		t.Errorf("wrong error for field %d: want %v, got %v", MaxFields+1, ErrFieldLimit, err)
	}
	e.ClearFields()
	if err := e.AddField("bocchi", "guitar", false); err != nil {
		t.Errorf("field rejected after clear: %v", err)
	}
}

func TestLimits(t *testing.T) {
	cases := []struct {
		name string
		set  func(e *Embed, s string) error
		max  int
	}{
		{"title", (*Embed).SetTitle, MaxTitle},
		{"description", (*Embed).SetDescription, MaxDescription},
		{"footer", func(e *Embed, s string) error { return e.SetFooter(s, "") }, MaxFooter},
		{"author", func(e *Embed, s string) error { return e.SetAuthor(s, "", "") }, MaxAuthorName},
		{"field-name", func(e *Embed, s string) error { return e.AddField(s, "v", false) }, MaxFieldName},
		{"field-value", func(e *Embed, s string) error { return e.AddField("n", s, false) }, MaxFieldValue},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			var e Embed
			// Multibyte characters count once each.
			if err := c.set(&e, strings.Repeat("ぼ", c.max)); err != nil {
				t.Errorf("value at limit rejected: %v", err)
			}
			if err := c.set(&e, strings.Repeat("a", c.max+1)); !errors.Is(err, ErrFieldTooLong) {
				t.Errorf("wrong error for value over limit: want %v, got %v", ErrFieldTooLong, err)
			}
			// Surrounding whitespace doesn't count.
			if err := c.set(&e, "  "+strings.Repeat("a", c.max)+"\n"); err != nil {
				t.Errorf("padded value at limit rejected: %v", err)
			}
		})
	}
}

func TestColor(t *testing.T) {
	var rgb, hex, dec Embed
	if err := rgb.SetColorRGB(255, 255, 0); err != nil {
		t.Fatal(err)
	}
	if err := hex.SetColorHex("#FFFF00"); err != nil {
		t.Fatal(err)
	}
	if err := dec.SetColor(16776960); err != nil {
		t.Fatal(err)
	}
	for _, e := range []*Embed{&rgb, &hex, &dec} {
		if e.color != 16776960 || !e.hasColor {
			t.Errorf("wrong color: want 16776960, got %d (set %t)", e.color, e.hasColor)
		}
	}

	bad := []struct {
		name string
		set  func(e *Embed) error
	}{
		{"rgb-high", func(e *Embed) error { return e.SetColorRGB(256, 0, 0) }},
		{"rgb-negative", func(e *Embed) error { return e.SetColorRGB(0, -1, 0) }},
		{"hex-long", func(e *Embed) error { return e.SetColorHex("#FFFFFF0") }},
		{"hex-empty", func(e *Embed) error { return e.SetColorHex("#") }},
		{"hex-digits", func(e *Embed) error { return e.SetColorHex("kessok") }},
		{"decimal", func(e *Embed) error { return e.SetColor(0x1000000) }},
	}
	for _, c := range bad {
		t.Run(c.name, func(t *testing.T) {
			var e Embed
			if err := c.set(&e); !errors.Is(err, ErrInvalidColor) {
				t.Errorf("wrong error: want %v, got %v", ErrInvalidColor, err)
			}
			if e.hasColor {
				t.Errorf("invalid color was set")
			}
		})
	}
}

func TestValid(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		var e Embed
		if e.Valid() {
			t.Errorf("empty embed is valid")
		}
		if !e.Empty() {
			t.Errorf("zero embed is not empty")
		}
	})
	t.Run("cleared", func(t *testing.T) {
		var e Embed
		e.SetTitle("bocchi")
		e.SetTitle("   ")
		if !e.Empty() {
			t.Errorf("embed with cleared title is not empty")
		}
	})
	t.Run("color-only", func(t *testing.T) {
		var e Embed
		e.SetColor(0)
		if !e.Valid() {
			t.Errorf("embed with only a color is invalid")
		}
	})
	t.Run("at-limit", func(t *testing.T) {
		var e Embed
		e.SetTitle(strings.Repeat("a", MaxTitle))
		e.SetDescription(strings.Repeat("b", MaxDescription))
		e.SetFooter(strings.Repeat("c", MaxFooter), "")
		// 6000 - 256 - 2048 - 2048 = 1648 remaining, spread over fields.
		e.AddField(strings.Repeat("d", 200), strings.Repeat("e", 1000), false)
		e.AddField(strings.Repeat("f", 48), strings.Repeat("g", 400), false)
		if n := e.Length(); n != MaxTotal {
			t.Fatalf("wrong length: want %d, got %d", MaxTotal, n)
		}
		if !e.Valid() {
			t.Errorf("embed at total limit is invalid")
		}
		e.AddField("h", "i", true)
		if e.Valid() {
			t.Errorf("embed over total limit is valid")
		}
	})
}

func TestSetTimestamp(t *testing.T) {
	var e Embed
	when := time.Date(2022, 10, 9, 12, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	e.SetTimestamp(when)
	if e.timestamp != "2022-10-09T03:00:00Z" {
		t.Errorf("wrong timestamp: %q", e.timestamp)
	}
	e.SetTimestamp(time.Time{})
	got, err := time.Parse(time.RFC3339, e.timestamp)
	if err != nil {
		t.Fatalf("couldn't parse timestamp %q: %v", e.timestamp, err)
	}
	if d := time.Since(got); d < 0 || d > time.Minute {
		t.Errorf("zero time isn't now: %v", got)
	}
}

func TestMarshalKeys(t *testing.T) {
	cases := []struct {
		name  string
		build func(e *Embed)
		want  map[string]any
	}{
		{
			name:  "empty",
			build: func(e *Embed) {},
			want:  map[string]any{},
		},
		{
			name: "title-url",
			build: func(e *Embed) {
				e.SetTitle("Kessoku Band")
				e.SetURL("https://www.twitch.tv/bocchi/")
			},
			want: map[string]any{
				"title": "Kessoku Band",
				"url":   "https://www.twitch.tv/bocchi/",
			},
		},
		{
			name: "zero-color",
			build: func(e *Embed) {
				e.SetColor(0)
			},
			want: map[string]any{
				"color": 0.0,
			},
		},
		{
			name: "image",
			build: func(e *Embed) {
				e.SetImage("https://static-cdn.jtvnw.net/ttv-boxart/509658-52x72.jpg", 52, 72)
				e.SetThumbnail("https://example.com/thumb.png", 0, 0)
			},
			want: map[string]any{
				"image": map[string]any{
					"url":    "https://static-cdn.jtvnw.net/ttv-boxart/509658-52x72.jpg",
					"width":  52.0,
					"height": 72.0,
				},
				"thumbnail": map[string]any{
					"url": "https://example.com/thumb.png",
				},
			},
		},
		{
			name: "author-provider-footer",
			build: func(e *Embed) {
				e.SetAuthor("Hitori Gotoh", "https://www.twitch.tv/bocchi/", "")
				e.SetProvider("Twitch", "")
				e.SetFooter("STARRY", "https://example.com/starry.png")
			},
			want: map[string]any{
				"author":   map[string]any{"name": "Hitori Gotoh", "url": "https://www.twitch.tv/bocchi/"},
				"provider": map[string]any{"name": "Twitch"},
				"footer":   map[string]any{"text": "STARRY", "icon_url": "https://example.com/starry.png"},
			},
		},
		{
			name: "fields",
			build: func(e *Embed) {
				e.AddField("guitar", "bocchi", true)
				e.AddField("bass", "ryo", false)
			},
			want: map[string]any{
				"fields": []any{
					map[string]any{"name": "guitar", "value": "bocchi", "inline": true},
					map[string]any{"name": "bass", "value": "ryo"},
				},
			},
		},
		{
			name: "timestamp-video",
			build: func(e *Embed) {
				e.SetTimestamp(time.Date(2022, 12, 24, 0, 0, 0, 0, time.UTC))
				e.SetVideo("https://www.twitch.tv/videos/335921245", 1280, 720)
			},
			want: map[string]any{
				"timestamp": "2022-12-24T00:00:00Z",
				"video": map[string]any{
					"url":    "https://www.twitch.tv/videos/335921245",
					"width":  1280.0,
					"height": 720.0,
				},
			},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			var e Embed
			c.build(&e)
			b, err := json.Marshal(&e)
			if err != nil {
				t.Fatalf("couldn't marshal: %v", err)
			}
			var got map[string]any
			if err := json.Unmarshal(b, &got); err != nil {
				t.Fatalf("couldn't unmarshal %s: %v", b, err)
			}
			if diff := cmp.Diff(got, c.want); diff != "" {
				t.Errorf("wrong wire form (+got/-want):\n%s", diff)
			}
		})
	}
}

func TestMarshalValue(t *testing.T) {
	var e Embed
	e.SetTitle("Kessoku Band")
	byPtr, err := json.Marshal(&e)
	if err != nil {
		t.Fatalf("couldn't marshal pointer: %v", err)
	}
	byVal, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("couldn't marshal value: %v", err)
	}
	if string(byVal) != string(byPtr) {
		t.Errorf("value and pointer marshal differently: %s vs %s", byVal, byPtr)
	}
	if string(byVal) != `{"title":"Kessoku Band"}` {
		t.Errorf("wrong wire form: %s", byVal)
	}
}
