// Package discord builds rich embeds and delivers them through Discord
// webhooks.
package discord

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-json-experiment/json"
)

// Embed limits, in characters.
const (
	MaxTitle       = 256
	MaxDescription = 2048
	MaxFields      = 25
	MaxFieldName   = 256
	MaxFieldValue  = 1024
	MaxFooter      = 2048
	MaxAuthorName  = 256
	MaxTotal       = 6000
)

var (
	// ErrFieldTooLong is an error indicating that a value exceeds the length
	// limit of the attribute it is set to.
	ErrFieldTooLong = errors.New("field too long")
	// ErrFieldLimit is an error indicating that an embed already has the
	// maximum number of fields.
	ErrFieldLimit = errors.New("field limit exceeded")
	// ErrInvalidColor is an error indicating that a color is outside the
	// 24-bit RGB range or cannot be parsed.
	ErrInvalidColor = errors.New("invalid color")
)

// Embed is a rich content block attached to a message.
// The zero value is an empty embed ready to use.
// Setters trim surrounding whitespace from strings, and setting an empty
// string clears the attribute.
type Embed struct {
	title       string
	description string
	url         string
	timestamp   string
	color       int
	hasColor    bool
	footer      Footer
	image       Media
	thumbnail   Media
	video       Media
	provider    Provider
	author      Author
	fields      []Field
}

// Footer is the footer of an embed.
type Footer struct {
	Text         string `json:"text,omitempty"`
	IconURL      string `json:"icon_url,omitempty"`
	ProxyIconURL string `json:"proxy_icon_url,omitempty"`
}

// Media is an image, thumbnail, or video in an embed.
type Media struct {
	URL      string `json:"url,omitempty"`
	ProxyURL string `json:"proxy_url,omitempty"`
	Width    int    `json:"width,omitzero"`
	Height   int    `json:"height,omitzero"`
}

// Provider is the provider of an embed.
type Provider struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Author is the author of an embed.
type Author struct {
	Name         string `json:"name,omitempty"`
	URL          string `json:"url,omitempty"`
	IconURL      string `json:"icon_url,omitempty"`
	ProxyIconURL string `json:"proxy_icon_url,omitempty"`
}

// Field is a name and value pair shown in an embed.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitzero"`
}

func limit(what, s string, n int) error {
	if k := utf8.RuneCountInString(s); k > n {
		return fmt.Errorf("%s has %d characters, more than %d (%w)", what, k, n, ErrFieldTooLong)
	}
	return nil
}

// SetTitle sets the embed title.
func (e *Embed) SetTitle(s string) error {
	s = strings.TrimSpace(s)
	if err := limit("title", s, MaxTitle); err != nil {
		return err
	}
	e.title = s
	return nil
}

// Title returns the embed title.
func (e *Embed) Title() string {
	return e.title
}

// URL returns the link of the embed title.
func (e *Embed) URL() string {
	return e.url
}

// SetDescription sets the embed description.
func (e *Embed) SetDescription(s string) error {
	s = strings.TrimSpace(s)
	if err := limit("description", s, MaxDescription); err != nil {
		return err
	}
	e.description = s
	return nil
}

// SetURL sets the link of the embed title.
func (e *Embed) SetURL(s string) {
	e.url = strings.TrimSpace(s)
}

// SetTimestamp sets the embed timestamp. The zero time means now.
func (e *Embed) SetTimestamp(t time.Time) {
	if t.IsZero() {
		t = time.Now()
	}
	e.timestamp = t.UTC().Format(time.RFC3339)
}

// SetColor sets the embed color as a 24-bit RGB value.
func (e *Embed) SetColor(c int) error {
	if c < 0 || c > 0xffffff {
		return fmt.Errorf("color %d out of range (%w)", c, ErrInvalidColor)
	}
	e.color, e.hasColor = c, true
	return nil
}

// SetColorRGB sets the embed color from red, green, and blue components,
// each in 0 to 255.
func (e *Embed) SetColorRGB(r, g, b int) error {
	for _, c := range [...]int{r, g, b} {
		if c < 0 || c > 255 {
			return fmt.Errorf("color component %d out of range (%w)", c, ErrInvalidColor)
		}
	}
	return e.SetColor(r*65536 + g*256 + b)
}

// SetColorHex sets the embed color from up to six hex digits with an
// optional leading #.
func (e *Embed) SetColorHex(s string) error {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if h == "" || len(h) > 6 {
		return fmt.Errorf("hex color %q (%w)", s, ErrInvalidColor)
	}
	c, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return fmt.Errorf("hex color %q (%w)", s, ErrInvalidColor)
	}
	return e.SetColor(int(c))
}

// ClearColor removes the embed color.
func (e *Embed) ClearColor() {
	e.color, e.hasColor = 0, false
}

// SetFooter sets the embed footer.
func (e *Embed) SetFooter(text, iconURL string) error {
	text = strings.TrimSpace(text)
	if err := limit("footer", text, MaxFooter); err != nil {
		return err
	}
	e.footer = Footer{Text: text, IconURL: strings.TrimSpace(iconURL)}
	return nil
}

func media(url string, width, height int) Media {
	url = strings.TrimSpace(url)
	if url == "" {
		return Media{}
	}
	return Media{URL: url, Width: width, Height: height}
}

// SetImage sets the embed image. Zero dimensions are omitted.
func (e *Embed) SetImage(url string, width, height int) {
	e.image = media(url, width, height)
}

// SetThumbnail sets the embed thumbnail. Zero dimensions are omitted.
func (e *Embed) SetThumbnail(url string, width, height int) {
	e.thumbnail = media(url, width, height)
}

// SetVideo sets the embed video. Zero dimensions are omitted.
func (e *Embed) SetVideo(url string, width, height int) {
	e.video = media(url, width, height)
}

// SetProvider sets the embed provider.
func (e *Embed) SetProvider(name, url string) {
	e.provider = Provider{Name: strings.TrimSpace(name), URL: strings.TrimSpace(url)}
}

// SetAuthor sets the embed author.
func (e *Embed) SetAuthor(name, url, iconURL string) error {
	name = strings.TrimSpace(name)
	if err := limit("author name", name, MaxAuthorName); err != nil {
		return err
	}
	e.author = Author{Name: name, URL: strings.TrimSpace(url), IconURL: strings.TrimSpace(iconURL)}
	return nil
}

// AddField appends a field to the embed.
func (e *Embed) AddField(name, value string, inline bool) error {
	if len(e.fields) >= MaxFields {
		return fmt.Errorf("embed has %d fields (%w)", len(e.fields), ErrFieldLimit)
	}
	name, value = strings.TrimSpace(name), strings.TrimSpace(value)
	if err := limit("field name", name, MaxFieldName); err != nil {
		return err
	}
	if err := limit("field value", value, MaxFieldValue); err != nil {
		return err
	}
	e.fields = append(e.fields, Field{Name: name, Value: value, Inline: inline})
	return nil
}

// ClearFields removes all fields from the embed.
func (e *Embed) ClearFields() {
	e.fields = nil
}

// Length is the number of characters in the embed's text as counted toward
// the total embed limit.
func (e *Embed) Length() int {
	n := utf8.RuneCountInString(e.title) +
		utf8.RuneCountInString(e.description) +
		utf8.RuneCountInString(e.footer.Text) +
		utf8.RuneCountInString(e.author.Name)
	for _, f := range e.fields {
		n += utf8.RuneCountInString(f.Name) + utf8.RuneCountInString(f.Value)
	}
	return n
}

// Empty reports whether no attribute of the embed is set.
func (e *Embed) Empty() bool {
	return e.title == "" &&
		e.description == "" &&
		e.url == "" &&
		e.timestamp == "" &&
		!e.hasColor &&
		e.footer == Footer{} &&
		e.image == Media{} &&
		e.thumbnail == Media{} &&
		e.video == Media{} &&
		e.provider == Provider{} &&
		e.author == Author{} &&
		len(e.fields) == 0
}

// Valid reports whether the embed can be sent: it is not empty, and its
// length is within the total limit.
func (e *Embed) Valid() bool {
	return !e.Empty() && e.Length() <= MaxTotal
}

// embedJSON is the wire form of an embed.
type embedJSON struct {
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	Timestamp   string    `json:"timestamp,omitempty"`
	Color       *int      `json:"color,omitempty"`
	Footer      *Footer   `json:"footer,omitempty"`
	Image       *Media    `json:"image,omitempty"`
	Thumbnail   *Media    `json:"thumbnail,omitempty"`
	Video       *Media    `json:"video,omitempty"`
	Provider    *Provider `json:"provider,omitempty"`
	Author      *Author   `json:"author,omitempty"`
	Fields      []Field   `json:"fields,omitempty"`
}

// nonzero returns a pointer to v if it is not the zero value, else nil.
func nonzero[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

func (e *Embed) wire() embedJSON {
	w := embedJSON{
		Title:       e.title,
		Description: e.description,
		URL:         e.url,
		Timestamp:   e.timestamp,
		Footer:      nonzero(e.footer),
		Image:       nonzero(e.image),
		Thumbnail:   nonzero(e.thumbnail),
		Video:       nonzero(e.video),
		Provider:    nonzero(e.provider),
		Author:      nonzero(e.author),
		Fields:      e.fields,
	}
	if e.hasColor {
		c := e.color
		w.Color = &c
	}
	return w
}

// MarshalJSON encodes the embed in its wire form. Attributes which are not
// set are omitted.
func (e Embed) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.wire())
}
