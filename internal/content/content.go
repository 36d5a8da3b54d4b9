// Package content loads the site's bilingual text from a TOML file.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/joaogabrielsantos/portfolio/internal/i18n"
	"github.com/joaogabrielsantos/portfolio/internal/richtext"
)

//go:embed site.toml
var embedded []byte

// Site is everything the page shows. Text that changes with the language
// lives in Languages; the rest is shared.
type Site struct {
	Name          string                `toml:"name"`
	Monogram      string                `toml:"monogram"`
	Initial       string                `toml:"initial"`
	Photo         string                `toml:"photo"`
	PhotoAlt      string                `toml:"photo_alt"`
	Skills        []string              `toml:"skills"`
	ProfileURL    string                `toml:"profile_url"`
	FavoriteMusic Music                 `toml:"favorite_music"`
	Social        []SocialLink          `toml:"social"`
	Languages     map[string]Dictionary `toml:"languages"`
}

type Music struct {
	Title string `toml:"title"`
	URL   string `toml:"url"`
	Cover string `toml:"cover"`
}

type SocialLink struct {
	Label string `toml:"label"`
	URL   string `toml:"url"`
}

// Dictionary holds the translated strings of one language. Bio and event
// descriptions may contain rich-text markup.
type Dictionary struct {
	Hero          Hero     `toml:"hero"`
	About         About    `toml:"about"`
	Nav           Nav      `toml:"nav"`
	Timeline      Timeline `toml:"timeline"`
	Toolkit       Toolkit  `toml:"toolkit"`
	Contact       Contact  `toml:"contact"`
	FavoriteMusic string   `toml:"favorite_music"`
	Footer        string   `toml:"footer"`
}

type Hero struct {
	Greeting string `toml:"greeting"`
}

type About struct {
	Bio string `toml:"bio"`
}

type Nav struct {
	About   string `toml:"about"`
	Work    string `toml:"work"`
	Contact string `toml:"contact"`
}

type Timeline struct {
	Title  string  `toml:"title"`
	Events []Event `toml:"events"`
}

type Event struct {
	Year        string `toml:"year"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

type Toolkit struct {
	Title string        `toml:"title"`
	Items []ToolkitItem `toml:"items"`
}

type ToolkitItem struct {
	Title    string `toml:"title"`
	Subtitle string `toml:"subtitle"`
}

type Contact struct {
	Title     string `toml:"title"`
	Email     string `toml:"email"`
	Social    string `toml:"social"`
	FormTitle string `toml:"form_title"`
	Sent      string `toml:"sent"`
	Failed    string `toml:"failed"`
	Invalid   string `toml:"invalid"`
}

// Parse decodes a site from TOML and validates it.
func Parse(data []byte) (*Site, error) {
	var s Site
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding content: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadEmbedded returns the site compiled into the binary.
func LoadEmbedded() (*Site, error) {
	return Parse(embedded)
}

// Load reads and parses path from fsys.
func Load(fsys fs.FS, path string) (*Site, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading content %s: %w", path, err)
	}
	return Parse(data)
}

// Dictionary returns the strings for lang, falling back to the default
// language when lang has none.
func (s *Site) Dictionary(lang i18n.Lang) Dictionary {
	if d, ok := s.Languages[lang.String()]; ok {
		return d
	}
	return s.Languages[i18n.Default.String()]
}

// Validate checks that every supported language is present, that the
// languages line up with each other, and that rich-text links point somewhere.
func (s *Site) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, errors.New("name is empty"))
	}
	for _, l := range s.Social {
		if _, err := url.Parse(l.URL); err != nil || strings.TrimSpace(l.URL) == "" {
			errs = append(errs, fmt.Errorf("social %q: invalid url %q", l.Label, l.URL))
		}
	}

	var base *Dictionary
	for _, lang := range i18n.Supported {
		d, ok := s.Languages[lang.String()]
		if !ok {
			errs = append(errs, fmt.Errorf("language %s missing", lang))
			continue
		}
		errs = append(errs, d.validate(lang)...)
		if base == nil {
			base = &d
			continue
		}
		if len(d.Timeline.Events) != len(base.Timeline.Events) {
			errs = append(errs, fmt.Errorf("language %s: %d timeline events, want %d",
				lang, len(d.Timeline.Events), len(base.Timeline.Events)))
		}
		if len(d.Toolkit.Items) != len(base.Toolkit.Items) {
			errs = append(errs, fmt.Errorf("language %s: %d toolkit items, want %d",
				lang, len(d.Toolkit.Items), len(base.Toolkit.Items)))
		}
	}
	return errors.Join(errs...)
}

func (d Dictionary) validate(lang i18n.Lang) []error {
	var errs []error
	required := map[string]string{
		"hero.greeting":  d.Hero.Greeting,
		"about.bio":      d.About.Bio,
		"timeline.title": d.Timeline.Title,
		"toolkit.title":  d.Toolkit.Title,
		"contact.title":  d.Contact.Title,
		"contact.email":  d.Contact.Email,
	}
	for key, v := range required {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("language %s: %s is empty", lang, key))
		}
	}

	texts := []string{d.About.Bio}
	for _, e := range d.Timeline.Events {
		texts = append(texts, e.Description)
	}
	for _, text := range texts {
		for _, link := range linksIn(text) {
			u, err := url.Parse(link.URL)
			if err != nil || (u.Scheme != "https" && u.Scheme != "http" && u.Scheme != "mailto") {
				errs = append(errs, fmt.Errorf("language %s: link %q has unsupported url %q", lang, link.Text, link.URL))
			}
		}
	}
	return errs
}

func linksIn(text string) []richtext.Token {
	return richtext.Links(richtext.Render(text))
}

// Links returns every rich-text link in the dictionary, bio first.
func (d Dictionary) Links() []richtext.Token {
	links := linksIn(d.About.Bio)
	for _, e := range d.Timeline.Events {
		links = append(links, linksIn(e.Description)...)
	}
	return links
}
