// Package richtext renders the inline markup used inside translated strings:
// [label](url) links, ***bold italic*** and **bold** spans.
package richtext

import (
	"html/template"
	"net/url"
	"regexp"
	"strings"
)

// Kind identifies the styling of a token.
type Kind int

const (
	Plain Kind = iota
	Bold
	BoldItalic
	Link
)

func (k Kind) String() string {
	switch k {
	case Bold:
		return "bold"
	case BoldItalic:
		return "bold-italic"
	case Link:
		return "link"
	default:
		return "plain"
	}
}

// Token is one fragment of rendered text. URL is only set for Link tokens.
type Token struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// Content returns the visible text of the token.
func (t Token) Content() string {
	return t.Text
}

// inLine matches any character except a line terminator (\n, \r, U+2028,
// U+2029). RE2's "." only excludes \n.
const inLine = `[^\n\r\x{2028}\x{2029}]`

// spanPattern matches any of the three span forms. Alternation order matters:
// links first, then *** before ** so bold never eats part of a bold-italic span.
var spanPattern = regexp.MustCompile(
	`\[` + inLine + `*?\]\(` + inLine + `*?\)` +
		`|\*\*\*` + inLine + `*?\*\*\*` +
		`|\*\*` + inLine + `*?\*\*`)

var linkPattern = regexp.MustCompile(`^\[(` + inLine + `*?)\]\((` + inLine + `*?)\)$`)

// rule classifies a piece of split input. ok is false when the piece does not
// have the rule's delimiters.
type rule func(piece string) (tok Token, ok bool)

// rules are evaluated in order for every piece.
var rules = []rule{
	func(p string) (Token, bool) {
		if len(p) >= 6 && strings.HasPrefix(p, "***") && strings.HasSuffix(p, "***") {
			return Token{Kind: BoldItalic, Text: p[3 : len(p)-3]}, true
		}
		return Token{}, false
	},
	func(p string) (Token, bool) {
		if len(p) >= 4 && strings.HasPrefix(p, "**") && strings.HasSuffix(p, "**") {
			return Token{Kind: Bold, Text: p[2 : len(p)-2]}, true
		}
		return Token{}, false
	},
	func(p string) (Token, bool) {
		if !strings.HasPrefix(p, "[") || !strings.Contains(p, "](") || !strings.HasSuffix(p, ")") {
			return Token{}, false
		}
		m := linkPattern.FindStringSubmatch(p)
		if m == nil {
			return Token{}, false
		}
		return Token{Kind: Link, Text: m[1], URL: m[2]}, true
	},
}

// Render parses s into an ordered token sequence. It never fails: text that is
// not a recognised span is returned verbatim as Plain tokens, and empty input
// yields no tokens.
func Render(s string) []Token {
	if s == "" {
		return nil
	}

	var tokens []Token
	last := 0
	for _, loc := range spanPattern.FindAllStringIndex(s, -1) {
		if loc[0] > last {
			tokens = append(tokens, Token{Kind: Plain, Text: s[last:loc[0]]})
		}
		tokens = append(tokens, classify(s[loc[0]:loc[1]]))
		last = loc[1]
	}
	if last < len(s) {
		tokens = append(tokens, Token{Kind: Plain, Text: s[last:]})
	}
	return tokens
}

func classify(piece string) Token {
	for _, r := range rules {
		if tok, ok := r(piece); ok {
			return tok
		}
	}
	return Token{Kind: Plain, Text: piece}
}

// Text concatenates the visible content of tokens.
func Text(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Content())
	}
	return b.String()
}

// Links returns the link tokens in order.
func Links(tokens []Token) []Token {
	var links []Token
	for _, t := range tokens {
		if t.Kind == Link {
			links = append(links, t)
		}
	}
	return links
}

// HTML renders tokens as escaped markup. Links always open in a new browsing
// context without leaking the referrer.
func HTML(tokens []Token) template.HTML {
	var b strings.Builder
	for _, t := range tokens {
		text := template.HTMLEscapeString(t.Text)
		switch t.Kind {
		case Bold:
			b.WriteString(`<strong class="font-bold">` + text + `</strong>`)
		case BoldItalic:
			b.WriteString(`<strong class="italic font-bold">` + text + `</strong>`)
		case Link:
			b.WriteString(`<a href="` + template.HTMLEscapeString(SafeURL(t.URL)) +
				`" target="_blank" rel="noopener noreferrer" class="timeline-link font-bold">` +
				text + `</a>`)
		default:
			b.WriteString(text)
		}
	}
	return template.HTML(b.String())
}

// RenderHTML is HTML(Render(s)); it backs the richText template function.
func RenderHTML(s string) template.HTML {
	return HTML(Render(s))
}

// SafeURL returns raw when it is a relative reference or uses the http, https
// or mailto scheme, and "#" otherwise.
func SafeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return raw
	default:
		return "#"
	}
}
