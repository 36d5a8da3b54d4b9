// Package i18n resolves which of the two site languages a request is served in.
package i18n

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/language"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// CookieName stores the visitor's language preference.
	CookieName = "lang"
)

// Lang is one of the supported site languages.
type Lang string

const (
	PT Lang = "PT"
	EN Lang = "EN"
)

// Default is served when nothing in the request selects a language.
const Default = PT

// Supported lists the site languages in toggle order.
var Supported = []Lang{PT, EN}

var matcher = language.NewMatcher([]language.Tag{
	language.BrazilianPortuguese,
	language.AmericanEnglish,
})

// Tag returns the BCP 47 tag for l.
func (l Lang) Tag() language.Tag {
	if l == EN {
		return language.AmericanEnglish
	}
	return language.BrazilianPortuguese
}

// Toggle returns the other language.
func (l Lang) Toggle() Lang {
	if l == EN {
		return PT
	}
	return EN
}

func (l Lang) String() string {
	return string(l)
}

// Parse accepts "PT"/"EN" in any case as well as BCP 47 tags such as "pt-BR"
// or "en".
func Parse(value string) (Lang, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	switch Lang(strings.ToUpper(value)) {
	case PT:
		return PT, true
	case EN:
		return EN, true
	}

	tag, err := language.Parse(value)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	switch base.String() {
	case "pt":
		return PT, true
	case "en":
		return EN, true
	}
	return "", false
}

// Resolve determines the language for r: the lang query parameter, then the
// lang cookie, then Accept-Language, then Default. persist reports whether
// the query parameter selected the language and should be stored.
func Resolve(r *http.Request) (lang Lang, persist bool) {
	if r == nil {
		return Default, false
	}

	if l, ok := Parse(r.URL.Query().Get(LangParam)); ok {
		return l, true
	}

	if cookie, err := r.Cookie(CookieName); err == nil {
		if l, ok := Parse(cookie.Value); ok {
			return l, false
		}
	}

	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			_, idx, conf := matcher.Match(tags...)
			if conf != language.No {
				return Supported[idx], false
			}
		}
	}

	return Default, false
}

// SetCookie persists lang on the response.
func SetCookie(w http.ResponseWriter, lang Lang) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    lang.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}
