// Package parallax computes scroll-linked offsets for the hero and about
// sections.
package parallax

import (
	"strconv"
)

// Element ids the effects apply to.
const (
	HeroName   = "hero-name"
	HeroLetter = "hero-letter"
	AboutPhoto = "about-photo"
	AboutBio   = "about-bio"
)

const (
	heroRate      = 0.2
	heroFadeRange = 600
	letterRate    = -0.1
	aboutStart    = 200
	photoRate     = -0.15
	bioRate       = -0.05
)

// Effects holds the vertical offsets, in pixels, for one scroll position.
type Effects struct {
	HeroNameY   float64 `json:"heroNameY"`
	HeroOpacity float64 `json:"heroOpacity"`
	HeroLetterY float64 `json:"heroLetterY"`
	AboutPhotoY float64 `json:"aboutPhotoY"`
	AboutBioY   float64 `json:"aboutBioY"`
}

// Compute returns the effects at scrollY. Negative offsets (overscroll) are
// treated as 0.
func Compute(scrollY float64) Effects {
	scrollY = max(scrollY, 0)
	return Effects{
		HeroNameY:   scrollY * heroRate,
		HeroOpacity: max(0, 1-scrollY/heroFadeRange),
		HeroLetterY: scrollY * letterRate,
		AboutPhotoY: max(0, (scrollY-aboutStart)*photoRate),
		AboutBioY:   max(0, (scrollY-aboutStart)*bioRate),
	}
}

// Styles returns the inline style for each element id.
func (e Effects) Styles() map[string]string {
	return map[string]string{
		HeroName:   translateY(e.HeroNameY) + ";opacity:" + num(e.HeroOpacity),
		HeroLetter: translateY(e.HeroLetterY),
		AboutPhoto: translateY(e.AboutPhotoY),
		AboutBio:   translateY(e.AboutBioY),
	}
}

func translateY(px float64) string {
	return "transform:translateY(" + num(px) + "px)"
}

func num(f float64) string {
	if f == 0 {
		f = 0 // no "-0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
