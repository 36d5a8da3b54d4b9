// Package visibility reports when a page region has been scrolled into view.
//
// A Signal starts false and flips to true the first time the region's visible
// fraction reaches the configured threshold. It never flips back, and the
// observation behind it is dropped as soon as it fires or is released.
package visibility

import (
	"sync"
	"sync/atomic"
)

// DefaultThreshold is the fraction of a region that must be visible before
// its signal fires.
const DefaultThreshold = 0.1

// Rect is the vertical extent of a region in page coordinates.
type Rect struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

// Bottom returns the lower edge of the rect.
func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// Viewport is the visible window of the page.
type Viewport struct {
	ScrollY float64 `json:"scrollY"`
	Height  float64 `json:"height"`
}

// Region is a watched area of the page. Observers keep a reference to it only
// while watching; a nil *Region is an absent region.
type Region struct {
	ID     string
	Bounds Rect
}

// Observer registers regions for one-shot visibility notifications.
type Observer interface {
	Register(r *Region, opts ...Option) *Signal
}

type options struct {
	threshold float64
}

// Option configures a registration.
type Option func(*options)

// WithThreshold sets the visible fraction required to fire. Values outside
// [0, 1] are clamped.
func WithThreshold(f float64) Option {
	return func(o *options) {
		switch {
		case f < 0:
			f = 0
		case f > 1:
			f = 1
		}
		o.threshold = f
	}
}

// IntersectionRatio returns the visible fraction of r inside vp. Regions that
// only touch the viewport edge intersect with ratio 0; zero-height regions
// inside the viewport have ratio 1.
func IntersectionRatio(r Rect, vp Viewport) (ratio float64, intersecting bool) {
	top := max(r.Top, vp.ScrollY)
	bottom := min(r.Bottom(), vp.ScrollY+vp.Height)
	if bottom < top {
		return 0, false
	}
	if r.Height <= 0 {
		return 1, true
	}
	return (bottom - top) / r.Height, true
}

// crossed reports whether r meets threshold in vp. The boundary is inclusive.
func crossed(r Rect, vp Viewport, threshold float64) bool {
	ratio, ok := IntersectionRatio(r, vp)
	return ok && ratio >= threshold
}

// Signal is a one-shot visibility flag.
type Signal struct {
	visible atomic.Bool
	seen    chan struct{}
	once    sync.Once
	release func()
}

func newSignal() *Signal {
	return &Signal{seen: make(chan struct{})}
}

// Visible reports whether the region has been seen.
func (s *Signal) Visible() bool {
	return s.visible.Load()
}

// Seen returns a channel closed when the signal fires. It is never closed for
// regions that are released first or were never attached.
func (s *Signal) Seen() <-chan struct{} {
	return s.seen
}

// Release stops watching the region. It is safe to call more than once and
// after the signal fired.
func (s *Signal) Release() {
	if s.release != nil {
		s.release()
	}
}

func (s *Signal) fire() bool {
	fired := false
	s.once.Do(func() {
		s.visible.Store(true)
		close(s.seen)
		fired = true
	})
	return fired
}
