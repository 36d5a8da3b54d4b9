package visibility

import (
	"slices"
	"sync"
)

var _ Observer = (*ScrollObserver)(nil)

type watch struct {
	region    *Region
	threshold float64
	signal    *Signal
}

// ScrollObserver detects visibility by checking registered regions against
// viewport updates pushed through Scroll.
type ScrollObserver struct {
	mu      sync.Mutex
	vp      Viewport
	watches []*watch
	closed  bool
}

// NewScrollObserver creates an observer positioned at vp.
func NewScrollObserver(vp Viewport) *ScrollObserver {
	return &ScrollObserver{vp: vp}
}

// Register starts watching r. The current viewport is checked immediately, so
// a region already on screen fires during registration. A nil region, or a
// closed observer, yields a signal that never fires.
func (o *ScrollObserver) Register(r *Region, opts ...Option) *Signal {
	cfg := options{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := newSignal()
	if r == nil {
		return s
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return s
	}
	if crossed(r.Bounds, o.vp, cfg.threshold) {
		s.fire()
		return s
	}

	w := &watch{region: r, threshold: cfg.threshold, signal: s}
	o.watches = append(o.watches, w)
	s.release = func() { o.remove(w) }
	return s
}

// Scroll moves the viewport and fires every watched region that crossed its
// threshold. It returns the IDs of the regions that fired, in registration
// order.
func (o *ScrollObserver) Scroll(vp Viewport) []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.vp = vp
	var revealed []string
	kept := o.watches[:0]
	for _, w := range o.watches {
		if crossed(w.region.Bounds, vp, w.threshold) {
			if w.signal.fire() {
				revealed = append(revealed, w.region.ID)
			}
			continue
		}
		kept = append(kept, w)
	}
	clear(o.watches[len(kept):])
	o.watches = kept
	return revealed
}

// Move updates the bounds of r after a layout change. The new bounds are
// checked on the next Scroll.
func (o *ScrollObserver) Move(r *Region, bounds Rect) {
	if r == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	r.Bounds = bounds
}

// Pending returns the number of regions still being watched.
func (o *ScrollObserver) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.watches)
}

// Close releases every observation. Later registrations are inert.
func (o *ScrollObserver) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	clear(o.watches)
	o.watches = nil
}

func (o *ScrollObserver) remove(target *watch) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, w := range o.watches {
		if w == target {
			o.watches = slices.Delete(o.watches, i, i+1)
			return
		}
	}
}
