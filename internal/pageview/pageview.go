// Package pageview tracks the visibility state of open page views.
//
// Each view owns a visibility.ScrollObserver fed by the scroll offsets the
// browser reports. Views end when the browser says so or after sitting idle
// for the store's TTL; either way every pending observation is released.
package pageview

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joaogabrielsantos/portfolio/internal/i18n"
	"github.com/joaogabrielsantos/portfolio/internal/visibility"
)

var (
	ErrViewNotFound   = errors.New("page view not found")
	ErrTooManyRegions = errors.New("too many regions")
)

// Region is a region reported by the browser. A nil Threshold uses
// visibility.DefaultThreshold. Hidden regions are not rendered (display:none)
// and are never revealed until a later layout reports them shown.
type Region struct {
	ID        string
	Top       float64
	Height    float64
	Threshold *float64
	Hidden    bool
}

func (r Region) bounds() visibility.Rect {
	return visibility.Rect{Top: r.Top, Height: r.Height}
}

// View is one open page.
type View struct {
	ID       string
	Lang     i18n.Lang
	Opened   time.Time
	observer *visibility.ScrollObserver
	lastSeen time.Time

	mu      sync.Mutex
	signals map[string]*visibility.Signal
	// regions holds the watched geometry; hidden regions have no entry.
	regions map[string]*visibility.Region
}

// Visible reports whether the region has been revealed in this view.
func (v *View) Visible(regionID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.signals[regionID]
	return ok && s.Visible()
}

// Pending is the number of regions still waiting to be revealed.
func (v *View) Pending() int { return v.observer.Pending() }

// register starts watching r and reports whether it fired immediately.
// Callers hold v.mu or own v exclusively.
func (v *View) register(r Region) bool {
	var opts []visibility.Option
	if r.Threshold != nil {
		opts = append(opts, visibility.WithThreshold(*r.Threshold))
	}

	var region *visibility.Region
	if r.Hidden {
		delete(v.regions, r.ID)
	} else {
		region = &visibility.Region{ID: r.ID, Bounds: r.bounds()}
		v.regions[r.ID] = region
	}
	sig := v.observer.Register(region, opts...)
	v.signals[r.ID] = sig
	return sig.Visible()
}

// relayout applies new geometry to the regions that have not fired yet,
// moves the viewport to vp and returns the regions revealed. Regions shown
// for the first time are registered after the move, against vp.
func (v *View) relayout(vp visibility.Viewport, regions []Region, maxRegions int) ([]string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	added := 0
	seen := make(map[string]bool, len(regions))
	for _, r := range regions {
		if _, known := v.signals[r.ID]; !known && !seen[r.ID] {
			added++
		}
		seen[r.ID] = true
	}
	if len(v.signals)+added > maxRegions {
		return nil, ErrTooManyRegions
	}

	var pending []Region
	clear(seen)
	for _, r := range regions {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true

		sig, known := v.signals[r.ID]
		if known && sig.Visible() {
			continue
		}
		region, watched := v.regions[r.ID]
		switch {
		case watched && r.Hidden:
			sig.Release()
			v.register(r)
		case watched:
			v.observer.Move(region, r.bounds())
		case r.Hidden && known:
		default:
			pending = append(pending, r)
		}
	}

	revealed := v.observer.Scroll(vp)
	for _, r := range pending {
		if v.register(r) {
			revealed = append(revealed, r.ID)
		}
	}
	return revealed, nil
}

// RevealFunc is called for every region revealed in a view.
type RevealFunc func(viewID string, lang i18n.Lang, regionID string)

// Store holds the open views.
type Store struct {
	mu         sync.Mutex
	views      map[string]*View
	ttl        time.Duration
	maxRegions int
	onReveal   RevealFunc
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets how long a view may sit idle before it is swept.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithMaxRegions caps the regions a single view may register.
func WithMaxRegions(n int) Option {
	return func(s *Store) { s.maxRegions = n }
}

// WithRevealHook sets a callback run for each reveal, outside the store lock.
func WithRevealHook(fn RevealFunc) Option {
	return func(s *Store) { s.onReveal = fn }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		views:      make(map[string]*View),
		ttl:        30 * time.Minute,
		maxRegions: 64,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts a view at vp and registers its regions. Regions already on
// screen are returned as revealed.
func (s *Store) Open(lang i18n.Lang, vp visibility.Viewport, regions []Region) (*View, []string, error) {
	if len(regions) > s.maxRegions {
		return nil, nil, ErrTooManyRegions
	}

	now := s.now()
	v := &View{
		ID:       uuid.NewString(),
		Lang:     lang,
		Opened:   now,
		lastSeen: now,
		observer: visibility.NewScrollObserver(vp),
		signals:  make(map[string]*visibility.Signal, len(regions)),
		regions:  make(map[string]*visibility.Region, len(regions)),
	}

	var revealed []string
	for _, r := range regions {
		if _, dup := v.signals[r.ID]; dup {
			continue
		}
		if v.register(r) {
			revealed = append(revealed, r.ID)
		}
	}

	s.mu.Lock()
	s.views[v.ID] = v
	s.mu.Unlock()

	s.notify(v, revealed)
	return v, revealed, nil
}

// Scroll moves the view's viewport and returns the regions revealed by it.
func (s *Store) Scroll(id string, vp visibility.Viewport) ([]string, error) {
	v, err := s.touch(id)
	if err != nil {
		return nil, err
	}

	revealed := v.observer.Scroll(vp)
	s.notify(v, revealed)
	return revealed, nil
}

// Relayout replaces the geometry of the view's unrevealed regions, for
// example after images load or the window is resized, and then moves the
// viewport to vp. Regions not seen before are added, subject to the region
// cap. It returns the regions revealed by the change.
func (s *Store) Relayout(id string, vp visibility.Viewport, regions []Region) ([]string, error) {
	v, err := s.touch(id)
	if err != nil {
		return nil, err
	}

	revealed, err := v.relayout(vp, regions, s.maxRegions)
	if err != nil {
		return nil, err
	}
	s.notify(v, revealed)
	return revealed, nil
}

func (s *Store) touch(id string) (*View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[id]
	if !ok {
		return nil, ErrViewNotFound
	}
	v.lastSeen = s.now()
	return v, nil
}

// Get returns an open view.
func (s *Store) Get(id string) (*View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[id]
	return v, ok
}

// Close ends a view and releases its observations.
func (s *Store) Close(id string) error {
	s.mu.Lock()
	v, ok := s.views[id]
	delete(s.views, id)
	s.mu.Unlock()
	if !ok {
		return ErrViewNotFound
	}
	v.observer.Close()
	return nil
}

// Len returns the number of open views.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

// Sweep closes views idle for longer than the TTL and returns how many it
// closed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var stale []*View
	for id, v := range s.views {
		if v.lastSeen.Before(cutoff) {
			stale = append(stale, v)
			delete(s.views, id)
		}
	}
	s.mu.Unlock()

	for _, v := range stale {
		v.observer.Close()
	}
	return len(stale)
}

// Run sweeps idle views every interval until ctx is done, then closes all
// remaining views.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("Swept %d idle page views", n)
			}
		}
	}
}

func (s *Store) closeAll() {
	s.mu.Lock()
	views := s.views
	s.views = make(map[string]*View)
	s.mu.Unlock()
	for _, v := range views {
		v.observer.Close()
	}
}

func (s *Store) notify(v *View, revealed []string) {
	if s.onReveal == nil {
		return
	}
	for _, id := range revealed {
		s.onReveal(v.ID, v.Lang, id)
	}
}
