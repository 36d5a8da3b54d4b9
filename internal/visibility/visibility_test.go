package visibility

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var screen = Viewport{ScrollY: 0, Height: 800}

func TestIntersectionRatio(t *testing.T) {
	tests := []struct {
		name         string
		rect         Rect
		vp           Viewport
		ratio        float64
		intersecting bool
	}{
		{name: "fully inside", rect: Rect{Top: 100, Height: 200}, vp: screen, ratio: 1, intersecting: true},
		{name: "below", rect: Rect{Top: 900, Height: 200}, vp: screen, ratio: 0, intersecting: false},
		{name: "above", rect: Rect{Top: 0, Height: 100}, vp: Viewport{ScrollY: 500, Height: 800}, ratio: 0, intersecting: false},
		{name: "half", rect: Rect{Top: 700, Height: 200}, vp: screen, ratio: 0.5, intersecting: true},
		{name: "touching edge", rect: Rect{Top: 800, Height: 200}, vp: screen, ratio: 0, intersecting: true},
		{name: "taller than viewport", rect: Rect{Top: 0, Height: 1600}, vp: screen, ratio: 0.5, intersecting: true},
		{name: "zero height inside", rect: Rect{Top: 400}, vp: screen, ratio: 1, intersecting: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratio, ok := IntersectionRatio(tt.rect, tt.vp)
			assert.Equal(t, tt.intersecting, ok)
			assert.InDelta(t, tt.ratio, ratio, 1e-9)
		})
	}
}

func TestRegister_NilRegionIsInert(t *testing.T) {
	o := NewScrollObserver(screen)

	s := o.Register(nil)
	require.NotNil(t, s)
	assert.False(t, s.Visible())
	assert.Equal(t, 0, o.Pending())

	assert.Empty(t, o.Scroll(Viewport{ScrollY: 5000, Height: 800}))
	assert.False(t, s.Visible())
	assert.NotPanics(t, s.Release)

	select {
	case <-s.Seen():
		t.Fatal("seen channel closed for an absent region")
	default:
	}
}

func TestRegister_AlreadyVisibleFiresImmediately(t *testing.T) {
	o := NewScrollObserver(screen)

	s := o.Register(&Region{ID: "hero", Bounds: Rect{Top: 0, Height: 600}})
	assert.True(t, s.Visible())
	assert.Equal(t, 0, o.Pending())

	select {
	case <-s.Seen():
	default:
		t.Fatal("seen channel not closed")
	}
}

func TestScroll_FiresOnceAndNeverReverts(t *testing.T) {
	o := NewScrollObserver(screen)
	s := o.Register(&Region{ID: "about", Bounds: Rect{Top: 1000, Height: 400}})
	assert.False(t, s.Visible())
	assert.Equal(t, 1, o.Pending())

	assert.Empty(t, o.Scroll(Viewport{ScrollY: 100, Height: 800}))
	assert.False(t, s.Visible())

	assert.Equal(t, []string{"about"}, o.Scroll(Viewport{ScrollY: 700, Height: 800}))
	assert.True(t, s.Visible())
	assert.Equal(t, 0, o.Pending())

	// leave and re-enter
	assert.Empty(t, o.Scroll(screen))
	assert.True(t, s.Visible())
	assert.Empty(t, o.Scroll(Viewport{ScrollY: 700, Height: 800}))
	assert.True(t, s.Visible())
}

func TestScroll_ThresholdBoundaryIsInclusive(t *testing.T) {
	region := &Region{ID: "timeline", Bounds: Rect{Top: 1000, Height: 100}}

	o := NewScrollObserver(screen)
	s := o.Register(region)

	// 9 of 100 pixels visible
	assert.Empty(t, o.Scroll(Viewport{ScrollY: 209, Height: 800}))
	assert.False(t, s.Visible())

	// exactly 10 of 100 pixels visible
	assert.Equal(t, []string{"timeline"}, o.Scroll(Viewport{ScrollY: 210, Height: 800}))
	assert.True(t, s.Visible())
}

func TestWithThreshold(t *testing.T) {
	t.Run("zero fires on touch", func(t *testing.T) {
		o := NewScrollObserver(screen)
		s := o.Register(&Region{ID: "r", Bounds: Rect{Top: 800, Height: 100}}, WithThreshold(0))
		assert.True(t, s.Visible())
	})

	t.Run("default does not fire on touch", func(t *testing.T) {
		o := NewScrollObserver(screen)
		s := o.Register(&Region{ID: "r", Bounds: Rect{Top: 800, Height: 100}})
		assert.False(t, s.Visible())
	})

	t.Run("clamped above one", func(t *testing.T) {
		o := NewScrollObserver(screen)
		s := o.Register(&Region{ID: "r", Bounds: Rect{Top: 750, Height: 100}}, WithThreshold(2))
		assert.False(t, s.Visible())

		assert.Empty(t, o.Scroll(Viewport{ScrollY: 40, Height: 800}))
		assert.Equal(t, []string{"r"}, o.Scroll(Viewport{ScrollY: 50, Height: 800}))
		assert.True(t, s.Visible())
	})

	t.Run("clamped below zero", func(t *testing.T) {
		o := NewScrollObserver(screen)
		s := o.Register(&Region{ID: "r", Bounds: Rect{Top: 800, Height: 100}}, WithThreshold(-1))
		assert.True(t, s.Visible())
	})
}

func TestRelease_BeforeCrossing(t *testing.T) {
	o := NewScrollObserver(screen)
	s := o.Register(&Region{ID: "contact", Bounds: Rect{Top: 3000, Height: 300}})
	require.Equal(t, 1, o.Pending())

	s.Release()
	s.Release()
	assert.Equal(t, 0, o.Pending())

	assert.Empty(t, o.Scroll(Viewport{ScrollY: 2800, Height: 800}))
	assert.False(t, s.Visible())
}

func TestRelease_AfterCrossingIsNoop(t *testing.T) {
	o := NewScrollObserver(screen)
	s := o.Register(&Region{ID: "r", Bounds: Rect{Top: 900, Height: 100}})
	o.Scroll(Viewport{ScrollY: 300, Height: 800})
	require.True(t, s.Visible())

	assert.NotPanics(t, s.Release)
	assert.True(t, s.Visible())
}

func TestScroll_IndependentRegionsInRegistrationOrder(t *testing.T) {
	o := NewScrollObserver(screen)
	a := o.Register(&Region{ID: "a", Bounds: Rect{Top: 1200, Height: 100}})
	b := o.Register(&Region{ID: "b", Bounds: Rect{Top: 1000, Height: 100}})
	c := o.Register(&Region{ID: "c", Bounds: Rect{Top: 5000, Height: 100}})

	assert.Equal(t, []string{"a", "b"}, o.Scroll(Viewport{ScrollY: 600, Height: 800}))
	assert.True(t, a.Visible())
	assert.True(t, b.Visible())
	assert.False(t, c.Visible())
	assert.Equal(t, 1, o.Pending())
}

func TestClose_ReleasesEverything(t *testing.T) {
	o := NewScrollObserver(screen)
	s := o.Register(&Region{ID: "r", Bounds: Rect{Top: 2000, Height: 100}})
	o.Close()

	assert.Equal(t, 0, o.Pending())
	assert.Empty(t, o.Scroll(Viewport{ScrollY: 1800, Height: 800}))
	assert.False(t, s.Visible())
	assert.NotPanics(t, s.Release)

	late := o.Register(&Region{ID: "late", Bounds: Rect{Top: 0, Height: 100}})
	assert.False(t, late.Visible())
}

func TestScroll_ConcurrentFiresAtMostOnce(t *testing.T) {
	o := NewScrollObserver(screen)
	signals := make([]*Signal, 50)
	for i := range signals {
		signals[i] = o.Register(&Region{
			ID:     fmt.Sprintf("r%d", i),
			Bounds: Rect{Top: float64(1000 + i*50), Height: 50},
		})
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		count = map[string]int{}
	)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for y := 0; y <= 4000; y += 100 + g {
				for _, id := range o.Scroll(Viewport{ScrollY: float64(y), Height: 800}) {
					mu.Lock()
					count[id]++
					mu.Unlock()
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Len(t, count, len(signals))
	for id, n := range count {
		assert.Equal(t, 1, n, id)
	}
	for _, s := range signals {
		assert.True(t, s.Visible())
	}
}

func TestMove_UsesNewBoundsOnNextScroll(t *testing.T) {
	o := NewScrollObserver(screen)
	r := &Region{ID: "bio", Bounds: Rect{Top: 900, Height: 400}}
	s := o.Register(r)
	require.False(t, s.Visible())

	// an image above it finished loading and pushed it down
	o.Move(r, Rect{Top: 1300, Height: 400})
	assert.Empty(t, o.Scroll(Viewport{ScrollY: 200, Height: 800}))
	assert.False(t, s.Visible())

	assert.Equal(t, []string{"bio"}, o.Scroll(Viewport{ScrollY: 600, Height: 800}))
	assert.True(t, s.Visible())

	assert.NotPanics(t, func() { o.Move(nil, Rect{}) })
}
