package animation

import (
	"testing"
	"time"
)

func TestTrigger_UsesLocatorForEnd(t *testing.T) {
	c := New(func() Point { return Point{X: 70, Y: 0} })
	c.Trigger(Point{X: 10, Y: 12})

	st := c.State()
	if !st.Visible || st.Start != (Point{10, 12}) || st.End != (Point{70, 0}) {
		t.Fatalf("state = %+v", st)
	}
}

func TestExpire_ResetsOnlyCurrentFlight(t *testing.T) {
	c := New(nil)
	first := c.Trigger(Point{X: 1, Y: 1})
	second := c.Trigger(Point{X: 2, Y: 2})

	if c.Expire(first) {
		t.Fatalf("stale ticket reset a newer flight")
	}
	if !c.State().Visible {
		t.Fatalf("flight hidden by stale expiry")
	}
	if !c.Expire(second) {
		t.Fatalf("current ticket did not reset")
	}
	if st := c.State(); st != (State{}) {
		t.Fatalf("state after reset = %+v, want zero", st)
	}
	if c.Expire(second) {
		t.Fatalf("double expiry reported a reset")
	}
}

func TestComplete_ResetsUnconditionally(t *testing.T) {
	c := New(func() Point { return Point{X: 5, Y: 5} })
	c.Trigger(Point{})
	c.Complete()
	if st := c.State(); st.Visible || st.Start != (Point{}) || st.End != (Point{}) {
		t.Fatalf("state = %+v", st)
	}
}

func TestPosition_Interpolates(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(func() Point { return Point{X: 100, Y: 0} })
	c.now = func() time.Time { return base }
	c.Trigger(Point{X: 0, Y: 20})

	if p, ok := c.Position(base); !ok || p != (Point{0, 20}) {
		t.Fatalf("Position(start) = %+v, %v", p, ok)
	}
	if p, _ := c.Position(base.Add(Duration)); p != (Point{100, 0}) {
		t.Fatalf("Position(end) = %+v", p)
	}
	if p, _ := c.Position(base.Add(2 * Duration)); p != (Point{100, 0}) {
		t.Fatalf("Position past end = %+v", p)
	}
	mid, _ := c.Position(base.Add(Duration / 2))
	if mid.X <= 50 || mid.X >= 100 {
		t.Fatalf("eased midpoint X = %d, want between 50 and 100", mid.X)
	}

	c.Complete()
	if _, ok := c.Position(base); ok {
		t.Fatalf("Position reported a flight after Complete")
	}
}
