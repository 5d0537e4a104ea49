// Package animation coordinates the "fly to cart" flourish shown when a book
// is added to the cart. It is purely cosmetic: nothing else reads its state.
package animation

import (
	"sync"
	"time"
)

// Duration is how long a flight stays visible.
const Duration = 600 * time.Millisecond

// Point is a screen position in terminal cells.
type Point struct {
	X, Y int
}

// State is the single transient flight record.
type State struct {
	Visible bool
	Start   Point
	End     Point
	Began   time.Time
}

// Ticket identifies one Trigger so a late expiry cannot cancel a newer flight.
type Ticket uint64

// Locator returns the current position of the cart badge.
type Locator func() Point

// Coordinator owns the flight state.
type Coordinator struct {
	mu     sync.Mutex
	state  State
	ticket Ticket
	locate Locator
	now    func() time.Time
}

// New returns an idle Coordinator. locate may be nil, in which case flights
// end at the origin.
func New(locate Locator) *Coordinator {
	return &Coordinator{locate: locate, now: time.Now}
}

// SetLocator replaces the badge locator, e.g. after a resize.
func (c *Coordinator) SetLocator(locate Locator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locate = locate
}

// Trigger starts a flight from start to the cart badge and returns its ticket.
// A flight already in progress is replaced.
func (c *Coordinator) Trigger(start Point) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	var end Point
	if c.locate != nil {
		end = c.locate()
	}
	c.ticket++
	c.state = State{Visible: true, Start: start, End: end, Began: c.now()}
	return c.ticket
}

// Expire resets the flight started with t. Expiries for replaced flights are
// ignored. It reports whether a reset happened.
func (c *Coordinator) Expire(t Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t != c.ticket || !c.state.Visible {
		return false
	}
	c.state = State{}
	return true
}

// Complete resets whatever flight is showing.
func (c *Coordinator) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = State{}
}

// State returns a copy of the flight record.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Position interpolates where the glyph is drawn at now. ok is false when
// nothing is flying.
func (c *Coordinator) Position(now time.Time) (p Point, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Visible {
		return Point{}, false
	}
	elapsed := now.Sub(c.state.Began)
	frac := float64(elapsed) / float64(Duration)
	frac = min(1, max(0, frac))
	// Ease out so the glyph slows as it lands.
	frac = 1 - (1-frac)*(1-frac)
	return Point{
		X: c.state.Start.X + int(float64(c.state.End.X-c.state.Start.X)*frac),
		Y: c.state.Start.Y + int(float64(c.state.End.Y-c.state.Start.Y)*frac),
	}, true
}
