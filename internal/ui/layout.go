package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the detail pane is hidden.
	LayoutCompactWidth = 100

	// LayoutWideWidth is the threshold above which tables show every column.
	LayoutWideWidth = 140
)

// Rows reserved outside the content area: header, command bar, status line.
const chromeRows = 3

// Timing constants.
const (
	// DefaultUIInterval is how often the UI re-reads the feed snapshot.
	DefaultUIInterval = time.Second

	// FlashTTL is how long a status-line notification stays visible.
	FlashTTL = 4 * time.Second

	// FrameInterval paces the fly-to-cart glyph.
	FrameInterval = 40 * time.Millisecond

	// RequestTimeout bounds a single UI-issued request on top of the client timeout.
	RequestTimeout = 15 * time.Second
)

// Feed sizes on the home view.
const homeFeedRows = 5

// Screen rows above the content area: header and command bar.
const headerRows = 2

// bannerHeight is the carousel box on the home view.
const bannerHeight = 4

// cartBadgeWidth is the right-aligned cart badge in the storefront header.
// The fly-to-cart glyph lands on its first cell.
const cartBadgeWidth = 24
