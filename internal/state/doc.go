// Package state shares the storefront home feed between the background poller
// and the UI.
//
// The poller is the only writer: it fetches hot books, new arrivals, carousel
// banners and categories, then calls Update. The UI reads Snapshot on its own
// tick and never blocks on network I/O.
//
//	Poller:                        UI:
//	┌──────────────────┐          ┌──────────────────┐
//	│ HotBooks()       │          │                  │
//	│ NewBooks()       │          │                  │
//	│ Carousels()      │          │                  │
//	│ Categories()     │          │                  │
//	│      ↓           │          │                  │
//	│ store.Update()   │─────────→│ store.Snapshot() │
//	└──────────────────┘ (RWMutex)└──────────────────┘
//
// A failed poll keeps the previous feed and records the error, so the home
// view keeps showing the last good data while the header reports the outage.
// Two failures in a row mark the snapshot offline.
//
// Snapshots are deep enough copies that callers may mutate them freely.
//
// The zero Store is ready to use.
package state
