// Package app is the composition root for folio.
//
// # Overview
//
// This package wires configuration, local storage, sessions, the REST
// clients, the home feed poller and the UI into the storefront and admin
// programs. Nothing else in folio constructs these pieces.
//
// # Startup
//
// Both programs share the same sequence up to the UI:
//
//  1. Load the dotenv file, then ~/.config/folio/config.toml, then env overrides
//  2. Load display preferences from ~/.config/folio/prefs.toml
//  3. Open the key-value store (JSON file or SQLite) in the state directory
//  4. Send the standard logger to folio.log while the TUI owns the terminal
//  5. Build the API client and its session; the session supplies bearer
//     tokens and the client's 401 hook forces the session out
//  6. Restore the persisted session (a failure starts signed out)
//
// The storefront then loads the cart, wires favorites to reset on sign-out,
// starts the feed poller and runs ui.Run. The admin console runs ui.RunAdmin.
//
// # Data Flow
//
//	┌──────────────┐
//	│  RunShop()   │
//	└──────┬───────┘
//	       ├─────> Open()              config, prefs, storage
//	       ├─────> Env.Storefront()    api.Client + session.Store
//	       ├─────> session.Restore()   GET /user/profile
//	       ├─────> cart.Load()         persisted cart
//	       ├─────> StartPoller()       home feed into state.Store
//	       └─────> ui.Run()            Bubble Tea program (blocks)
//
// # Polling Behavior
//
// The poller refreshes the home feed (hot books, new books, carousels and
// categories) every 10 seconds by default. Failures double the wait up to 30
// seconds and keep the last good feed on screen; two failures in a row mark
// the header OFFLINE.
//
// # Error Handling
//
// Run functions return errors only for configuration, storage and client
// construction. Everything after the UI starts is reported in the status line
// and the log file.
package app
