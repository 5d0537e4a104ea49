// Package ui provides the terminal storefront and admin console for folio.
//
// # Architecture Overview
//
// Both programs are Bubble Tea models sharing one frame: theme, key map,
// window size, the flash/status line, the help overlay and an optional modal.
// Network calls run as tea.Cmds and report back as messages; the models never
// block in Update.
//
// # Package Structure
//
//   - app.go, shop_keys.go, shop_views.go, shop_cmds.go: the storefront Model
//   - admin.go, admin_keys.go, admin_views.go, admin_cmds.go: the AdminModel
//   - frame.go, layout.go, header.go, commands.go: shared chrome and list plumbing
//   - modal.go: text-input forms and yes/no confirmations
//   - captcha.go: renders captcha PNGs as half-block art
//   - theme.go, keys.go, help.go, format.go, strings.go: styling and helpers
//
// # Storefront Views
//
//   - Home: carousel banner, categories and the hot/new feed from state.Store
//   - Browse: paged catalog with keyword search and category filter
//   - Cart: quantities, stock limits and checkout
//   - Favorites: paged favorites with a time filter (requires sign-in)
//   - Orders: order history and payment of pending orders (requires sign-in)
//
// Adding a book to the cart starts a short flight from the selected row to the
// cart badge in the header, driven by the animation package.
//
// # Admin Views
//
//   - Dashboard: totals and recently added books
//   - Books, Categories, Users: paged tables with create, edit, delete,
//     status toggles and filters
//
// # Event Flow
//
//  1. Run or RunAdmin builds the model and starts the program
//  2. Session changes (including a forced sign-out after a 401) arrive as
//     sessionMsg through Program.Send
//  3. Paged lists go through listview controllers; stale responses are dropped
//  4. A periodic tick expires the flash message and re-reads the feed snapshot
//
// # Usage Example
//
//	err := ui.Run(ui.Options{
//		Context:   ctx,
//		Client:    client,
//		Session:   sess,
//		Cart:      shopCart,
//		Favorites: favs,
//		Store:     store,
//	})
//
// # Key Bindings
//
//   - 1-5 or Tab: switch view
//   - j/k, g/G, [ ]: move, jump, page
//   - /: search, s: cycle category, a: add to cart, f: favorite
//   - + - x X o: cart quantity, remove, clear, place order
//   - p: pay the selected order
//   - L, R, O, u: sign in, register, sign out, profile
//   - T: cycle theme, h or ?: help, e or Ctrl+C: exit
package ui
