// Package config loads folio's settings.
//
// # Resolution
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/folio/config.toml
//  3. A missing file falls back to defaults
//  4. FOLIO_* environment variables override whatever the file says
//
// Callers may first call LoadEnvFile so a project-local .env can supply the
// environment variables; variables already set in the shell win.
//
// # Defaults
//
//   - Storefront API: http://localhost:8080
//   - Admin API: http://localhost:8081
//   - State directory: ~/.local/share/folio (cart, tokens, folio.log)
//   - Storage driver: file (storage.json); "sqlite" uses storage.db
//   - Request timeout: 10s
//   - Page size: 10 (capped at 100)
//
// # TOML Format
//
//	api_url = "http://localhost:8080"
//	admin_api_url = "http://localhost:8081"
//	state_dir = "~/.local/share/folio"
//	storage = "sqlite"
//	timeout = "10s"
//	page_size = 20
//
// # Environment
//
//	FOLIO_API_URL, FOLIO_ADMIN_API_URL, FOLIO_STATE_DIR, FOLIO_STORAGE,
//	FOLIO_TIMEOUT (seconds or a Go duration)
//
// Load returns errors for unreadable or unparsable files and invalid
// timeouts. Missing files are not an error.
package config
