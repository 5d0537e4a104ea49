// Package logtail reads the tail of folio's log file for the `folio logs`
// command.
//
// The TUIs write their log to <state_dir>/folio.log because the terminal is
// owned by Bubble Tea. Read returns the last N lines, optionally filtered by
// a case-insensitive substring, using a ring buffer so memory stays
// proportional to N rather than the file size.
//
//	lines, err := logtail.Read(cfg.LogPath(), logtail.Options{MaxLines: 200, Grep: "session"})
package logtail
