package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/folio/internal/animation"
	"github.com/five82/folio/internal/listview"
	"github.com/five82/folio/internal/state"
)

// Messages shared by both programs.

type tickMsg time.Time

type snapshotMsg state.Snapshot

type animFrameMsg time.Time

type animExpireMsg struct{ ticket animation.Ticket }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func animFrameCmd() tea.Cmd {
	return tea.Tick(FrameInterval, func(t time.Time) tea.Msg {
		return animFrameMsg(t)
	})
}

func animExpireCmd(t animation.Ticket) tea.Cmd {
	return tea.Tick(animation.Duration, func(time.Time) tea.Msg {
		return animExpireMsg{ticket: t}
	})
}

// listCmd runs a list fetch off the update loop. The Response comes back as
// the message and is installed with applyList.
func listCmd[T any, F comparable](ctx context.Context, c *listview.Controller[T, F], req listview.Request[F]) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
		defer cancel()
		return c.Run(ctx, req)
	}
}

// applyList installs resp. Stale responses are dropped silently. A follow-up
// fetch (stepping back from an empty page) is returned as a command; a failed
// fetch returns its error.
func applyList[T any, F comparable](ctx context.Context, c *listview.Controller[T, F], resp listview.Response[T, F]) (tea.Cmd, error) {
	applied, follow := c.Apply(resp)
	if !applied {
		return nil, nil
	}
	if follow != nil {
		return listCmd(ctx, c, *follow), nil
	}
	return nil, resp.Err
}

// pageCmd moves c one page forward or back. It returns nil at either end.
func pageCmd[T any, F comparable](ctx context.Context, c *listview.Controller[T, F], forward bool) tea.Cmd {
	var (
		req listview.Request[F]
		ok  bool
	)
	if forward {
		req, ok = c.Next()
	} else {
		req, ok = c.Prev()
	}
	if !ok {
		return nil
	}
	return listCmd(ctx, c, req)
}

// pageSizeCmd advances c to the next page size and returns the size chosen.
func pageSizeCmd[T any, F comparable](ctx context.Context, c *listview.Controller[T, F]) (tea.Cmd, int) {
	req := c.CyclePageSize()
	return listCmd(ctx, c, req), req.Query.PageSize
}

// loadOnce fetches c's first page unless it already has one.
func loadOnce[T any, F comparable](ctx context.Context, c *listview.Controller[T, F]) tea.Cmd {
	if c.Loaded() || c.Loading() {
		return nil
	}
	return listCmd(ctx, c, c.Reload())
}

// confirmAction names what a confirmed yes/no dialog does.
type confirmAction int

const (
	confirmClearCart confirmAction = iota
	confirmCheckout
	confirmPay
	confirmDeleteBook
	confirmDeleteCategory
	confirmDeleteUser
)

type confirmedMsg struct {
	action confirmAction
	id     int64
}

// onConfirm builds the callback of a confirmModal.
func onConfirm(action confirmAction, id int64) func() tea.Cmd {
	return func() tea.Cmd {
		return func() tea.Msg {
			return confirmedMsg{action: action, id: id}
		}
	}
}
