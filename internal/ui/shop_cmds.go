package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/cart"
	"github.com/five82/folio/internal/favorites"
	"github.com/five82/folio/internal/listview"
	"github.com/five82/folio/internal/session"
)

// Storefront messages

type sessionMsg session.Event

type captchaMsg struct {
	kind     formKind
	username string
	captcha  api.Captcha
	art      []string
	err      error
}

type loginMsg struct {
	user api.User
	err  error
}

type registerMsg struct {
	username string
	err      error
}

type profileMsg struct {
	user api.User
	err  error
}

type logoutMsg struct{}

type favoriteToggledMsg struct {
	bookID int64
	title  string
	fav    bool
	err    error
}

type favoriteCheckedMsg struct {
	bookID int64
	err    error
}

type favoriteCountMsg struct {
	count int
	err   error
}

type orderCreatedMsg struct {
	order api.Order
	err   error
}

type orderPaidMsg struct {
	id  int64
	err error
}

// browseFilter narrows the storefront book list. A keyword search takes
// precedence over the category.
type browseFilter struct {
	Keyword  string
	Category string
}

// noFilter is the filter of lists that have none.
type noFilter struct{}

func browseFetch(client api.Storefront) listview.FetchFunc[api.Book, browseFilter] {
	return func(ctx context.Context, q listview.Query[browseFilter]) (listview.Result[api.Book], error) {
		bq := api.BookQuery{Page: q.Page, PageSize: q.PageSize, Keyword: q.Filter.Keyword}
		var (
			page api.BookPage
			err  error
		)
		switch {
		case q.Filter.Keyword != "":
			page, err = client.SearchBooks(ctx, bq)
		case q.Filter.Category != "":
			page, err = client.BooksByCategory(ctx, q.Filter.Category, bq)
		default:
			page, err = client.Books(ctx, bq)
		}
		if err != nil {
			return listview.Result[api.Book]{}, err
		}
		return listview.Result[api.Book]{
			Items:      page.Books,
			Total:      page.Total,
			TotalPages: page.Pages(),
			Page:       page.Current(),
		}, nil
	}
}

func favoritesFetch(favs *favorites.Store) listview.FetchFunc[api.Favorite, string] {
	return func(ctx context.Context, q listview.Query[string]) (listview.Result[api.Favorite], error) {
		page, err := favs.List(ctx, q.Page, q.PageSize, q.Filter)
		if err != nil {
			return listview.Result[api.Favorite]{}, err
		}
		return listview.Result[api.Favorite]{
			Items:      page.Favorites,
			Total:      page.Total,
			TotalPages: page.TotalPages,
			Page:       page.CurrentPage,
		}, nil
	}
}

func ordersFetch(client api.Storefront) listview.FetchFunc[api.Order, noFilter] {
	return func(ctx context.Context, q listview.Query[noFilter]) (listview.Result[api.Order], error) {
		page, err := client.Orders(ctx, q.Page, q.PageSize)
		if err != nil {
			return listview.Result[api.Order]{}, err
		}
		return listview.Result[api.Order]{
			Items:      page.Orders,
			Total:      page.Total,
			TotalPages: page.TotalPages,
			Page:       page.Page,
		}, nil
	}
}

// Storefront commands

func (m Model) captchaCmd(kind formKind, username string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		c, err := client.Captcha(ctx)
		if err != nil {
			return captchaMsg{kind: kind, username: username, err: err}
		}
		art, artErr := captchaArt(c.Image, captchaCols)
		if artErr != nil {
			art = []string{"(captcha image unavailable)"}
		}
		return captchaMsg{kind: kind, username: username, captcha: c, art: art}
	}
}

func (m Model) loginCmd(req api.LoginRequest) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		user, err := sess.Login(ctx, req)
		return loginMsg{user: user, err: err}
	}
}

func (m Model) registerCmd(req api.RegisterRequest) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		return registerMsg{username: req.Username, err: sess.Register(ctx, req)}
	}
}

func (m Model) profileCmd(upd api.ProfileUpdate, pw *api.PasswordChange) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		user, err := sess.UpdateProfile(ctx, upd)
		if err != nil {
			return profileMsg{err: err}
		}
		if pw != nil {
			if err := sess.ChangePassword(ctx, *pw); err != nil {
				return profileMsg{user: user, err: err}
			}
		}
		return profileMsg{user: user}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		sess.Logout(ctx)
		return logoutMsg{}
	}
}

func (m Model) toggleFavoriteCmd(b api.Book) tea.Cmd {
	favs := m.favs
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		fav, err := favs.Toggle(ctx, b.ID)
		return favoriteToggledMsg{bookID: b.ID, title: b.Title, fav: fav, err: err}
	}
}

func (m Model) checkFavoriteCmd(bookID int64) tea.Cmd {
	favs := m.favs
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		_, err := favs.Check(ctx, bookID)
		return favoriteCheckedMsg{bookID: bookID, err: err}
	}
}

func (m Model) favoriteCountCmd() tea.Cmd {
	favs := m.favs
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		n, err := favs.RefreshCount(ctx)
		return favoriteCountMsg{count: n, err: err}
	}
}

func (m Model) createOrderCmd(state cart.State) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		if len(state.Items) == 0 {
			return orderCreatedMsg{err: errors.New("your cart is empty")}
		}
		ctx, cancel := m.requestCtx()
		defer cancel()
		order, err := client.CreateOrder(ctx, state.OrderRequest())
		return orderCreatedMsg{order: order, err: err}
	}
}

func (m Model) payOrderCmd(id int64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		return orderPaidMsg{id: id, err: client.PayOrder(ctx, id)}
	}
}
