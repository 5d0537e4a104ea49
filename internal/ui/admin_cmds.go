package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/listview"
)

// Admin messages

type adminLoginMsg struct {
	user api.User
	err  error
}

type statsMsg struct {
	stats api.DashboardStats
	err   error
}

type bookLoadedMsg struct {
	book api.Book
	err  error
}

type userLoadedMsg struct {
	user api.User
	err  error
}

// mutationMsg reports a create, update, delete or toggle. done is the
// notification shown on success.
type mutationMsg struct {
	view AdminView
	done string
	err  error
}

// bookFilter narrows the admin book list. Status -1 lists every book.
type bookFilter struct {
	Title      string
	Author     string
	Type       string
	Status     int
	CategoryID int64
}

// userFilter narrows the admin user list. Role -1 lists everyone, 0 only
// customers, 1 only administrators.
type userFilter struct {
	Username string
	Email    string
	Role     int
}

var (
	allBooks = bookFilter{Status: -1}
	allUsers = userFilter{Role: -1}
)

func adminBooksFetch(client api.Admin) listview.FetchFunc[api.Book, bookFilter] {
	return func(ctx context.Context, q listview.Query[bookFilter]) (listview.Result[api.Book], error) {
		bq := api.AdminBookQuery{
			Page:       q.Page,
			PageSize:   q.PageSize,
			Title:      q.Filter.Title,
			Author:     q.Filter.Author,
			Type:       q.Filter.Type,
			CategoryID: q.Filter.CategoryID,
		}
		if q.Filter.Status >= 0 {
			status := q.Filter.Status
			bq.Status = &status
		}
		page, err := client.AdminBooks(ctx, bq)
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

// adminCategoriesFetch pages the category list locally; the endpoint
// returns every category at once.
func adminCategoriesFetch(client api.Admin) listview.FetchFunc[api.Category, noFilter] {
	return func(ctx context.Context, q listview.Query[noFilter]) (listview.Result[api.Category], error) {
		all, err := client.AdminCategories(ctx)
		if err != nil {
			return listview.Result[api.Category]{}, err
		}
		size := max(1, q.PageSize)
		pages := (len(all) + size - 1) / size
		start := min(len(all), (max(1, q.Page)-1)*size)
		end := min(len(all), start+size)
		return listview.Result[api.Category]{
			Items:      all[start:end],
			Total:      len(all),
			TotalPages: pages,
			Page:       q.Page,
		}, nil
	}
}

func adminUsersFetch(client api.Admin) listview.FetchFunc[api.User, userFilter] {
	return func(ctx context.Context, q listview.Query[userFilter]) (listview.Result[api.User], error) {
		uq := api.AdminUserQuery{
			Page:     q.Page,
			PageSize: q.PageSize,
			Username: q.Filter.Username,
			Email:    q.Filter.Email,
		}
		if q.Filter.Role >= 0 {
			isAdmin := q.Filter.Role == 1
			uq.IsAdmin = &isAdmin
		}
		page, err := client.AdminUsers(ctx, uq)
		if err != nil {
			return listview.Result[api.User]{}, err
		}
		return listview.Result[api.User]{
			Items:      page.Users,
			Total:      page.Total,
			TotalPages: page.Pages(),
			Page:       page.CurrentPage,
		}, nil
	}
}

// Admin commands

func (m AdminModel) adminLoginCmd(username, password string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		user, err := sess.AdminLogin(ctx, username, password)
		return adminLoginMsg{user: user, err: err}
	}
}

func (m AdminModel) adminLogoutCmd() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		sess.Logout(ctx)
		return logoutMsg{}
	}
}

func (m AdminModel) statsCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		stats, err := client.DashboardStats(ctx)
		return statsMsg{stats: stats, err: err}
	}
}

func (m AdminModel) loadBookCmd(id int64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		book, err := client.AdminBook(ctx, id)
		return bookLoadedMsg{book: book, err: err}
	}
}

func (m AdminModel) loadUserCmd(id int64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		user, err := client.AdminUser(ctx, id)
		return userLoadedMsg{user: user, err: err}
	}
}

// mutateCmd runs one write against the admin API.
func (m AdminModel) mutateCmd(view AdminView, done string, fn func(ctx context.Context, client api.Admin) error) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := m.requestCtx()
		defer cancel()
		return mutationMsg{view: view, done: done, err: fn(ctx, client)}
	}
}
