package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/listview"
	"github.com/five82/folio/internal/prefs"
	"github.com/five82/folio/internal/session"
)

// AdminView represents the current admin console view.
type AdminView int

const (
	AdminDashboard AdminView = iota
	AdminBooks
	AdminCategories
	AdminUsers
)

var adminViews = []AdminView{AdminDashboard, AdminBooks, AdminCategories, AdminUsers}

func (v AdminView) String() string {
	switch v {
	case AdminBooks:
		return "Books"
	case AdminCategories:
		return "Categories"
	case AdminUsers:
		return "Users"
	default:
		return "Dashboard"
	}
}

// AdminOptions configures the admin console.
type AdminOptions struct {
	Context   context.Context
	Client    api.Admin
	Session   *session.Store
	Prefs     prefs.Prefs
	PrefsPath string
}

// AdminModel is the root admin console state for Bubble Tea.
type AdminModel struct {
	frame

	client  api.Admin
	session *session.Store

	currentView AdminView
	selected    map[AdminView]int
	user        api.User
	authed      bool

	stats       api.DashboardStats
	statsLoaded bool
	statsErr    error

	books      *listview.Controller[api.Book, bookFilter]
	categories *listview.Controller[api.Category, noFilter]
	users      *listview.Controller[api.User, userFilter]
}

// NewAdmin creates the admin console model. Without a session it opens on
// the sign-in form.
func NewAdmin(opts AdminOptions) AdminModel {
	pageSize := opts.Prefs.PageSize
	if pageSize <= 0 {
		pageSize = listview.DefaultPageSize
	}
	m := AdminModel{
		frame:       newFrame(opts.Context, opts.Prefs, opts.PrefsPath),
		client:      opts.Client,
		session:     opts.Session,
		currentView: AdminDashboard,
		selected:    make(map[AdminView]int),
		books:       listview.New(adminBooksFetch(opts.Client), pageSize, allBooks),
		categories:  listview.New(adminCategoriesFetch(opts.Client), pageSize, noFilter{}),
		users:       listview.New(adminUsersFetch(opts.Client), pageSize, allUsers),
	}
	if m.session != nil {
		m.user, m.authed = m.session.User()
	}
	if !m.authed {
		m.modal = newAdminLoginForm("")
	}
	return m
}

// Init implements tea.Model.
func (m AdminModel) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnterAltScreen, tickCmd(DefaultUIInterval)}
	if m.authed {
		cmds = append(cmds, m.statsCmd())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m AdminModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg)
		return m, nil

	case tickMsg:
		m.expireFlash(time.Time(msg))
		return m, tickCmd(DefaultUIInterval)

	case adminLoginMsg:
		return m.handleAdminLogin(msg)

	case logoutMsg:
		m.signedOut()
		m.notify("Signed out")
		return m, nil

	case sessionMsg:
		ev := session.Event(msg)
		if ev.Authenticated || !m.authed {
			return m, nil
		}
		m.signedOut()
		if ev.Reason == session.ReasonExpired {
			m.flash = "Login expired, please sign in again"
			m.flashError = true
			m.flashUntil = time.Now().Add(FlashTTL)
		}
		return m, nil

	case statsMsg:
		m.statsErr = msg.err
		if msg.err == nil {
			m.stats, m.statsLoaded = msg.stats, true
		}
		m.fail("load dashboard", msg.err)
		m.clampSelection()
		return m, nil

	case listview.Response[api.Book, bookFilter]:
		cmd, err := applyList(m.ctx, m.books, msg)
		m.fail("load books", err)
		m.clampSelection()
		return m, cmd

	case listview.Response[api.Category, noFilter]:
		cmd, err := applyList(m.ctx, m.categories, msg)
		m.fail("load categories", err)
		m.clampSelection()
		return m, cmd

	case listview.Response[api.User, userFilter]:
		cmd, err := applyList(m.ctx, m.users, msg)
		m.fail("load users", err)
		m.clampSelection()
		return m, cmd

	case bookLoadedMsg:
		if msg.err != nil {
			m.fail("load book", msg.err)
			return m, nil
		}
		if m.modal == nil {
			m.modal = newBookForm(msg.book)
		}
		return m, nil

	case userLoadedMsg:
		if msg.err != nil {
			m.fail("load user", msg.err)
			return m, nil
		}
		if m.modal == nil {
			m.modal = newUserForm(msg.user)
		}
		return m, nil

	case confirmedMsg:
		return m.handleConfirmed(msg)

	case mutationMsg:
		return m.handleMutation(msg)
	}

	return m, nil
}

// View implements tea.Model.
func (m AdminModel) View() string {
	if !m.ready {
		return "Loading..."
	}
	return m.overlay(m.renderMain(), adminHelp(m.keys))
}

func (m AdminModel) handleAdminLogin(msg adminLoginMsg) (tea.Model, tea.Cmd) {
	form, open := m.modal.(*formModal)
	open = open && form.kind == formAdminLogin
	if msg.err != nil {
		if open {
			form.fail(nil, api.UserMessage(msg.err))
			return m, nil
		}
		m.fail("login", msg.err)
		return m, nil
	}
	if open {
		m.modal = nil
	}
	m.user, m.authed = msg.user, true
	m.notify("Signed in as " + msg.user.Username)
	return m, tea.Batch(m.statsCmd(), m.loadView(m.currentView))
}

// signedOut drops the account and asks for credentials again.
func (m *AdminModel) signedOut() {
	m.user, m.authed = api.User{}, false
	m.stats, m.statsLoaded = api.DashboardStats{}, false
	m.currentView = AdminDashboard
	m.modal = newAdminLoginForm("")
}

func (m AdminModel) handleMutation(msg mutationMsg) (tea.Model, tea.Cmd) {
	form, open := m.modal.(*formModal)
	open = open && form.busy
	if msg.err != nil {
		if open {
			form.fail(nil, api.UserMessage(msg.err))
			return m, nil
		}
		m.fail("save", msg.err)
		return m, nil
	}
	if open {
		m.modal = nil
	}
	m.notify(msg.done)

	cmds := []tea.Cmd{m.statsCmd()}
	switch msg.view {
	case AdminBooks:
		cmds = append(cmds, listCmd(m.ctx, m.books, m.books.AfterMutation()))
	case AdminCategories:
		cmds = append(cmds, listCmd(m.ctx, m.categories, m.categories.AfterMutation()))
	case AdminUsers:
		cmds = append(cmds, listCmd(m.ctx, m.users, m.users.AfterMutation()))
	}
	return m, tea.Batch(cmds...)
}

// RunAdmin starts the admin console program.
func RunAdmin(opts AdminOptions) error {
	m := NewAdmin(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if opts.Session != nil {
		opts.Session.OnChange(func(ev session.Event) {
			go p.Send(sessionMsg(ev))
		})
	}
	_, err := p.Run()
	return err
}
