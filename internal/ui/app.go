package ui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/folio/internal/animation"
	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/cart"
	"github.com/five82/folio/internal/favorites"
	"github.com/five82/folio/internal/listview"
	"github.com/five82/folio/internal/prefs"
	"github.com/five82/folio/internal/session"
	"github.com/five82/folio/internal/state"
)

// View represents the current storefront view.
type View int

const (
	ViewHome View = iota
	ViewBrowse
	ViewCart
	ViewFavorites
	ViewOrders
)

var shopViews = []View{ViewHome, ViewBrowse, ViewCart, ViewFavorites, ViewOrders}

func (v View) String() string {
	switch v {
	case ViewBrowse:
		return "Browse"
	case ViewCart:
		return "Cart"
	case ViewFavorites:
		return "Favorites"
	case ViewOrders:
		return "Orders"
	default:
		return "Home"
	}
}

// Options configures the storefront UI.
type Options struct {
	Context   context.Context
	Client    api.Storefront
	Session   *session.Store
	Cart      *cart.Store
	Favorites *favorites.Store
	Store     *state.Store
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root storefront state for Bubble Tea.
type Model struct {
	frame

	client   api.Storefront
	session  *session.Store
	cart     *cart.Store
	favs     *favorites.Store
	store    *state.Store
	pollTick time.Duration
	anim     *animation.Coordinator

	currentView View
	selected    map[View]int
	checked     map[int64]bool

	snapshot    state.Snapshot
	lastUpdated time.Time
	cartState   cart.State
	user        api.User
	authed      bool

	browse      *listview.Controller[api.Book, browseFilter]
	favList     *listview.Controller[api.Favorite, string]
	orders      *listview.Controller[api.Order, noFilter]
	categoryIdx int
}

// New creates the storefront model.
func New(opts Options) Model {
	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = DefaultUIInterval
	}
	pageSize := opts.Prefs.PageSize
	if pageSize <= 0 {
		pageSize = listview.DefaultPageSize
	}
	favFilter := opts.Prefs.FavoritesFilter
	if favFilter == "" {
		favFilter = api.FavoritesAll
	}

	m := Model{
		frame:       newFrame(opts.Context, opts.Prefs, opts.PrefsPath),
		client:      opts.Client,
		session:     opts.Session,
		cart:        opts.Cart,
		favs:        opts.Favorites,
		store:       opts.Store,
		pollTick:    pollTick,
		anim:        animation.New(nil),
		currentView: ViewHome,
		selected:    make(map[View]int),
		checked:     make(map[int64]bool),
		categoryIdx: -1,
	}
	if m.cart != nil {
		m.cartState = m.cart.Snapshot()
	}
	if m.session != nil {
		m.user, m.authed = m.session.User()
	}
	if m.client != nil {
		m.browse = listview.New(browseFetch(m.client), pageSize, browseFilter{})
		m.orders = listview.New(ordersFetch(m.client), pageSize, noFilter{})
	}
	if m.favs != nil {
		m.favList = listview.New(favoritesFetch(m.favs), pageSize, favFilter)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.pollTick),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.authed && m.favs != nil {
		cmds = append(cmds, m.favoriteCountCmd())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg)
		width := msg.Width
		m.anim.SetLocator(func() animation.Point {
			return animation.Point{X: max(0, width-cartBadgeWidth), Y: 0}
		})
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		m.clampSelection()
		return m, nil

	case animFrameMsg:
		if m.anim.State().Visible {
			return m, animFrameCmd()
		}
		return m, nil

	case animExpireMsg:
		m.anim.Expire(msg.ticket)
		return m, nil

	case listview.Response[api.Book, browseFilter]:
		cmd, err := applyList(m.ctx, m.browse, msg)
		m.fail("load books", err)
		m.clampSelection()
		return m, tea.Batch(cmd, m.maybeCheckFavorite())

	case listview.Response[api.Favorite, string]:
		cmd, err := applyList(m.ctx, m.favList, msg)
		if !errors.Is(err, favorites.ErrStale) {
			m.fail("load favorites", err)
		}
		m.clampSelection()
		return m, cmd

	case listview.Response[api.Order, noFilter]:
		cmd, err := applyList(m.ctx, m.orders, msg)
		m.fail("load orders", err)
		m.clampSelection()
		return m, cmd

	case sessionMsg:
		return m.handleSession(session.Event(msg))

	case captchaMsg:
		return m.handleCaptcha(msg)

	case loginMsg:
		return m.handleLogin(msg)

	case registerMsg:
		return m.handleRegister(msg)

	case profileMsg:
		return m.handleProfile(msg)

	case logoutMsg:
		m.signedOut()
		m.notify("Signed out")
		return m, nil

	case favoriteToggledMsg:
		return m.handleFavoriteToggled(msg)

	case favoriteCheckedMsg:
		if msg.err != nil {
			delete(m.checked, msg.bookID)
		}
		return m, nil

	case favoriteCountMsg:
		if !errors.Is(msg.err, favorites.ErrStale) {
			m.fail("favorite count", msg.err)
		}
		return m, nil

	case confirmedMsg:
		return m.handleConfirmed(msg)

	case orderCreatedMsg:
		return m.handleOrderCreated(msg)

	case orderPaidMsg:
		if form, ok := m.modal.(*formModal); ok && form.busy {
			m.modal = nil
		}
		if msg.err != nil {
			m.fail("pay order", msg.err)
			return m, nil
		}
		m.notify("Payment received, thank you")
		return m, listCmd(m.ctx, m.orders, m.orders.AfterMutation())
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	main := m.renderMain()
	if p, ok := m.anim.Position(time.Now()); ok && m.modal == nil && !m.showHelp {
		main = overlayGlyph(main, p, m.theme.Styles().Logo.Render("◆"))
	}
	return m.overlay(main, shopHelp(m.keys))
}

// handleTick processes the polling tick.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	m.expireFlash(now)
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return m, tea.Batch(cmds...)
}

// handleSession follows sign-ins and sign-outs reported by the session store,
// including the forced sign-out after a 401.
func (m Model) handleSession(ev session.Event) (tea.Model, tea.Cmd) {
	if ev.Authenticated {
		m.user, m.authed = ev.User, true
		return m, nil
	}
	if !m.authed {
		return m, nil
	}
	m.signedOut()
	if ev.Reason == session.ReasonExpired {
		m.flash = "Login expired, please sign in again"
		m.flashError = true
		m.flashUntil = time.Now().Add(FlashTTL)
	}
	return m, nil
}

// signedOut drops per-user state and leaves views that need an account.
func (m *Model) signedOut() {
	m.user, m.authed = api.User{}, false
	m.checked = make(map[int64]bool)
	if m.currentView == ViewFavorites || m.currentView == ViewOrders {
		m.currentView = ViewHome
	}
	if m.favs != nil {
		m.favs.Reset()
	}
}

func (m Model) handleOrderCreated(msg orderCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.fail("create order", msg.err)
		return m, nil
	}
	if m.cart != nil {
		next, err := m.cart.Clear()
		m.cartState = next
		m.fail("clear cart", err)
	}
	m.notify("Order " + msg.order.OrderNo + " placed, press p in Orders to pay")
	m.currentView = ViewOrders
	m.selected[ViewOrders] = 0
	if m.orders == nil {
		return m, nil
	}
	return m, listCmd(m.ctx, m.orders, m.orders.SetPage(1))
}

// Run starts the storefront program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if opts.Session != nil {
		opts.Session.OnChange(func(ev session.Event) {
			go p.Send(sessionMsg(ev))
		})
	}
	_, err := p.Run()
	return err
}
