package ui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/cart"
	"github.com/five82/folio/internal/favorites"
	"github.com/five82/folio/internal/listview"
	"github.com/five82/folio/internal/session"
	"github.com/five82/folio/internal/state"
	"github.com/five82/folio/internal/storage"
)

// stubShop answers the storefront calls the UI makes. Unstubbed methods
// panic through the nil embedded interface.
type stubShop struct {
	api.Storefront

	mu       sync.Mutex
	books    []api.Book
	loginErr error
	searched []string
	created  []api.CreateOrderRequest
}

func (s *stubShop) Captcha(context.Context) (api.Captcha, error) {
	return api.Captcha{ID: "cap-1"}, nil
}

func (s *stubShop) Login(_ context.Context, req api.LoginRequest) (api.LoginResult, error) {
	if s.loginErr != nil {
		return api.LoginResult{}, s.loginErr
	}
	return api.LoginResult{AccessToken: "tok", User: &api.User{ID: 1, Username: req.Username}}, nil
}

func (s *stubShop) Books(context.Context, api.BookQuery) (api.BookPage, error) {
	return api.BookPage{Books: s.books, Total: len(s.books), TotalPages: 1, CurrentPage: 1}, nil
}

func (s *stubShop) SearchBooks(_ context.Context, q api.BookQuery) (api.BookPage, error) {
	s.mu.Lock()
	s.searched = append(s.searched, q.Keyword)
	s.mu.Unlock()
	var out []api.Book
	for _, b := range s.books {
		if strings.Contains(strings.ToLower(b.Title), strings.ToLower(q.Keyword)) {
			out = append(out, b)
		}
	}
	return api.BookPage{Books: out, Total: len(out), TotalPages: 1, CurrentPage: 1}, nil
}

func (s *stubShop) Orders(context.Context, int, int) (api.OrderPage, error) {
	return api.OrderPage{Page: 1, TotalPages: 1}, nil
}

func (s *stubShop) CreateOrder(_ context.Context, req api.CreateOrderRequest) (api.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, req)
	return api.Order{ID: int64(len(s.created)), OrderNo: "NO0001"}, nil
}

func (s *stubShop) FavoriteCount(context.Context) (int, error) { return 0, nil }

func newTestShop(t *testing.T, stub *stubShop) Model {
	t.Helper()
	kv := storage.NewMemory()
	sess := session.NewStorefront(kv, stub)
	c, err := cart.Load(kv)
	if err != nil {
		t.Fatalf("cart.Load: %v", err)
	}
	m := New(Options{
		Context:   context.Background(),
		Client:    stub,
		Session:   sess,
		Cart:      c,
		Favorites: favorites.New(stub, sess),
	})
	m, _ = step(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func step(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return out, cmd
}

// run executes a single (non-batched) command and feeds its message back.
func run(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	return step(t, m, cmd())
}

func withHomeFeed(t *testing.T, m Model, books ...api.Book) Model {
	t.Helper()
	m, _ = step(t, m, snapshotMsg(state.Snapshot{Feed: state.Feed{Hot: books}, HasFeed: true}))
	return m
}

func testBook(id int64, stock int) api.Book {
	return api.Book{
		ID:       id,
		Title:    "The Go Programming Language",
		Author:   "Donovan",
		Price:    decimal.NewFromInt(80),
		Discount: 100,
		Stock:    stock,
		Status:   api.BookOnShelf,
	}
}

func TestAddToCart_RespectsStock(t *testing.T) {
	m := withHomeFeed(t, newTestShop(t, &stubShop{}), testBook(7, 1))

	m, cmd := step(t, m, keyRunes("a"))
	if cmd == nil {
		t.Fatalf("adding to cart should start the flight animation")
	}
	if got := m.cartState.TotalItems(); got != 1 {
		t.Fatalf("cart items = %d, want 1", got)
	}
	if !m.anim.State().Visible {
		t.Fatalf("flight should be visible after adding")
	}

	m, _ = step(t, m, keyRunes("a"))
	if got := m.cartState.TotalItems(); got != 1 {
		t.Fatalf("cart items = %d after exceeding stock, want 1", got)
	}
	if m.flash != "Only 1 in stock" {
		t.Fatalf("flash = %q, want stock warning", m.flash)
	}
}

func TestAddToCart_RejectsUnavailableBooks(t *testing.T) {
	off := testBook(1, 5)
	off.Status = api.BookOffShelf
	m := withHomeFeed(t, newTestShop(t, &stubShop{}), off)
	m, _ = step(t, m, keyRunes("a"))
	if m.cartState.TotalItems() != 0 || m.flash != "This book is not on sale" {
		t.Fatalf("off-shelf add: items=%d flash=%q", m.cartState.TotalItems(), m.flash)
	}

	m = withHomeFeed(t, m, testBook(2, 0))
	m, _ = step(t, m, keyRunes("a"))
	if m.cartState.TotalItems() != 0 || m.flash != "Sold out" {
		t.Fatalf("sold-out add: items=%d flash=%q", m.cartState.TotalItems(), m.flash)
	}
}

func TestAnimationExpiryIgnoresStaleTicket(t *testing.T) {
	m := withHomeFeed(t, newTestShop(t, &stubShop{}), testBook(7, 5))
	m, _ = step(t, m, keyRunes("a"))
	m, _ = step(t, m, keyRunes("a"))

	// The first flight's expiry must not hide the second.
	m, _ = step(t, m, animExpireMsg{ticket: 1})
	if !m.anim.State().Visible {
		t.Fatalf("stale expiry hid the newer flight")
	}
	m, _ = step(t, m, animExpireMsg{ticket: 2})
	if m.anim.State().Visible {
		t.Fatalf("current expiry should end the flight")
	}
}

func TestCartQuantityKeys(t *testing.T) {
	m := withHomeFeed(t, newTestShop(t, &stubShop{}), testBook(7, 2))
	m, _ = step(t, m, keyRunes("a"))
	m, _ = step(t, m, keyRunes("3"))
	if m.currentView != ViewCart {
		t.Fatalf("view = %v, want Cart", m.currentView)
	}

	m, _ = step(t, m, keyRunes("+"))
	if got := m.cartState.Quantity(7); got != 2 {
		t.Fatalf("quantity after + = %d, want 2", got)
	}
	m, _ = step(t, m, keyRunes("+"))
	if got := m.cartState.Quantity(7); got != 2 {
		t.Fatalf("quantity past stock = %d, want 2", got)
	}
	m, _ = step(t, m, keyRunes("-"))
	if got := m.cartState.Quantity(7); got != 1 {
		t.Fatalf("quantity after - = %d, want 1", got)
	}
	m, _ = step(t, m, keyRunes("-"))
	if len(m.cartState.Items) != 0 {
		t.Fatalf("decrementing the last copy should remove the line")
	}
}

func TestClearCartAsksFirst(t *testing.T) {
	m := withHomeFeed(t, newTestShop(t, &stubShop{}), testBook(7, 2))
	m, _ = step(t, m, keyRunes("a"))
	m, _ = step(t, m, keyRunes("3"))
	m, _ = step(t, m, keyRunes("X"))
	if _, ok := m.modal.(*confirmModal); !ok {
		t.Fatalf("modal = %T, want confirmation", m.modal)
	}
	m, cmd := step(t, m, keyRunes("y"))
	if m.modal != nil {
		t.Fatalf("confirmation should close")
	}
	m, _ = run(t, m, cmd)
	if len(m.cartState.Items) != 0 {
		t.Fatalf("cart not cleared")
	}
}

func TestCheckout_RequiresLogin(t *testing.T) {
	m := withHomeFeed(t, newTestShop(t, &stubShop{}), testBook(7, 2))
	m, _ = step(t, m, keyRunes("a"))
	m, _ = step(t, m, keyRunes("3"))

	m, cmd := step(t, m, keyRunes("o"))
	if m.flash != "Please sign in to place an order" {
		t.Fatalf("flash = %q", m.flash)
	}
	m, _ = run(t, m, cmd)
	form, ok := m.modal.(*formModal)
	if !ok || form.kind != formLogin {
		t.Fatalf("modal = %#v, want login form", m.modal)
	}
	if form.captchaID != "cap-1" {
		t.Fatalf("captchaID = %q, want cap-1", form.captchaID)
	}
}

func openLogin(t *testing.T, m Model) (Model, *formModal) {
	t.Helper()
	m, cmd := step(t, m, keyRunes("L"))
	m, _ = run(t, m, cmd)
	form, ok := m.modal.(*formModal)
	if !ok || form.kind != formLogin {
		t.Fatalf("modal = %#v, want login form", m.modal)
	}
	return m, form
}

func TestLogin_ValidatesBeforeSending(t *testing.T) {
	m, form := openLogin(t, newTestShop(t, &stubShop{}))

	m, cmd := step(t, m, keyType(tea.KeyCtrlS))
	if cmd != nil || form.busy {
		t.Fatalf("invalid form must not be sent")
	}
	if m.modal != form {
		t.Fatalf("form should stay open with errors")
	}
	for _, field := range []string{"username", "password", "captcha"} {
		if form.errs[field] == "" {
			t.Fatalf("missing error for %s: %v", field, form.errs)
		}
	}
}

func TestLogin_Success(t *testing.T) {
	m, form := openLogin(t, newTestShop(t, &stubShop{}))
	form.setValue("username", "alice")
	form.setValue("password", "secret1")
	form.setValue("captcha", "1234")

	m, cmd := step(t, m, keyType(tea.KeyCtrlS))
	if !form.busy {
		t.Fatalf("form should be busy while signing in")
	}
	m, _ = run(t, m, cmd)
	if m.modal != nil {
		t.Fatalf("login form should close")
	}
	if !m.authed || m.user.Username != "alice" {
		t.Fatalf("authed=%v user=%q", m.authed, m.user.Username)
	}
}

func TestLogin_FailureRefreshesCaptcha(t *testing.T) {
	stub := &stubShop{loginErr: &api.Error{Kind: api.KindBusiness, Message: "captcha is incorrect"}}
	m, form := openLogin(t, newTestShop(t, stub))
	form.setValue("username", "alice")
	form.setValue("password", "secret1")
	form.setValue("captcha", "9999")

	m, cmd := step(t, m, keyType(tea.KeyCtrlS))
	m, cmd = run(t, m, cmd)
	if m.authed {
		t.Fatalf("failed login signed in")
	}
	if form.busy || form.note != "captcha is incorrect" {
		t.Fatalf("busy=%v note=%q", form.busy, form.note)
	}
	m, _ = run(t, m, cmd)
	if m.modal != form || form.value("username") != "alice" {
		t.Fatalf("captcha refresh should keep the open form")
	}
}

func TestSessionExpiry(t *testing.T) {
	m := newTestShop(t, &stubShop{})
	m, _ = step(t, m, sessionMsg(session.Event{Authenticated: true, User: api.User{ID: 1, Username: "alice"}}))
	if !m.authed {
		t.Fatalf("session event should sign in")
	}
	m.currentView = ViewOrders

	m, _ = step(t, m, sessionMsg(session.Event{Reason: session.ReasonExpired}))
	if m.authed {
		t.Fatalf("expired session should sign out")
	}
	if !m.flashError || !strings.Contains(m.flash, "expired") {
		t.Fatalf("flash = %q (error=%v)", m.flash, m.flashError)
	}
	if m.currentView != ViewHome {
		t.Fatalf("view = %v, orders need an account", m.currentView)
	}
}

func TestTabSkipsAccountViewsWhenSignedOut(t *testing.T) {
	m := newTestShop(t, &stubShop{})
	m, _ = step(t, m, keyRunes("3"))
	m, _ = step(t, m, keyType(tea.KeyTab))
	if m.currentView != ViewHome {
		t.Fatalf("tab from cart = %v, want Home", m.currentView)
	}
}

func TestFavoriteNeedsLogin(t *testing.T) {
	m := withHomeFeed(t, newTestShop(t, &stubShop{}), testBook(7, 2))
	m, cmd := step(t, m, keyRunes("f"))
	if m.flash != favorites.ErrLoginRequired.Error() {
		t.Fatalf("flash = %q", m.flash)
	}
	if cmd == nil {
		t.Fatalf("favoriting while signed out should open the login form")
	}
}

func TestSearchShowsBrowse(t *testing.T) {
	stub := &stubShop{books: []api.Book{testBook(1, 3), {ID: 2, Title: "Rust in Action", Stock: 1, Status: api.BookOnShelf}}}
	m := newTestShop(t, stub)

	m, _ = step(t, m, keyRunes("/"))
	form, ok := m.modal.(*formModal)
	if !ok || form.kind != formSearch {
		t.Fatalf("modal = %#v, want search form", m.modal)
	}
	form.setValue("keyword", "rust")
	m, cmd := step(t, m, keyType(tea.KeyEnter))
	if m.currentView != ViewBrowse || m.modal != nil {
		t.Fatalf("view=%v modal=%v", m.currentView, m.modal)
	}
	m, _ = run(t, m, cmd)

	items := m.browse.Result().Items
	if len(items) != 1 || items[0].ID != 2 {
		t.Fatalf("browse items = %+v, want the Rust book", items)
	}
	if len(stub.searched) != 1 || stub.searched[0] != "rust" {
		t.Fatalf("searched = %v", stub.searched)
	}
}

func TestCheckoutPlacesOrder(t *testing.T) {
	stub := &stubShop{}
	m := withHomeFeed(t, newTestShop(t, stub), testBook(7, 5))
	m, _ = step(t, m, sessionMsg(session.Event{Authenticated: true, User: api.User{ID: 1, Username: "alice"}}))
	m, _ = step(t, m, keyRunes("a"))
	m, _ = step(t, m, keyRunes("a"))
	m, _ = step(t, m, keyRunes("3"))

	m, _ = step(t, m, keyRunes("o"))
	if _, ok := m.modal.(*confirmModal); !ok {
		t.Fatalf("modal = %T, want confirmation", m.modal)
	}
	m, cmd := step(t, m, keyRunes("y"))
	m, cmd = run(t, m, cmd) // confirmed
	m, cmd = run(t, m, cmd) // order created

	if len(stub.created) != 1 {
		t.Fatalf("orders created = %d, want 1", len(stub.created))
	}
	lines := stub.created[0].Items
	if len(lines) != 1 || lines[0].BookID != 7 || lines[0].Quantity != 2 {
		t.Fatalf("order lines = %+v", lines)
	}
	if len(m.cartState.Items) != 0 {
		t.Fatalf("cart should be empty after ordering")
	}
	if m.currentView != ViewOrders {
		t.Fatalf("view = %v, want Orders", m.currentView)
	}
	if _, ok := cmd().(listview.Response[api.Order, noFilter]); !ok {
		t.Fatalf("orders should reload after checkout")
	}
}

func TestViewRendersEveryScreen(t *testing.T) {
	m := withHomeFeed(t, newTestShop(t, &stubShop{}), testBook(7, 5))
	m, _ = step(t, m, sessionMsg(session.Event{Authenticated: true, User: api.User{ID: 1, Username: "alice"}}))
	for _, v := range shopViews {
		m.currentView = v
		out := m.View()
		if !strings.Contains(out, "folio") || !strings.Contains(out, v.String()) {
			t.Fatalf("%v: header missing from render", v)
		}
	}
}
