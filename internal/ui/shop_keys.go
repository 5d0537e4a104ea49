package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/folio/internal/animation"
	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/cart"
	"github.com/five82/folio/internal/favorites"
	"github.com/five82/folio/internal/forms"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}
	if m.modal != nil {
		return m.handleModalKey(msg)
	}

	// Global keys
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		return m.switchView(m.offsetView(1))
	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(m.offsetView(-1))
	case key.Matches(msg, m.keys.Escape):
		return m.switchView(ViewHome)
	case key.Matches(msg, m.keys.Search):
		m.openSearch()
		return m, nil
	case key.Matches(msg, m.keys.Login):
		if m.authed {
			m.notify("Already signed in as " + m.user.Username)
			return m, nil
		}
		return m, m.captchaCmd(formLogin, "")
	case key.Matches(msg, m.keys.Register):
		if m.authed {
			m.notify("Sign out before creating another account")
			return m, nil
		}
		return m, m.captchaCmd(formRegister, "")
	case key.Matches(msg, m.keys.Logout):
		if !m.authed {
			return m, nil
		}
		return m, m.logoutCmd()
	case key.Matches(msg, m.keys.Profile):
		if !m.authed {
			m.notify("Please sign in first")
			return m, m.captchaCmd(formLogin, "")
		}
		m.openProfile()
		return m, nil
	}

	// Number keys jump straight to a view
	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] < '1'+byte(len(shopViews)) {
		return m.switchView(shopViews[s[0]-'1'])
	}

	if !m.hasList(m.currentView) {
		return m, nil
	}

	// List navigation
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
		return m, m.maybeCheckFavorite()
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
		return m, m.maybeCheckFavorite()
	case key.Matches(msg, m.keys.Top):
		m.selected[m.currentView] = 0
		return m, m.maybeCheckFavorite()
	case key.Matches(msg, m.keys.Bottom):
		m.selected[m.currentView] = max(0, m.rowCount()-1)
		return m, m.maybeCheckFavorite()
	case key.Matches(msg, m.keys.NextPage):
		return m, m.turnPage(true)
	case key.Matches(msg, m.keys.PrevPage):
		return m, m.turnPage(false)
	case key.Matches(msg, m.keys.PageSize):
		return m, m.cyclePageSize()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshView()
	}

	// View-specific keys
	switch m.currentView {
	case ViewCart:
		return m.handleCartKey(msg)
	case ViewOrders:
		return m.handleOrdersKey(msg)
	case ViewBrowse:
		if key.Matches(msg, m.keys.Category) {
			return m, m.cycleCategory()
		}
	case ViewFavorites:
		if key.Matches(msg, m.keys.FavoriteFilter) {
			return m, m.cycleFavoriteFilter()
		}
	}

	// Catalog actions (home, browse, favorites)
	switch {
	case key.Matches(msg, m.keys.AddToCart):
		return m.addSelectedToCart()
	case key.Matches(msg, m.keys.Favorite):
		return m.toggleFavorite()
	}

	return m, nil
}

// handleModalKey routes input to the open modal and acts on its result.
func (m Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	next, cmd, done := m.modal.Update(msg, m.keys)
	m.modal = next
	if !done {
		return m, cmd
	}
	form, ok := next.(*formModal)
	if !ok || form.cancelled || !form.submitted {
		m.modal = nil
		return m, cmd
	}
	return m.submitForm(form)
}

// submitForm validates a submitted form and sends it.
func (m Model) submitForm(form *formModal) (tea.Model, tea.Cmd) {
	switch form.kind {
	case formLogin:
		req := api.LoginRequest{
			Username:     form.value("username"),
			Password:     form.value("password"),
			CaptchaID:    form.captchaID,
			CaptchaValue: form.value("captcha"),
		}
		if errs := forms.Login(req); !errs.OK() {
			form.fail(errs, "")
			return m, nil
		}
		form.fail(nil, "")
		form.busy = true
		return m, m.loginCmd(req)

	case formRegister:
		req := api.RegisterRequest{
			Username:        form.value("username"),
			Email:           form.value("email"),
			Phone:           form.value("phone"),
			Password:        form.value("password"),
			ConfirmPassword: form.value("confirm_password"),
			CaptchaID:       form.captchaID,
			CaptchaValue:    form.value("captcha"),
		}
		if errs := forms.Register(req); !errs.OK() {
			form.fail(errs, "")
			return m, nil
		}
		form.fail(nil, "")
		form.busy = true
		return m, m.registerCmd(req)

	case formProfile:
		upd := api.ProfileUpdate{
			Username: form.value("username"),
			Email:    form.value("email"),
			Phone:    form.value("phone"),
			Avatar:   m.user.Avatar,
		}
		errs := forms.Profile(upd)
		var change *api.PasswordChange
		if form.value("old_password") != "" || form.value("new_password") != "" {
			pw := api.PasswordChange{OldPassword: form.value("old_password"), NewPassword: form.value("new_password")}
			for field, msg := range forms.Password(pw, form.value("confirm_password")) {
				errs[field] = msg
			}
			change = &pw
		}
		if !errs.OK() {
			form.fail(errs, "")
			return m, nil
		}
		form.fail(nil, "")
		form.busy = true
		return m, m.profileCmd(upd, change)

	case formSearch:
		m.modal = nil
		if m.browse == nil {
			return m, nil
		}
		m.categoryIdx = -1
		m.currentView = ViewBrowse
		m.selected[ViewBrowse] = 0
		return m, listCmd(m.ctx, m.browse, m.browse.ApplyFilter(browseFilter{Keyword: form.value("keyword")}))
	}
	m.modal = nil
	return m, nil
}

// offsetView returns the view delta steps away, skipping views that need an
// account while signed out.
func (m Model) offsetView(delta int) View {
	idx := 0
	for i, v := range shopViews {
		if v == m.currentView {
			idx = i
		}
	}
	for range shopViews {
		idx = (idx + delta + len(shopViews)) % len(shopViews)
		v := shopViews[idx]
		if m.authed || (v != ViewFavorites && v != ViewOrders) {
			return v
		}
	}
	return ViewHome
}

// switchView shows v and loads its data.
func (m Model) switchView(v View) (tea.Model, tea.Cmd) {
	if (v == ViewFavorites || v == ViewOrders) && !m.authed {
		m.notify("Please sign in to see your " + strings.ToLower(v.String()))
		return m, m.captchaCmd(formLogin, "")
	}
	m.currentView = v
	switch v {
	case ViewBrowse:
		if m.browse != nil {
			return m, tea.Batch(loadOnce(m.ctx, m.browse), m.maybeCheckFavorite())
		}
	case ViewFavorites:
		if m.favList != nil {
			return m, listCmd(m.ctx, m.favList, m.favList.Reload())
		}
	case ViewOrders:
		if m.orders != nil {
			return m, listCmd(m.ctx, m.orders, m.orders.Reload())
		}
	case ViewCart:
		if m.cart != nil {
			m.cartState = m.cart.Snapshot()
			m.clampSelection()
		}
	case ViewHome:
		return m, m.maybeCheckFavorite()
	}
	return m, nil
}

func (m *Model) moveSelection(delta int) {
	n := m.rowCount()
	if n == 0 {
		m.selected[m.currentView] = 0
		return
	}
	m.selected[m.currentView] = min(n-1, max(0, m.selected[m.currentView]+delta))
}

// clampSelection keeps every view's selection inside its list.
func (m *Model) clampSelection() {
	for _, v := range shopViews {
		n := m.rowCountFor(v)
		if m.selected[v] >= n {
			m.selected[v] = max(0, n-1)
		}
	}
}

func (m Model) rowCount() int {
	return m.rowCountFor(m.currentView)
}

func (m Model) rowCountFor(v View) int {
	switch v {
	case ViewHome:
		return len(m.homeBooks())
	case ViewBrowse:
		if m.browse != nil {
			return len(m.browse.Result().Items)
		}
	case ViewCart:
		return len(m.cartState.Items)
	case ViewFavorites:
		if m.favList != nil {
			return len(m.favList.Result().Items)
		}
	case ViewOrders:
		if m.orders != nil {
			return len(m.orders.Result().Items)
		}
	}
	return 0
}

// homeBooks is the home feed as one selectable list: hot, then new.
func (m Model) homeBooks() []api.Book {
	books := make([]api.Book, 0, len(m.snapshot.Feed.Hot)+len(m.snapshot.Feed.New))
	books = append(books, m.snapshot.Feed.Hot...)
	return append(books, m.snapshot.Feed.New...)
}

// selectedBook returns the book under the cursor in catalog views.
func (m Model) selectedBook() (api.Book, bool) {
	sel := m.selected[m.currentView]
	switch m.currentView {
	case ViewHome:
		if books := m.homeBooks(); sel < len(books) {
			return books[sel], true
		}
	case ViewBrowse:
		if m.browse != nil {
			if items := m.browse.Result().Items; sel < len(items) {
				return items[sel], true
			}
		}
	case ViewFavorites:
		if m.favList != nil {
			if items := m.favList.Result().Items; sel < len(items) && items[sel].Book != nil {
				return *items[sel].Book, true
			}
		}
	}
	return api.Book{}, false
}

func (m Model) selectedOrder() (api.Order, bool) {
	if m.orders == nil {
		return api.Order{}, false
	}
	items := m.orders.Result().Items
	sel := m.selected[ViewOrders]
	if sel < len(items) {
		return items[sel], true
	}
	return api.Order{}, false
}

// maybeCheckFavorite asks the server once per book whether the selected book
// is a favorite.
func (m Model) maybeCheckFavorite() tea.Cmd {
	if !m.authed || m.favs == nil {
		return nil
	}
	b, ok := m.selectedBook()
	if !ok || m.checked[b.ID] {
		return nil
	}
	m.checked[b.ID] = true
	return m.checkFavoriteCmd(b.ID)
}

func (m Model) turnPage(forward bool) tea.Cmd {
	m.selected[m.currentView] = 0
	switch m.currentView {
	case ViewBrowse:
		return pageCmd(m.ctx, m.browse, forward)
	case ViewFavorites:
		return pageCmd(m.ctx, m.favList, forward)
	case ViewOrders:
		return pageCmd(m.ctx, m.orders, forward)
	}
	return nil
}

func (m *Model) cyclePageSize() tea.Cmd {
	var (
		cmd  tea.Cmd
		size int
	)
	switch m.currentView {
	case ViewBrowse:
		cmd, size = pageSizeCmd(m.ctx, m.browse)
	case ViewFavorites:
		cmd, size = pageSizeCmd(m.ctx, m.favList)
	case ViewOrders:
		cmd, size = pageSizeCmd(m.ctx, m.orders)
	default:
		return nil
	}
	m.selected[m.currentView] = 0
	m.prefs.PageSize = size
	m.savePrefs()
	m.notify(fmt.Sprintf("Showing %d per page", size))
	return cmd
}

func (m *Model) refreshView() tea.Cmd {
	switch m.currentView {
	case ViewHome:
		if m.store != nil {
			return fetchSnapshotCmd(m.store)
		}
	case ViewBrowse:
		return listCmd(m.ctx, m.browse, m.browse.Reload())
	case ViewFavorites:
		return listCmd(m.ctx, m.favList, m.favList.Reload())
	case ViewOrders:
		return listCmd(m.ctx, m.orders, m.orders.Reload())
	case ViewCart:
		if m.cart != nil {
			m.cartState = m.cart.Snapshot()
			m.clampSelection()
		}
	}
	return nil
}

// activeCategories lists the categories offered by the category filter.
func (m Model) activeCategories() []api.Category {
	var out []api.Category
	for _, c := range m.snapshot.Feed.Categories {
		if c.IsActive {
			out = append(out, c)
		}
	}
	return out
}

func (m *Model) cycleCategory() tea.Cmd {
	cats := m.activeCategories()
	if len(cats) == 0 {
		m.notify("No categories yet")
		return nil
	}
	m.categoryIdx++
	if m.categoryIdx >= len(cats) {
		m.categoryIdx = -1
	}
	filter := browseFilter{}
	if m.categoryIdx >= 0 {
		filter.Category = cats[m.categoryIdx].Name
	}
	m.selected[ViewBrowse] = 0
	return listCmd(m.ctx, m.browse, m.browse.ApplyFilter(filter))
}

func (m *Model) cycleFavoriteFilter() tea.Cmd {
	current := m.favList.Query().Filter
	next := api.FavoriteFilters[0]
	for i, f := range api.FavoriteFilters {
		if f == current {
			next = api.FavoriteFilters[(i+1)%len(api.FavoriteFilters)]
			break
		}
	}
	m.selected[ViewFavorites] = 0
	m.prefs.FavoritesFilter = next
	m.savePrefs()
	return listCmd(m.ctx, m.favList, m.favList.ApplyFilter(next))
}

// addSelectedToCart adds one copy of the selected book and starts the
// fly-to-cart flourish.
func (m Model) addSelectedToCart() (tea.Model, tea.Cmd) {
	b, ok := m.selectedBook()
	if !ok || m.cart == nil {
		return m, nil
	}
	switch {
	case !b.OnShelf():
		m.notify("This book is not on sale")
		return m, nil
	case b.Stock <= 0:
		m.notify("Sold out")
		return m, nil
	}
	item := cart.ItemFromBook(b)
	if !m.cartState.CanAdd(item) {
		m.notify(fmt.Sprintf("Only %d in stock", b.Stock))
		return m, nil
	}
	next, err := m.cart.Add(item)
	m.cartState = next
	if err != nil {
		m.fail("save cart", err)
	} else {
		m.notify(fmt.Sprintf("Added %s to cart", truncate(b.Title, 40)))
	}
	ticket := m.anim.Trigger(m.selectionPoint())
	return m, tea.Batch(animFrameCmd(), animExpireCmd(ticket))
}

// listTop is the screen row of the first list row in the current view.
func (m Model) listTop() int {
	if m.currentView == ViewHome {
		return headerRows + bannerHeight + 1
	}
	return headerRows + 1
}

// selectionPoint is the screen cell of the selected row.
func (m Model) selectionPoint() animation.Point {
	top := m.listTop()
	visible := max(1, m.contentHeight()-(top-headerRows)-1)
	sel := m.selected[m.currentView]
	row := sel
	if sel >= visible {
		row = visible - 1
	}
	return animation.Point{X: 2, Y: top + row}
}

func (m Model) toggleFavorite() (tea.Model, tea.Cmd) {
	b, ok := m.selectedBook()
	if !ok || m.favs == nil {
		return m, nil
	}
	if !m.authed {
		m.notify(favorites.ErrLoginRequired.Error())
		return m, m.captchaCmd(formLogin, "")
	}
	if _, busy := m.favs.Pending(b.ID); busy {
		m.notify(favorites.ErrPending.Error())
		return m, nil
	}
	return m, m.toggleFavoriteCmd(b)
}

func (m Model) handleFavoriteToggled(msg favoriteToggledMsg) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(msg.err, favorites.ErrStale):
		return m, nil
	case errors.Is(msg.err, favorites.ErrPending):
		m.notify(msg.err.Error())
		return m, nil
	case msg.err != nil:
		m.fail("toggle favorite", msg.err)
		return m, nil
	}
	if msg.fav {
		m.notify(fmt.Sprintf("Added %s to favorites", truncate(msg.title, 40)))
	} else {
		m.notify(fmt.Sprintf("Removed %s from favorites", truncate(msg.title, 40)))
	}
	if m.currentView == ViewFavorites && m.favList != nil {
		return m, listCmd(m.ctx, m.favList, m.favList.AfterMutation())
	}
	return m, nil
}

// handleCartKey processes keyboard input for the cart view.
func (m Model) handleCartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.cart == nil {
		return m, nil
	}
	items := m.cartState.Items
	sel := m.selected[ViewCart]

	switch {
	case key.Matches(msg, m.keys.Checkout):
		return m.checkout()
	case key.Matches(msg, m.keys.ClearCart):
		if len(items) > 0 {
			m.modal = newConfirmModal("Remove everything from the cart?", onConfirm(confirmClearCart, 0))
		}
		return m, nil
	}

	if sel >= len(items) {
		return m, nil
	}
	item := items[sel]
	var (
		next cart.State
		err  error
	)
	switch {
	case key.Matches(msg, m.keys.Increase):
		if !m.cartState.CanAdd(item) {
			m.notify(fmt.Sprintf("Only %d in stock", item.Stock))
			return m, nil
		}
		next, err = m.cart.SetQuantity(item.BookID, item.Quantity+1)
	case key.Matches(msg, m.keys.Decrease):
		next, err = m.cart.SetQuantity(item.BookID, item.Quantity-1)
	case key.Matches(msg, m.keys.Remove):
		next, err = m.cart.Remove(item.BookID)
	default:
		return m, nil
	}
	m.cartState = next
	m.fail("save cart", err)
	m.clampSelection()
	return m, nil
}

func (m Model) checkout() (tea.Model, tea.Cmd) {
	if len(m.cartState.Items) == 0 {
		m.notify("Your cart is empty")
		return m, nil
	}
	if !m.authed {
		m.notify("Please sign in to place an order")
		return m, m.captchaCmd(formLogin, "")
	}
	prompt := fmt.Sprintf("Place order for %d items, total %s?",
		m.cartState.TotalItems(), formatPrice(m.cartState.TotalPrice()))
	m.modal = newConfirmModal(prompt, onConfirm(confirmCheckout, 0))
	return m, nil
}

// handleOrdersKey processes keyboard input for the orders view.
func (m Model) handleOrdersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Pay) {
		return m, nil
	}
	order, ok := m.selectedOrder()
	if !ok {
		return m, nil
	}
	if order.Status != api.OrderPending {
		m.notify("Order " + order.OrderNo + " is " + order.StatusLabel())
		return m, nil
	}
	prompt := fmt.Sprintf("Pay %s for order %s?", formatPrice(order.TotalAmount), order.OrderNo)
	m.modal = newConfirmModal(prompt, onConfirm(confirmPay, order.ID))
	return m, nil
}

// handleConfirmed runs the action of an accepted confirmation.
func (m Model) handleConfirmed(msg confirmedMsg) (tea.Model, tea.Cmd) {
	switch msg.action {
	case confirmClearCart:
		next, err := m.cart.Clear()
		m.cartState = next
		m.fail("clear cart", err)
		m.clampSelection()
		return m, nil
	case confirmCheckout:
		return m, m.createOrderCmd(m.cart.Snapshot())
	case confirmPay:
		return m, m.payOrderCmd(msg.id)
	}
	return m, nil
}

// Forms

func (m *Model) openSearch() {
	keyword := ""
	if m.browse != nil {
		keyword = m.browse.Query().Filter.Keyword
	}
	m.modal = newFormModal(formSearch, "Search books").
		addField("keyword", "Title or author", keyword)
}

func (m *Model) openProfile() {
	m.modal = newFormModal(formProfile, "Edit profile").
		addField("username", "Username", m.user.Username).
		addField("email", "Email", m.user.Email).
		addField("phone", "Phone", m.user.Phone).
		addField("old_password", "Current password", "").
		addField("new_password", "New password", "").
		addField("confirm_password", "Confirm password", "")
}

func newAccountForm(kind formKind, username string) *formModal {
	if kind == formRegister {
		return newFormModal(formRegister, "Create an account").
			addField("username", "Username", username).
			addField("email", "Email", "").
			addField("phone", "Phone", "").
			addField("password", "Password", "").
			addField("confirm_password", "Confirm", "").
			addField("captcha", "Captcha", "")
	}
	form := newFormModal(formLogin, "Sign in").
		addField("username", "Username", username).
		addField("password", "Password", "").
		addField("captcha", "Captcha", "")
	if username != "" {
		form.setFocus(1)
	}
	return form
}

// handleCaptcha opens the account form, or swaps the challenge of the one
// already open.
func (m Model) handleCaptcha(msg captchaMsg) (tea.Model, tea.Cmd) {
	note := ""
	if msg.err != nil {
		note = "Captcha unavailable: " + api.UserMessage(msg.err)
	}
	if form, ok := m.modal.(*formModal); ok && form.kind == msg.kind {
		if msg.err != nil {
			form.note = note
			return m, nil
		}
		form.setCaptcha(msg.captcha.ID, msg.art)
		return m, nil
	}
	if m.modal != nil {
		return m, nil
	}
	form := newAccountForm(msg.kind, msg.username)
	form.note = note
	if msg.err == nil {
		form.setCaptcha(msg.captcha.ID, msg.art)
	}
	m.modal = form
	return m, nil
}

func (m Model) handleLogin(msg loginMsg) (tea.Model, tea.Cmd) {
	form, open := m.modal.(*formModal)
	open = open && form.kind == formLogin
	if msg.err != nil {
		if !open {
			m.fail("login", msg.err)
			return m, nil
		}
		// Captchas are single use; fetch a fresh one for the retry.
		form.fail(nil, api.UserMessage(msg.err))
		return m, m.captchaCmd(formLogin, form.value("username"))
	}
	if open {
		m.modal = nil
	}
	m.user, m.authed = msg.user, true
	m.checked = make(map[int64]bool)
	m.notify("Welcome back, " + msg.user.Username)
	return m, tea.Batch(m.favoriteCountCmd(), m.maybeCheckFavorite())
}

func (m Model) handleRegister(msg registerMsg) (tea.Model, tea.Cmd) {
	form, open := m.modal.(*formModal)
	open = open && form.kind == formRegister
	if msg.err != nil {
		if !open {
			m.fail("register", msg.err)
			return m, nil
		}
		form.fail(nil, api.UserMessage(msg.err))
		return m, m.captchaCmd(formRegister, "")
	}
	if open {
		m.modal = nil
	}
	m.notify("Account created, please sign in")
	return m, m.captchaCmd(formLogin, msg.username)
}

func (m Model) handleProfile(msg profileMsg) (tea.Model, tea.Cmd) {
	if msg.user.ID != 0 {
		m.user = msg.user
	}
	form, open := m.modal.(*formModal)
	open = open && form.kind == formProfile
	if msg.err != nil {
		if open {
			form.fail(nil, api.UserMessage(msg.err))
		} else {
			m.fail("update profile", msg.err)
		}
		return m, nil
	}
	if open {
		m.modal = nil
	}
	m.notify("Profile saved")
	return m, nil
}
