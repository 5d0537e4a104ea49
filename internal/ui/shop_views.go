package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/cart"
	"github.com/five82/folio/internal/listview"
)

// renderMain renders the full storefront screen without overlays.
func (m Model) renderMain() string {
	return strings.Join([]string{
		m.renderHeader(),
		m.renderCommands(m.viewCommands()),
		m.renderContent(m.width, m.contentHeight()),
		m.renderStatusLine(m.statusHint()),
	}, "\n")
}

func (m Model) viewCommands() []command {
	var cmds []command
	switch m.currentView {
	case ViewHome:
		cmds = []command{{"a", "Add"}, {"f", "Favorite"}, {"/", "Search"}, {"r", "Refresh"}}
	case ViewBrowse:
		cmds = []command{{"a", "Add"}, {"f", "Favorite"}, {"/", "Search"}, {"s", "Category"}, {"[ ]", "Page"}, {"z", "Size"}}
	case ViewCart:
		cmds = []command{{"+/-", "Qty"}, {"x", "Remove"}, {"X", "Clear"}, {"o", "Checkout"}}
	case ViewFavorites:
		cmds = []command{{"a", "Add"}, {"f", "Unfavorite"}, {"F", "Filter"}, {"[ ]", "Page"}}
	case ViewOrders:
		cmds = []command{{"p", "Pay"}, {"[ ]", "Page"}, {"r", "Refresh"}}
	}
	if m.authed {
		cmds = append(cmds, command{"u", "Profile"}, command{"O", "Logout"})
	} else {
		cmds = append(cmds, command{"L", "Login"}, command{"R", "Register"})
	}
	return append(cmds, command{"h", "Help"})
}

// statusHint is shown on the status line when there is no notification.
func (m Model) statusHint() string {
	if !m.hasList(m.currentView) {
		return "Press h for help"
	}
	switch m.currentView {
	case ViewBrowse:
		return listHint(m.browse.Query().PageSize, m.browse.Result())
	case ViewFavorites:
		return listHint(m.favList.Query().PageSize, m.favList.Result())
	case ViewOrders:
		return listHint(m.orders.Query().PageSize, m.orders.Result())
	case ViewCart:
		return fmt.Sprintf("%d items · %s", m.cartState.TotalItems(), formatPrice(m.cartState.TotalPrice()))
	}
	if m.snapshot.LastUpdated.IsZero() {
		return "Press h for help"
	}
	return "Updated " + humanizeDuration(time.Since(m.snapshot.LastUpdated)) + " ago · press h for help"
}

func listHint[T any](pageSize int, r listview.Result[T]) string {
	return pageLabel(r.Page, r.TotalPages, r.Total) + fmt.Sprintf(" · %d per page", pageSize)
}

func (m Model) renderContent(width, height int) string {
	if !m.hasList(m.currentView) {
		return m.renderEmpty("Nothing to show", width, height)
	}
	switch m.currentView {
	case ViewBrowse:
		return m.renderBrowse(width, height)
	case ViewCart:
		return m.renderCart(width, height)
	case ViewFavorites:
		return m.renderFavorites(width, height)
	case ViewOrders:
		return m.renderOrders(width, height)
	default:
		return m.renderHome(width, height)
	}
}

// hasList reports whether v's list controller exists. Views without one
// always do.
func (m Model) hasList(v View) bool {
	switch v {
	case ViewBrowse:
		return m.browse != nil
	case ViewFavorites:
		return m.favList != nil
	case ViewOrders:
		return m.orders != nil
	}
	return true
}

// splitWidths divides the content between the list and the detail pane.
// Narrow terminals get no detail pane.
func splitWidths(width int) (list, detail int) {
	if width < LayoutCompactWidth {
		return width, 0
	}
	list = width * 3 / 5
	return list, width - list
}

// withDetail puts the detail pane to the right of list when there is room.
func withDetail(list string, detailW int, detail func() string) string {
	if detailW == 0 {
		return list
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, list, detail())
}

func (m Model) listPane(title string, rows []string, msg string, width, height int) string {
	return m.listBox(title, "", rows, m.selected[m.currentView], msg, width, height)
}

// listMessage picks the placeholder for an empty list.
func listMessage(loading bool, err error, empty string) string {
	switch {
	case err != nil:
		return api.UserMessage(err)
	case loading:
		return "Loading..."
	default:
		return empty
	}
}

// bookRow renders one catalog line: favorite marker, title, author, price.
func (m Model) bookRow(b api.Book, width int) string {
	heart := " "
	if m.favs != nil && m.favs.IsFavorited(b.ID) {
		heart = "♥"
	}
	sale, _, off := priceLabel(b)
	price := sale
	if off != "" {
		price += " " + off
	}
	if b.Stock <= 0 {
		price = "sold out"
	}
	const priceW = 16
	authorW := 0
	if width >= 60 {
		authorW = width / 4
	}
	titleW := max(4, width-2-authorW-priceW)
	row := heart + " " + fit(b.Title, titleW)
	if authorW > 0 {
		row += " " + fit(b.Author, authorW-1)
	}
	return row + padLeft(price, priceW)
}

func (m Model) renderHome(width, height int) string {
	banner := m.renderBanner(width, bannerHeight)
	listH := max(3, height-bannerHeight)
	listW, detailW := splitWidths(width)

	hot := len(m.snapshot.Feed.Hot)
	books := m.homeBooks()
	rows := make([]string, 0, len(books))
	for i, b := range books {
		rows = append(rows, ternary(i < hot, "HOT ", "NEW ")+m.bookRow(b, listW-6))
	}
	msg := "No books yet"
	if !m.snapshot.HasFeed {
		msg = listMessage(m.snapshot.LastError == nil, m.snapshot.LastError, msg)
	}
	list := m.listPane("Hot & new", rows, msg, listW, listH)
	body := withDetail(list, detailW, func() string {
		b, ok := m.selectedBook()
		return m.renderBookDetail(b, ok, detailW, listH)
	})
	return banner + "\n" + body
}

// renderBanner shows the current carousel slide and the category list.
func (m Model) renderBanner(width, height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)

	var slide string
	if slides := m.snapshot.Feed.Carousels; len(slides) > 0 {
		c := slides[int(time.Now().Unix()/5)%len(slides)]
		slide = bg.Render(c.Title, styles.WarningText.Bold(true))
		if c.Description != "" {
			slide += bg.Spaces(2) + bg.Render(c.Description, styles.MutedText)
		}
	} else {
		slide = bg.Render("Welcome to folio", styles.WarningText.Bold(true))
	}

	var cats []string
	for _, c := range m.activeCategories() {
		cats = append(cats, c.Name)
	}
	line := bg.Render("Categories", styles.FaintText) + bg.Spaces(2)
	if len(cats) == 0 {
		line += bg.Render("none yet", styles.MutedText)
	} else {
		line += bg.Render(strings.Join(cats, " · "), styles.AccentText)
	}
	return m.renderTitledBox("Featured", slide+"\n"+line, width, height, false)
}

// renderBookDetail renders everything known about a book.
func (m Model) renderBookDetail(b api.Book, ok bool, width, height int) string {
	if !ok {
		return m.renderTitledBox("Details", "", width, height, false)
	}
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)
	inner := max(10, width-4)

	field := func(label, value string, style lipgloss.Style) string {
		return bg.Render(padRight(label, 11), styles.MutedText) + bg.Render(truncate(value, inner-11), style)
	}

	lines := []string{
		bg.Render(truncate(b.Title, inner), styles.Text.Bold(true)),
		bg.Render("by "+truncate(b.Author, inner-3), styles.AccentText),
		"",
	}

	sale, list, off := priceLabel(b)
	price := bg.Render("Price", styles.MutedText) + bg.Spaces(6) + bg.Render(sale, styles.Price)
	if list != "" {
		price += bg.Space() + bg.Render(list, styles.Strike) + bg.Space() + bg.Render(off, styles.DangerText)
	}
	lines = append(lines, price)

	stockStyle := styles.Text
	switch {
	case b.Stock <= 0:
		stockStyle = styles.DangerText
	case b.Stock < 10:
		stockStyle = styles.WarningText
	}
	lines = append(lines, field("Stock", stockLabel(b.Stock), stockStyle))
	if !b.OnShelf() {
		lines = append(lines, field("Status", "not on sale", styles.DangerText))
	}
	if inCart := m.cartState.Quantity(b.ID); inCart > 0 {
		lines = append(lines, field("In cart", fmt.Sprintf("%d", inCart), styles.SuccessText))
	}
	if m.authed && m.favs != nil {
		fav := "no"
		if m.favs.IsFavorited(b.ID) {
			fav = "♥ yes"
		}
		lines = append(lines, field("Favorite", fav, styles.DangerText))
	}

	for _, c := range m.snapshot.Feed.Categories {
		if c.ID == b.CategoryID {
			lines = append(lines, field("Category", c.Name, styles.Text))
			break
		}
	}
	for _, kv := range [][2]string{
		{"Type", b.Type},
		{"Publisher", b.Publisher},
		{"Published", b.PublishDate},
		{"ISBN", b.ISBN},
		{"Language", b.Language},
		{"Format", b.Format},
	} {
		if strings.TrimSpace(kv[1]) != "" {
			lines = append(lines, field(kv[0], kv[1], styles.Text))
		}
	}
	if b.Pages > 0 {
		lines = append(lines, field("Pages", fmt.Sprintf("%d", b.Pages), styles.Text))
	}
	lines = append(lines, field("Sold", fmt.Sprintf("%d", b.Sale), styles.Text))

	if desc := strings.TrimSpace(b.Description); desc != "" {
		lines = append(lines, "")
		wrapped := lipgloss.NewStyle().Width(inner).Render(desc)
		for _, l := range strings.Split(wrapped, "\n") {
			lines = append(lines, bg.Render(l, styles.Text))
		}
	}

	return m.renderTitledBox("Details", strings.Join(lines, "\n"), width, height, false)
}

func (m Model) renderBrowse(width, height int) string {
	listW, detailW := splitWidths(width)
	q := m.browse.Query()
	title := "All books"
	switch {
	case q.Filter.Keyword != "":
		title = fmt.Sprintf("Search: %s", q.Filter.Keyword)
	case q.Filter.Category != "":
		title = "Category: " + q.Filter.Category
	}

	result := m.browse.Result()
	rows := make([]string, 0, len(result.Items))
	for _, b := range result.Items {
		rows = append(rows, m.bookRow(b, listW-2))
	}
	msg := listMessage(m.browse.Loading(), m.browse.Err(), "No books match")
	list := m.listPane(title, rows, msg, listW, height)
	return withDetail(list, detailW, func() string {
		b, ok := m.selectedBook()
		return m.renderBookDetail(b, ok, detailW, height)
	})
}

func (m Model) renderCart(width, height int) string {
	listW, detailW := splitWidths(width)
	items := m.cartState.Items
	rows := make([]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, cartRow(it, listW-2))
	}
	list := m.listPane(fmt.Sprintf("Cart (%d)", m.cartState.TotalItems()), rows, "Your cart is empty", listW, height)
	return withDetail(list, detailW, func() string {
		return m.renderCartSummary(detailW, height)
	})
}

func cartRow(it cart.Item, width int) string {
	qty := fmt.Sprintf("%s × %d", formatPrice(it.UnitPrice), it.Quantity)
	const qtyW, subW = 18, 12
	titleW := max(4, width-qtyW-subW)
	return fit(it.Title, titleW) + padLeft(qty, qtyW) + padLeft(formatPrice(it.Subtotal()), subW)
}

func (m Model) renderCartSummary(width, height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)
	inner := max(10, width-4)

	lines := []string{
		bg.Render("Items", styles.MutedText) + bg.Spaces(6) + bg.Render(fmt.Sprintf("%d", m.cartState.TotalItems()), styles.Text),
		bg.Render("Total", styles.MutedText) + bg.Spaces(6) + bg.Render(formatPrice(m.cartState.TotalPrice()), styles.Price),
		"",
	}
	if sel := m.selected[ViewCart]; sel < len(m.cartState.Items) {
		it := m.cartState.Items[sel]
		lines = append(lines,
			bg.Render(truncate(it.Title, inner), styles.Text.Bold(true)),
			bg.Render("by "+truncate(it.Author, inner-3), styles.AccentText),
			bg.Render(fmt.Sprintf("%s each · %s", formatPrice(it.UnitPrice), stockLabel(it.Stock)), styles.MutedText),
			"",
		)
	}
	if !m.authed && len(m.cartState.Items) > 0 {
		lines = append(lines, bg.Render("Sign in (L) to check out", styles.WarningText))
	} else if len(m.cartState.Items) > 0 {
		lines = append(lines, bg.Render("Press o to place the order", styles.FaintText))
	}
	return m.renderTitledBox("Summary", strings.Join(lines, "\n"), width, height, false)
}

func (m Model) renderFavorites(width, height int) string {
	listW, detailW := splitWidths(width)
	result := m.favList.Result()
	rows := make([]string, 0, len(result.Items))
	for _, f := range result.Items {
		if f.Book == nil {
			rows = append(rows, fit(fmt.Sprintf("♥ book #%d", f.BookID), listW-2))
			continue
		}
		rows = append(rows, m.bookRow(*f.Book, listW-2))
	}
	filter := m.favList.Query().Filter
	title := fmt.Sprintf("Favorites (%s)", strings.ReplaceAll(filter, "_", " "))
	msg := listMessage(m.favList.Loading(), m.favList.Err(), "No favorites yet, press f on a book")
	list := m.listPane(title, rows, msg, listW, height)
	return withDetail(list, detailW, func() string {
		b, ok := m.selectedBook()
		return m.renderBookDetail(b, ok, detailW, height)
	})
}

func (m Model) renderOrders(width, height int) string {
	listW, detailW := splitWidths(width)
	result := m.orders.Result()
	rows := make([]string, 0, len(result.Items))
	for _, o := range result.Items {
		rows = append(rows, orderRow(o, listW-2))
	}
	msg := listMessage(m.orders.Loading(), m.orders.Err(), "No orders yet")
	list := m.listPane("Orders", rows, msg, listW, height)
	return withDetail(list, detailW, func() string {
		o, ok := m.selectedOrder()
		return m.renderOrderDetail(o, ok, detailW, height)
	})
}

func orderRow(o api.Order, width int) string {
	const dateW, statusW, amountW = 12, 11, 12
	noW := max(4, width-dateW-statusW-amountW)
	return fit(o.OrderNo, noW) + fit(shortDate(o.CreatedAt), dateW) + fit(o.StatusLabel(), statusW) + padLeft(formatPrice(o.TotalAmount), amountW)
}

func (m Model) renderOrderDetail(o api.Order, ok bool, width, height int) string {
	if !ok {
		return m.renderTitledBox("Order", "", width, height, false)
	}
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	bg := NewBgStyle(m.theme.SurfaceAlt)
	inner := max(10, width-4)

	lines := []string{
		bg.Render(o.OrderNo, styles.Text.Bold(true)) + bg.Space() + styles.StatusStyle(o.StatusLabel()).Render(o.StatusLabel()),
		bg.Render("Placed "+shortDate(o.CreatedAt), styles.MutedText),
	}
	if o.PaymentTime != "" {
		lines = append(lines, bg.Render("Paid "+shortDate(o.PaymentTime), styles.MutedText))
	}
	lines = append(lines, "")
	for _, it := range o.Items {
		title := fmt.Sprintf("book #%d", it.BookID)
		if it.Book != nil {
			title = it.Book.Title
		}
		qty := fmt.Sprintf(" × %d", it.Quantity)
		sub := formatPrice(it.Subtotal)
		lines = append(lines,
			bg.Render(fit(title, max(4, inner-len(qty)-12))+qty, styles.Text)+bg.Render(padLeft(sub, 12), styles.MutedText))
	}
	lines = append(lines, "",
		bg.Render("Total", styles.MutedText)+bg.Spaces(2)+bg.Render(formatPrice(o.TotalAmount), styles.Price))
	if o.Status == api.OrderPending {
		lines = append(lines, bg.Render("Press p to pay", styles.WarningText))
	}
	return m.renderTitledBox("Order", strings.Join(lines, "\n"), width, height, false)
}
