package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/folio/internal/api"
)

// renderMain renders the full admin screen without overlays.
func (m AdminModel) renderMain() string {
	return strings.Join([]string{
		m.renderHeader(),
		m.renderCommands(m.viewCommands()),
		m.renderContent(m.width, m.contentHeight()),
		m.renderStatusLine(m.statusHint()),
	}, "\n")
}

func (m AdminModel) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	names := make([]string, len(adminViews))
	for i, v := range adminViews {
		names[i] = v.String()
	}
	left := bg.Render("folio", styles.Logo) + bg.Space() + bg.Render("admin", styles.DangerText) +
		bg.Spaces(2) + m.renderTabs(bg, styles, names, int(m.currentView))

	right := bg.Render("○", styles.FaintText) + bg.Space() + bg.Render("signed out", styles.MutedText)
	if m.authed {
		right = bg.Render("●", styles.SuccessText) + bg.Space() + bg.Render(m.user.Username, styles.Text)
	}
	return m.headerLine(bg, left, right+bg.Space())
}

func (m AdminModel) viewCommands() []command {
	if !m.authed {
		return []command{{"L", "Sign in"}, {"h", "Help"}}
	}
	switch m.currentView {
	case AdminBooks, AdminUsers:
		return []command{{"n", "New"}, {"E", "Edit"}, {"d", "Delete"}, {"s", "Toggle"}, {"F", "Filter"}, {"[ ]", "Page"}, {"O", "Logout"}, {"h", "Help"}}
	case AdminCategories:
		return []command{{"n", "New"}, {"E", "Edit"}, {"d", "Delete"}, {"s", "Show/hide"}, {"[ ]", "Page"}, {"O", "Logout"}, {"h", "Help"}}
	}
	return []command{{"r", "Refresh"}, {"tab", "Next view"}, {"O", "Logout"}, {"h", "Help"}}
}

func (m AdminModel) statusHint() string {
	switch m.currentView {
	case AdminBooks:
		return listHint(m.books.Query().PageSize, m.books.Result())
	case AdminCategories:
		return listHint(m.categories.Query().PageSize, m.categories.Result())
	case AdminUsers:
		return listHint(m.users.Query().PageSize, m.users.Result())
	}
	return "Press h for help"
}

func (m AdminModel) renderContent(width, height int) string {
	if !m.authed {
		return m.renderEmpty("Sign in with an administrator account (L)", width, height)
	}
	switch m.currentView {
	case AdminBooks:
		return m.renderBooks(width, height)
	case AdminCategories:
		return m.renderCategories(width, height)
	case AdminUsers:
		return m.renderUsers(width, height)
	default:
		return m.renderDashboard(width, height)
	}
}

const statCardHeight = 4

func (m AdminModel) renderDashboard(width, height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	s := m.stats
	cards := []struct{ title, value string }{
		{"Books", fmt.Sprintf("%d", s.TotalBooks)},
		{"Orders", fmt.Sprintf("%d", s.TotalOrders)},
		{"Users", fmt.Sprintf("%d", s.TotalUsers)},
		{"Revenue", formatPrice(s.TotalRevenue)},
	}
	if !m.statsLoaded {
		for i := range cards {
			cards[i].value = "-"
		}
	}
	cardW := width / len(cards)
	boxes := make([]string, len(cards))
	for i, c := range cards {
		w := cardW
		if i == len(cards)-1 {
			w = width - cardW*(len(cards)-1)
		}
		boxes[i] = m.renderTitledBox(c.title, " "+styles.Price.Render(c.value), w, statCardHeight, false)
	}

	rows := make([]string, 0, len(s.RecentBooks))
	inner := width - 2
	for _, b := range s.RecentBooks {
		rows = append(rows, recentRow(b, inner))
	}
	msg := listMessage(!m.statsLoaded && m.statsErr == nil, m.statsErr, "No books yet")
	recent := m.listBox("Recently added", recentHeader(inner), rows, m.selected[AdminDashboard], msg, width, max(3, height-statCardHeight))
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...) + "\n" + recent
}

func recentColumns(width int) (titleW, authorW int) {
	const priceW, dateW = 12, 12
	rest := max(8, width-priceW-dateW)
	return rest * 3 / 5, rest - rest*3/5
}

func recentHeader(width int) string {
	titleW, authorW := recentColumns(width)
	return fit("TITLE", titleW) + fit("AUTHOR", authorW) + padLeft("PRICE", 12) + padLeft("ADDED", 12)
}

func recentRow(b api.RecentBook, width int) string {
	titleW, authorW := recentColumns(width)
	return fit(b.Title, titleW) + fit(b.Author, authorW) + padLeft(formatPrice(b.Price), 12) + padLeft(shortDate(b.CreatedAt), 12)
}

func (m AdminModel) renderBooks(width, height int) string {
	listW, detailW := splitWidths(width)
	inner := listW - 2
	wide := width >= LayoutWideWidth

	header, row := bookTable(inner, wide)
	result := m.books.Result()
	rows := make([]string, 0, len(result.Items))
	for _, b := range result.Items {
		rows = append(rows, row(b))
	}

	title := "Books"
	if f := m.books.Query().Filter; f != allBooks {
		title = "Books (filtered)"
	}
	msg := listMessage(m.books.Loading(), m.books.Err(), "No books match")
	list := m.listBox(title, header, rows, m.selected[AdminBooks], msg, listW, height)
	return withDetail(list, detailW, func() string {
		b, ok := m.selectedBook()
		return m.renderBookRecord(b, ok, detailW, height)
	})
}

// bookTable returns the header and row renderer of the book table. Wide
// terminals also show author and sales.
func bookTable(width int, wide bool) (string, func(api.Book) string) {
	const idW, priceW, stockW, shelfW, saleW = 6, 11, 7, 10, 7
	fixed := idW + priceW + stockW + shelfW
	if wide {
		fixed += saleW
	}
	rest := max(8, width-fixed)
	titleW, authorW := rest, 0
	if wide {
		titleW, authorW = rest*3/5, rest-rest*3/5
	}

	header := fit("ID", idW) + fit("TITLE", titleW)
	if wide {
		header += fit("AUTHOR", authorW)
	}
	header += padLeft("PRICE", priceW) + padLeft("STOCK", stockW)
	if wide {
		header += padLeft("SOLD", saleW)
	}
	header += padLeft("SHELF", shelfW)

	return header, func(b api.Book) string {
		line := fit(fmt.Sprintf("%d", b.ID), idW) + fit(b.Title, titleW)
		if wide {
			line += fit(b.Author, authorW)
		}
		line += padLeft(formatPrice(b.SalePrice()), priceW) + padLeft(fmt.Sprintf("%d", b.Stock), stockW)
		if wide {
			line += padLeft(fmt.Sprintf("%d", b.Sale), saleW)
		}
		return line + padLeft(ternary(b.OnShelf(), "on", "off"), shelfW)
	}
}

// recordPane renders label/value pairs in the detail box.
func (f frame) recordPane(title string, heading string, badge string, fields [][2]string, width, height int) string {
	styles := f.theme.Styles().WithBackground(f.theme.SurfaceAlt)
	bg := NewBgStyle(f.theme.SurfaceAlt)
	inner := max(10, width-4)

	lines := []string{bg.Render(truncate(heading, inner), styles.Text.Bold(true))}
	if badge != "" {
		lines = append(lines, styles.StatusStyle(badge).Render(badge))
	}
	lines = append(lines, "")
	for _, kv := range fields {
		if strings.TrimSpace(kv[1]) == "" {
			continue
		}
		lines = append(lines, bg.Render(padRight(kv[0], 12), styles.MutedText)+bg.Render(truncate(kv[1], inner-12), styles.Text))
	}
	return f.renderTitledBox(title, strings.Join(lines, "\n"), width, height, false)
}

func (m AdminModel) renderBookRecord(b api.Book, ok bool, width, height int) string {
	if !ok {
		return m.renderTitledBox("Book", "", width, height, false)
	}
	sale, list, off := priceLabel(b)
	price := sale
	if list != "" {
		price = fmt.Sprintf("%s (list %s, %s)", sale, list, off)
	}
	category := ""
	for _, c := range m.categories.Result().Items {
		if c.ID == b.CategoryID {
			category = c.Name
		}
	}
	if category == "" && b.CategoryID > 0 {
		category = fmt.Sprintf("#%d", b.CategoryID)
	}
	return m.recordPane("Book", b.Title, shelfLabel(b.Status), [][2]string{
		{"Author", b.Author},
		{"Price", price},
		{"Stock", stockLabel(b.Stock)},
		{"Sold", fmt.Sprintf("%d", b.Sale)},
		{"Type", b.Type},
		{"Category", category},
		{"Publisher", b.Publisher},
		{"ISBN", b.ISBN},
		{"Cover", truncateMiddle(b.CoverURL, 40)},
		{"Created", shortDate(b.CreatedAt)},
		{"Updated", shortDate(b.UpdatedAt)},
	}, width, height)
}

func (m AdminModel) renderCategories(width, height int) string {
	listW, detailW := splitWidths(width)
	inner := listW - 2
	const idW, sortW, booksW, activeW = 6, 6, 7, 8
	nameW := max(8, inner-idW-sortW-booksW-activeW)
	header := fit("ID", idW) + fit("NAME", nameW) + padLeft("SORT", sortW) + padLeft("BOOKS", booksW) + padLeft("ACTIVE", activeW)

	result := m.categories.Result()
	rows := make([]string, 0, len(result.Items))
	for _, c := range result.Items {
		rows = append(rows, fit(fmt.Sprintf("%d", c.ID), idW)+fit(c.Name, nameW)+
			padLeft(fmt.Sprintf("%d", c.Sort), sortW)+padLeft(fmt.Sprintf("%d", c.BookCount), booksW)+
			padLeft(ternary(c.IsActive, "yes", "no"), activeW))
	}
	msg := listMessage(m.categories.Loading(), m.categories.Err(), "No categories yet")
	list := m.listBox("Categories", header, rows, m.selected[AdminCategories], msg, listW, height)
	return withDetail(list, detailW, func() string {
		c, ok := m.selectedCategory()
		if !ok {
			return m.renderTitledBox("Category", "", detailW, height, false)
		}
		return m.recordPane("Category", c.Name, "", [][2]string{
			{"Description", c.Description},
			{"Icon", c.Icon},
			{"Color", c.Color},
			{"Books", fmt.Sprintf("%d", c.BookCount)},
			{"Visible", ternary(c.IsActive, "yes", "no")},
			{"Created", shortDate(c.CreatedAt)},
		}, detailW, height)
	})
}

func (m AdminModel) renderUsers(width, height int) string {
	listW, detailW := splitWidths(width)
	inner := listW - 2
	const idW, roleW = 6, 10
	rest := max(8, inner-idW-roleW)
	nameW, emailW := rest*2/5, rest-rest*2/5
	header := fit("ID", idW) + fit("USERNAME", nameW) + fit("EMAIL", emailW) + padLeft("ROLE", roleW)

	result := m.users.Result()
	rows := make([]string, 0, len(result.Items))
	for _, u := range result.Items {
		rows = append(rows, fit(fmt.Sprintf("%d", u.ID), idW)+fit(u.Username, nameW)+fit(u.Email, emailW)+
			padLeft(roleLabel(u.IsAdmin), roleW))
	}
	title := "Users"
	if m.users.Query().Filter != allUsers {
		title = "Users (filtered)"
	}
	msg := listMessage(m.users.Loading(), m.users.Err(), "No users match")
	list := m.listBox(title, header, rows, m.selected[AdminUsers], msg, listW, height)
	return withDetail(list, detailW, func() string {
		u, ok := m.selectedUser()
		if !ok {
			return m.renderTitledBox("User", "", detailW, height, false)
		}
		return m.recordPane("User", u.Username, roleLabel(u.IsAdmin), [][2]string{
			{"Email", u.Email},
			{"Phone", u.Phone},
			{"Joined", shortDate(u.CreatedAt)},
		}, detailW, height)
	})
}
