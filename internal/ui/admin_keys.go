package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/forms"
)

// handleKey processes keyboard input for the admin console.
func (m AdminModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.modal != nil {
		return m.handleModalKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil
	}

	if !m.authed {
		// Everything else needs an administrator.
		m.modal = newAdminLoginForm("")
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Logout):
		return m, m.adminLogoutCmd()
	case key.Matches(msg, m.keys.Tab):
		return m.switchView(adminViews[(int(m.currentView)+1)%len(adminViews)])
	case key.Matches(msg, m.keys.ShiftTab):
		return m.switchView(adminViews[(int(m.currentView)+len(adminViews)-1)%len(adminViews)])
	case key.Matches(msg, m.keys.Escape):
		return m.switchView(AdminDashboard)
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
		return m, nil
	case key.Matches(msg, m.keys.Top):
		m.selected[m.currentView] = 0
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.selected[m.currentView] = max(0, m.rowCount()-1)
		return m, nil
	case key.Matches(msg, m.keys.NextPage):
		return m, m.turnPage(true)
	case key.Matches(msg, m.keys.PrevPage):
		return m, m.turnPage(false)
	case key.Matches(msg, m.keys.PageSize):
		return m, m.cyclePageSize()
	case key.Matches(msg, m.keys.Refresh):
		return m, m.reloadView()
	case key.Matches(msg, m.keys.New):
		return m.openNew()
	case key.Matches(msg, m.keys.Edit):
		return m.openEdit()
	case key.Matches(msg, m.keys.Delete):
		return m.confirmDelete()
	case key.Matches(msg, m.keys.Toggle):
		return m.toggleSelected()
	case key.Matches(msg, m.keys.Filters):
		m.openFilters()
		return m, nil
	}

	if s := msg.String(); len(s) == 1 && s[0] >= '1' && s[0] < '1'+byte(len(adminViews)) {
		return m.switchView(adminViews[s[0]-'1'])
	}
	return m, nil
}

func (m AdminModel) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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

// switchView shows v and loads its data.
func (m AdminModel) switchView(v AdminView) (tea.Model, tea.Cmd) {
	m.currentView = v
	return m, m.loadView(v)
}

func (m AdminModel) loadView(v AdminView) tea.Cmd {
	switch v {
	case AdminBooks:
		return loadOnce(m.ctx, m.books)
	case AdminCategories:
		return loadOnce(m.ctx, m.categories)
	case AdminUsers:
		return loadOnce(m.ctx, m.users)
	}
	return m.statsCmd()
}

func (m AdminModel) reloadView() tea.Cmd {
	switch m.currentView {
	case AdminBooks:
		return listCmd(m.ctx, m.books, m.books.Reload())
	case AdminCategories:
		return listCmd(m.ctx, m.categories, m.categories.Reload())
	case AdminUsers:
		return listCmd(m.ctx, m.users, m.users.Reload())
	}
	return m.statsCmd()
}

func (m AdminModel) turnPage(forward bool) tea.Cmd {
	m.selected[m.currentView] = 0
	switch m.currentView {
	case AdminBooks:
		return pageCmd(m.ctx, m.books, forward)
	case AdminCategories:
		return pageCmd(m.ctx, m.categories, forward)
	case AdminUsers:
		return pageCmd(m.ctx, m.users, forward)
	}
	return nil
}

func (m *AdminModel) cyclePageSize() tea.Cmd {
	var (
		cmd  tea.Cmd
		size int
	)
	switch m.currentView {
	case AdminBooks:
		cmd, size = pageSizeCmd(m.ctx, m.books)
	case AdminCategories:
		cmd, size = pageSizeCmd(m.ctx, m.categories)
	case AdminUsers:
		cmd, size = pageSizeCmd(m.ctx, m.users)
	default:
		return nil
	}
	m.selected[m.currentView] = 0
	m.prefs.PageSize = size
	m.savePrefs()
	m.notify(fmt.Sprintf("Showing %d per page", size))
	return cmd
}

func (m *AdminModel) moveSelection(delta int) {
	n := m.rowCount()
	if n == 0 {
		m.selected[m.currentView] = 0
		return
	}
	m.selected[m.currentView] = min(n-1, max(0, m.selected[m.currentView]+delta))
}

func (m *AdminModel) clampSelection() {
	for _, v := range adminViews {
		n := m.rowCountFor(v)
		if m.selected[v] >= n {
			m.selected[v] = max(0, n-1)
		}
	}
}

func (m AdminModel) rowCount() int {
	return m.rowCountFor(m.currentView)
}

func (m AdminModel) rowCountFor(v AdminView) int {
	switch v {
	case AdminBooks:
		return len(m.books.Result().Items)
	case AdminCategories:
		return len(m.categories.Result().Items)
	case AdminUsers:
		return len(m.users.Result().Items)
	default:
		return len(m.stats.RecentBooks)
	}
}

func (m AdminModel) selectedBook() (api.Book, bool) {
	items := m.books.Result().Items
	if sel := m.selected[AdminBooks]; sel < len(items) {
		return items[sel], true
	}
	return api.Book{}, false
}

func (m AdminModel) selectedCategory() (api.Category, bool) {
	items := m.categories.Result().Items
	if sel := m.selected[AdminCategories]; sel < len(items) {
		return items[sel], true
	}
	return api.Category{}, false
}

func (m AdminModel) selectedUser() (api.User, bool) {
	items := m.users.Result().Items
	if sel := m.selected[AdminUsers]; sel < len(items) {
		return items[sel], true
	}
	return api.User{}, false
}

func (m AdminModel) openNew() (tea.Model, tea.Cmd) {
	switch m.currentView {
	case AdminBooks:
		m.modal = newBookForm(api.Book{Status: api.BookOnShelf})
	case AdminCategories:
		m.modal = newCategoryForm(api.Category{IsActive: true})
	case AdminUsers:
		m.modal = newUserForm(api.User{})
	}
	return m, nil
}

// openEdit fetches the fresh record for books and users before the form
// opens; categories are edited from the list.
func (m AdminModel) openEdit() (tea.Model, tea.Cmd) {
	switch m.currentView {
	case AdminBooks:
		if b, ok := m.selectedBook(); ok {
			return m, m.loadBookCmd(b.ID)
		}
	case AdminCategories:
		if c, ok := m.selectedCategory(); ok {
			m.modal = newCategoryForm(c)
		}
	case AdminUsers:
		if u, ok := m.selectedUser(); ok {
			return m, m.loadUserCmd(u.ID)
		}
	}
	return m, nil
}

func (m AdminModel) confirmDelete() (tea.Model, tea.Cmd) {
	switch m.currentView {
	case AdminBooks:
		if b, ok := m.selectedBook(); ok {
			m.modal = newConfirmModal(fmt.Sprintf("Delete %q?", truncate(b.Title, 40)), onConfirm(confirmDeleteBook, b.ID))
		}
	case AdminCategories:
		if c, ok := m.selectedCategory(); ok {
			prompt := fmt.Sprintf("Delete category %q?", c.Name)
			if c.BookCount > 0 {
				prompt = fmt.Sprintf("Delete category %q with %d books?", c.Name, c.BookCount)
			}
			m.modal = newConfirmModal(prompt, onConfirm(confirmDeleteCategory, c.ID))
		}
	case AdminUsers:
		if u, ok := m.selectedUser(); ok {
			if u.ID == m.user.ID {
				m.notify("You cannot delete your own account")
				return m, nil
			}
			m.modal = newConfirmModal(fmt.Sprintf("Delete user %s?", u.Username), onConfirm(confirmDeleteUser, u.ID))
		}
	}
	return m, nil
}

func (m AdminModel) handleConfirmed(msg confirmedMsg) (tea.Model, tea.Cmd) {
	id := msg.id
	switch msg.action {
	case confirmDeleteBook:
		return m, m.mutateCmd(AdminBooks, "Book deleted", func(ctx context.Context, c api.Admin) error {
			return c.DeleteBook(ctx, id)
		})
	case confirmDeleteCategory:
		return m, m.mutateCmd(AdminCategories, "Category deleted", func(ctx context.Context, c api.Admin) error {
			return c.DeleteCategory(ctx, id)
		})
	case confirmDeleteUser:
		return m, m.mutateCmd(AdminUsers, "User deleted", func(ctx context.Context, c api.Admin) error {
			return c.DeleteUser(ctx, id)
		})
	}
	return m, nil
}

// toggleSelected flips a book's shelf status, a category's visibility or a
// user's administrator flag.
func (m AdminModel) toggleSelected() (tea.Model, tea.Cmd) {
	switch m.currentView {
	case AdminBooks:
		b, ok := m.selectedBook()
		if !ok {
			return m, nil
		}
		status, done := api.BookOnShelf, "Book put on the shelf"
		if b.OnShelf() {
			status, done = api.BookOffShelf, "Book taken off the shelf"
		}
		return m, m.mutateCmd(AdminBooks, done, func(ctx context.Context, c api.Admin) error {
			return c.SetBookStatus(ctx, b.ID, status)
		})

	case AdminCategories:
		cat, ok := m.selectedCategory()
		if !ok {
			return m, nil
		}
		in := categoryInput(cat)
		in.IsActive = !cat.IsActive
		done := ternary(in.IsActive, "Category shown", "Category hidden")
		return m, m.mutateCmd(AdminCategories, done, func(ctx context.Context, c api.Admin) error {
			_, err := c.UpdateCategory(ctx, cat.ID, in)
			return err
		})

	case AdminUsers:
		u, ok := m.selectedUser()
		if !ok {
			return m, nil
		}
		if u.ID == m.user.ID {
			m.notify("You cannot change your own role")
			return m, nil
		}
		done := ternary(u.IsAdmin, u.Username+" is now a customer", u.Username+" is now an administrator")
		return m, m.mutateCmd(AdminUsers, done, func(ctx context.Context, c api.Admin) error {
			return c.SetUserAdmin(ctx, u.ID, !u.IsAdmin)
		})
	}
	return m, nil
}

func (m *AdminModel) openFilters() {
	switch m.currentView {
	case AdminBooks:
		f := m.books.Query().Filter
		category := ""
		if f.CategoryID > 0 {
			category = strconv.FormatInt(f.CategoryID, 10)
		}
		status := ""
		if f.Status >= 0 {
			status = ternary(f.Status == api.BookOnShelf, "on", "off")
		}
		m.modal = newFormModal(formBookFilter, "Filter books").
			addField("title", "Title", f.Title).
			addField("author", "Author", f.Author).
			addField("type", "Type", f.Type).
			addField("category_id", "Category ID", category).
			addField("status", "Shelf (on/off)", status)
	case AdminUsers:
		f := m.users.Query().Filter
		role := ""
		if f.Role >= 0 {
			role = ternary(f.Role == 1, "admin", "customer")
		}
		m.modal = newFormModal(formUserFilter, "Filter users").
			addField("username", "Username", f.Username).
			addField("email", "Email", f.Email).
			addField("role", "Role (admin/customer)", role)
	}
}

// submitForm validates a submitted form and sends it.
func (m AdminModel) submitForm(form *formModal) (tea.Model, tea.Cmd) {
	switch form.kind {
	case formAdminLogin:
		username, password := form.value("username"), form.value("password")
		if errs := forms.AdminLogin(username, password); !errs.OK() {
			form.fail(errs, "")
			return m, nil
		}
		form.fail(nil, "")
		form.busy = true
		return m, m.adminLoginCmd(username, password)

	case formBook:
		in, errs := forms.Book(forms.BookFields{
			Title:       form.value("title"),
			Author:      form.value("author"),
			Price:       form.value("price"),
			Discount:    form.value("discount"),
			Type:        form.value("type"),
			Stock:       form.value("stock"),
			Sale:        form.value("sale"),
			CategoryID:  form.value("category_id"),
			CoverURL:    form.value("cover_url"),
			Description: form.value("description"),
			ISBN:        form.value("isbn"),
			Publisher:   form.value("publisher"),
			Status:      ternaryInt(form.flag("on_shelf"), api.BookOnShelf, api.BookOffShelf),
		})
		if !errs.OK() {
			form.fail(errs, "")
			return m, nil
		}
		form.fail(nil, "")
		form.busy = true
		if id := form.id; id != 0 {
			return m, m.mutateCmd(AdminBooks, "Book updated", func(ctx context.Context, c api.Admin) error {
				_, err := c.UpdateBook(ctx, id, in)
				return err
			})
		}
		return m, m.mutateCmd(AdminBooks, "Book created", func(ctx context.Context, c api.Admin) error {
			_, err := c.CreateBook(ctx, in)
			return err
		})

	case formCategory:
		sort, err := strconv.Atoi(form.value("sort"))
		if form.value("sort") == "" {
			sort, err = 0, nil
		}
		in := api.CategoryInput{
			Name:        form.value("name"),
			Description: form.value("description"),
			Icon:        form.value("icon"),
			Color:       form.value("color"),
			Sort:        sort,
			IsActive:    form.flag("active"),
		}
		errs := forms.Category(in)
		if err != nil {
			errs["sort"] = "sort must be a number"
		}
		if !errs.OK() {
			form.fail(errs, "")
			return m, nil
		}
		form.fail(nil, "")
		form.busy = true
		if id := form.id; id != 0 {
			return m, m.mutateCmd(AdminCategories, "Category updated", func(ctx context.Context, c api.Admin) error {
				_, err := c.UpdateCategory(ctx, id, in)
				return err
			})
		}
		return m, m.mutateCmd(AdminCategories, "Category created", func(ctx context.Context, c api.Admin) error {
			_, err := c.CreateCategory(ctx, in)
			return err
		})

	case formUser:
		in := api.UserInput{
			Username: form.value("username"),
			Password: form.value("password"),
			Email:    form.value("email"),
			Phone:    form.value("phone"),
			IsAdmin:  form.flag("admin"),
		}
		creating := form.id == 0
		if errs := forms.User(in, creating); !errs.OK() {
			form.fail(errs, "")
			return m, nil
		}
		form.fail(nil, "")
		form.busy = true
		if !creating {
			id := form.id
			in.Password = ""
			return m, m.mutateCmd(AdminUsers, "User updated", func(ctx context.Context, c api.Admin) error {
				_, err := c.UpdateUser(ctx, id, in)
				return err
			})
		}
		return m, m.mutateCmd(AdminUsers, "User created", func(ctx context.Context, c api.Admin) error {
			_, err := c.CreateUser(ctx, in)
			return err
		})

	case formBookFilter:
		filter := bookFilter{
			Title:  form.value("title"),
			Author: form.value("author"),
			Type:   form.value("type"),
			Status: -1,
		}
		errs := forms.Errors{}
		switch strings.ToLower(form.value("status")) {
		case "":
		case "on", "1":
			filter.Status = api.BookOnShelf
		case "off", "0":
			filter.Status = api.BookOffShelf
		default:
			errs["status"] = "use on, off or leave blank"
		}
		if raw := form.value("category_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				errs["category_id"] = "category must be a positive number"
			}
			filter.CategoryID = id
		}
		if !errs.OK() {
			form.fail(errs, "")
			return m, nil
		}
		m.modal = nil
		m.selected[AdminBooks] = 0
		return m, listCmd(m.ctx, m.books, m.books.ApplyFilter(filter))

	case formUserFilter:
		filter := userFilter{Username: form.value("username"), Email: form.value("email"), Role: -1}
		switch strings.ToLower(form.value("role")) {
		case "":
		case "admin":
			filter.Role = 1
		case "customer":
			filter.Role = 0
		default:
			form.fail(forms.Errors{"role": "use admin, customer or leave blank"}, "")
			return m, nil
		}
		m.modal = nil
		m.selected[AdminUsers] = 0
		return m, listCmd(m.ctx, m.users, m.users.ApplyFilter(filter))
	}
	m.modal = nil
	return m, nil
}

// Forms

func newAdminLoginForm(username string) *formModal {
	return newFormModal(formAdminLogin, "Administrator sign in").
		addField("username", "Username", username).
		addField("password", "Password", "")
}

func newBookForm(b api.Book) *formModal {
	title := "New book"
	var price, discount, stock, sale, category string
	if b.ID != 0 {
		title = "Edit book #" + strconv.FormatInt(b.ID, 10)
		price = b.Price.Truncate(0).String()
		stock = strconv.Itoa(b.Stock)
		sale = strconv.Itoa(b.Sale)
	}
	if b.HasDiscount() {
		discount = strconv.Itoa(b.Discount)
	}
	if b.CategoryID > 0 {
		category = strconv.FormatInt(b.CategoryID, 10)
	}
	form := newFormModal(formBook, title).
		addField("title", "Title", b.Title).
		addField("author", "Author", b.Author).
		addField("price", "Price (yuan)", price).
		addField("discount", "Discount %", discount).
		addField("type", "Type", b.Type).
		addField("stock", "Stock", stock).
		addField("sale", "Sold", sale).
		addField("category_id", "Category ID", category).
		addField("publisher", "Publisher", b.Publisher).
		addField("isbn", "ISBN", b.ISBN).
		addField("cover_url", "Cover URL", b.CoverURL).
		addField("description", "Description", b.Description).
		addToggle("on_shelf", "On shelf", b.OnShelf())
	form.id = b.ID
	return form
}

func newCategoryForm(c api.Category) *formModal {
	title := "New category"
	sort := ""
	if c.ID != 0 {
		title = "Edit category " + c.Name
		sort = strconv.Itoa(c.Sort)
	}
	form := newFormModal(formCategory, title).
		addField("name", "Name", c.Name).
		addField("description", "Description", c.Description).
		addField("icon", "Icon", c.Icon).
		addField("color", "Color", c.Color).
		addField("sort", "Sort", sort).
		addToggle("active", "Active", c.IsActive)
	form.id = c.ID
	return form
}

func newUserForm(u api.User) *formModal {
	form := newFormModal(formUser, ternary(u.ID == 0, "New user", "Edit user "+u.Username)).
		addField("username", "Username", u.Username)
	if u.ID == 0 {
		form.addField("password", "Password", "")
	}
	form.addField("email", "Email", u.Email).
		addField("phone", "Phone", u.Phone).
		addToggle("admin", "Administrator", u.IsAdmin)
	form.id = u.ID
	return form
}

// categoryInput copies a category into an update body.
func categoryInput(c api.Category) api.CategoryInput {
	return api.CategoryInput{
		Name:        c.Name,
		Description: c.Description,
		Icon:        c.Icon,
		Color:       c.Color,
		Sort:        c.Sort,
		IsActive:    c.IsActive,
	}
}

func ternaryInt(cond bool, a, b int) int {
	if cond {
		return a
	}
	return b
}
