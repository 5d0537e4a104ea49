package fakeapi

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/five82/folio/internal/api"
)

func (s *Server) adminLogin(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	s.mu.Lock()
	acct, found := s.findUsernameLocked(strings.TrimSpace(req.Username))
	s.mu.Unlock()
	if !found || !checkPassword(acct.hash, req.Password) {
		return fail(c, fiber.StatusUnauthorized, "invalid username or password")
	}
	if !acct.user.IsAdmin {
		return fail(c, fiber.StatusForbidden, "administrator access required")
	}
	token, _, err := s.issueToken(acct.user.ID, true)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return ok(c, api.AdminLoginResult{Token: token, User: acct.user})
}

func (s *Server) dashboardStats(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := api.DashboardStats{
		TotalBooks:   len(s.books),
		TotalOrders:  len(s.orders),
		TotalUsers:   len(s.users),
		TotalRevenue: decimal.Zero,
	}
	for _, o := range s.orders {
		if o.IsPaid {
			stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalAmount)
		}
	}
	for i := len(s.books) - 1; i >= 0 && len(stats.RecentBooks) < 5; i-- {
		b := s.books[i]
		stats.RecentBooks = append(stats.RecentBooks, api.RecentBook{
			ID:        b.ID,
			Title:     b.Title,
			Author:    b.Author,
			Price:     b.Price,
			CoverURL:  b.CoverURL,
			CreatedAt: b.CreatedAt,
		})
	}
	return ok(c, stats)
}

func (s *Server) adminListBooks(c *fiber.Ctx) error {
	page, size := paging(c)
	title, author, kind := c.Query("title"), c.Query("author"), c.Query("type")
	status, hasStatus := -1, c.Query("status") != ""
	if hasStatus {
		status = c.QueryInt("status", -1)
	}
	categoryID, _ := strconv.ParseInt(c.Query("category_id"), 10, 64)

	s.mu.Lock()
	var rows []api.Book
	for _, b := range s.books {
		switch {
		case title != "" && !contains(b.Title, title):
		case author != "" && !contains(b.Author, author):
		case kind != "" && !contains(b.Type, kind):
		case hasStatus && b.Status != status:
		case categoryID > 0 && b.CategoryID != categoryID:
		default:
			rows = append(rows, *b)
		}
	}
	s.mu.Unlock()

	start, end := window(len(rows), page, size)
	return ok(c, api.BookPage{
		Books:     rows[start:end],
		Total:     len(rows),
		Page:      page,
		PageSize:  size,
		TotalPage: totalPages(len(rows), size),
	})
}

func (s *Server) adminGetBook(c *fiber.Ctx) error {
	return s.bookDetail(c)
}

func (s *Server) applyBookLocked(b *api.Book, in api.BookInput) error {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title and author are required")
	}
	if in.Discount < 0 || in.Discount > 100 {
		return fiber.NewError(fiber.StatusBadRequest, "discount must be between 0 and 100")
	}
	if _, found := s.findCategoryLocked(in.CategoryID); !found {
		return fiber.NewError(fiber.StatusBadRequest, "category does not exist")
	}
	b.Title = strings.TrimSpace(in.Title)
	b.Author = strings.TrimSpace(in.Author)
	b.Price = decimal.NewFromInt(int64(in.Price))
	b.Discount = in.Discount
	b.Type = in.Type
	b.Stock = in.Stock
	b.Status = in.Status
	b.CoverURL = in.CoverURL
	b.Description = in.Description
	b.ISBN = in.ISBN
	b.Publisher = in.Publisher
	b.PublishDate = in.PublishDate
	b.Pages = in.Pages
	b.Language = in.Language
	b.Format = in.Format
	b.CategoryID = in.CategoryID
	b.Sale = in.Sale
	b.UpdatedAt = s.stamp()
	return nil
}

func (s *Server) adminCreateBook(c *fiber.Ctx) error {
	var in api.BookInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := &api.Book{CreatedAt: s.stamp()}
	if err := s.applyBookLocked(b, in); err != nil {
		return err
	}
	b.ID = s.allocID()
	s.books = append(s.books, b)
	return ok(c, *b)
}

func (s *Server) adminUpdateBook(c *fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid book id")
	}
	var in api.BookInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, found := s.findBookLocked(id)
	if !found {
		return notFound(c, "book")
	}
	updated := *b
	if err := s.applyBookLocked(&updated, in); err != nil {
		return err
	}
	*b = updated
	return ok(c, *b)
}

func (s *Server) adminDeleteBook(c *fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid book id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, b := range s.books {
		if b.ID == id {
			s.books = append(s.books[:i:i], s.books[i+1:]...)
			for uid, list := range s.favorites {
				if j := favoriteIndex(list, id); j >= 0 {
					s.favorites[uid] = append(list[:j:j], list[j+1:]...)
				}
			}
			return ok(c, nil)
		}
	}
	return notFound(c, "book")
}

func (s *Server) adminSetBookStatus(c *fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid book id")
	}
	status := c.QueryInt("status", -1)
	if status != api.BookOnShelf && status != api.BookOffShelf {
		return badRequest(c, "status must be 0 or 1")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, found := s.findBookLocked(id)
	if !found {
		return notFound(c, "book")
	}
	b.Status = status
	b.UpdatedAt = s.stamp()
	return ok(c, nil)
}

func (s *Server) adminListCategories(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, s.categoryListLocked(false))
}

func (s *Server) categoryNameTakenLocked(name string, except int64) bool {
	for _, cat := range s.categories {
		if cat.ID != except && strings.EqualFold(cat.Name, name) {
			return true
		}
	}
	return false
}

func (s *Server) adminCreateCategory(c *fiber.Ctx) error {
	var in api.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return badRequest(c, "name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.categoryNameTakenLocked(name, 0) {
		return reject(c, "category name already exists")
	}
	now := s.stamp()
	cat := &api.Category{
		ID:          s.allocID(),
		Name:        name,
		Description: in.Description,
		Icon:        in.Icon,
		Color:       in.Color,
		Sort:        in.Sort,
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.categories = append(s.categories, cat)
	return ok(c, *cat)
}

func (s *Server) adminUpdateCategory(c *fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid category id")
	}
	var in api.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return badRequest(c, "name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cat, found := s.findCategoryLocked(id)
	if !found {
		return notFound(c, "category")
	}
	if s.categoryNameTakenLocked(name, id) {
		return reject(c, "category name already exists")
	}
	cat.Name = name
	cat.Description = in.Description
	cat.Icon = in.Icon
	cat.Color = in.Color
	cat.Sort = in.Sort
	cat.IsActive = in.IsActive
	cat.UpdatedAt = s.stamp()
	return ok(c, *cat)
}

func (s *Server) adminDeleteCategory(c *fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid category id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.books {
		if b.CategoryID == id {
			return reject(c, "category still has books")
		}
	}
	for i, cat := range s.categories {
		if cat.ID == id {
			s.categories = append(s.categories[:i:i], s.categories[i+1:]...)
			return ok(c, nil)
		}
	}
	return notFound(c, "category")
}

func (s *Server) adminListUsers(c *fiber.Ctx) error {
	page, size := paging(c)
	username, email := c.Query("username"), c.Query("email")
	adminFilter, hasAdmin := false, c.Query("is_admin") != ""
	if hasAdmin {
		adminFilter = c.QueryBool("is_admin")
	}

	s.mu.Lock()
	var rows []api.User
	for _, u := range s.users {
		switch {
		case username != "" && !contains(u.user.Username, username):
		case email != "" && !contains(u.user.Email, email):
		case hasAdmin && u.user.IsAdmin != adminFilter:
		default:
			rows = append(rows, u.user)
		}
	}
	s.mu.Unlock()
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	start, end := window(len(rows), page, size)
	return ok(c, api.UserPage{
		Users:       rows[start:end],
		Total:       len(rows),
		CurrentPage: page,
		PageSize:    size,
	})
}

func (s *Server) adminGetUser(c *fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid user id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, found := s.findUserLocked(id)
	if !found {
		return notFound(c, "user")
	}
	return ok(c, acct.user)
}

func (s *Server) adminCreateUser(c *fiber.Ctx) error {
	var in api.UserInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" || in.Password == "" {
		return badRequest(c, "username and password are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.findUsernameLocked(in.Username); taken {
		return reject(c, "username already exists")
	}
	user, err := s.addUser(in)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return ok(c, user)
}

func (s *Server) adminUpdateUser(c *fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid user id")
	}
	var in api.UserInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid request body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, found := s.findUserLocked(id)
	if !found {
		return notFound(c, "user")
	}
	if name := strings.TrimSpace(in.Username); name != "" && name != acct.user.Username {
		if _, taken := s.findUsernameLocked(name); taken {
			return reject(c, "username already exists")
		}
		acct.user.Username = name
	}
	acct.user.Email = strings.TrimSpace(in.Email)
	acct.user.Phone = strings.TrimSpace(in.Phone)
	acct.user.IsAdmin = in.IsAdmin
	acct.user.UpdatedAt = s.stamp()
	return ok(c, acct.user)
}

func (s *Server) adminDeleteUser(c *fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid user id")
	}
	if id == caller(c).UserID {
		return reject(c, "cannot delete the signed-in account")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.users {
		if u.user.ID == id {
			s.users = append(s.users[:i:i], s.users[i+1:]...)
			delete(s.favorites, id)
			return ok(c, nil)
		}
	}
	return notFound(c, "user")
}

func (s *Server) adminSetUserAdmin(c *fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid user id")
	}
	var req struct {
		IsAdmin bool `json:"is_admin"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if id == caller(c).UserID && !req.IsAdmin {
		return reject(c, "cannot revoke your own administrator access")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, found := s.findUserLocked(id)
	if !found {
		return notFound(c, "user")
	}
	acct.user.IsAdmin = req.IsAdmin
	acct.user.UpdatedAt = s.stamp()
	return ok(c, nil)
}
