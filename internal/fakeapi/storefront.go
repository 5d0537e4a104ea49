package fakeapi

import (
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/five82/folio/internal/api"
)

func (s *Server) login(c *fiber.Ctx) error {
	var req api.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if !s.verifyCaptcha(req.CaptchaID, req.CaptchaValue) {
		return badRequest(c, "captcha is incorrect")
	}

	s.mu.Lock()
	acct, found := s.findUsernameLocked(strings.TrimSpace(req.Username))
	s.mu.Unlock()
	if !found || !checkPassword(acct.hash, req.Password) {
		return fail(c, fiber.StatusUnauthorized, "invalid username or password")
	}

	access, exp, err := s.issueToken(acct.user.ID, acct.user.IsAdmin)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	refresh, _, err := s.issueToken(acct.user.ID, false)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	user := acct.user
	return ok(c, api.LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(exp.Sub(s.now()) / time.Second),
		UserInfo:     &user,
	})
}

func (s *Server) register(c *fiber.Ctx) error {
	var req api.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if !s.verifyCaptcha(req.CaptchaID, req.CaptchaValue) {
		return badRequest(c, "captcha is incorrect")
	}
	if req.Password != req.ConfirmPassword {
		return badRequest(c, "passwords do not match")
	}
	name := strings.TrimSpace(req.Username)
	if name == "" || req.Password == "" {
		return badRequest(c, "username and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.findUsernameLocked(name); taken {
		return reject(c, "username already exists")
	}
	if _, err := s.addUser(api.UserInput{Username: name, Password: req.Password, Email: req.Email, Phone: req.Phone}); err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"code": 0, "message": "registered"})
}

func (s *Server) logout(c *fiber.Ctx) error {
	cl := caller(c)
	s.mu.Lock()
	s.revoked[cl.ID] = true
	s.mu.Unlock()
	return ok(c, nil)
}

func (s *Server) profile(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, found := s.findUserLocked(caller(c).UserID)
	if !found {
		return notFound(c, "user")
	}
	return ok(c, acct.user)
}

func (s *Server) updateProfile(c *fiber.Ctx) error {
	var req api.ProfileUpdate
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, found := s.findUserLocked(caller(c).UserID)
	if !found {
		return notFound(c, "user")
	}
	if name := strings.TrimSpace(req.Username); name != "" && name != acct.user.Username {
		if _, taken := s.findUsernameLocked(name); taken {
			return reject(c, "username already exists")
		}
		acct.user.Username = name
	}
	acct.user.Email = strings.TrimSpace(req.Email)
	acct.user.Phone = strings.TrimSpace(req.Phone)
	acct.user.Avatar = strings.TrimSpace(req.Avatar)
	acct.user.UpdatedAt = s.stamp()
	return ok(c, acct.user)
}

func (s *Server) changePassword(c *fiber.Ctx) error {
	var req api.PasswordChange
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, found := s.findUserLocked(caller(c).UserID)
	if !found {
		return notFound(c, "user")
	}
	if !checkPassword(acct.hash, req.OldPassword) {
		return badRequest(c, "current password is incorrect")
	}
	hash, err := s.hash(req.NewPassword)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	acct.hash = hash
	return ok(c, nil)
}

// shelf returns on-shelf books matching keep, in catalog order.
func (s *Server) shelfLocked(keep func(*api.Book) bool) []api.Book {
	var out []api.Book
	for _, b := range s.books {
		if b.OnShelf() && (keep == nil || keep(b)) {
			out = append(out, *b)
		}
	}
	return out
}

func storefrontPage(c *fiber.Ctx, books []api.Book) error {
	page, size := paging(c)
	start, end := window(len(books), page, size)
	return ok(c, api.BookPage{
		Books:       books[start:end],
		Total:       len(books),
		CurrentPage: page,
		PageSize:    size,
		TotalPages:  totalPages(len(books), size),
	})
}

func (s *Server) listBooks(c *fiber.Ctx) error {
	s.mu.Lock()
	books := s.shelfLocked(nil)
	s.mu.Unlock()
	return storefrontPage(c, books)
}

func (s *Server) searchBooks(c *fiber.Ctx) error {
	q := c.Query("q")
	s.mu.Lock()
	books := s.shelfLocked(func(b *api.Book) bool {
		return contains(b.Title, q) || contains(b.Author, q) || contains(b.Publisher, q)
	})
	s.mu.Unlock()
	return storefrontPage(c, books)
}

func (s *Server) booksByCategory(c *fiber.Ctx) error {
	name := c.Params("name")
	s.mu.Lock()
	var catID int64
	for _, cat := range s.categories {
		if strings.EqualFold(cat.Name, name) {
			catID = cat.ID
		}
	}
	books := s.shelfLocked(func(b *api.Book) bool { return catID != 0 && b.CategoryID == catID })
	s.mu.Unlock()
	return storefrontPage(c, books)
}

func (s *Server) feed(c *fiber.Ctx, less func(a, b api.Book) bool) error {
	limit := c.QueryInt("limit", 10)
	s.mu.Lock()
	books := s.shelfLocked(nil)
	s.mu.Unlock()
	sort.SliceStable(books, func(i, j int) bool { return less(books[i], books[j]) })
	if limit > 0 && len(books) > limit {
		books = books[:limit]
	}
	return ok(c, books)
}

func (s *Server) hotBooks(c *fiber.Ctx) error {
	return s.feed(c, func(a, b api.Book) bool { return a.Sale > b.Sale })
}

func (s *Server) newBooks(c *fiber.Ctx) error {
	return s.feed(c, func(a, b api.Book) bool { return a.ID > b.ID })
}

func (s *Server) bookDetail(c *fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid book id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, found := s.findBookLocked(id)
	if !found {
		return notFound(c, "book")
	}
	return ok(c, *b)
}

func (s *Server) categoryListLocked(activeOnly bool) []api.Category {
	out := make([]api.Category, 0, len(s.categories))
	for _, cat := range s.categories {
		if activeOnly && !cat.IsActive {
			continue
		}
		row := *cat
		row.BookCount = 0
		for _, b := range s.books {
			if b.CategoryID == cat.ID {
				row.BookCount++
			}
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sort < out[j].Sort })
	return out
}

func (s *Server) listCategories(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, s.categoryListLocked(true))
}

func (s *Server) listCarousels(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, s.carousels)
}

func (s *Server) favoriteTarget(c *fiber.Ctx) (int64, error) {
	id, valid := paramID(c)
	if !valid {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid book id")
	}
	s.mu.Lock()
	_, found := s.findBookLocked(id)
	s.mu.Unlock()
	if !found {
		return 0, fiber.NewError(fiber.StatusNotFound, "book not found")
	}
	return id, nil
}

func favoriteIndex(list []favorite, bookID int64) int {
	for i, f := range list {
		if f.bookID == bookID {
			return i
		}
	}
	return -1
}

func (s *Server) addFavorite(c *fiber.Ctx) error {
	id, err := s.favoriteTarget(c)
	if err != nil {
		return err
	}
	uid := caller(c).UserID
	s.mu.Lock()
	defer s.mu.Unlock()
	if favoriteIndex(s.favorites[uid], id) >= 0 {
		return reject(c, "book is already in favorites")
	}
	s.favorites[uid] = append(s.favorites[uid], favorite{bookID: id, created: s.now()})
	return ok(c, nil)
}

func (s *Server) removeFavorite(c *fiber.Ctx) error {
	id, err := s.favoriteTarget(c)
	if err != nil {
		return err
	}
	uid := caller(c).UserID
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.favorites[uid]
	i := favoriteIndex(list, id)
	if i < 0 {
		return reject(c, "book is not in favorites")
	}
	s.favorites[uid] = append(list[:i:i], list[i+1:]...)
	return ok(c, nil)
}

func (s *Server) checkFavorite(c *fiber.Ctx) error {
	id, valid := paramID(c)
	if !valid {
		return badRequest(c, "invalid book id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	found := favoriteIndex(s.favorites[caller(c).UserID], id) >= 0
	return ok(c, fiber.Map{"is_favorited": found})
}

func (s *Server) countFavorites(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ok(c, fiber.Map{"count": len(s.favorites[caller(c).UserID])})
}

// filterSince maps a favorites time filter to its cutoff. The zero time
// keeps everything.
func filterSince(filter string, now time.Time) time.Time {
	switch filter {
	case api.FavoritesToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case api.FavoritesWeek:
		return now.AddDate(0, 0, -7)
	case api.FavoritesMonth:
		return now.AddDate(0, -1, 0)
	case api.FavoritesYear:
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}

func (s *Server) listFavorites(c *fiber.Ctx) error {
	uid := caller(c).UserID
	page, size := paging(c)
	since := filterSince(c.Query("time_filter"), s.now())

	s.mu.Lock()
	list := s.favorites[uid]
	rows := make([]api.Favorite, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		f := list[i]
		if f.created.Before(since) {
			continue
		}
		row := api.Favorite{ID: int64(i + 1), UserID: uid, BookID: f.bookID, CreatedAt: f.created.Format(timeLayout)}
		if b, found := s.findBookLocked(f.bookID); found {
			book := *b
			row.Book = &book
		}
		rows = append(rows, row)
	}
	s.mu.Unlock()

	start, end := window(len(rows), page, size)
	return ok(c, api.FavoritePage{
		Favorites:   rows[start:end],
		Total:       len(rows),
		TotalPages:  totalPages(len(rows), size),
		CurrentPage: page,
	})
}

func (s *Server) createOrder(c *fiber.Ctx) error {
	var req api.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if len(req.Items) == 0 {
		return reject(c, "order has no items")
	}
	uid := caller(c).UserID

	s.mu.Lock()
	defer s.mu.Unlock()
	order := &api.Order{
		ID:          s.allocID(),
		UserID:      uid,
		OrderNo:     strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16]),
		Status:      api.OrderPending,
		CreatedAt:   s.stamp(),
		TotalAmount: decimal.Zero,
	}
	for _, line := range req.Items {
		b, found := s.findBookLocked(line.BookID)
		switch {
		case !found:
			return reject(c, "book does not exist")
		case !b.OnShelf():
			return reject(c, "book is off the shelf")
		case line.Quantity < 1 || b.Stock < line.Quantity:
			return reject(c, "insufficient stock")
		}
		price, err := decimal.NewFromString(line.Price.String())
		if err != nil {
			return badRequest(c, "invalid price")
		}
		subtotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		book := *b
		order.Items = append(order.Items, api.OrderItem{
			ID:       s.allocID(),
			OrderID:  order.ID,
			BookID:   b.ID,
			Quantity: line.Quantity,
			Price:    price,
			Subtotal: subtotal,
			Book:     &book,
		})
		order.TotalAmount = order.TotalAmount.Add(subtotal)
	}
	s.orders = append(s.orders, order)
	return ok(c, *order)
}

func (s *Server) listOrders(c *fiber.Ctx) error {
	uid := caller(c).UserID
	page, size := paging(c)
	s.mu.Lock()
	var rows []api.Order
	for i := len(s.orders) - 1; i >= 0; i-- {
		if s.orders[i].UserID == uid {
			rows = append(rows, *s.orders[i])
		}
	}
	s.mu.Unlock()
	start, end := window(len(rows), page, size)
	return ok(c, api.OrderPage{
		Orders:     rows[start:end],
		Total:      len(rows),
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages(len(rows), size),
	})
}

func (s *Server) ownOrderLocked(c *fiber.Ctx) (*api.Order, bool) {
	id, valid := paramID(c)
	if !valid {
		return nil, false
	}
	for _, o := range s.orders {
		if o.ID == id && o.UserID == caller(c).UserID {
			return o, true
		}
	}
	return nil, false
}

func (s *Server) orderDetail(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, found := s.ownOrderLocked(c)
	if !found {
		return notFound(c, "order")
	}
	return ok(c, *o)
}

func (s *Server) payOrder(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, found := s.ownOrderLocked(c)
	if !found {
		return notFound(c, "order")
	}
	if o.IsPaid {
		return reject(c, "order is already paid")
	}
	for _, item := range o.Items {
		b, found := s.findBookLocked(item.BookID)
		if !found {
			return reject(c, "book does not exist")
		}
		if b.Stock < item.Quantity {
			return reject(c, "insufficient stock")
		}
	}
	for _, item := range o.Items {
		b, _ := s.findBookLocked(item.BookID)
		b.Stock -= item.Quantity
		b.Sale += item.Quantity
	}
	o.IsPaid = true
	o.Status = api.OrderPaid
	o.PaymentTime = s.stamp()
	return ok(c, nil)
}
