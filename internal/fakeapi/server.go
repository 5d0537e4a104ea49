package fakeapi

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/folio/internal/api"
)

const (
	defaultTokenTTL = 24 * time.Hour
	defaultPageSize = 10
	timeLayout      = "2006-01-02 15:04:05"
)

// Options tune a Server. The zero value is usable.
type Options struct {
	// Secret signs issued tokens; empty picks a random one.
	Secret string
	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration
	// BcryptCost hashes seeded and created passwords.
	BcryptCost int
	// Empty starts without the seeded catalog and accounts.
	Empty bool
}

type account struct {
	user api.User
	hash []byte
}

type favorite struct {
	bookID  int64
	created time.Time
}

// Server is an in-memory bookstore backend. It is safe for concurrent use.
type Server struct {
	app    *fiber.App
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time

	mu         sync.Mutex
	nextID     int64
	users      []*account
	books      []*api.Book
	categories []*api.Category
	carousels  []api.Carousel
	favorites  map[int64][]favorite
	orders     []*api.Order
	captchas   map[string]string
	revoked    map[string]bool
}

// New builds a Server with its routes registered.
func New(opts Options) (*Server, error) {
	secret := opts.Secret
	if secret == "" {
		secret = uuid.NewString()
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	s := &Server{
		secret:    []byte(secret),
		ttl:       ttl,
		cost:      cost,
		now:       time.Now,
		favorites: make(map[int64][]favorite),
		captchas:  make(map[string]string),
		revoked:   make(map[string]bool),
	}
	if !opts.Empty {
		if err := s.seed(); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "folio-demo",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fail(c, fe.Code, fe.Message)
			}
			return fail(c, fiber.StatusInternalServerError, err.Error())
		},
	})
	s.routes()
	return s, nil
}

// App exposes the fiber app, e.g. for app.Test in tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// CaptchaAnswer returns the expected answer for an issued captcha.
func (s *Server) CaptchaAnswer(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.captchas[id]
	return answer, ok
}

func (s *Server) routes() {
	v1 := s.app.Group("/api/v1")

	v1.Get("/captcha/generate", s.generateCaptcha)

	v1.Post("/user/login", s.login)
	v1.Post("/user/register", s.register)
	v1.Delete("/user/logout", s.requireUser, s.logout)
	v1.Get("/user/profile", s.requireUser, s.profile)
	v1.Put("/user/profile", s.requireUser, s.updateProfile)
	v1.Put("/user/password", s.requireUser, s.changePassword)

	v1.Get("/book/list", s.listBooks)
	v1.Get("/book/search", s.searchBooks)
	v1.Get("/book/hot", s.hotBooks)
	v1.Get("/book/new", s.newBooks)
	v1.Get("/book/detail/:id", s.bookDetail)
	v1.Get("/book/category/:name", s.booksByCategory)
	v1.Get("/category/list", s.listCategories)
	v1.Get("/carousel/list", s.listCarousels)

	v1.Get("/favorite/list", s.requireUser, s.listFavorites)
	v1.Get("/favorite/count", s.requireUser, s.countFavorites)
	v1.Get("/favorite/:id/check", s.requireUser, s.checkFavorite)
	v1.Post("/favorite/:id", s.requireUser, s.addFavorite)
	v1.Delete("/favorite/:id", s.requireUser, s.removeFavorite)

	v1.Post("/order/create", s.requireUser, s.createOrder)
	v1.Get("/order/list", s.requireUser, s.listOrders)
	v1.Get("/order/:id", s.requireUser, s.orderDetail)
	v1.Post("/order/:id/pay", s.requireUser, s.payOrder)

	v1.Post("/admin/auth/login", s.adminLogin)
	admin := v1.Group("/admin", s.requireAdmin)
	admin.Get("/dashboard/stats", s.dashboardStats)
	admin.Get("/books/list", s.adminListBooks)
	admin.Post("/books/create", s.adminCreateBook)
	admin.Get("/books/:id", s.adminGetBook)
	admin.Put("/books/:id/status", s.adminSetBookStatus)
	admin.Put("/books/:id", s.adminUpdateBook)
	admin.Delete("/books/:id", s.adminDeleteBook)
	admin.Get("/categories/list", s.adminListCategories)
	admin.Post("/categories/create", s.adminCreateCategory)
	admin.Put("/categories/:id", s.adminUpdateCategory)
	admin.Delete("/categories/:id", s.adminDeleteCategory)
	admin.Get("/users/list", s.adminListUsers)
	admin.Post("/users/create", s.adminCreateUser)
	admin.Get("/users/:id", s.adminGetUser)
	admin.Put("/users/:id/status", s.adminSetUserAdmin)
	admin.Put("/users/:id", s.adminUpdateUser)
	admin.Delete("/users/:id", s.adminDeleteUser)
}

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"code": 0, "message": "success", "data": data})
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"code": -1, "message": msg})
}

// reject reports a business failure: HTTP 200 with a non-zero code.
func reject(c *fiber.Ctx, msg string) error {
	return c.JSON(fiber.Map{"code": -1, "message": msg})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return fail(c, fiber.StatusBadRequest, msg)
}

func notFound(c *fiber.Ctx, what string) error {
	return fail(c, fiber.StatusNotFound, what+" not found")
}

func paramID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	return id, err == nil && id > 0
}

func paging(c *fiber.Ctx) (page, size int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	size = c.QueryInt("page_size", defaultPageSize)
	if size < 1 {
		size = defaultPageSize
	}
	return page, size
}

// window returns the bounds of page within n items.
func window(n, page, size int) (start, end int) {
	start = (page - 1) * size
	if start > n {
		start = n
	}
	end = min(start+size, n)
	return start, end
}

func totalPages(n, size int) int {
	if n == 0 {
		return 0
	}
	return (n + size - 1) / size
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(strings.TrimSpace(needle)))
}

func (s *Server) stamp() string {
	return s.now().Format(timeLayout)
}

func (s *Server) allocID() int64 {
	s.nextID++
	return s.nextID
}
