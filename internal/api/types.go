package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Book status values.
const (
	BookOffShelf = 0
	BookOnShelf  = 1
)

// Order status values.
const (
	OrderPending   = 0
	OrderPaid      = 1
	OrderCancelled = 2
)

// Book mirrors the backend book record. Price is in whole yuan.
type Book struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Price       decimal.Decimal `json:"price"`
	Discount    int             `json:"discount"`
	Type        string          `json:"type"`
	Stock       int             `json:"stock"`
	Status      int             `json:"status"`
	Description string          `json:"description"`
	CoverURL    string          `json:"cover_url"`
	ISBN        string          `json:"isbn"`
	Publisher   string          `json:"publisher"`
	PublishDate string          `json:"publish_date"`
	Pages       int             `json:"pages"`
	Language    string          `json:"language"`
	Format      string          `json:"format"`
	CategoryID  int64           `json:"category_id"`
	Sale        int             `json:"sale"`
	CreatedAt   string          `json:"created_at,omitempty"`
	UpdatedAt   string          `json:"updated_at,omitempty"`
}

// HasDiscount reports whether Discount reduces the price. Discount is the
// percentage of the list price that is charged; 0 and 100 both mean none.
func (b Book) HasDiscount() bool {
	return b.Discount > 0 && b.Discount < 100
}

// SalePrice returns the charged unit price rounded to cents.
func (b Book) SalePrice() decimal.Decimal {
	if !b.HasDiscount() {
		return b.Price
	}
	return b.Price.Mul(decimal.NewFromInt(int64(b.Discount))).Div(decimal.NewFromInt(100)).Round(2)
}

// PercentOff returns the rebate as a whole percentage, 0 when undiscounted.
func (b Book) PercentOff() int {
	if !b.HasDiscount() {
		return 0
	}
	return 100 - b.Discount
}

// OnShelf reports whether the book is listed in the storefront.
func (b Book) OnShelf() bool { return b.Status == BookOnShelf }

// BookPage is a page of books. The admin and storefront endpoints disagree
// on a few key names, so both spellings are accepted.
type BookPage struct {
	Books       []Book `json:"books"`
	Total       int    `json:"total"`
	Page        int    `json:"page"`
	CurrentPage int    `json:"current_page"`
	PageSize    int    `json:"page_size"`
	TotalPage   int    `json:"total_page"`
	TotalPages  int    `json:"total_pages"`
}

// Pages returns the page count, whichever key the server used.
func (p BookPage) Pages() int {
	if p.TotalPages > 0 {
		return p.TotalPages
	}
	return p.TotalPage
}

// Current returns the page number, whichever key the server used.
func (p BookPage) Current() int {
	if p.CurrentPage > 0 {
		return p.CurrentPage
	}
	return p.Page
}

// Category groups books.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Gradient    string `json:"gradient"`
	Sort        int    `json:"sort"`
	IsActive    bool   `json:"is_active"`
	BookCount   int    `json:"book_count"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Carousel is a storefront banner.
type Carousel struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	LinkURL     string `json:"link_url"`
	SortOrder   int    `json:"sort_order"`
	IsActive    bool   `json:"is_active"`
}

// User is an account as returned by the profile and admin endpoints.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Avatar    string `json:"avatar"`
	IsAdmin   bool   `json:"is_admin"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// UserPage is a page of users from the admin API.
type UserPage struct {
	Users       []User `json:"users"`
	Total       int    `json:"total"`
	CurrentPage int    `json:"current_page"`
	PageSize    int    `json:"page_size"`
}

// Pages derives the page count from the total and page size.
func (p UserPage) Pages() int {
	return pageCount(p.Total, p.PageSize)
}

// Favorite links a user to a book.
type Favorite struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	BookID    int64  `json:"book_id"`
	Book      *Book  `json:"book,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// FavoritePage is a page of favorites.
type FavoritePage struct {
	Favorites   []Favorite `json:"favorites"`
	Total       int        `json:"total"`
	TotalPages  int        `json:"total_pages"`
	CurrentPage int        `json:"current_page"`
}

// OrderItem is a line of an order.
type OrderItem struct {
	ID       int64           `json:"id"`
	OrderID  int64           `json:"order_id"`
	BookID   int64           `json:"book_id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Book     *Book           `json:"book,omitempty"`
}

// Order is a placed order.
type Order struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	OrderNo     string          `json:"order_no"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      int             `json:"status"`
	IsPaid      bool            `json:"is_paid"`
	PaymentTime string          `json:"payment_time,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
	Items       []OrderItem     `json:"order_items"`
}

// StatusLabel renders the order status.
func (o Order) StatusLabel() string {
	switch o.Status {
	case OrderPending:
		return "pending"
	case OrderPaid:
		return "paid"
	case OrderCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// OrderPage is a page of orders.
type OrderPage struct {
	Orders     []Order `json:"orders"`
	Total      int     `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}

// OrderLine is one line of a create-order request. Price is sent as a plain
// JSON number.
type OrderLine struct {
	BookID   int64       `json:"book_id"`
	Quantity int         `json:"quantity"`
	Price    json.Number `json:"price"`
}

// NewOrderLine builds an OrderLine from a decimal unit price.
func NewOrderLine(bookID int64, quantity int, price decimal.Decimal) OrderLine {
	return OrderLine{BookID: bookID, Quantity: quantity, Price: json.Number(price.String())}
}

// CreateOrderRequest is the body of POST /api/v1/order/create.
type CreateOrderRequest struct {
	Items []OrderLine `json:"items"`
}

// Captcha is a login/registration challenge. Image is a PNG data URI.
type Captcha struct {
	ID    string `json:"captcha_id"`
	Image string `json:"captcha_base64"`
}

// LoginRequest authenticates a storefront user.
type LoginRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	CaptchaID    string `json:"captcha_id"`
	CaptchaValue string `json:"captcha_value"`
}

// RegisterRequest creates a storefront account.
type RegisterRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	CaptchaID       string `json:"captcha_id"`
	CaptchaValue    string `json:"captcha_value"`
}

// LoginResult is the storefront token exchange response. Backends have
// shipped the account under both "user_info" and "user".
type LoginResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	UserInfo     *User  `json:"user_info,omitempty"`
	User         *User  `json:"user,omitempty"`
}

// Account returns the user embedded in the response, if any.
func (r LoginResult) Account() (User, bool) {
	switch {
	case r.UserInfo != nil:
		return *r.UserInfo, true
	case r.User != nil:
		return *r.User, true
	default:
		return User{}, false
	}
}

// ProfileUpdate is the body of PUT /api/v1/user/profile.
type ProfileUpdate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar"`
}

// PasswordChange is the body of PUT /api/v1/user/password.
type PasswordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// AdminLoginResult is the admin token exchange response.
type AdminLoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// DashboardStats summarizes the store for the admin dashboard.
type DashboardStats struct {
	TotalBooks   int             `json:"total_books"`
	TotalOrders  int             `json:"total_orders"`
	TotalUsers   int             `json:"total_users"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	RecentBooks  []RecentBook    `json:"recent_books"`
}

// RecentBook is a dashboard summary row.
type RecentBook struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	Author    string          `json:"author"`
	Price     decimal.Decimal `json:"price"`
	CoverURL  string          `json:"cover_url"`
	CreatedAt string          `json:"created_at"`
}

// BookInput is the body of admin book create and update calls.
type BookInput struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Price       int    `json:"price"`
	Discount    int    `json:"discount"`
	Type        string `json:"type"`
	Stock       int    `json:"stock"`
	Status      int    `json:"status"`
	CoverURL    string `json:"cover_url"`
	Description string `json:"description"`
	ISBN        string `json:"isbn"`
	Publisher   string `json:"publisher"`
	PublishDate string `json:"publish_date"`
	Pages       int    `json:"pages"`
	Language    string `json:"language"`
	Format      string `json:"format"`
	CategoryID  int64  `json:"category_id"`
	Sale        int    `json:"sale"`
}

// CategoryInput is the body of admin category create and update calls.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
	Sort        int    `json:"sort"`
	IsActive    bool   `json:"is_active"`
}

// UserInput is the body of admin user create and update calls. Password is
// ignored by updates.
type UserInput struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	IsAdmin  bool   `json:"is_admin"`
}

func pageCount(total, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
