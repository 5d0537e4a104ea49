package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Storefront is the customer-facing API surface.
type Storefront interface {
	Captcha(ctx context.Context) (Captcha, error)
	Login(ctx context.Context, req LoginRequest) (LoginResult, error)
	Register(ctx context.Context, req RegisterRequest) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (User, error)
	UpdateProfile(ctx context.Context, req ProfileUpdate) (User, error)
	ChangePassword(ctx context.Context, req PasswordChange) error

	Books(ctx context.Context, q BookQuery) (BookPage, error)
	SearchBooks(ctx context.Context, q BookQuery) (BookPage, error)
	BooksByCategory(ctx context.Context, category string, q BookQuery) (BookPage, error)
	HotBooks(ctx context.Context, limit int) ([]Book, error)
	NewBooks(ctx context.Context, limit int) ([]Book, error)
	Book(ctx context.Context, id int64) (Book, error)
	Categories(ctx context.Context) ([]Category, error)
	Carousels(ctx context.Context) ([]Carousel, error)

	AddFavorite(ctx context.Context, bookID int64) error
	RemoveFavorite(ctx context.Context, bookID int64) error
	IsFavorited(ctx context.Context, bookID int64) (bool, error)
	Favorites(ctx context.Context, q FavoriteQuery) (FavoritePage, error)
	FavoriteCount(ctx context.Context) (int, error)

	CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error)
	Orders(ctx context.Context, page, pageSize int) (OrderPage, error)
	Order(ctx context.Context, id int64) (Order, error)
	PayOrder(ctx context.Context, id int64) error
}

var _ Storefront = (*Client)(nil)

// BookQuery configures book list and search requests.
type BookQuery struct {
	Page     int
	PageSize int
	Keyword  string
}

func (q BookQuery) values() url.Values {
	values := pageValues(q.Page, q.PageSize)
	if kw := strings.TrimSpace(q.Keyword); kw != "" {
		values.Set("q", kw)
	}
	return values
}

// Favorite list time filters.
const (
	FavoritesAll   = "all"
	FavoritesToday = "today"
	FavoritesWeek  = "week"
	FavoritesMonth = "month"
	FavoritesYear  = "year"
)

// FavoriteFilters lists the accepted time filters in display order.
var FavoriteFilters = []string{FavoritesAll, FavoritesToday, FavoritesWeek, FavoritesMonth, FavoritesYear}

// FavoriteQuery configures /api/v1/favorite/list.
type FavoriteQuery struct {
	Page       int
	PageSize   int
	TimeFilter string
}

func (c *Client) Captcha(ctx context.Context) (Captcha, error) {
	var out Captcha
	err := c.get(ctx, "/api/v1/captcha/generate", nil, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, http.MethodPost, "/api/v1/user/login", nil, req, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, http.MethodPost, "/api/v1/user/register", nil, req, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/user/logout", nil, nil, nil)
}

func (c *Client) Profile(ctx context.Context) (User, error) {
	var out User
	err := c.get(ctx, "/api/v1/user/profile", nil, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, req ProfileUpdate) (User, error) {
	var out User
	err := c.do(ctx, http.MethodPut, "/api/v1/user/profile", nil, req, &out)
	return out, err
}

func (c *Client) ChangePassword(ctx context.Context, req PasswordChange) error {
	return c.do(ctx, http.MethodPut, "/api/v1/user/password", nil, req, nil)
}

func (c *Client) Books(ctx context.Context, q BookQuery) (BookPage, error) {
	var out BookPage
	values := q.values()
	values.Del("q")
	err := c.get(ctx, "/api/v1/book/list", values, &out)
	return out, err
}

func (c *Client) SearchBooks(ctx context.Context, q BookQuery) (BookPage, error) {
	if strings.TrimSpace(q.Keyword) == "" {
		return c.Books(ctx, q)
	}
	var out BookPage
	err := c.get(ctx, "/api/v1/book/search", q.values(), &out)
	return out, err
}

func (c *Client) BooksByCategory(ctx context.Context, category string, q BookQuery) (BookPage, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return BookPage{}, fmt.Errorf("category required")
	}
	var out BookPage
	values := q.values()
	values.Del("q")
	err := c.get(ctx, "/api/v1/book/category/"+url.PathEscape(category), values, &out)
	return out, err
}

func (c *Client) HotBooks(ctx context.Context, limit int) ([]Book, error) {
	return c.bookFeed(ctx, "/api/v1/book/hot", limit)
}

func (c *Client) NewBooks(ctx context.Context, limit int) ([]Book, error) {
	return c.bookFeed(ctx, "/api/v1/book/new", limit)
}

func (c *Client) bookFeed(ctx context.Context, path string, limit int) ([]Book, error) {
	values := url.Values{}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	var out []Book
	if err := c.get(ctx, path, values, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Book(ctx context.Context, id int64) (Book, error) {
	var out Book
	err := c.get(ctx, "/api/v1/book/detail/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.get(ctx, "/api/v1/category/list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Carousels(ctx context.Context) ([]Carousel, error) {
	var out []Carousel
	if err := c.get(ctx, "/api/v1/carousel/list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddFavorite(ctx context.Context, bookID int64) error {
	return c.do(ctx, http.MethodPost, favoritePath(bookID), nil, nil, nil)
}

func (c *Client) RemoveFavorite(ctx context.Context, bookID int64) error {
	return c.do(ctx, http.MethodDelete, favoritePath(bookID), nil, nil, nil)
}

func (c *Client) IsFavorited(ctx context.Context, bookID int64) (bool, error) {
	var out struct {
		IsFavorited bool `json:"is_favorited"`
	}
	if err := c.get(ctx, favoritePath(bookID)+"/check", nil, &out); err != nil {
		return false, err
	}
	return out.IsFavorited, nil
}

func (c *Client) Favorites(ctx context.Context, q FavoriteQuery) (FavoritePage, error) {
	values := pageValues(q.Page, q.PageSize)
	setTrimmed(values, "time_filter", q.TimeFilter)
	var out FavoritePage
	err := c.get(ctx, "/api/v1/favorite/list", values, &out)
	return out, err
}

func (c *Client) FavoriteCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.get(ctx, "/api/v1/favorite/count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (Order, error) {
	if len(req.Items) == 0 {
		return Order{}, fmt.Errorf("order has no items")
	}
	var out Order
	err := c.do(ctx, http.MethodPost, "/api/v1/order/create", nil, req, &out)
	return out, err
}

func (c *Client) Orders(ctx context.Context, page, pageSize int) (OrderPage, error) {
	values := pageValues(page, pageSize)
	var out OrderPage
	err := c.get(ctx, "/api/v1/order/list", values, &out)
	return out, err
}

func (c *Client) Order(ctx context.Context, id int64) (Order, error) {
	var out Order
	err := c.get(ctx, "/api/v1/order/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

func (c *Client) PayOrder(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, "/api/v1/order/"+strconv.FormatInt(id, 10)+"/pay", nil, nil, nil)
}

func favoritePath(bookID int64) string {
	return "/api/v1/favorite/" + strconv.FormatInt(bookID, 10)
}
