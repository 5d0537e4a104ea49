package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Admin is the back-office API surface.
type Admin interface {
	AdminLogin(ctx context.Context, username, password string) (AdminLoginResult, error)
	DashboardStats(ctx context.Context) (DashboardStats, error)

	AdminBooks(ctx context.Context, q AdminBookQuery) (BookPage, error)
	AdminBook(ctx context.Context, id int64) (Book, error)
	CreateBook(ctx context.Context, in BookInput) (Book, error)
	UpdateBook(ctx context.Context, id int64, in BookInput) (Book, error)
	DeleteBook(ctx context.Context, id int64) error
	SetBookStatus(ctx context.Context, id int64, status int) error

	AdminCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, in CategoryInput) (Category, error)
	UpdateCategory(ctx context.Context, id int64, in CategoryInput) (Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	AdminUsers(ctx context.Context, q AdminUserQuery) (UserPage, error)
	AdminUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, in UserInput) (User, error)
	UpdateUser(ctx context.Context, id int64, in UserInput) (User, error)
	DeleteUser(ctx context.Context, id int64) error
	SetUserAdmin(ctx context.Context, id int64, isAdmin bool) error
}

var _ Admin = (*Client)(nil)

// AdminBookQuery filters the admin book list. A nil Status lists all books.
type AdminBookQuery struct {
	Page       int
	PageSize   int
	Title      string
	Author     string
	Type       string
	Status     *int
	CategoryID int64
}

// AdminUserQuery filters the admin user list. A nil IsAdmin lists everyone.
type AdminUserQuery struct {
	Page     int
	PageSize int
	Username string
	Email    string
	IsAdmin  *bool
}

func (c *Client) AdminLogin(ctx context.Context, username, password string) (AdminLoginResult, error) {
	body := map[string]string{"username": username, "password": password}
	var out AdminLoginResult
	err := c.do(ctx, http.MethodPost, "/api/v1/admin/auth/login", nil, body, &out)
	return out, err
}

func (c *Client) DashboardStats(ctx context.Context) (DashboardStats, error) {
	var out DashboardStats
	err := c.get(ctx, "/api/v1/admin/dashboard/stats", nil, &out)
	return out, err
}

func (c *Client) AdminBooks(ctx context.Context, q AdminBookQuery) (BookPage, error) {
	values := pageValues(q.Page, q.PageSize)
	setTrimmed(values, "title", q.Title)
	setTrimmed(values, "author", q.Author)
	setTrimmed(values, "type", q.Type)
	if q.Status != nil {
		values.Set("status", strconv.Itoa(*q.Status))
	}
	if q.CategoryID > 0 {
		values.Set("category_id", strconv.FormatInt(q.CategoryID, 10))
	}
	var out BookPage
	err := c.get(ctx, "/api/v1/admin/books/list", values, &out)
	return out, err
}

func (c *Client) AdminBook(ctx context.Context, id int64) (Book, error) {
	var out Book
	err := c.get(ctx, adminPath("books", id), nil, &out)
	return out, err
}

func (c *Client) CreateBook(ctx context.Context, in BookInput) (Book, error) {
	var out Book
	err := c.do(ctx, http.MethodPost, "/api/v1/admin/books/create", nil, in, &out)
	return out, err
}

func (c *Client) UpdateBook(ctx context.Context, id int64, in BookInput) (Book, error) {
	var out Book
	err := c.do(ctx, http.MethodPut, adminPath("books", id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteBook(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, adminPath("books", id), nil, nil, nil)
}

func (c *Client) SetBookStatus(ctx context.Context, id int64, status int) error {
	values := url.Values{}
	values.Set("status", strconv.Itoa(status))
	return c.do(ctx, http.MethodPut, adminPath("books", id)+"/status", values, nil, nil)
}

func (c *Client) AdminCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.get(ctx, "/api/v1/admin/categories/list", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	var out Category
	err := c.do(ctx, http.MethodPost, "/api/v1/admin/categories/create", nil, in, &out)
	return out, err
}

func (c *Client) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (Category, error) {
	var out Category
	err := c.do(ctx, http.MethodPut, adminPath("categories", id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, adminPath("categories", id), nil, nil, nil)
}

func (c *Client) AdminUsers(ctx context.Context, q AdminUserQuery) (UserPage, error) {
	values := pageValues(q.Page, q.PageSize)
	setTrimmed(values, "username", q.Username)
	setTrimmed(values, "email", q.Email)
	if q.IsAdmin != nil {
		values.Set("is_admin", strconv.FormatBool(*q.IsAdmin))
	}
	var out UserPage
	err := c.get(ctx, "/api/v1/admin/users/list", values, &out)
	return out, err
}

func (c *Client) AdminUser(ctx context.Context, id int64) (User, error) {
	var out User
	err := c.get(ctx, adminPath("users", id), nil, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, in UserInput) (User, error) {
	var out User
	err := c.do(ctx, http.MethodPost, "/api/v1/admin/users/create", nil, in, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id int64, in UserInput) (User, error) {
	in.Password = ""
	var out User
	err := c.do(ctx, http.MethodPut, adminPath("users", id), nil, in, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, adminPath("users", id), nil, nil, nil)
}

func (c *Client) SetUserAdmin(ctx context.Context, id int64, isAdmin bool) error {
	body := map[string]bool{"is_admin": isAdmin}
	return c.do(ctx, http.MethodPut, adminPath("users", id)+"/status", nil, body, nil)
}

func adminPath(resource string, id int64) string {
	return "/api/v1/admin/" + resource + "/" + strconv.FormatInt(id, 10)
}

func pageValues(page, pageSize int) url.Values {
	values := url.Values{}
	if page > 0 {
		values.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		values.Set("page_size", strconv.Itoa(pageSize))
	}
	return values
}

func setTrimmed(values url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		values.Set(key, v)
	}
}
