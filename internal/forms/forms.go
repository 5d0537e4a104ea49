// Package forms validates user input before it is sent to the backend. A
// form with errors never produces a request.
package forms

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/five82/folio/internal/api"
)

// Limits enforced on both storefront and admin forms.
const (
	MinPasswordLen = 6
	MinUsernameLen = 2
	CaptchaLen     = 4
)

var (
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)
)

// Errors maps a field name to its message. An empty Errors is valid.
type Errors map[string]string

// OK reports whether no field failed.
func (e Errors) OK() bool { return len(e) == 0 }

// Error joins the messages in field order so the result is stable.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return strings.Join(parts, "; ")
}

// Err returns e as an error, or nil when valid.
func (e Errors) Err() error {
	if e.OK() {
		return nil
	}
	return e
}

func (e Errors) check(field string, failed bool, msg string) {
	if failed {
		if _, seen := e[field]; !seen {
			e[field] = msg
		}
	}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func length(s string) int { return utf8.RuneCountInString(strings.TrimSpace(s)) }

// Login checks a storefront login request.
func Login(req api.LoginRequest) Errors {
	errs := Errors{}
	errs.check("username", blank(req.Username), "username is required")
	errs.check("password", blank(req.Password), "password is required")
	errs.check("password", len(req.Password) < MinPasswordLen, fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	checkCaptcha(errs, req.CaptchaValue)
	return errs
}

// AdminLogin checks admin credentials.
func AdminLogin(username, password string) Errors {
	errs := Errors{}
	errs.check("username", blank(username), "username is required")
	errs.check("password", blank(password), "password is required")
	return errs
}

// Register checks a registration request.
func Register(req api.RegisterRequest) Errors {
	errs := Errors{}
	errs.check("username", blank(req.Username), "username is required")
	errs.check("username", length(req.Username) < MinUsernameLen, fmt.Sprintf("username must be at least %d characters", MinUsernameLen))
	errs.check("email", blank(req.Email), "email is required")
	errs.check("email", !emailPattern.MatchString(strings.TrimSpace(req.Email)), "email is not valid")
	errs.check("phone", !blank(req.Phone) && !phonePattern.MatchString(strings.TrimSpace(req.Phone)), "phone number is not valid")
	errs.check("password", len(req.Password) < MinPasswordLen, fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	errs.check("confirm_password", req.ConfirmPassword != req.Password, "passwords do not match")
	checkCaptcha(errs, req.CaptchaValue)
	return errs
}

// Profile checks a profile update.
func Profile(upd api.ProfileUpdate) Errors {
	errs := Errors{}
	errs.check("username", length(upd.Username) < MinUsernameLen, fmt.Sprintf("username must be at least %d characters", MinUsernameLen))
	errs.check("email", !blank(upd.Email) && !emailPattern.MatchString(strings.TrimSpace(upd.Email)), "email is not valid")
	errs.check("phone", !blank(upd.Phone) && !phonePattern.MatchString(strings.TrimSpace(upd.Phone)), "phone number is not valid")
	return errs
}

// Password checks a password change.
func Password(req api.PasswordChange, confirm string) Errors {
	errs := Errors{}
	errs.check("old_password", blank(req.OldPassword), "current password is required")
	errs.check("new_password", len(req.NewPassword) < MinPasswordLen, fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	errs.check("confirm_password", confirm != req.NewPassword, "passwords do not match")
	return errs
}

func checkCaptcha(errs Errors, value string) {
	errs.check("captcha", blank(value), "captcha is required")
	errs.check("captcha", length(value) != CaptchaLen, fmt.Sprintf("captcha must be %d characters", CaptchaLen))
}

// BookFields is the raw text of the admin book form.
type BookFields struct {
	Title       string
	Author      string
	Price       string
	Discount    string
	Type        string
	Stock       string
	Sale        string
	CategoryID  string
	CoverURL    string
	Description string
	ISBN        string
	Publisher   string
	Status      int
}

// Book validates the admin book form and converts it to a request body.
func Book(f BookFields) (api.BookInput, Errors) {
	errs := Errors{}
	errs.check("title", blank(f.Title), "title is required")
	errs.check("author", blank(f.Author), "author is required")
	errs.check("type", blank(f.Type), "type is required")

	price, ok := parseInt(f.Price)
	errs.check("price", !ok, "price is required")
	errs.check("price", price < 0, "price cannot be negative")

	stock, ok := parseInt(f.Stock)
	errs.check("stock", !ok, "stock is required")
	errs.check("stock", stock < 0, "stock cannot be negative")

	sale, ok := parseInt(f.Sale)
	errs.check("sale", !ok, "sales count is required")
	errs.check("sale", sale < 0, "sales count cannot be negative")

	discount := 100
	if !blank(f.Discount) {
		var ok bool
		discount, ok = parseInt(f.Discount)
		errs.check("discount", !ok, "discount must be a number")
		errs.check("discount", discount < 0 || discount > 100, "discount must be between 0 and 100")
	}

	category, ok := parseInt(f.CategoryID)
	errs.check("category_id", !ok || category <= 0, "category is required")

	if !errs.OK() {
		return api.BookInput{}, errs
	}
	return api.BookInput{
		Title:       strings.TrimSpace(f.Title),
		Author:      strings.TrimSpace(f.Author),
		Price:       price,
		Discount:    discount,
		Type:        strings.TrimSpace(f.Type),
		Stock:       stock,
		Status:      f.Status,
		CoverURL:    strings.TrimSpace(f.CoverURL),
		Description: strings.TrimSpace(f.Description),
		ISBN:        strings.TrimSpace(f.ISBN),
		Publisher:   strings.TrimSpace(f.Publisher),
		CategoryID:  int64(category),
		Sale:        sale,
	}, errs
}

// Category validates the admin category form.
func Category(in api.CategoryInput) Errors {
	errs := Errors{}
	errs.check("name", blank(in.Name), "name is required")
	errs.check("sort", in.Sort < 0, "sort cannot be negative")
	return errs
}

// User validates the admin user form. A password is only required on create.
func User(in api.UserInput, creating bool) Errors {
	errs := Errors{}
	errs.check("username", blank(in.Username), "username is required")
	if creating {
		errs.check("password", len(in.Password) < MinPasswordLen, fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	}
	errs.check("email", blank(in.Email), "email is required")
	errs.check("email", !emailPattern.MatchString(strings.TrimSpace(in.Email)), "email is not valid")
	errs.check("phone", !blank(in.Phone) && !phonePattern.MatchString(strings.TrimSpace(in.Phone)), "phone number is not valid")
	return errs
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}
