package forms

import (
	"strings"
	"testing"

	"github.com/five82/folio/internal/api"
)

func TestLogin(t *testing.T) {
	tests := []struct {
		name   string
		req    api.LoginRequest
		fields []string
	}{
		{"valid", api.LoginRequest{Username: "reader", Password: "reader123", CaptchaValue: "ab12"}, nil},
		{"missing everything", api.LoginRequest{}, []string{"username", "password", "captcha"}},
		{"short password", api.LoginRequest{Username: "reader", Password: "12345", CaptchaValue: "ab12"}, []string{"password"}},
		{"captcha length", api.LoginRequest{Username: "reader", Password: "reader123", CaptchaValue: "abc"}, []string{"captcha"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFields(t, Login(tt.req), tt.fields)
		})
	}
}

func TestRegister(t *testing.T) {
	valid := api.RegisterRequest{
		Username:        "newbie",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Email:           "newbie@example.com",
		Phone:           "13812345678",
		CaptchaValue:    "x9y8",
	}
	assertFields(t, Register(valid), nil)

	noPhone := valid
	noPhone.Phone = ""
	assertFields(t, Register(noPhone), nil)

	bad := valid
	bad.Username = "n"
	bad.Email = "not-an-email"
	bad.Phone = "12345"
	bad.ConfirmPassword = "other"
	assertFields(t, Register(bad), []string{"username", "email", "phone", "confirm_password"})
}

func TestBook(t *testing.T) {
	fields := BookFields{
		Title:      "Go in Practice",
		Author:     "M. Butcher",
		Price:      "59",
		Discount:   "",
		Type:       "tech",
		Stock:      "10",
		Sale:       "0",
		CategoryID: "3",
		Status:     api.BookOnShelf,
	}
	in, errs := Book(fields)
	assertFields(t, errs, nil)
	if in.Price != 59 || in.Discount != 100 || in.CategoryID != 3 {
		t.Fatalf("BookInput = %#v", in)
	}

	fields.Discount = "120"
	fields.Price = "abc"
	fields.CategoryID = ""
	_, errs = Book(fields)
	assertFields(t, errs, []string{"discount", "price", "category_id"})
}

func TestUser(t *testing.T) {
	in := api.UserInput{Username: "clerk", Email: "clerk@example.com"}
	assertFields(t, User(in, false), nil)
	assertFields(t, User(in, true), []string{"password"})
}

func TestErrorsString(t *testing.T) {
	errs := Errors{"b": "second", "a": "first"}
	if got := errs.Error(); got != "a: first; b: second" {
		t.Fatalf("Error() = %q", got)
	}
	if (Errors{}).Err() != nil {
		t.Fatalf("Err() on empty Errors should be nil")
	}
}

func assertFields(t *testing.T, errs Errors, want []string) {
	t.Helper()
	if len(errs) != len(want) {
		t.Fatalf("errors = %v, want fields %v", errs, want)
	}
	for _, f := range want {
		if _, ok := errs[f]; !ok {
			t.Fatalf("missing error for %q in %s", f, strings.TrimSpace(errs.Error()))
		}
	}
}
