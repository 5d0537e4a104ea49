package fakeapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/cart"
	"github.com/five82/folio/internal/favorites"
	"github.com/five82/folio/internal/listview"
	"github.com/five82/folio/internal/session"
	"github.com/five82/folio/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := New(Options{Secret: "test-secret", BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return srv
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func call(t *testing.T, app *fiber.App, method, path, token, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode envelope: %v", method, path, err)
	}
	return res.StatusCode, env
}

func TestRoutes_Envelopes(t *testing.T) {
	srv := newTestServer(t)
	app := srv.App()

	status, env := call(t, app, "GET", "/api/v1/book/list?page=2&page_size=5", "", "")
	if status != fiber.StatusOK || env.Code != 0 {
		t.Fatalf("book list = %d %+v", status, env)
	}
	var page api.BookPage
	if err := json.Unmarshal(env.Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != len(seedBooks) || len(page.Books) != 5 || page.Current() != 2 || page.Pages() != 3 {
		t.Fatalf("page = total %d len %d current %d pages %d", page.Total, len(page.Books), page.Current(), page.Pages())
	}

	status, env = call(t, app, "GET", "/api/v1/favorite/count", "", "")
	if status != fiber.StatusUnauthorized || env.Code != -1 {
		t.Fatalf("anonymous favorites = %d %+v, want 401", status, env)
	}

	status, _ = call(t, app, "GET", "/api/v1/book/detail/9999", "", "")
	if status != fiber.StatusNotFound {
		t.Fatalf("missing book status = %d, want 404", status)
	}

	status, env = call(t, app, "POST", "/api/v1/user/login", "", `{"username":"reader","password":"reader123","captcha_id":"nope","captcha_value":"1234"}`)
	if status != fiber.StatusBadRequest || env.Message != "captcha is incorrect" {
		t.Fatalf("bad captcha = %d %+v", status, env)
	}
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	srv := newTestServer(t)
	app := srv.App()

	status, env := call(t, app, "POST", "/api/v1/admin/auth/login", "", `{"username":"reader","password":"reader123"}`)
	if status != fiber.StatusForbidden {
		t.Fatalf("reader admin login = %d %+v, want 403", status, env)
	}

	readerToken, _, err := srv.issueToken(readerID(t, srv), false)
	if err != nil {
		t.Fatalf("issueToken: %v", err)
	}
	status, _ = call(t, app, "GET", "/api/v1/admin/dashboard/stats", readerToken, "")
	if status != fiber.StatusForbidden {
		t.Fatalf("reader dashboard = %d, want 403", status)
	}

	status, env = call(t, app, "POST", "/api/v1/admin/auth/login", "", `{"username":"admin","password":"admin123"}`)
	if status != fiber.StatusOK {
		t.Fatalf("admin login = %d %+v", status, env)
	}
	var res api.AdminLoginResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	status, env = call(t, app, "GET", "/api/v1/admin/books/list?status=1&page_size=4", res.Token, "")
	if status != fiber.StatusOK {
		t.Fatalf("admin books = %d %+v", status, env)
	}
	var page api.BookPage
	_ = json.Unmarshal(env.Data, &page)
	if page.TotalPage != 3 || page.Page != 1 {
		t.Fatalf("admin page keys = %+v, want total_page=3 page=1", page)
	}
}

func readerID(t *testing.T, srv *Server) int64 {
	t.Helper()
	srv.mu.Lock()
	defer srv.mu.Unlock()
	acct, ok := srv.findUsernameLocked(ReaderUsername)
	if !ok {
		t.Fatalf("reader not seeded")
	}
	return acct.user.ID
}

func TestCaptchaImage_IsPNGDataURI(t *testing.T) {
	uri, err := captchaImage("0429")
	if err != nil {
		t.Fatalf("captchaImage: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/png;base64,") {
		t.Fatalf("captcha uri prefix = %q", uri[:30])
	}
}

// serve runs srv on a loopback port and returns its base URL.
func serve(t *testing.T, srv *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })
	return "http://" + ln.Addr().String()
}

func login(t *testing.T, ctx context.Context, srv *Server, client *api.Client, sess *session.Store) {
	t.Helper()
	captcha, err := client.Captcha(ctx)
	if err != nil {
		t.Fatalf("Captcha: %v", err)
	}
	answer, ok := srv.CaptchaAnswer(captcha.ID)
	if !ok {
		t.Fatalf("captcha %q not registered", captcha.ID)
	}
	if _, err := sess.Login(ctx, api.LoginRequest{
		Username:     ReaderUsername,
		Password:     ReaderPassword,
		CaptchaID:    captcha.ID,
		CaptchaValue: answer,
	}); err != nil {
		t.Fatalf("Login: %v", err)
	}
}

func TestEndToEnd_ShopperFlow(t *testing.T) {
	srv := newTestServer(t)
	base := serve(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	client, err := api.NewClient(base, api.WithTimeout(5*time.Second))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	kv := storage.NewMemory()
	sess := session.NewStorefront(kv, client)
	client.SetTokenSource(sess)
	client.SetUnauthorizedHandler(sess.ForceLogout)

	// Wrong password is a credential rejection, not an expired session.
	captcha, err := client.Captcha(ctx)
	if err != nil {
		t.Fatalf("Captcha: %v", err)
	}
	answer, _ := srv.CaptchaAnswer(captcha.ID)
	_, err = sess.Login(ctx, api.LoginRequest{Username: ReaderUsername, Password: "wrong-pass", CaptchaID: captcha.ID, CaptchaValue: answer})
	if got := api.UserMessage(err); got != "invalid username or password" {
		t.Fatalf("wrong password message = %q", got)
	}

	login(t, ctx, srv, client, sess)
	if !sess.Authenticated() {
		t.Fatalf("session not authenticated after login")
	}

	hot, err := client.HotBooks(ctx, 3)
	if err != nil || len(hot) != 3 {
		t.Fatalf("HotBooks = %d, %v", len(hot), err)
	}

	favs := favorites.New(client, sess)
	on, err := favs.Toggle(ctx, hot[0].ID)
	if err != nil || !on || favs.Count() != 1 {
		t.Fatalf("Toggle = %v, %v (count %d)", on, err, favs.Count())
	}
	page, err := favs.List(ctx, 1, 10, api.FavoritesToday)
	if err != nil || len(page.Favorites) != 1 || page.Favorites[0].Book == nil {
		t.Fatalf("List = %+v, %v", page, err)
	}

	store, err := cart.Load(kv)
	if err != nil {
		t.Fatalf("cart.Load: %v", err)
	}
	if _, err := store.Add(cart.ItemFromBook(hot[0])); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := store.Add(cart.ItemFromBook(hot[0])); err != nil {
		t.Fatalf("Add: %v", err)
	}
	snap := store.Snapshot()
	order, err := client.CreateOrder(ctx, snap.OrderRequest())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if !order.TotalAmount.Equal(snap.TotalPrice()) {
		t.Fatalf("order total = %s, want %s", order.TotalAmount, snap.TotalPrice())
	}
	if err := client.PayOrder(ctx, order.ID); err != nil {
		t.Fatalf("PayOrder: %v", err)
	}
	err = client.PayOrder(ctx, order.ID)
	if api.KindOf(err) != api.KindBusiness || api.UserMessage(err) != "order is already paid" {
		t.Fatalf("second PayOrder = %v", err)
	}

	sess.Logout(ctx)
	if sess.Authenticated() {
		t.Fatalf("still authenticated after logout")
	}
	if _, found, _ := kv.Get(storage.KeyToken); found {
		t.Fatalf("token still persisted after logout")
	}
}

func TestEndToEnd_ExpiredTokenForcesLogout(t *testing.T) {
	srv := newTestServer(t)
	base := serve(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	client, err := api.NewClient(base)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	kv := storage.NewMemory()
	sess := session.NewStorefront(kv, client)
	client.SetTokenSource(sess)
	client.SetUnauthorizedHandler(sess.ForceLogout)
	login(t, ctx, srv, client, sess)

	// Revoke the held token server-side, as an expiry would.
	cl, err := srv.parseToken(sess.Token())
	if err != nil {
		t.Fatalf("parseToken: %v", err)
	}
	srv.mu.Lock()
	srv.revoked[cl.ID] = true
	srv.mu.Unlock()

	_, err = client.FavoriteCount(ctx)
	if !api.IsUnauthorized(err) {
		t.Fatalf("FavoriteCount error = %v, want unauthorized", err)
	}
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Status != 401 {
		t.Fatalf("error = %#v, want *api.Error status 401", err)
	}
	if sess.Authenticated() {
		t.Fatalf("session still authenticated after 401")
	}
	if _, found, _ := kv.Get(storage.KeyToken); found {
		t.Fatalf("token still persisted after 401")
	}
}

func TestEndToEnd_AdminDeleteStepsBack(t *testing.T) {
	srv := newTestServer(t)
	base := serve(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	client, err := api.NewClient(base)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	sess := session.NewAdmin(storage.NewMemory(), client)
	client.SetTokenSource(sess)
	if _, err := sess.AdminLogin(ctx, AdminUsername, AdminPassword); err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}

	cat, err := client.CreateCategory(ctx, api.CategoryInput{Name: "Poetry", IsActive: true})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	_, err = client.CreateCategory(ctx, api.CategoryInput{Name: "poetry"})
	if api.KindOf(err) != api.KindBusiness {
		t.Fatalf("duplicate category error = %v, want business", err)
	}

	var ids []int64
	for _, title := range []string{"Odes", "Sonnets", "Elegies"} {
		book, err := client.CreateBook(ctx, api.BookInput{Title: title, Author: "Keats", Price: 30, Discount: 100, Type: "paperback", Stock: 3, Status: api.BookOffShelf, CategoryID: cat.ID})
		if err != nil {
			t.Fatalf("CreateBook(%s): %v", title, err)
		}
		ids = append(ids, book.ID)
	}

	fetch := func(ctx context.Context, q listview.Query[int]) (listview.Result[api.Book], error) {
		status := q.Filter
		page, err := client.AdminBooks(ctx, api.AdminBookQuery{Page: q.Page, PageSize: q.PageSize, Status: &status})
		if err != nil {
			return listview.Result[api.Book]{}, err
		}
		return listview.Result[api.Book]{Items: page.Books, Total: page.Total, TotalPages: page.Pages(), Page: page.Current()}, nil
	}
	ctrl := listview.New(fetch, 2, api.BookOffShelf)
	if err := ctrl.Do(ctx, ctrl.SetPage(2)); err != nil {
		t.Fatalf("SetPage(2): %v", err)
	}
	if got := len(ctrl.Result().Items); got != 1 {
		t.Fatalf("page 2 rows = %d, want 1", got)
	}

	if err := client.DeleteBook(ctx, ids[2]); err != nil {
		t.Fatalf("DeleteBook: %v", err)
	}
	if err := ctrl.Do(ctx, ctrl.AfterMutation()); err != nil {
		t.Fatalf("AfterMutation: %v", err)
	}
	if q := ctrl.Query(); q.Page != 1 {
		t.Fatalf("page after deleting last row = %d, want 1", q.Page)
	}
	if got := len(ctrl.Result().Items); got != 2 {
		t.Fatalf("rows after step back = %d, want 2", got)
	}

	err = client.DeleteCategory(ctx, cat.ID)
	if api.KindOf(err) != api.KindBusiness {
		t.Fatalf("deleting non-empty category = %v, want business error", err)
	}
}
