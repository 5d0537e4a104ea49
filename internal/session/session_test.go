package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/storage"
)

type fakeShop struct {
	loginResult   api.LoginResult
	loginErr      error
	profile       api.User
	profileErr    error
	profileCalls  int
	logoutErr     error
	logoutCalls   int
	updateResult  api.User
	updateErr     error
	duringUpdate  func()
	registerCalls int
}

func (f *fakeShop) Login(context.Context, api.LoginRequest) (api.LoginResult, error) {
	return f.loginResult, f.loginErr
}

func (f *fakeShop) Register(context.Context, api.RegisterRequest) error {
	f.registerCalls++
	return nil
}

func (f *fakeShop) Logout(context.Context) error {
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeShop) Profile(context.Context) (api.User, error) {
	f.profileCalls++
	return f.profile, f.profileErr
}

func (f *fakeShop) UpdateProfile(context.Context, api.ProfileUpdate) (api.User, error) {
	if f.duringUpdate != nil {
		f.duringUpdate()
	}
	return f.updateResult, f.updateErr
}

func (f *fakeShop) ChangePassword(context.Context, api.PasswordChange) error { return nil }

type fakeAdmin struct {
	result api.AdminLoginResult
	err    error
}

func (f fakeAdmin) AdminLogin(context.Context, string, string) (api.AdminLoginResult, error) {
	return f.result, f.err
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	s, err := tok.SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestLogin_PersistsTokenAndAuthenticates(t *testing.T) {
	kv := storage.NewMemory()
	reader := api.User{ID: 1, Username: "reader"}
	shop := &fakeShop{loginResult: api.LoginResult{AccessToken: "tok", UserInfo: &reader}}
	s := NewStorefront(kv, shop)

	var events []Event
	s.OnChange(func(ev Event) { events = append(events, ev) })

	user, err := s.Login(context.Background(), api.LoginRequest{Username: "reader", Password: "secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Username != "reader" || !s.Authenticated() || s.Token() != "tok" {
		t.Fatalf("session not authenticated: user=%+v token=%q", user, s.Token())
	}
	if got, _, _ := kv.Get(storage.KeyToken); got != "tok" {
		t.Fatalf("persisted token = %q", got)
	}
	if shop.profileCalls != 0 {
		t.Fatalf("profile fetched although login returned the user")
	}
	if len(events) != 1 || !events[0].Authenticated || events[0].Reason != ReasonLogin {
		t.Fatalf("events = %+v", events)
	}
}

func TestLogin_FetchesProfileWhenResponseOmitsUser(t *testing.T) {
	shop := &fakeShop{loginResult: api.LoginResult{AccessToken: "tok"}, profile: api.User{ID: 2, Username: "late"}}
	s := NewStorefront(storage.NewMemory(), shop)
	user, err := s.Login(context.Background(), api.LoginRequest{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Username != "late" || shop.profileCalls != 1 {
		t.Fatalf("user = %+v, profile calls = %d", user, shop.profileCalls)
	}
}

func TestLogin_FailureStaysAnonymous(t *testing.T) {
	kv := storage.NewMemory()
	shop := &fakeShop{loginErr: errors.New("wrong password")}
	s := NewStorefront(kv, shop)
	if _, err := s.Login(context.Background(), api.LoginRequest{}); err == nil {
		t.Fatalf("expected error")
	}
	if s.Authenticated() {
		t.Fatalf("authenticated after failed login")
	}
	if _, ok, _ := kv.Get(storage.KeyToken); ok {
		t.Fatalf("token persisted after failed login")
	}
}

func TestRestore(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		token      string
		profileErr error
		wantAuth   bool
		wantErr    bool
		wantFetch  int
	}{
		{"no token", "", nil, false, false, 0},
		{"valid opaque token", "opaque", nil, true, false, 1},
		{"valid jwt", "jwt-future", nil, true, false, 1},
		{"expired jwt skips network", "jwt-past", nil, false, false, 0},
		{"profile failure", "opaque", errors.New("connection refused"), false, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := storage.NewMemory()
			token := tt.token
			switch token {
			case "jwt-future":
				token = signedToken(t, now.Add(time.Hour))
			case "jwt-past":
				token = signedToken(t, now.Add(-time.Hour))
			}
			if token != "" {
				_ = kv.Set(storage.KeyToken, token)
			}
			shop := &fakeShop{profile: api.User{ID: 9, Username: "back"}, profileErr: tt.profileErr}
			s := NewStorefront(kv, shop)
			s.now = func() time.Time { return now }

			err := s.Restore(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Restore err = %v, wantErr %v", err, tt.wantErr)
			}
			if s.Authenticated() != tt.wantAuth {
				t.Fatalf("Authenticated() = %v, want %v", s.Authenticated(), tt.wantAuth)
			}
			if shop.profileCalls != tt.wantFetch {
				t.Fatalf("profile calls = %d, want %d", shop.profileCalls, tt.wantFetch)
			}
			_, stillStored, _ := kv.Get(storage.KeyToken)
			if stillStored != tt.wantAuth {
				t.Fatalf("token stored = %v, want %v", stillStored, tt.wantAuth)
			}
		})
	}
}

func TestLogout_ClearsEvenWhenServerFails(t *testing.T) {
	kv := storage.NewMemory()
	reader := api.User{ID: 1}
	shop := &fakeShop{loginResult: api.LoginResult{AccessToken: "tok", UserInfo: &reader}, logoutErr: errors.New("timeout")}
	s := NewStorefront(kv, shop)
	if _, err := s.Login(context.Background(), api.LoginRequest{}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	s.Logout(context.Background())

	if shop.logoutCalls != 1 {
		t.Fatalf("server logout calls = %d", shop.logoutCalls)
	}
	if s.Authenticated() || s.Token() != "" {
		t.Fatalf("still authenticated after logout")
	}
	if _, ok, _ := kv.Get(storage.KeyToken); ok {
		t.Fatalf("token survived logout")
	}
}

func TestUpdateProfile_ReplacesUserWholesale(t *testing.T) {
	before := api.User{ID: 1, Username: "old", Email: "old@example.com", Phone: "13800000000"}
	after := api.User{ID: 1, Username: "new", Email: "new@example.com"}
	shop := &fakeShop{loginResult: api.LoginResult{AccessToken: "tok", UserInfo: &before}, updateResult: after}
	s := NewStorefront(storage.NewMemory(), shop)

	if _, err := s.UpdateProfile(context.Background(), api.ProfileUpdate{}); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("anonymous update err = %v", err)
	}
	if _, err := s.Login(context.Background(), api.LoginRequest{}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := s.UpdateProfile(context.Background(), api.ProfileUpdate{Username: "new"}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	got, _ := s.User()
	if got != after {
		t.Fatalf("user = %+v, want %+v", got, after)
	}
}

func TestUpdateProfile_DiscardedAfterAccountSwitch(t *testing.T) {
	alice := api.User{ID: 1, Username: "alice"}
	bob := api.User{ID: 2, Username: "bob"}
	shop := &fakeShop{
		loginResult:  api.LoginResult{AccessToken: "alice-tok", UserInfo: &alice},
		updateResult: api.User{ID: 1, Username: "alice2"},
	}
	s := NewStorefront(storage.NewMemory(), shop)
	if _, err := s.Login(context.Background(), api.LoginRequest{}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	shop.duringUpdate = func() {
		s.Logout(context.Background())
		shop.loginResult = api.LoginResult{AccessToken: "bob-tok", UserInfo: &bob}
		if _, err := s.Login(context.Background(), api.LoginRequest{}); err != nil {
			t.Errorf("second Login: %v", err)
		}
	}
	if _, err := s.UpdateProfile(context.Background(), api.ProfileUpdate{Username: "alice2"}); !errors.Is(err, ErrSessionChanged) {
		t.Fatalf("UpdateProfile err = %v, want ErrSessionChanged", err)
	}
	got, _ := s.User()
	if s.Token() != "bob-tok" || got != bob {
		t.Fatalf("token = %q user = %+v; want bob's session untouched", s.Token(), got)
	}
}

func TestUpdateProfile_DiscardedAfterLogout(t *testing.T) {
	me := api.User{ID: 1, Username: "me"}
	shop := &fakeShop{loginResult: api.LoginResult{AccessToken: "tok", UserInfo: &me}, updateResult: me}
	s := NewStorefront(storage.NewMemory(), shop)
	if _, err := s.Login(context.Background(), api.LoginRequest{}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	shop.duringUpdate = func() { s.ForceLogout() }
	if _, err := s.UpdateProfile(context.Background(), api.ProfileUpdate{}); !errors.Is(err, ErrSessionChanged) {
		t.Fatalf("UpdateProfile err = %v, want ErrSessionChanged", err)
	}
	if s.Authenticated() {
		t.Fatalf("profile response signed the user back in")
	}
}

func TestRegister_StaysAnonymous(t *testing.T) {
	shop := &fakeShop{}
	s := NewStorefront(storage.NewMemory(), shop)
	if err := s.Register(context.Background(), api.RegisterRequest{Username: "new"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if shop.registerCalls != 1 || s.Authenticated() {
		t.Fatalf("register calls = %d, authenticated = %v", shop.registerCalls, s.Authenticated())
	}
}

func TestAdmin_LoginRestoreAndForcedLogout(t *testing.T) {
	kv := storage.NewMemory()
	admin := api.User{ID: 1, Username: "admin", IsAdmin: true}
	s := NewAdmin(kv, fakeAdmin{result: api.AdminLoginResult{Token: "admin-tok", User: admin}})

	if _, err := s.AdminLogin(context.Background(), "admin", "admin123"); err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}
	if got, _, _ := kv.Get(storage.KeyAdminToken); got != "admin-tok" {
		t.Fatalf("admin_token = %q", got)
	}
	if _, ok, _ := kv.Get(storage.KeyToken); ok {
		t.Fatalf("admin login wrote storefront token")
	}

	restored := NewAdmin(kv, fakeAdmin{})
	if err := restored.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if u, ok := restored.User(); !ok || u.Username != "admin" {
		t.Fatalf("restored user = %+v, %v", u, ok)
	}

	restored.ForceLogout()
	for _, key := range []string{storage.KeyAdminToken, storage.KeyAdminUser} {
		if _, ok, _ := kv.Get(key); ok {
			t.Fatalf("%s survived forced logout", key)
		}
	}
}

func TestAdmin_RestoreWithoutSnapshotDropsToken(t *testing.T) {
	kv := storage.NewMemory()
	_ = kv.Set(storage.KeyAdminToken, "admin-tok")
	s := NewAdmin(kv, fakeAdmin{})
	if err := s.Restore(context.Background()); err == nil {
		t.Fatalf("expected error without admin_user snapshot")
	}
	if _, ok, _ := kv.Get(storage.KeyAdminToken); ok {
		t.Fatalf("token kept without snapshot")
	}
}

func TestUnauthorizedResponseForcesLogout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/user/login":
			_, _ = w.Write([]byte(`{"code":0,"message":"ok","data":{"access_token":"tok","user_info":{"id":1,"username":"reader"}}}`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":-1,"message":"token expired"}`))
		}
	}))
	t.Cleanup(server.Close)

	client, err := api.NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	kv := storage.NewMemory()
	s := NewStorefront(kv, client)
	client.SetTokenSource(s)
	client.SetUnauthorizedHandler(s.ForceLogout)

	var reasons []string
	s.OnChange(func(ev Event) { reasons = append(reasons, ev.Reason) })

	if _, err := s.Login(context.Background(), api.LoginRequest{Username: "reader"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := client.FavoriteCount(context.Background()); !api.IsUnauthorized(err) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
	if s.Authenticated() {
		t.Fatalf("still authenticated after 401")
	}
	if _, ok, _ := kv.Get(storage.KeyToken); ok {
		t.Fatalf("token survived 401")
	}
	if len(reasons) != 2 || reasons[1] != ReasonExpired {
		t.Fatalf("reasons = %v", reasons)
	}
}
