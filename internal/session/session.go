// Package session tracks who is signed in. A Store is either anonymous or
// authenticated; the bearer token survives restarts, the user record is
// re-fetched (storefront) or reloaded from its snapshot (admin).
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/storage"
)

// ErrNotAuthenticated is returned by operations that need a signed-in user.
var ErrNotAuthenticated = errors.New("please sign in first")

// ErrSessionChanged is returned when the user signed out or switched accounts
// while a profile update was in flight. The response is discarded.
var ErrSessionChanged = errors.New("signed-in account changed, please try again")

// Realm selects which credentials a Store manages.
type Realm int

const (
	Storefront Realm = iota
	Admin
)

func (r Realm) String() string {
	if r == Admin {
		return "admin"
	}
	return "storefront"
}

func (r Realm) tokenKey() string {
	if r == Admin {
		return storage.KeyAdminToken
	}
	return storage.KeyToken
}

// Reasons attached to Events.
const (
	ReasonLogin   = "login"
	ReasonRestore = "restore"
	ReasonProfile = "profile"
	ReasonLogout  = "logout"
	ReasonExpired = "expired"
)

// Event describes a session transition.
type Event struct {
	Authenticated bool
	User          api.User
	Reason        string
}

// StorefrontAuth is the subset of the storefront API a session drives.
type StorefrontAuth interface {
	Login(ctx context.Context, req api.LoginRequest) (api.LoginResult, error)
	Register(ctx context.Context, req api.RegisterRequest) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (api.User, error)
	UpdateProfile(ctx context.Context, req api.ProfileUpdate) (api.User, error)
	ChangePassword(ctx context.Context, req api.PasswordChange) error
}

// AdminAuth is the subset of the admin API a session drives.
type AdminAuth interface {
	AdminLogin(ctx context.Context, username, password string) (api.AdminLoginResult, error)
}

// Store holds the current identity for one realm.
type Store struct {
	mu        sync.RWMutex
	realm     Realm
	kv        storage.Store
	shop      StorefrontAuth
	admin     AdminAuth
	token     string
	user      *api.User
	listeners []func(Event)
	now       func() time.Time
}

var _ api.TokenSource = (*Store)(nil)

// NewStorefront returns an anonymous storefront session.
func NewStorefront(kv storage.Store, auth StorefrontAuth) *Store {
	return &Store{realm: Storefront, kv: kv, shop: auth, now: time.Now}
}

// NewAdmin returns an anonymous admin session.
func NewAdmin(kv storage.Store, auth AdminAuth) *Store {
	return &Store{realm: Admin, kv: kv, admin: auth, now: time.Now}
}

// Realm reports which credentials the store manages.
func (s *Store) Realm() Realm { return s.realm }

// Token returns the bearer token, empty when anonymous.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the signed-in user.
func (s *Store) User() (api.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return api.User{}, false
	}
	return *s.user, true
}

// Authenticated reports whether a user is signed in.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

// OnChange registers fn for every transition.
func (s *Store) OnChange(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Restore rebuilds the session from the persisted token. Any failure leaves
// the store anonymous with the token discarded; the cause is returned.
func (s *Store) Restore(ctx context.Context) error {
	token, ok, err := s.kv.Get(s.realm.tokenKey())
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		return nil
	}
	if api.TokenExpired(token, s.now()) {
		log.Printf("session: discarding expired %s token", s.realm)
		s.clear(ReasonExpired)
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	var user api.User
	switch s.realm {
	case Admin:
		user, err = s.loadAdminUser()
	default:
		user, err = s.shop.Profile(ctx)
	}
	if err != nil {
		log.Printf("session: restore %s failed: %v", s.realm, err)
		s.clear(ReasonExpired)
		return fmt.Errorf("restore session: %w", err)
	}
	s.signIn(token, user, ReasonRestore)
	return nil
}

// Login exchanges storefront credentials for a token.
func (s *Store) Login(ctx context.Context, req api.LoginRequest) (api.User, error) {
	if s.shop == nil {
		return api.User{}, fmt.Errorf("%s session cannot log in to the storefront", s.realm)
	}
	res, err := s.shop.Login(ctx, req)
	if err != nil {
		return api.User{}, err
	}
	token := strings.TrimSpace(res.AccessToken)
	if token == "" {
		return api.User{}, fmt.Errorf("login response carried no token")
	}

	user, ok := res.Account()
	if !ok {
		s.mu.Lock()
		s.token = token
		s.mu.Unlock()
		user, err = s.shop.Profile(ctx)
		if err != nil {
			s.clear(ReasonLogout)
			return api.User{}, fmt.Errorf("fetch profile: %w", err)
		}
	}
	s.persistToken(token)
	s.signIn(token, user, ReasonLogin)
	return user, nil
}

// AdminLogin exchanges admin credentials for a token.
func (s *Store) AdminLogin(ctx context.Context, username, password string) (api.User, error) {
	if s.admin == nil {
		return api.User{}, fmt.Errorf("%s session cannot log in to the admin console", s.realm)
	}
	res, err := s.admin.AdminLogin(ctx, username, password)
	if err != nil {
		return api.User{}, err
	}
	token := strings.TrimSpace(res.Token)
	if token == "" {
		return api.User{}, fmt.Errorf("login response carried no token")
	}
	s.persistToken(token)
	if buf, err := json.Marshal(res.User); err == nil {
		if err := s.kv.Set(storage.KeyAdminUser, string(buf)); err != nil {
			log.Printf("session: persist admin user failed: %v", err)
		}
	}
	s.signIn(token, res.User, ReasonLogin)
	return res.User, nil
}

// Register creates a storefront account. The session stays anonymous; the
// caller logs in afterwards.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) error {
	if s.shop == nil {
		return fmt.Errorf("%s session cannot register", s.realm)
	}
	return s.shop.Register(ctx, req)
}

// Logout tells the server (best effort) and always clears local credentials.
func (s *Store) Logout(ctx context.Context) {
	if s.shop != nil && s.Token() != "" {
		if err := s.shop.Logout(ctx); err != nil {
			log.Printf("session: server logout failed: %v", err)
		}
	}
	s.clear(ReasonLogout)
}

// ForceLogout drops credentials without contacting the server. It is the
// HTTP client's 401 hook.
func (s *Store) ForceLogout() {
	s.clear(ReasonExpired)
}

// UpdateProfile saves profile fields and replaces the local user with the
// server's copy.
func (s *Store) UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (api.User, error) {
	if s.shop == nil {
		return api.User{}, fmt.Errorf("%s session has no profile", s.realm)
	}
	token := s.Token()
	if token == "" || !s.Authenticated() {
		return api.User{}, ErrNotAuthenticated
	}
	user, err := s.shop.UpdateProfile(ctx, upd)
	if err != nil {
		return api.User{}, err
	}
	if !s.replaceUser(token, user, ReasonProfile) {
		return api.User{}, ErrSessionChanged
	}
	return user, nil
}

// ChangePassword changes the signed-in user's password.
func (s *Store) ChangePassword(ctx context.Context, req api.PasswordChange) error {
	if s.shop == nil {
		return fmt.Errorf("%s session has no password", s.realm)
	}
	if !s.Authenticated() {
		return ErrNotAuthenticated
	}
	return s.shop.ChangePassword(ctx, req)
}

func (s *Store) loadAdminUser() (api.User, error) {
	raw, ok, err := s.kv.Get(storage.KeyAdminUser)
	if err != nil {
		return api.User{}, fmt.Errorf("read admin user: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return api.User{}, fmt.Errorf("no cached admin user")
	}
	var user api.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return api.User{}, fmt.Errorf("decode admin user: %w", err)
	}
	return user, nil
}

func (s *Store) persistToken(token string) {
	if err := s.kv.Set(s.realm.tokenKey(), token); err != nil {
		log.Printf("session: persist token failed: %v", err)
	}
}

func (s *Store) signIn(token string, user api.User, reason string) {
	s.mu.Lock()
	s.token = token
	u := user
	s.user = &u
	listeners := append([]func(Event){}, s.listeners...)
	s.mu.Unlock()

	s.emit(listeners, Event{Authenticated: true, User: user, Reason: reason})
}

// replaceUser installs user only while token is still the session's token.
func (s *Store) replaceUser(token string, user api.User, reason string) bool {
	s.mu.Lock()
	if s.token == "" || s.token != token {
		s.mu.Unlock()
		return false
	}
	u := user
	s.user = &u
	listeners := append([]func(Event){}, s.listeners...)
	s.mu.Unlock()

	s.emit(listeners, Event{Authenticated: true, User: user, Reason: reason})
	return true
}

func (s *Store) clear(reason string) {
	s.mu.Lock()
	wasAuthenticated := s.user != nil
	s.token = ""
	s.user = nil
	listeners := append([]func(Event){}, s.listeners...)
	s.mu.Unlock()

	if err := s.kv.Delete(s.realm.tokenKey()); err != nil {
		log.Printf("session: delete token failed: %v", err)
	}
	if s.realm == Admin {
		if err := s.kv.Delete(storage.KeyAdminUser); err != nil {
			log.Printf("session: delete admin user failed: %v", err)
		}
	}
	if wasAuthenticated {
		s.emit(listeners, Event{Reason: reason})
	}
}

func (s *Store) emit(listeners []func(Event), ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}
