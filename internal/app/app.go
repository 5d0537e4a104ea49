package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/cart"
	"github.com/five82/folio/internal/config"
	"github.com/five82/folio/internal/favorites"
	"github.com/five82/folio/internal/prefs"
	"github.com/five82/folio/internal/session"
	"github.com/five82/folio/internal/state"
	"github.com/five82/folio/internal/storage"
	"github.com/five82/folio/internal/ui"
)

// Options configure a folio run.
type Options struct {
	ConfigPath string
	EnvFile    string // empty loads .env from the working directory when present
	PrefsPath  string // empty uses default ~/.config/folio/prefs.toml
	PollEvery  int    // seconds; zero uses default
	// APIURL points both the storefront and the admin console at one server,
	// overriding the config file.
	APIURL string
}

// Env is the client-side state every command shares.
type Env struct {
	Config config.Config
	Prefs  prefs.Prefs
	KV     storage.Store

	prefsPath string
}

// Open loads configuration and preferences and opens local storage.
func Open(opts Options) (*Env, error) {
	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.APIURL != "" {
		cfg.APIURL, cfg.AdminAPIURL = opts.APIURL, opts.APIURL
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		log.Printf("load prefs: %v", err)
	}
	if userPrefs.PageSize <= 0 {
		userPrefs.PageSize = cfg.PageSize
	}

	kv, err := storage.Open(cfg.Storage, cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return &Env{Config: cfg, Prefs: userPrefs, KV: kv, prefsPath: opts.PrefsPath}, nil
}

// Close releases local storage.
func (e *Env) Close() error {
	return e.KV.Close()
}

// Storefront builds the storefront client and its session. The client sends
// the session's token and signs the session out when the server answers 401.
func (e *Env) Storefront() (*api.Client, *session.Store, error) {
	client, err := api.NewClient(e.Config.APIURL, api.WithTimeout(e.Config.Timeout))
	if err != nil {
		return nil, nil, fmt.Errorf("init storefront client: %w", err)
	}
	sess := session.NewStorefront(e.KV, client)
	client.SetTokenSource(sess)
	client.SetUnauthorizedHandler(sess.ForceLogout)
	return client, sess, nil
}

// Admin builds the admin client and its session.
func (e *Env) Admin() (*api.Client, *session.Store, error) {
	client, err := api.NewClient(e.Config.AdminAPIURL, api.WithTimeout(e.Config.Timeout))
	if err != nil {
		return nil, nil, fmt.Errorf("init admin client: %w", err)
	}
	sess := session.NewAdmin(e.KV, client)
	client.SetTokenSource(sess)
	client.SetUnauthorizedHandler(sess.ForceLogout)
	return client, sess, nil
}

// LogToFile sends the standard logger to the folio log while a TUI owns the
// terminal. The returned func closes the file.
func (e *Env) LogToFile() (func(), error) {
	path := e.Config.LogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := tea.LogToFile(path, "folio")
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return func() { _ = f.Close() }, nil
}

// RunShop boots the storefront TUI until the user quits or ctx is cancelled.
func RunShop(ctx context.Context, opts Options) error {
	env, err := Open(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	closeLog, err := env.LogToFile()
	if err != nil {
		return err
	}
	defer closeLog()

	client, sess, err := env.Storefront()
	if err != nil {
		return err
	}
	if err := sess.Restore(ctx); err != nil {
		log.Printf("starting signed out: %v", err)
	}

	shopCart, err := cart.Load(env.KV)
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}

	favs := favorites.New(client, sess)
	sess.OnChange(func(ev session.Event) {
		if !ev.Authenticated {
			favs.Reset()
		}
	})

	interval := defaultPollInterval
	if opts.PollEvery > 0 {
		interval = time.Duration(opts.PollEvery) * time.Second
	}

	store := &state.Store{}
	StartPoller(ctx, store, client, interval)

	log.Printf("storefront started against %s", client.BaseURL())
	return ui.Run(ui.Options{
		Context:   ctx,
		Client:    client,
		Session:   sess,
		Cart:      shopCart,
		Favorites: favs,
		Store:     store,
		Prefs:     env.Prefs,
		PrefsPath: env.prefsPath,
	})
}

// RunAdmin boots the admin console until the user quits or ctx is cancelled.
func RunAdmin(ctx context.Context, opts Options) error {
	env, err := Open(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	closeLog, err := env.LogToFile()
	if err != nil {
		return err
	}
	defer closeLog()

	client, sess, err := env.Admin()
	if err != nil {
		return err
	}
	if err := sess.Restore(ctx); err != nil {
		log.Printf("starting signed out: %v", err)
	}

	log.Printf("admin console started against %s", client.BaseURL())
	return ui.RunAdmin(ui.AdminOptions{
		Context:   ctx,
		Client:    client,
		Session:   sess,
		Prefs:     env.Prefs,
		PrefsPath: env.prefsPath,
	})
}
