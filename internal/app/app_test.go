package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/five82/folio/internal/config"
	"github.com/five82/folio/internal/storage"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	for _, key := range []string{config.EnvAPIURL, config.EnvAdminAPIURL, config.EnvStateDir, config.EnvStorage, config.EnvTimeout} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestOpen_WiresConfigAndStorage(t *testing.T) {
	stateDir := t.TempDir()
	cfgPath := writeConfig(t, "api_url = \"http://shop.test\"\nadmin_api_url = \"http://admin.test\"\nstate_dir = \""+stateDir+"\"\npage_size = 20\n")

	env, err := Open(Options{
		ConfigPath: cfgPath,
		EnvFile:    filepath.Join(t.TempDir(), "missing.env"),
		PrefsPath:  filepath.Join(t.TempDir(), "prefs.toml"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer env.Close()

	if env.Prefs.PageSize != 20 {
		t.Fatalf("page size = %d, want config default 20", env.Prefs.PageSize)
	}
	if err := env.KV.Set(storage.KeyCart, "[]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(stateDir, "storage.json")); err != nil {
		t.Fatalf("storage file not written: %v", err)
	}

	shop, shopSess, err := env.Storefront()
	if err != nil {
		t.Fatalf("Storefront: %v", err)
	}
	if shop.BaseURL() != "http://shop.test" {
		t.Fatalf("storefront base = %q", shop.BaseURL())
	}
	if shopSess.Authenticated() {
		t.Fatalf("fresh session should be anonymous")
	}

	admin, _, err := env.Admin()
	if err != nil {
		t.Fatalf("Admin: %v", err)
	}
	if admin.BaseURL() != "http://admin.test" {
		t.Fatalf("admin base = %q", admin.BaseURL())
	}
}

func TestOpen_APIURLOverridesBoth(t *testing.T) {
	cfgPath := writeConfig(t, "state_dir = \""+t.TempDir()+"\"\n")
	env, err := Open(Options{
		ConfigPath: cfgPath,
		EnvFile:    filepath.Join(t.TempDir(), "missing.env"),
		PrefsPath:  filepath.Join(t.TempDir(), "prefs.toml"),
		APIURL:     "http://127.0.0.1:9999",
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer env.Close()
	if env.Config.APIURL != "http://127.0.0.1:9999" || env.Config.AdminAPIURL != "http://127.0.0.1:9999" {
		t.Fatalf("urls = %q / %q", env.Config.APIURL, env.Config.AdminAPIURL)
	}
}

func TestRestoreWithoutTokenStaysAnonymous(t *testing.T) {
	cfgPath := writeConfig(t, "state_dir = \""+t.TempDir()+"\"\n")
	env, err := Open(Options{
		ConfigPath: cfgPath,
		EnvFile:    filepath.Join(t.TempDir(), "missing.env"),
		PrefsPath:  filepath.Join(t.TempDir(), "prefs.toml"),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer env.Close()

	_, sess, err := env.Admin()
	if err != nil {
		t.Fatalf("Admin: %v", err)
	}
	if err := sess.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if sess.Authenticated() {
		t.Fatalf("no stored token should mean anonymous")
	}
}
