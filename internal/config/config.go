package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures where folio talks to and where it keeps local state.
type Config struct {
	APIURL      string
	AdminAPIURL string
	StateDir    string
	Storage     string
	Timeout     time.Duration
	PageSize    int
}

const (
	defaultConfigPath  = "~/.config/folio/config.toml"
	defaultStateDir    = "~/.local/share/folio"
	defaultAPIURL      = "http://localhost:8080"
	defaultAdminAPIURL = "http://localhost:8081"
	defaultStorage     = "file"
	defaultTimeout     = 10 * time.Second
	defaultPageSize    = 10
	maxPageSize        = 100
)

// Environment variables that override the file.
const (
	EnvAPIURL      = "FOLIO_API_URL"
	EnvAdminAPIURL = "FOLIO_ADMIN_API_URL"
	EnvStateDir    = "FOLIO_STATE_DIR"
	EnvStorage     = "FOLIO_STORAGE"
	EnvTimeout     = "FOLIO_TIMEOUT"
)

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment without overriding variables that are already set. An empty
// path means ".env" in the working directory; a missing file is not an error.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Load locates and parses the folio config, falling back to defaults when
// missing, then applies environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw struct {
		APIURL      string `toml:"api_url"`
		AdminAPIURL string `toml:"admin_api_url"`
		StateDir    string `toml:"state_dir"`
		Storage     string `toml:"storage"`
		Timeout     string `toml:"timeout"`
		PageSize    int    `toml:"page_size"`
	}

	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	overrideFromEnv(&raw.APIURL, EnvAPIURL)
	overrideFromEnv(&raw.AdminAPIURL, EnvAdminAPIURL)
	overrideFromEnv(&raw.StateDir, EnvStateDir)
	overrideFromEnv(&raw.Storage, EnvStorage)
	overrideFromEnv(&raw.Timeout, EnvTimeout)

	cfg := Config{
		APIURL:      orDefault(raw.APIURL, defaultAPIURL),
		AdminAPIURL: orDefault(raw.AdminAPIURL, defaultAdminAPIURL),
		StateDir:    mustExpand(orDefault(raw.StateDir, defaultStateDir)),
		Storage:     strings.ToLower(orDefault(raw.Storage, defaultStorage)),
		Timeout:     defaultTimeout,
		PageSize:    raw.PageSize,
	}

	if t := strings.TrimSpace(raw.Timeout); t != "" {
		d, err := parseTimeout(t)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout %q: %w", t, err)
		}
		cfg.Timeout = d
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	if cfg.PageSize > maxPageSize {
		cfg.PageSize = maxPageSize
	}

	return cfg, nil
}

// LogPath returns the client log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.StateDir) == "" {
		return mustExpand(defaultStateDir + "/folio.log")
	}
	return filepath.Join(c.StateDir, "folio.log")
}

// parseTimeout accepts Go durations ("15s") or bare seconds ("15").
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("must be positive")
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive")
	}
	return d, nil
}

func overrideFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = v
	}
}

func orDefault(v, def string) string {
	if trimmed := strings.TrimSpace(v); trimmed != "" {
		return trimmed
	}
	return def
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
