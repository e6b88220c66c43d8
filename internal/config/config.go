// Package config resolves client settings from defaults, a JSON file, a
// .env file and TODO_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvPrefix       = "TODO"
	DefaultAPIURL   = "http://localhost:8173/api"
	DefaultTimeout  = 10 * time.Second
	DefaultTheme    = "classic"
	DefaultLogLevel = "info"
)

// Config is the resolved client configuration.
type Config struct {
	APIURL   string        `validate:"required,http_url"`
	Timeout  time.Duration `validate:"gt=0"`
	Origin   string        `validate:"omitempty,http_url"`
	Theme    string        `validate:"oneof=classic neon mono"`
	LogFile  string
	LogLevel string `validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// DefaultPath is ~/.tada/config.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tada", "config.json"), nil
}

// LoadEnv reads .env files into the process environment. Missing files are
// skipped and variables already set win.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load builds the configuration. An explicit path must exist; with an empty
// path the default location is read if present.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("origin", "")
	v.SetDefault("theme", DefaultTheme)
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", DefaultLogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// VITE_API_URL is what the web frontend reads; accept it as a fallback.
	if err := v.BindEnv("api_url", EnvPrefix+"_API_URL", "VITE_API_URL"); err != nil {
		return Config{}, err
	}

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	if err := readFile(v, path, explicit); err != nil {
		return Config{}, err
	}

	timeout, err := time.ParseDuration(strings.TrimSpace(v.GetString("timeout")))
	if err != nil {
		return Config{}, fmt.Errorf("config: timeout: %w", err)
	}
	cfg := Config{
		APIURL:   strings.TrimRight(strings.TrimSpace(v.GetString("api_url")), "/"),
		Timeout:  timeout,
		Origin:   strings.TrimSpace(v.GetString("origin")),
		Theme:    strings.ToLower(strings.TrimSpace(v.GetString("theme"))),
		LogFile:  strings.TrimSpace(v.GetString("log_file")),
		LogLevel: strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(v *viper.Viper, path string, mustExist bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !mustExist {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("config: %w", err)
	}
	fe := verrs[0]
	switch fe.Field() {
	case "APIURL":
		return fmt.Errorf("config: api_url must be an absolute http(s) URL, got %q", c.APIURL)
	case "Origin":
		return fmt.Errorf("config: origin must be an absolute http(s) URL, got %q", c.Origin)
	case "Timeout":
		return fmt.Errorf("config: timeout must be positive, got %s", c.Timeout)
	case "Theme":
		return fmt.Errorf("config: theme must be one of classic, neon, mono, got %q", c.Theme)
	case "LogLevel":
		return fmt.Errorf("config: log_level must be one of debug, info, warn, error, got %q", c.LogLevel)
	}
	return fmt.Errorf("config: %s is invalid", fe.Field())
}
