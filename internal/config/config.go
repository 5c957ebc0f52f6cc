// Package config loads portal settings from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables and command-line flags override it.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string
	HTTPAddr string
	SiteURL  string

	DB DBConfig

	IdentityURL     string
	IdentityAnonKey string
	JWTSecret       string
	CookieSecure    bool

	ProjectCheckTimeout time.Duration
}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

func (c Config) Production() bool {
	return c.Env == "production"
}

// SecureCookies reports whether session cookies carry the Secure flag. It is
// always on in production.
func (c Config) SecureCookies() bool {
	return c.CookieSecure || c.Production()
}

var defaults = map[string]interface{}{
	"app_env":               "development",
	"http_addr":             ":8080",
	"site_url":              "http://localhost:3000",
	"db_host":               "127.0.0.1",
	"db_port":               "3306",
	"cookie_secure":         false,
	"project_check_timeout": 2500 * time.Millisecond,
}

// Load reads .env (if any) and returns the merged configuration. Flags in
// fs, when non-nil, take precedence over the environment; flag names use
// dashes in place of underscores (db-host for DB_HOST).
func Load(fs *pflag.FlagSet) (*Config, error) {
	// A missing .env is normal outside local development.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	if fs != nil {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
		})
	}

	cfg := &Config{
		Env:      v.GetString("app_env"),
		HTTPAddr: v.GetString("http_addr"),
		SiteURL:  strings.TrimRight(v.GetString("site_url"), "/"),
		DB: DBConfig{
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			Host:     v.GetString("db_host"),
			Port:     v.GetString("db_port"),
			Name:     v.GetString("db_name"),
		},
		IdentityURL:         strings.TrimRight(v.GetString("identity_url"), "/"),
		IdentityAnonKey:     v.GetString("identity_anon_key"),
		JWTSecret:           v.GetString("jwt_secret"),
		CookieSecure:        v.GetBool("cookie_secure"),
		ProjectCheckTimeout: v.GetDuration("project_check_timeout"),
	}
	return cfg, nil
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	result := c.check(map[string]string{
		"DB_USER":           c.DB.User,
		"DB_NAME":           c.DB.Name,
		"IDENTITY_URL":      c.IdentityURL,
		"IDENTITY_ANON_KEY": c.IdentityAnonKey,
		"JWT_SECRET":        c.JWTSecret,
	}, []string{"DB_USER", "DB_NAME", "IDENTITY_URL", "IDENTITY_ANON_KEY", "JWT_SECRET"})
	if c.ProjectCheckTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("PROJECT_CHECK_TIMEOUT must be positive, got %s", c.ProjectCheckTimeout))
	}
	return result.ErrorOrNil()
}

// ValidateDB checks only the settings needed to reach the database.
func (c *Config) ValidateDB() error {
	return c.check(map[string]string{
		"DB_USER": c.DB.User,
		"DB_NAME": c.DB.Name,
	}, []string{"DB_USER", "DB_NAME"}).ErrorOrNil()
}

func (c *Config) check(values map[string]string, order []string) *multierror.Error {
	var result *multierror.Error
	for _, key := range order {
		if values[key] == "" {
			result = multierror.Append(result, fmt.Errorf("environment variable %s is required", key))
		}
	}
	return result
}
