package config

import (
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PROJECT_CHECK_TIMEOUT", "")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 2500*time.Millisecond, cfg.ProjectCheckTimeout)
	assert.Equal(t, "3306", cfg.DB.Port)
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("DB_NAME", "mod")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("SITE_URL", "https://portal.example.com/")
	t.Setenv("PROJECT_CHECK_TIMEOUT", "1s")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("http-addr", ":8080", "")
	require.NoError(t, fs.Parse([]string{"--http-addr", ":7000"}))

	cfg, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, "mod", cfg.DB.Name)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, "https://portal.example.com", cfg.SiteURL)
	assert.Equal(t, time.Second, cfg.ProjectCheckTimeout)
}

func TestValidate_ReportsAllMissing(t *testing.T) {
	cfg := &Config{ProjectCheckTimeout: time.Second, DB: DBConfig{User: "u"}}

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 4)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidate_OK(t *testing.T) {
	cfg := &Config{
		DB:                  DBConfig{User: "u", Name: "mod"},
		IdentityURL:         "https://id.example.com",
		IdentityAnonKey:     "anon",
		JWTSecret:           "secret",
		ProjectCheckTimeout: time.Second,
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidateDB_IgnoresIdentitySettings(t *testing.T) {
	cfg := &Config{DB: DBConfig{User: "u", Name: "mod"}}
	assert.NoError(t, cfg.ValidateDB())

	cfg.DB.Name = ""
	err := cfg.ValidateDB()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_NAME")
}

func TestSecureCookies(t *testing.T) {
	assert.False(t, Config{Env: "development"}.SecureCookies())
	assert.True(t, Config{Env: "development", CookieSecure: true}.SecureCookies())
	assert.True(t, Config{Env: "production"}.SecureCookies())
}
