package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validBaseConfig() *Config {
	return &Config{
		JWTSecret:  "some-development-secret",
		Port:       "8461",
		DBDriver:   "postgres",
		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "user",
		DBPassword: "password",
		DBName:     "techfeed",
		Env:        "development",
	}
}

func TestConfigValidate_Development(t *testing.T) {
	cfg := validBaseConfig()
	assert.NoError(t, cfg.Validate())

	cfg.DBDriver = "sqlite"
	cfg.DBName = ":memory:"
	assert.NoError(t, cfg.Validate(), "sqlite is allowed outside production")
}

func TestConfigValidate_RequiredFields(t *testing.T) {
	cfg := validBaseConfig()
	cfg.Port = ""
	assert.Error(t, cfg.Validate())

	cfg = validBaseConfig()
	cfg.JWTSecret = ""
	assert.Error(t, cfg.Validate())

	cfg = validBaseConfig()
	cfg.DBDriver = "mysql"
	assert.Error(t, cfg.Validate())
}

func TestConfigValidate_Production(t *testing.T) {
	strong := func() *Config {
		cfg := validBaseConfig()
		cfg.Env = "production"
		cfg.JWTSecret = strings.Repeat("s", 40)
		cfg.DBPassword = "a-strong-database-password"
		return cfg
	}

	assert.NoError(t, strong().Validate())

	cfg := strong()
	cfg.JWTSecret = "your-secret-key-change-in-production"
	assert.Error(t, cfg.Validate(), "default JWT secret rejected in production")

	cfg = strong()
	cfg.JWTSecret = "short"
	assert.Error(t, cfg.Validate(), "short JWT secret rejected in production")

	cfg = strong()
	cfg.DBDriver = "sqlite"
	assert.Error(t, cfg.Validate(), "sqlite rejected in production")

	cfg = strong()
	cfg.DBPassword = "password"
	assert.Error(t, cfg.Validate(), "weak DB password rejected in production")
}
