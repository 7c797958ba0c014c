package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:             "8080",
		Env:              "development",
		DBDriver:         "postgres",
		DBSchemaMode:     "hybrid",
		DBPassword:       "secure-password",
		DBSSLMode:        "require",
		JWTSecret:        "secure-secret-at-least-32-chars-long",
		PostsPageSize:    9,
		SearchPageSize:   10,
		CommentsPageSize: 2,
		MaxPageSize:      100,
		BlobMaxUploadMB:  10,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "oracle" }, true},
		{"sqlite driver", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"mysql driver", func(c *Config) { c.DBDriver = "mysql" }, false},
		{"unknown schema mode", func(c *Config) { c.DBSchemaMode = "magic" }, true},
		{"zero posts page size", func(c *Config) { c.PostsPageSize = 0 }, true},
		{"max page below default", func(c *Config) { c.MaxPageSize = 5 }, true},
		{"zero upload size", func(c *Config) { c.BlobMaxUploadMB = 0 }, true},
		{"production default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"production short secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = "short"
		}, true},
		{"production weak db password", func(c *Config) {
			c.Env = "prod"
			c.DBPassword = "password"
		}, true},
		{"production postgres without tls", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "disable"
		}, true},
		{"production sqlite ignores db password", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
			c.DBPassword = ""
		}, false},
		{"production hardened", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_DRIVER", "  SQLite ")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("COMMENTS_PAGE_SIZE", "4")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, 4, c.CommentsPageSize)
	assert.Equal(t, 9, c.PostsPageSize)
	assert.Equal(t, 10, c.SearchPageSize)
}

func TestConfig_PostCacheTTL(t *testing.T) {
	c := validConfig()
	c.CachePostTTLSeconds = 30
	assert.Equal(t, "30s", c.PostCacheTTL().String())
}
