package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:             "8375",
			Env:              "development",
			DBPassword:       "password",
			DBSSLMode:        "disable",
			StorageBucket:    "posts",
			StorageSecretKey: "minioadmin",
		}
	}

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"Development Defaults", func(*Config) {}, false},
		{"Missing Port", func(c *Config) { c.Port = "" }, true},
		{"Missing Bucket", func(c *Config) { c.StorageBucket = "" }, true},
		{"Production Default DB Password", func(c *Config) { c.Env = "production" }, true},
		{"Production Default Storage Secret", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "s3cure"
		}, true},
		{"Production Hardened", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "s3cure"
			c.StorageSecretKey = "s3cret"
			c.DBSSLMode = "require"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
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

func TestLoadConfig_DefaultsAndEnvOverride(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "9999")
	t.Setenv("WALL_AUTHOR", "tester")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "tester", cfg.Author)
	// Untouched keys fall back to defaults.
	assert.Equal(t, "wall", cfg.DBName)
	assert.Equal(t, "posts", cfg.StorageBucket)
	assert.Equal(t, "stdout", cfg.TracingExporter)
}
