package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "development",
		Port:                     "8375",
		DBDriver:                 "postgres",
		DBSSLMode:                "disable",
		DBPassword:               "secure-password",
		TokenTTLHours:            720,
		ImageMaxUploadSizeKB:     2048,
		DBConnMaxLifetimeMinutes: 5,
		StorageDriver:            "local",
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with empty SSL mode", "prod", "", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"negative token ttl", func(c *Config) { c.TokenTTLHours = -1 }},
		{"zero upload size", func(c *Config) { c.ImageMaxUploadSizeKB = 0 }},
		{"unknown db driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"unknown storage driver", func(c *Config) { c.StorageDriver = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.StorageDriver = "s3" }},
		{"sqlite in production", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.DBDriver = "sqlite"
		}},
		{"default password in production", func(c *Config) {
			c.Env = "production"
			c.DBSSLMode = "require"
			c.DBPassword = "password"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	t.Run("zero token ttl disables expiry", func(t *testing.T) {
		c := validConfig()
		c.TokenTTLHours = 0
		assert.NoError(t, c.Validate())
	})

	t.Run("s3 with bucket", func(t *testing.T) {
		c := validConfig()
		c.StorageDriver = "s3"
		c.S3Bucket = "uploads"
		assert.NoError(t, c.Validate())
	})
}

func TestLoadConfig_Normalization(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")
	t.Setenv("STORAGE_DRIVER", " Local ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "local", c.StorageDriver)
	assert.Equal(t, 2048, c.ImageMaxUploadSizeKB)
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Setenv("APP_ENV", "development")
	t.Setenv("TOKEN_TTL_HOURS", "12")
	t.Setenv("S3_BUCKET", "travel-media")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 12, c.TokenTTLHours)
	assert.Equal(t, "travel-media", c.S3Bucket)
}

func TestLoadConfig_MissingProfile(t *testing.T) {
	t.Cleanup(viper.Reset)

	t.Setenv("APP_ENV", "staging")

	_, err := LoadConfig()
	assert.Error(t, err)
}
