package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		jwtSecret   string
		dbPassword  string
		port        string
		expectError bool
	}{
		{"Development with defaults", "development", "your-secret-key-change-in-production", "password", "8480", false},
		{"Production with default secret", "production", "your-secret-key-change-in-production", "strong-pw", "8480", true},
		{"Production with short secret", "production", "short", "strong-pw", "8480", true},
		{"Production with strong secret", "production", "secure-secret-at-least-32-chars-long", "strong-pw", "8480", false},
		{"Prod with default DB password", "prod", "secure-secret-at-least-32-chars-long", "password", "8480", true},
		{"Prod with empty DB password", "prod", "secure-secret-at-least-32-chars-long", "", "8480", true},
		{"Missing port", "development", "secure-secret-at-least-32-chars-long", "password", "", true},
		{"Missing JWT secret", "development", "", "password", "8480", true},
		{"Test env is lenient", "test", "test_secret", "", "8480", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Env:        tt.env,
				JWTSecret:  tt.jwtSecret,
				DBPassword: tt.dbPassword,
				Port:       tt.port,
				RedisURL:   "localhost:6379",
			}

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "8480", c.Port)
	assert.Equal(t, "diorama", c.DBName)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, "development", c.Env)
	assert.False(t, c.TracingEnabled)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("PORT")
	defer os.Unsetenv("REDIS_URL")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("PORT", "9999")
	os.Setenv("REDIS_URL", "redis.internal:6380")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "9999", c.Port)
	assert.Equal(t, "redis.internal:6380", c.RedisURL)
}
