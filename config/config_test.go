package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, 7, cfg.Auth.TokenTTLDays)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "-sub", cfg.PubSub.SubscriptionSuffix)
	assert.Empty(t, cfg.MQBackend)
	assert.Empty(t, cfg.StorageBackend)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_BACKEND", "mongo")
	t.Setenv("TOKEN_TTL_DAYS", "1")
	t.Setenv("DB_USE_SSL", "true")
	t.Setenv("MQ_BACKEND", "rabbitmq")

	cfg := LoadConfig()

	assert.Equal(t, "production", cfg.Env)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "mongo", cfg.StoreBackend)
	assert.Equal(t, 1, cfg.Auth.TokenTTLDays)
	assert.True(t, cfg.Database.UseSSL)
	assert.Equal(t, "rabbitmq", cfg.MQBackend)
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG_TRUE", "true")
	t.Setenv("FLAG_ONE", "1")
	t.Setenv("FLAG_OFF", "no")

	assert.True(t, getEnvBool("FLAG_TRUE", false))
	assert.True(t, getEnvBool("FLAG_ONE", false))
	assert.False(t, getEnvBool("FLAG_OFF", true))
	assert.True(t, getEnvBool("FLAG_MISSING", true))
}
