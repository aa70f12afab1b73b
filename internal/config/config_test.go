package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadFromDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"JWT_SECRET": testSecret})
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, uint64(100), cfg.Mongo.MaxPoolSize)
	assert.True(t, cfg.Mongo.RetryWrites)
	assert.Equal(t, 3, cfg.Mongo.RetryAttempts)
	assert.Equal(t, "scratch_development", cfg.DatabaseName())
}

func TestLoadFromOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"JWT_SECRET":                     testSecret,
		"APP_ENV":                        "production",
		"MONGO_URI":                      "mongodb://db:27017/?replicaSet=rs0",
		"MONGO_DATABASE":                 "music",
		"MONGO_MAX_POOL_SIZE":            "20",
		"MONGO_MIN_POOL_SIZE":            "2",
		"MONGO_SERVER_SELECTION_TIMEOUT": "2s",
		"MONGO_RETRY_READS":              "false",
	})
	require.NoError(t, err)

	assert.Equal(t, "music", cfg.DatabaseName())
	assert.Equal(t, uint64(20), cfg.Mongo.MaxPoolSize)
	assert.Equal(t, 2*time.Second, cfg.Mongo.ServerSelectionTimeout)
	assert.False(t, cfg.Mongo.RetryReads)
	assert.True(t, cfg.IsProduction())
}

func TestLoadFromValidation(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{"missing secret", map[string]string{}, "JWTSecret is required"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "JWTSecret must be at least 32"},
		{
			name:    "pool bounds inverted",
			vars:    map[string]string{"JWT_SECRET": testSecret, "MONGO_MAX_POOL_SIZE": "5", "MONGO_MIN_POOL_SIZE": "10"},
			wantErr: "Mongo.MinPoolSize must not exceed MaxPoolSize",
		},
		{"unknown env", map[string]string{"JWT_SECRET": testSecret, "APP_ENV": "qa"}, "AppEnv must be one of"},
		{"bad duration", map[string]string{"JWT_SECRET": testSecret, "JWT_ACCESS_EXPIRY": "soon"}, "failed to parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.vars)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMongoConfigValidate(t *testing.T) {
	m := MongoConfig{URI: "", Database: "x", ConnectTimeout: time.Second, ServerSelectionTimeout: time.Second, MaxPoolSize: 1}
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "URI is required")

	m.URI = "mongodb://localhost"
	assert.NoError(t, m.Validate())
}

func TestDatabaseName(t *testing.T) {
	m := MongoConfig{Database: "scratch"}
	assert.Equal(t, "scratch", m.DatabaseName(EnvProduction))
	assert.Equal(t, "scratch_staging", m.DatabaseName(EnvStaging))
	assert.Equal(t, "scratch_test", m.DatabaseName(EnvTest))
}
