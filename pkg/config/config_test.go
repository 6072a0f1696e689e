package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_BACKEND", "KAFKA_BROKERS", "PUBLISH_STRATEGY", "IDEMPOTENT_WRITES", "PUSH_ENABLED", "MONGO_DATABASE"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendFirestore, cfg.StoreBackend)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "both", cfg.PublishStrategy)
	assert.False(t, cfg.IdempotentWrites)
	assert.True(t, cfg.PushEnabled)
	assert.Equal(t, "blog", cfg.MongoDatabase)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", BackendMongo)
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("IDEMPOTENT_WRITES", "true")
	t.Setenv("PUSH_ENABLED", "0")
	t.Setenv("PUBLISH_STRATEGY", "followers")

	cfg := Load()

	assert.Equal(t, BackendMongo, cfg.StoreBackend)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.IdempotentWrites)
	assert.False(t, cfg.PushEnabled)
	assert.Equal(t, "followers", cfg.PublishStrategy)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"firestore", Config{StoreBackend: BackendFirestore, EventsJWTSecret: "s"}, false},
		{"postgres without url", Config{StoreBackend: BackendPostgres, EventsJWTSecret: "s"}, true},
		{"postgres", Config{StoreBackend: BackendPostgres, PostgresUrl: "postgres://x", EventsJWTSecret: "s"}, false},
		{"mongo without uri", Config{StoreBackend: BackendMongo, EventsJWTSecret: "s"}, true},
		{"unknown backend", Config{StoreBackend: "redis", EventsJWTSecret: "s"}, true},
		{"missing secret", Config{StoreBackend: BackendFirestore}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
