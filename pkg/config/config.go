package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends
const (
	BackendFirestore = "firestore"
	BackendPostgres  = "postgres"
	BackendMongo     = "mongo"
)

type Config struct {
	Port                    string
	Env                     string
	StoreBackend            string
	FirebaseCredentialsPath string
	FirebaseProjectID       string
	PostgresUrl             string
	MongoURI                string
	MongoDatabase           string
	KafkaBrokers            []string
	KafkaTopic              string
	KafkaGroupID            string
	EventsJWTSecret         string
	PublishStrategy         string
	IdempotentWrites        bool
	PushEnabled             bool
}

// Load reads the configuration from the environment, after loading a .env file if present
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		StoreBackend:            getEnv("STORE_BACKEND", BackendFirestore),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		PostgresUrl:             getEnv("POSTGRES_URL", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "blog"),
		KafkaBrokers:            getEnvList("KAFKA_BROKERS"),
		KafkaTopic:              getEnv("KAFKA_TOPIC", "blog-events"),
		KafkaGroupID:            getEnv("KAFKA_GROUP_ID", "notifier"),
		EventsJWTSecret:         getEnv("EVENTS_JWT_SECRET", ""),
		PublishStrategy:         getEnv("PUBLISH_STRATEGY", "both"),
		IdempotentWrites:        getEnvBool("IDEMPOTENT_WRITES", false),
		PushEnabled:             getEnvBool("PUSH_ENABLED", true),
	}
}

// Validate checks that the settings required by the selected backend are present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendFirestore:
	case BackendPostgres:
		if c.PostgresUrl == "" {
			return fmt.Errorf("POSTGRES_URL environment variable not set")
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI environment variable not set")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.EventsJWTSecret == "" {
		return fmt.Errorf("EVENTS_JWT_SECRET environment variable not set")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return v
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
