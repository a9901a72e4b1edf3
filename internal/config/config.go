package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	DefaultMongoURI   = "mongodb://localhost/playground"
	DefaultDatabase   = "playground"
	DefaultCollection = "courses"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Auth      AuthConfig
	MinIO     MinIOConfig
	Demo      DemoConfig
	LogLevel  string
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, empty when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

type AuthConfig struct {
	JWTSecret        string
	KeycloakURL      string
	KeycloakRealm    string
	KeycloakClientID string
}

// Enabled reports whether write routes must carry a bearer token.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" || (a.KeycloakURL != "" && a.KeycloakClientID != "")
}

// Issuer returns the OIDC issuer URL built from the Keycloak settings.
func (a AuthConfig) Issuer() string {
	if a.KeycloakRealm == "" {
		return a.KeycloakURL
	}
	return strings.TrimRight(a.KeycloakURL, "/") + "/realms/" + a.KeycloakRealm
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// DemoConfig selects what the playground command does on a single run.
type DemoConfig struct {
	Operation string
	CourseID  string
}

// LoadConfig loads configuration from environment variables and .env file.
// Defaults reproduce the local playground setup.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5020")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MONGODB_URI", DefaultMongoURI)
	viper.SetDefault("MONGODB_COLLECTION", DefaultCollection)
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_RPS", 10)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_USE_REDIS", false)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("MINIO_BUCKET", "courses")
	viper.SetDefault("DEMO_OPERATION", "create")

	uri := viper.GetString("MONGODB_URI")
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid MONGODB_URI: %w", err)
	}
	database := viper.GetString("MONGODB_DATABASE")
	if database == "" {
		database = cs.Database
	}
	if database == "" {
		database = DefaultDatabase
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:        uri,
			Database:   database,
			Collection: viper.GetString("MONGODB_COLLECTION"),
			Timeout:    time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Auth: AuthConfig{
			JWTSecret:        viper.GetString("AUTH_JWT_SECRET"),
			KeycloakURL:      viper.GetString("KEYCLOAK_URL"),
			KeycloakRealm:    viper.GetString("KEYCLOAK_REALM"),
			KeycloakClientID: viper.GetString("KEYCLOAK_CLIENT_ID"),
		},
		MinIO: MinIOConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey: viper.GetString("MINIO_SECRET_KEY"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
		},
		Demo: DemoConfig{
			Operation: strings.ToLower(viper.GetString("DEMO_OPERATION")),
			CourseID:  viper.GetString("DEMO_COURSE_ID"),
		},
		LogLevel: viper.GetString("LOG_LEVEL"),
	}

	if cfg.MongoDB.Timeout <= 0 {
		return nil, fmt.Errorf("MONGODB_TIMEOUT must be positive, got %d", viper.GetInt("MONGODB_TIMEOUT"))
	}
	if cfg.MongoDB.Collection == "" {
		return nil, fmt.Errorf("MONGODB_COLLECTION must not be empty")
	}
	return cfg, nil
}
