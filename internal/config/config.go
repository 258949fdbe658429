package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Keycloak  KeycloakConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	MinIO     MinIOConfig
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

// KeycloakConfig describes the OIDC identity provider. IssuerURL wins over URL+Realm.
type KeycloakConfig struct {
	URL       string
	Realm     string
	ClientID  string
	IssuerURL string
}

// Issuer returns the OIDC issuer to discover, or "" when OIDC is not configured.
func (k KeycloakConfig) Issuer() string {
	if k.IssuerURL != "" {
		return k.IssuerURL
	}
	if k.URL == "" {
		return ""
	}
	if k.Realm == "" {
		return k.URL
	}
	return strings.TrimRight(k.URL, "/") + "/realms/" + k.Realm
}

// JWTConfig configures the shared-secret (HS256) identity provider.
type JWTConfig struct {
	Secret             string
	AccessTokenTTL     time.Duration
	AllowInsecureToken bool
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("MONGODB_DATABASE", "assignment-11-tutors")
	v.SetDefault("MONGODB_COLLECTION", "tutorials")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_ACCESS_TOKEN_TTL", 60)
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("MINIO_BUCKET", "tutorials")
	v.SetDefault("LOG_LEVEL", "info")

	// PORT is what most hosting platforms inject; SERVER_PORT overrides it.
	port := v.GetString("SERVER_PORT")
	if port == "" {
		port = v.GetString("PORT")
	}
	if port == "" {
		port = "5000"
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         port,
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  time.Duration(v.GetInt("SERVER_READ_TIMEOUT")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT")) * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:        v.GetString("MONGODB_URI"),
			Database:   v.GetString("MONGODB_DATABASE"),
			Collection: v.GetString("MONGODB_COLLECTION"),
			Timeout:    time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Keycloak: KeycloakConfig{
			URL:       v.GetString("KEYCLOAK_URL"),
			Realm:     v.GetString("KEYCLOAK_REALM"),
			ClientID:  v.GetString("KEYCLOAK_CLIENT_ID"),
			IssuerURL: v.GetString("OIDC_ISSUER_URL"),
		},
		JWT: JWTConfig{
			Secret:             v.GetString("JWT_SECRET"),
			AccessTokenTTL:     time.Duration(v.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
			AllowInsecureToken: v.GetBool("ALLOW_INSECURE_TOKEN"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	if cfg.MongoDB.URI == "" {
		return nil, fmt.Errorf("environment variable MONGODB_URI is required")
	}

	return cfg, nil
}

// Addr is the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.TrimRight(p, "/"))
		}
	}
	return out
}
