package config

import (
	"fmt"
	"time"

	"rusithink-backend/pkg/constants"
	"rusithink-backend/pkg/env"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cassandra CassandraConfig
	Redis     RedisConfig
	MinIO     MinIOConfig
	JWT       JWTConfig
	Admin     AdminConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int
	Environment string // development, staging, production
	ServiceName string
}

// DatabaseConfig holds Postgres configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// CassandraConfig holds Cassandra configuration
type CassandraConfig struct {
	Hosts    []string
	Keyspace string
	Username string
	Password string
	Timeout  time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// MinIOConfig holds MinIO configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret      string
	TokenExpiry time.Duration
}

// AdminConfig holds the seeded admin console account
type AdminConfig struct {
	Username string
	Email    string
	Name     string
	Password string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// Load assembles configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        env.GetInt("SERVER_PORT", 8080),
			Environment: env.GetString("ENVIRONMENT", "development"),
			ServiceName: env.GetString("SERVICE_NAME", "rusithink-backend"),
		},
		Database: DatabaseConfig{
			Host:     env.GetString("DB_HOST", "localhost"),
			Port:     env.GetInt("DB_PORT", 5432),
			User:     env.GetString("DB_USER", "postgres"),
			Password: env.GetStringFromFile("DB_PASSWORD", ""),
			Database: env.GetString("DB_NAME", "rusithink"),
			SSLMode:  env.GetString("DB_SSLMODE", "disable"),
		},
		Cassandra: CassandraConfig{
			Hosts:    []string{env.GetString("CASSANDRA_HOST", "localhost")},
			Keyspace: env.GetString("CASSANDRA_KEYSPACE", "rusithink_ks"),
			Username: env.GetStringFromFile("CASSANDRA_USER", ""),
			Password: env.GetStringFromFile("CASSANDRA_PASSWORD", ""),
			Timeout:  env.GetDuration("CASSANDRA_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			Host:     env.GetString("REDIS_HOST", "localhost"),
			Port:     env.GetInt("REDIS_PORT", 6379),
			Password: env.GetStringFromFile("REDIS_PASSWORD", ""),
			DB:       env.GetInt("REDIS_DB", 0),
			PoolSize: env.GetInt("REDIS_POOL_SIZE", 10),
		},
		MinIO: MinIOConfig{
			Endpoint:  env.GetString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: env.GetStringFromFile("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: env.GetStringFromFile("MINIO_SECRET_KEY", "minioadmin"),
			UseSSL:    env.GetBool("MINIO_USE_SSL", false),
			Bucket:    env.GetString("MINIO_BUCKET", "rusithink-attachments"),
		},
		JWT: JWTConfig{
			Secret:      env.GetStringFromFile("JWT_SECRET", ""),
			TokenExpiry: env.GetDuration("JWT_TOKEN_EXPIRY", constants.AccessTokenExpiry),
		},
		Admin: AdminConfig{
			Username: env.GetString("ADMIN_USERNAME", "rusithink"),
			Email:    env.GetString("ADMIN_EMAIL", "admin@rusithink.local"),
			Name:     env.GetString("ADMIN_NAME", "RusiThink"),
			Password: env.GetStringFromFile("ADMIN_PASSWORD", ""),
		},
		Log: LogConfig{
			Level:  env.GetString("LOG_LEVEL", "info"),
			Format: env.GetString("LOG_FORMAT", "json"),
		},
	}
}

// Validate checks configuration required for startup
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if c.Admin.Password == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required")
	}
	return nil
}

// DSN returns the Postgres connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// Addr returns the Redis address
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
