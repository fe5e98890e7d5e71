package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App   AppConfig
	Log   LogConfig
	DB    DBConfig
	Redis RedisConfig
	HTTP  HTTPConfig
	GRPC  GRPCConfig
	JWT   JWTConfig
	Photo PhotoConfig
}

type AppConfig struct {
	ENV string `env:"APP_ENV" envDefault:"production"`
}

type LogConfig struct {
	Level     string `env:"LOG_LEVEL" envDefault:"info"`
	Format    string `env:"LOG_FORMAT" envDefault:"text"`
	Component string `env:"LOG_COMPONENT" envDefault:"dating_api"`
	Source    bool   `env:"LOG_SOURCE"`
}

type DBConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"mysql"`
	DSN      string `env:"DB_DSN"`
	MySQLDSN string `env:"MYSQL_DSN"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT"`
	User     string `env:"DB_USER" envDefault:"root"`
	Password string `env:"DB_PASSWORD" envDefault:"root"`
	Name     string `env:"DB_NAME" envDefault:"dating"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type HTTPConfig struct {
	Host        string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port        string `env:"HTTP_PORT" envDefault:"5000"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
}

type GRPCConfig struct {
	Host           string        `env:"GRPC_HOST" envDefault:"127.0.0.1"`
	Port           string        `env:"GRPC_PORT" envDefault:"50051"`
	// HealthInterval is how often dependencies are re-pinged for the health service.
	HealthInterval time.Duration `env:"GRPC_HEALTH_INTERVAL" envDefault:"15s"`
}

type JWTConfig struct {
	Secret string        `env:"JWT_SECRET"`
	TTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`
}

// PhotoConfig controls the local photo storage backend.
type PhotoConfig struct {
	Dir     string `env:"PHOTO_DIR" envDefault:"./data/photos"`
	BaseURL string `env:"PHOTO_BASE_URL" envDefault:"http://localhost:5000/photos"`
	Size    int    `env:"PHOTO_SIZE" envDefault:"500"`
}

// New loads an optional .env file and parses the environment into a Config.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	switch cfg.DB.Driver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}

	return cfg, nil
}

// IsDevelopment reports whether APP_ENV selects development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.App.ENV, "development")
}

// DSNFor returns the connection string for the configured driver.
// An explicit DB_DSN (or MYSQL_DSN for mysql) wins over the individual parts.
func (c *DBConfig) DSNFor() string {
	if c.DSN != "" {
		return c.DSN
	}

	switch c.Driver {
	case DriverPostgres:
		port := c.Port
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.Host, port, c.User, c.Password, c.Name,
		)
	case DriverSQLite:
		return c.Name + ".db"
	default:
		if c.MySQLDSN != "" {
			return c.MySQLDSN
		}
		port := c.Port
		if port == "" {
			port = "3306"
		}
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			c.User, c.Password, c.Host, port, c.Name,
		)
	}
}
