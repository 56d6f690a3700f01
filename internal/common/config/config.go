package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Postgres struct {
		Host            string        `env:"POSTGRES_HOST" envDefault:"localhost"`
		Port            int           `env:"POSTGRES_PORT" envDefault:"5432"`
		User            string        `env:"POSTGRES_USER" envDefault:"postgres"`
		Password        string        `env:"POSTGRES_PASSWORD" envDefault:""`
		Database        string        `env:"POSTGRES_DB" envDefault:"accounts"`
		SSLMode         string        `env:"POSTGRES_SSLMODE" envDefault:"disable"`
		MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"25"`
		MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"5m"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Session struct {
		CookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"session_id"`
		TTL          time.Duration `env:"SESSION_TTL" envDefault:"24h"`
		CookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	}

	Auth struct {
		BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`
	}

	Storage struct {
		// disk or s3
		Driver     string `env:"STORAGE_DRIVER" envDefault:"disk"`
		UploadsDir string `env:"UPLOADS_DIR" envDefault:"uploads"`

		S3Region       string `env:"S3_REGION" envDefault:"us-east-1"`
		S3Bucket       string `env:"S3_BUCKET" envDefault:""`
		S3BaseEndpoint string `env:"S3_BASE_ENDPOINT" envDefault:""`
		S3AccessKey    string `env:"S3_ACCESS_KEY" envDefault:""`
		S3SecretKey    string `env:"S3_SECRET_KEY" envDefault:""`
	}
}

// GetDSN builds the lib/pq connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host, c.Postgres.Port, c.Postgres.User, c.Postgres.Password,
		c.Postgres.Database, c.Postgres.SSLMode)
}

// RedisAddr returns the host:port address for the Redis client.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func Load() *Config {
	// .env is optional; production environments set variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
