// Package config loads process configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable, e.g. ANONMATCH_TELEGRAM_TOKEN.
const EnvPrefix = "ANONMATCH"

type Config struct {
	Postgres  PostgresConfig  `envconfig:"POSTGRES"`
	Redis     RedisConfig     `envconfig:"REDIS"`
	Telegram  TelegramConfig  `envconfig:"TELEGRAM"`
	HTTP      HTTPConfig      `envconfig:"HTTP"`
	Log       LogConfig       `envconfig:"LOG"`
	Admin     AdminConfig     `envconfig:"ADMIN"`
	Broadcast BroadcastConfig `envconfig:"BROADCAST"`
}

type PostgresConfig struct {
	// Tags use the libpq names so PGHOST etc. work as unprefixed fallbacks.
	Host     string `envconfig:"PGHOST" default:"localhost"`
	Port     int    `envconfig:"PGPORT" default:"5432"`
	User     string `envconfig:"PGUSER" default:"user"`
	Password string `envconfig:"PGPASSWORD" default:"password"`
	DBName   string `envconfig:"PGDATABASE" default:"anonmatchdb"`
	SSLMode  string `envconfig:"PGSSLMODE" default:"disable"`
}

// DSN renders the key/value connection string understood by the postgres driver.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `envconfig:"ADDR" default:"localhost:6379"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

type TelegramConfig struct {
	Token string `envconfig:"TOKEN"`
	// SendTimeout bounds every outbound Bot API call so a slow delivery cannot
	// stall the pairing lock holder.
	SendTimeout    time.Duration `envconfig:"SEND_TIMEOUT" default:"10s"`
	PollingTimeout int           `envconfig:"POLLING_TIMEOUT" default:"60"`
	Debug          bool          `envconfig:"DEBUG" default:"false"`
}

type HTTPConfig struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

type LogConfig struct {
	Level    string `envconfig:"LEVEL" default:"info"`
	Encoding string `envconfig:"ENCODING" default:"console"`
}

type AdminConfig struct {
	// IDs are Telegram user IDs allowed to run /admin, /stats and /broadcast.
	IDs []int64 `envconfig:"IDS"`
	// JWTSecret signs admin API tokens. The /admin routes are not mounted without it.
	JWTSecret string `envconfig:"JWT_SECRET"`
}

// IsAdmin reports whether userID is listed in IDs.
func (c AdminConfig) IsAdmin(userID int64) bool {
	for _, id := range c.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

type BroadcastConfig struct {
	Workers int `envconfig:"WORKERS" default:"4"`
	// RatePerSecond stays under the Bot API global limit of 30 messages/s.
	RatePerSecond float64 `envconfig:"RATE_PER_SECOND" default:"25"`
}

// Load reads .env (if any) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}
