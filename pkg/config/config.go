package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Log controls the global zerolog logger.
type Log struct {
	// trace, debug, info, warn, error
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	// console or json
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}

// Server configures the decode/encode HTTP service.
type Server struct {
	// HTTP listen address, e.g. ":5000"
	Address string `env:"ADDRESS" envDefault:":5000"`
	// Request body limit in echo's size notation, e.g. "32M"
	MaxUploadSize string `env:"MAX_UPLOAD_SIZE" envDefault:"32M"`
	// Upper bound for a single decode or encode
	DecodeTimeout time.Duration `env:"DECODE_TIMEOUT" envDefault:"60s"`
	// How long encoded images stay downloadable
	ImageTTL    time.Duration `env:"IMAGE_TTL" envDefault:"10m"`
	CORSOrigins []string      `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
}

type Config struct {
	Server Server
	Log    Log
}

// Client configures stegoctl.
type Client struct {
	// Base URL of the decode service
	Server  string        `env:"STEGO_SERVER" envDefault:"http://localhost:5000"`
	Timeout time.Duration `env:"STEGO_TIMEOUT" envDefault:"60s"`
	// SQLite file for decode history; empty means ~/.stegosuite/history.db
	HistoryDB string `env:"STEGO_HISTORY_DB"`
	Log       Log
}

// Load loads .env (if present) and parses environment variables into Config.
func Load() (Config, error) {
	// Load .env if available; ignore error if file does not exist
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// LoadClient is Load for the command line client.
func LoadClient() (Client, error) {
	_ = godotenv.Load()

	var cfg Client
	if err := env.Parse(&cfg); err != nil {
		return Client{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
