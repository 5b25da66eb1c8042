package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"kiosk/globals"

	"github.com/joho/godotenv"
)

// Defaults
const (
	DefaultPort        = ":8080"
	DefaultBackendURL  = "https://localhost:7030"
	DefaultMongoDB     = "kiosk"
	DefaultTerminalTTL = 12 * time.Hour
	DefaultRateLimit   = 5
	DefaultRateBurst   = 3
)

// Config holds everything main needs to wire the service.
type Config struct {
	Port           string
	BackendURL     string
	RedisURL       string
	MongoURI       string
	MongoDB        string
	LogoutDelay    time.Duration
	AllowedOrigins []string
	TerminalTTL    time.Duration
	RateLimit      float64 // requests per second per client
	RateBurst      int
}

// Load reads .env when present, then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) Config {
	cfg := Config{
		Port:           DefaultPort,
		BackendURL:     DefaultBackendURL,
		RedisURL:       strings.TrimSpace(getenv("REDIS_URL")),
		MongoURI:       strings.TrimSpace(getenv("MONGO_URI")),
		MongoDB:        DefaultMongoDB,
		LogoutDelay:    globals.LogoutDelay,
		AllowedOrigins: []string{"*"},
		TerminalTTL:    DefaultTerminalTTL,
		RateLimit:      DefaultRateLimit,
		RateBurst:      DefaultRateBurst,
	}

	if port := strings.TrimSpace(getenv("PORT")); port != "" {
		if port[0] != ':' {
			port = ":" + port
		}
		cfg.Port = port
	}
	if u := strings.TrimSpace(getenv("BACKEND_URL")); u != "" {
		cfg.BackendURL = strings.TrimRight(u, "/")
	}
	if name := strings.TrimSpace(getenv("MONGO_DB")); name != "" {
		cfg.MongoDB = name
	}
	cfg.LogoutDelay = duration(getenv, "LOGOUT_DELAY", cfg.LogoutDelay)
	cfg.TerminalTTL = duration(getenv, "TERMINAL_TTL", cfg.TerminalTTL)
	if raw := strings.TrimSpace(getenv("RATE_LIMIT")); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			cfg.RateLimit = v
		} else {
			log.Printf("config: ignoring RATE_LIMIT=%q", raw)
		}
	}
	if raw := strings.TrimSpace(getenv("RATE_BURST")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			cfg.RateBurst = v
		} else {
			log.Printf("config: ignoring RATE_BURST=%q", raw)
		}
	}

	if origins := strings.TrimSpace(getenv("ALLOWED_ORIGINS")); origins != "" {
		var list []string
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				list = append(list, o)
			}
		}
		if len(list) > 0 {
			cfg.AllowedOrigins = list
		}
	}
	return cfg
}

func duration(getenv func(string) string, key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("config: ignoring %s=%q: %v", key, raw, err)
		return def
	}
	return d
}
