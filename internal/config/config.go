// Package config loads server and client settings from the
// environment, with a .env file when present.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Server holds the HTTP server settings.
type Server struct {
	Addr string
}

// Client holds the synchronization client settings. Status covers the
// presence, role/ready and level polls; Position is the short interval
// the guide snaps the token on.
type Client struct {
	ServerURL            string
	StatusPollInterval   time.Duration
	PositionPollInterval time.Duration
	RequestTimeout       time.Duration
}

// LoadServer reads server settings, defaulting the listen address.
func LoadServer() Server {
	loadDotenv()
	return Server{
		Addr: getEnv("COMAZE_ADDR", ":8080"),
	}
}

// LoadClient reads client settings. Every poll has a bounded interval
// and a bounded per-request timeout.
func LoadClient() Client {
	loadDotenv()
	return Client{
		ServerURL:            getEnv("COMAZE_SERVER_URL", "http://localhost:8080"),
		StatusPollInterval:   getEnvAsMillis("COMAZE_STATUS_POLL_MS", 2000),
		PositionPollInterval: getEnvAsMillis("COMAZE_POSITION_POLL_MS", 500),
		RequestTimeout:       getEnvAsMillis("COMAZE_REQUEST_TIMEOUT_MS", 3000),
	}
}

func loadDotenv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvAsMillis(key string, def int) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return time.Duration(def) * time.Millisecond
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("config: %s must be a positive integer, using %dms", key, def)
		return time.Duration(def) * time.Millisecond
	}
	return time.Duration(n) * time.Millisecond
}
