package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the corresponding environment variable is unset.
const (
	DefaultAddr          = ":8000"
	DefaultMessageTTL    = 30 * time.Second
	DefaultSweepInterval = 5 * time.Second
	DefaultSendBuffer    = 256
)

// Config holds all configuration for the relay.
type Config struct {
	// Addr is the listen address for the HTTP/WebSocket server.
	Addr string
	// MessageTTL is how long a broadcast message stays visible in topic history.
	MessageTTL time.Duration
	// SweepInterval is the tick interval of the background expiry sweeper.
	SweepInterval time.Duration
	// SendBuffer is the size of each session's outbound frame queue.
	SendBuffer int
}

// New loads configuration from environment variables.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		Addr:          DefaultAddr,
		MessageTTL:    DefaultMessageTTL,
		SweepInterval: DefaultSweepInterval,
		SendBuffer:    DefaultSendBuffer,
	}

	if addr := os.Getenv("TOPICAL_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if ttl := os.Getenv("TOPICAL_MESSAGE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			cfg.MessageTTL = d
		}
	}
	if interval := os.Getenv("TOPICAL_SWEEP_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil && d > 0 {
			cfg.SweepInterval = d
		}
	}
	if buf := os.Getenv("TOPICAL_SEND_BUFFER"); buf != "" {
		if n, err := strconv.Atoi(buf); err == nil && n > 0 {
			cfg.SendBuffer = n
		}
	}

	return cfg
}
