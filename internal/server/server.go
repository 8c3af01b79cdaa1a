package server

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/topical/internal/config"
	"github.com/nfrund/topical/internal/logging"
	"github.com/nfrund/topical/internal/presence"
	"github.com/nfrund/topical/internal/pubsub"
	"github.com/nfrund/topical/internal/relay"
	"github.com/nfrund/topical/internal/websocket"
)

// Server holds the dependencies for the relay process.
type Server struct {
	E         *echo.Echo
	Cfg       *config.Config
	bus       *pubsub.WatermillBridge
	directory *relay.Directory
	sweeper   *relay.Sweeper
	presence  *presence.Service
	bridge    *websocket.Bridge
}

// New creates a new Server instance with all components wired.
func New() *Server {
	logging.New() // Initialize the structured logger
	cfg := config.New()

	bus := pubsub.NewWatermillBridge()
	directory := relay.NewDirectory(cfg.MessageTTL)
	sweeper := relay.NewSweeper(directory, cfg.SweepInterval)
	presenceSvc := presence.NewService(bus)
	bridge := websocket.NewBridge(directory, bus, cfg.SendBuffer)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	slog.Info("Relay configured",
		"addr", cfg.Addr,
		"message_ttl", cfg.MessageTTL,
		"sweep_interval", cfg.SweepInterval,
		"send_buffer", cfg.SendBuffer)

	return &Server{
		E:         e,
		Cfg:       cfg,
		bus:       bus,
		directory: directory,
		sweeper:   sweeper,
		presence:  presenceSvc,
		bridge:    bridge,
	}
}

// Directory is a getter for the server's topic directory, useful for testing.
func (s *Server) Directory() *relay.Directory {
	return s.directory
}

// Presence is a getter for the server's presence service, useful for testing.
func (s *Server) Presence() *presence.Service {
	return s.presence
}
