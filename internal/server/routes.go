package server

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	s.E.Use(echoprometheus.NewMiddleware("topical"))

	s.E.GET("/ws", s.bridge.ServeWS)
	s.E.GET("/metrics", echoprometheus.NewHandler())
	s.E.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
}
