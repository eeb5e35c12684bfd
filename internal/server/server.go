package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"inventory-audit/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

// ActorHeader carries the name of the user performing a mutation.
const ActorHeader = "X-User-Name"

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	db Pinger
}

func NewServer(db Pinger) *Server {
	return &Server{db: db}
}

func (s *Server) HealthCheck(c echo.Context) error {
	if err := s.db.PingContext(c.Request().Context()); err != nil {
		log.WithField("error", err).Error("Health check failed: database is down")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  "database connection error",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// actor returns the requesting user, or the system actor when the header is absent.
func actor(c echo.Context) string {
	if name := strings.TrimSpace(c.Request().Header.Get(ActorHeader)); name != "" {
		return name
	}
	return domain.SystemActor
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{
		"error": msg,
	})
}
