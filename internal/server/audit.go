package server

import (
	"context"
	"errors"
	"net/http"

	"inventory-audit/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

type AuditService interface {
	ListForEntity(ctx context.Context, kind, entityID string, limit int) ([]domain.AuditEvent, error)
	ListAll(ctx context.Context, actor string, limit int) ([]domain.AuditEvent, error)
	Statistics(ctx context.Context) (*domain.AuditStats, error)
}

type auditServer struct {
	auditService AuditService
}

func NewAuditServer(auditService AuditService) *auditServer {
	return &auditServer{
		auditService: auditService,
	}
}

func handleAuditError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnknownEntityKind):
		return http.StatusBadRequest, "unknown entity kind"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// ListLogs serves GET /api/logs?actor=&limit=.
func (s *auditServer) ListLogs(c echo.Context) error {
	events, err := s.auditService.ListAll(c.Request().Context(), c.QueryParam("actor"), queryInt(c, "limit", 0))
	if err != nil {
		log.WithError(err).Error("Failed to list audit logs")
		statusCode, errorMsg := handleAuditError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, events)
}

// ListEntityLogs serves GET /api/logs/entity/:id?kind=&limit=.
func (s *auditServer) ListEntityLogs(c echo.Context) error {
	id := c.Param("id")

	events, err := s.auditService.ListForEntity(c.Request().Context(), c.QueryParam("kind"), id, queryInt(c, "limit", 0))
	if err != nil {
		statusCode, errorMsg := handleAuditError(err)
		if statusCode == http.StatusInternalServerError {
			log.WithError(err).WithField("entity_id", id).Error("Failed to list entity audit logs")
		}
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, events)
}

func (s *auditServer) Statistics(c echo.Context) error {
	stats, err := s.auditService.Statistics(c.Request().Context())
	if err != nil {
		log.WithError(err).Error("Failed to compute audit statistics")
		statusCode, errorMsg := handleAuditError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, stats)
}
