package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"inventory-audit/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

type SoftwareService interface {
	ListSoftware(ctx context.Context, filter domain.SoftwareFilter, limit, offset int) ([]domain.Software, error)
	GetSoftwareByID(ctx context.Context, id string) (*domain.Software, error)
	CreateSoftware(ctx context.Context, actor string, req domain.CreateSoftwareRequest) (*domain.Software, error)
	UpdateSoftware(ctx context.Context, actor, id string, req domain.UpdateSoftwareRequest) (*domain.Software, error)
	DeleteSoftware(ctx context.Context, actor, id string) error
}

type softwareServer struct {
	softwareService SoftwareService
	now             func() time.Time
}

func NewSoftwareServer(softwareService SoftwareService) *softwareServer {
	return &softwareServer{
		softwareService: softwareService,
		now:             time.Now,
	}
}

func handleSoftwareError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSoftwareNotFound):
		return http.StatusNotFound, "software not found"
	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, "invalid software id"
	case errors.Is(err, domain.ErrInvalidSoftwareName),
		errors.Is(err, domain.ErrUnknownAsset),
		errors.Is(err, domain.ErrInvalidCost),
		errors.Is(err, domain.ErrInvalidDate):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// ListSoftware serves GET /api/software?asset_id=&active=true&expiring_within=<days>.
func (s *softwareServer) ListSoftware(c echo.Context) error {
	filter := domain.SoftwareFilter{
		AssetID:    int64(queryInt(c, "asset_id", 0)),
		OnlyActive: c.QueryParam("active") == "true",
	}
	if days := queryInt(c, "expiring_within", -1); days >= 0 {
		before := s.now().AddDate(0, 0, days)
		filter.ExpiresBefore = &before
		filter.OnlyActive = true
	}

	items, err := s.softwareService.ListSoftware(c.Request().Context(), filter,
		queryInt(c, "limit", domain.DefaultListLimit), queryInt(c, "offset", 0))
	if err != nil {
		log.WithError(err).Error("Failed to list software")
		statusCode, errorMsg := handleSoftwareError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, items)
}

func (s *softwareServer) GetSoftware(c echo.Context) error {
	id := c.Param("id")

	sw, err := s.softwareService.GetSoftwareByID(c.Request().Context(), id)
	if err != nil {
		statusCode, errorMsg := handleSoftwareError(err)
		if statusCode == http.StatusInternalServerError {
			log.WithError(err).WithField("software_id", id).Error("Failed to get software")
		}
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, sw)
}

func (s *softwareServer) CreateSoftware(c echo.Context) error {
	var req domain.CreateSoftwareRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	sw, err := s.softwareService.CreateSoftware(c.Request().Context(), actor(c), req)
	if err != nil {
		log.WithError(err).WithField("name", req.Name).Warn("Failed to create software")
		statusCode, errorMsg := handleSoftwareError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusCreated, sw)
}

func (s *softwareServer) UpdateSoftware(c echo.Context) error {
	id := c.Param("id")

	var req domain.UpdateSoftwareRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	sw, err := s.softwareService.UpdateSoftware(c.Request().Context(), actor(c), id, req)
	if err != nil {
		log.WithError(err).WithField("software_id", id).Warn("Failed to update software")
		statusCode, errorMsg := handleSoftwareError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, sw)
}

func (s *softwareServer) DeleteSoftware(c echo.Context) error {
	id := c.Param("id")

	if err := s.softwareService.DeleteSoftware(c.Request().Context(), actor(c), id); err != nil {
		log.WithError(err).WithField("software_id", id).Warn("Failed to deactivate software")
		statusCode, errorMsg := handleSoftwareError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.NoContent(http.StatusNoContent)
}
