package server

import (
	"context"
	"errors"
	"net/http"

	"inventory-audit/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

type PhoneService interface {
	ListPhones(ctx context.Context, filter domain.PhoneFilter, limit, offset int) ([]domain.Phone, error)
	GetPhoneByID(ctx context.Context, id string) (*domain.Phone, error)
	CreatePhone(ctx context.Context, actor string, req domain.CreatePhoneRequest) (*domain.Phone, error)
	UpdatePhone(ctx context.Context, actor, id string, req domain.UpdatePhoneRequest) (*domain.Phone, error)
	DeletePhone(ctx context.Context, actor, id string) error
}

type phoneServer struct {
	phoneService PhoneService
}

func NewPhoneServer(phoneService PhoneService) *phoneServer {
	return &phoneServer{
		phoneService: phoneService,
	}
}

func handlePhoneError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrPhoneNotFound):
		return http.StatusNotFound, "phone not found"
	case errors.Is(err, domain.ErrPhoneExists):
		return http.StatusConflict, "phone with this tag or IMEI already exists"
	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, "invalid phone id"
	case errors.Is(err, domain.ErrInvalidPhoneTag),
		errors.Is(err, domain.ErrPhoneBranchEmpty),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidAssetValue):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *phoneServer) ListPhones(c echo.Context) error {
	filter := domain.PhoneFilter{
		Branch: c.QueryParam("branch"),
		Status: c.QueryParam("status"),
	}

	phones, err := s.phoneService.ListPhones(c.Request().Context(), filter,
		queryInt(c, "limit", domain.DefaultListLimit), queryInt(c, "offset", 0))
	if err != nil {
		log.WithError(err).Error("Failed to list phones")
		statusCode, errorMsg := handlePhoneError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, phones)
}

func (s *phoneServer) GetPhone(c echo.Context) error {
	id := c.Param("id")

	phone, err := s.phoneService.GetPhoneByID(c.Request().Context(), id)
	if err != nil {
		statusCode, errorMsg := handlePhoneError(err)
		if statusCode == http.StatusInternalServerError {
			log.WithError(err).WithField("phone_id", id).Error("Failed to get phone")
		}
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, phone)
}

func (s *phoneServer) CreatePhone(c echo.Context) error {
	var req domain.CreatePhoneRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	phone, err := s.phoneService.CreatePhone(c.Request().Context(), actor(c), req)
	if err != nil {
		log.WithError(err).WithField("tag", req.Tag).Warn("Failed to create phone")
		statusCode, errorMsg := handlePhoneError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusCreated, phone)
}

func (s *phoneServer) UpdatePhone(c echo.Context) error {
	id := c.Param("id")

	var req domain.UpdatePhoneRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	phone, err := s.phoneService.UpdatePhone(c.Request().Context(), actor(c), id, req)
	if err != nil {
		log.WithError(err).WithField("phone_id", id).Warn("Failed to update phone")
		statusCode, errorMsg := handlePhoneError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, phone)
}

func (s *phoneServer) DeletePhone(c echo.Context) error {
	id := c.Param("id")

	if err := s.phoneService.DeletePhone(c.Request().Context(), actor(c), id); err != nil {
		log.WithError(err).WithField("phone_id", id).Warn("Failed to deactivate phone")
		statusCode, errorMsg := handlePhoneError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.NoContent(http.StatusNoContent)
}
