package server

import (
	"context"
	"errors"
	"net/http"

	"inventory-audit/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

type EmailService interface {
	ListEmails(ctx context.Context, filter domain.EmailFilter, limit, offset int) ([]domain.Email, error)
	GetEmailByID(ctx context.Context, id string) (*domain.Email, error)
	CreateEmail(ctx context.Context, actor string, req domain.CreateEmailRequest) (*domain.Email, error)
	UpdateEmail(ctx context.Context, actor, id string, req domain.UpdateEmailRequest) (*domain.Email, error)
	DeleteEmail(ctx context.Context, actor, id string) error
}

type emailServer struct {
	emailService EmailService
}

func NewEmailServer(emailService EmailService) *emailServer {
	return &emailServer{
		emailService: emailService,
	}
}

func handleEmailError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmailNotFound):
		return http.StatusNotFound, "email not found"
	case errors.Is(err, domain.ErrEmailExists):
		return http.StatusConflict, "email address already exists"
	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, "invalid email id"
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidEmailType),
		errors.Is(err, domain.ErrEmailAssetRequired),
		errors.Is(err, domain.ErrUnknownAsset):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *emailServer) ListEmails(c echo.Context) error {
	filter := domain.EmailFilter{
		AssetID:    int64(queryInt(c, "asset_id", 0)),
		Type:       c.QueryParam("type"),
		OnlyActive: c.QueryParam("active") == "true",
	}

	emails, err := s.emailService.ListEmails(c.Request().Context(), filter,
		queryInt(c, "limit", domain.DefaultListLimit), queryInt(c, "offset", 0))
	if err != nil {
		log.WithError(err).Error("Failed to list emails")
		statusCode, errorMsg := handleEmailError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, emails)
}

func (s *emailServer) GetEmail(c echo.Context) error {
	id := c.Param("id")

	email, err := s.emailService.GetEmailByID(c.Request().Context(), id)
	if err != nil {
		statusCode, errorMsg := handleEmailError(err)
		if statusCode == http.StatusInternalServerError {
			log.WithError(err).WithField("email_id", id).Error("Failed to get email")
		}
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, email)
}

func (s *emailServer) CreateEmail(c echo.Context) error {
	var req domain.CreateEmailRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	email, err := s.emailService.CreateEmail(c.Request().Context(), actor(c), req)
	if err != nil {
		log.WithError(err).WithField("address", req.Address).Warn("Failed to create email")
		statusCode, errorMsg := handleEmailError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusCreated, email)
}

func (s *emailServer) UpdateEmail(c echo.Context) error {
	id := c.Param("id")

	var req domain.UpdateEmailRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	email, err := s.emailService.UpdateEmail(c.Request().Context(), actor(c), id, req)
	if err != nil {
		log.WithError(err).WithField("email_id", id).Warn("Failed to update email")
		statusCode, errorMsg := handleEmailError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, email)
}

func (s *emailServer) DeleteEmail(c echo.Context) error {
	id := c.Param("id")

	if err := s.emailService.DeleteEmail(c.Request().Context(), actor(c), id); err != nil {
		log.WithError(err).WithField("email_id", id).Warn("Failed to deactivate email")
		statusCode, errorMsg := handleEmailError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.NoContent(http.StatusNoContent)
}
