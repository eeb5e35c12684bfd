package server

import (
	"context"
	"errors"
	"net/http"

	"inventory-audit/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

type BranchService interface {
	ListBranches(ctx context.Context, onlyActive bool) ([]domain.Branch, error)
	GetBranchByID(ctx context.Context, id string) (*domain.Branch, error)
	CreateBranch(ctx context.Context, actor string, req domain.CreateBranchRequest) (*domain.Branch, error)
	UpdateBranch(ctx context.Context, actor, id string, req domain.UpdateBranchRequest) (*domain.Branch, error)
	DeleteBranch(ctx context.Context, actor, id string) error
}

type branchServer struct {
	branchService BranchService
}

func NewBranchServer(branchService BranchService) *branchServer {
	return &branchServer{
		branchService: branchService,
	}
}

func handleBranchError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrBranchNotFound):
		return http.StatusNotFound, "branch not found"
	case errors.Is(err, domain.ErrBranchNameExists):
		return http.StatusConflict, "branch with this name already exists"
	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, "invalid branch id"
	case errors.Is(err, domain.ErrInvalidBranchName), errors.Is(err, domain.ErrInvalidState):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *branchServer) ListBranches(c echo.Context) error {
	onlyActive := c.QueryParam("only_active") == "true"

	branches, err := s.branchService.ListBranches(c.Request().Context(), onlyActive)
	if err != nil {
		log.WithError(err).Error("Failed to list branches")
		statusCode, errorMsg := handleBranchError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, branches)
}

func (s *branchServer) GetBranch(c echo.Context) error {
	id := c.Param("id")

	branch, err := s.branchService.GetBranchByID(c.Request().Context(), id)
	if err != nil {
		statusCode, errorMsg := handleBranchError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, branch)
}

func (s *branchServer) CreateBranch(c echo.Context) error {
	var req domain.CreateBranchRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	branch, err := s.branchService.CreateBranch(c.Request().Context(), actor(c), req)
	if err != nil {
		log.WithError(err).WithField("name", req.Name).Warn("Failed to create branch")
		statusCode, errorMsg := handleBranchError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusCreated, branch)
}

func (s *branchServer) UpdateBranch(c echo.Context) error {
	id := c.Param("id")

	var req domain.UpdateBranchRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	branch, err := s.branchService.UpdateBranch(c.Request().Context(), actor(c), id, req)
	if err != nil {
		log.WithError(err).WithField("branch_id", id).Warn("Failed to update branch")
		statusCode, errorMsg := handleBranchError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, branch)
}

func (s *branchServer) DeleteBranch(c echo.Context) error {
	id := c.Param("id")

	if err := s.branchService.DeleteBranch(c.Request().Context(), actor(c), id); err != nil {
		log.WithError(err).WithField("branch_id", id).Warn("Failed to delete branch")
		statusCode, errorMsg := handleBranchError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.NoContent(http.StatusNoContent)
}
