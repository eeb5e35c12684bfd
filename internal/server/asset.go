package server

import (
	"context"
	"errors"
	"net/http"

	"inventory-audit/internal/domain"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

type AssetService interface {
	ListAssets(ctx context.Context, filter domain.AssetFilter, limit, offset int) ([]domain.Asset, error)
	GetAssetByID(ctx context.Context, id string) (*domain.Asset, error)
	CreateAsset(ctx context.Context, actor string, req domain.CreateAssetRequest) (*domain.Asset, error)
	UpdateAsset(ctx context.Context, actor, id string, req domain.UpdateAssetRequest) (*domain.Asset, error)
	DeleteAsset(ctx context.Context, actor, id string, hard bool) error
}

type assetServer struct {
	assetService AssetService
}

func NewAssetServer(assetService AssetService) *assetServer {
	return &assetServer{
		assetService: assetService,
	}
}

func handleAssetError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrAssetNotFound):
		return http.StatusNotFound, "asset not found"
	case errors.Is(err, domain.ErrAssetTagExists):
		return http.StatusConflict, "asset with this tag already exists"
	case errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest, "invalid asset id"
	case errors.Is(err, domain.ErrInvalidAssetTag),
		errors.Is(err, domain.ErrInvalidAssetType),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidAssetValue):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func (s *assetServer) ListAssets(c echo.Context) error {
	filter := domain.AssetFilter{
		Status: c.QueryParam("status"),
		Branch: c.QueryParam("branch"),
	}

	assets, err := s.assetService.ListAssets(c.Request().Context(), filter,
		queryInt(c, "limit", domain.DefaultListLimit), queryInt(c, "offset", 0))
	if err != nil {
		log.WithError(err).Error("Failed to list assets")
		statusCode, errorMsg := handleAssetError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, assets)
}

func (s *assetServer) GetAsset(c echo.Context) error {
	id := c.Param("id")

	asset, err := s.assetService.GetAssetByID(c.Request().Context(), id)
	if err != nil {
		statusCode, errorMsg := handleAssetError(err)
		if statusCode == http.StatusInternalServerError {
			log.WithError(err).WithField("asset_id", id).Error("Failed to get asset")
		}
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, asset)
}

func (s *assetServer) CreateAsset(c echo.Context) error {
	var req domain.CreateAssetRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	asset, err := s.assetService.CreateAsset(c.Request().Context(), actor(c), req)
	if err != nil {
		log.WithError(err).WithField("tag", req.Tag).Warn("Failed to create asset")
		statusCode, errorMsg := handleAssetError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusCreated, asset)
}

func (s *assetServer) UpdateAsset(c echo.Context) error {
	id := c.Param("id")

	var req domain.UpdateAssetRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	asset, err := s.assetService.UpdateAsset(c.Request().Context(), actor(c), id, req)
	if err != nil {
		log.WithError(err).WithField("asset_id", id).Warn("Failed to update asset")
		statusCode, errorMsg := handleAssetError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.JSON(http.StatusOK, asset)
}

// DeleteAsset deactivates the asset unless ?hard=true is given.
func (s *assetServer) DeleteAsset(c echo.Context) error {
	id := c.Param("id")
	hard := c.QueryParam("hard") == "true"

	if err := s.assetService.DeleteAsset(c.Request().Context(), actor(c), id, hard); err != nil {
		log.WithError(err).WithField("asset_id", id).Warn("Failed to delete asset")
		statusCode, errorMsg := handleAssetError(err)
		return errorJSON(c, statusCode, errorMsg)
	}

	return c.NoContent(http.StatusNoContent)
}
