package service

import (
	"context"
	"strconv"
	"strings"

	"inventory-audit/internal/audit"
	"inventory-audit/internal/domain"

	log "github.com/sirupsen/logrus"
)

type AssetRepository interface {
	ListAssets(ctx context.Context, filter domain.AssetFilter, limit, offset int) ([]domain.Asset, error)
	GetByID(ctx context.Context, id int64) (*domain.Asset, error)
	GetByTag(ctx context.Context, tag string) (*domain.Asset, error)
	Create(ctx context.Context, asset *domain.Asset) (*domain.Asset, error)
	Update(ctx context.Context, id int64, fields domain.AssetFields) (*domain.Asset, error)
	Delete(ctx context.Context, id int64) error
}

type assetService struct {
	auditTrail
	assetRepo AssetRepository
}

func NewAssetService(assetRepo AssetRepository, auditor AuditRecorder) *assetService {
	return &assetService{
		auditTrail: auditTrail{auditor: auditor},
		assetRepo:  assetRepo,
	}
}

func (s *assetService) ListAssets(ctx context.Context, filter domain.AssetFilter, limit, offset int) ([]domain.Asset, error) {
	limit, offset = pageBounds(limit, offset)

	assets, err := s.assetRepo.ListAssets(ctx, filter, limit, offset)
	if err != nil {
		log.WithError(err).Error("Failed to list assets")
		return nil, err
	}
	return assets, nil
}

func (s *assetService) GetAssetByID(ctx context.Context, id string) (*domain.Asset, error) {
	assetID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.assetRepo.GetByID(ctx, assetID)
}

func (s *assetService) CreateAsset(ctx context.Context, actor string, req domain.CreateAssetRequest) (*domain.Asset, error) {
	req.Tag = strings.TrimSpace(req.Tag)
	if err := domain.ValidateAssetTag(req.Tag); err != nil {
		return nil, err
	}
	if err := domain.ValidateAssetType(req.Type); err != nil {
		return nil, err
	}
	if req.Status == "" {
		req.Status = domain.AssetStatusActive
	}
	if err := domain.ValidateAssetStatus(req.Status); err != nil {
		return nil, err
	}
	if err := domain.ValidateAssetValue(req.Value); err != nil {
		return nil, err
	}
	purchaseDate, err := domain.ParseDate(req.PurchaseDate)
	if err != nil {
		return nil, err
	}
	warrantyDate, err := domain.ParseDate(req.WarrantyDate)
	if err != nil {
		return nil, err
	}

	existing, err := s.assetRepo.GetByTag(ctx, req.Tag)
	if err != nil && err != domain.ErrAssetNotFound {
		log.WithError(err).WithField("tag", req.Tag).Error("Failed to check asset existence")
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAssetTagExists
	}

	software := req.InstalledSoftware
	if software == nil {
		software = []string{}
	}

	asset, err := s.assetRepo.Create(ctx, &domain.Asset{
		Tag:               req.Tag,
		Type:              req.Type,
		Brand:             req.Brand,
		Model:             req.Model,
		SerialNumber:      req.SerialNumber,
		Branch:            req.Branch,
		Sector:            req.Sector,
		Owner:             req.Owner,
		Status:            req.Status,
		InstalledSoftware: software,
		Notes:             req.Notes,
		PurchaseDate:      purchaseDate,
		WarrantyDate:      warrantyDate,
		Value:             req.Value,
		Supplier:          req.Supplier,
		AnyDesk:           req.AnyDesk,
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"tag":  req.Tag,
			"type": req.Type,
		}).Error("Failed to create asset")
		return nil, err
	}

	s.record(ctx, assetTarget(asset, actor), nil, asset.Snapshot())
	return asset, nil
}

func (s *assetService) UpdateAsset(ctx context.Context, actor, id string, req domain.UpdateAssetRequest) (*domain.Asset, error) {
	assetID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	fields, err := assetFields(req)
	if err != nil {
		return nil, err
	}

	old, err := s.assetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}

	asset, err := s.assetRepo.Update(ctx, assetID, fields)
	if err != nil {
		log.WithError(err).WithField("asset_id", assetID).Error("Failed to update asset")
		return nil, err
	}

	s.record(ctx, assetTarget(asset, actor), old.Snapshot(), asset.Snapshot())
	return asset, nil
}

// DeleteAsset deactivates the asset, which the audit trail sees as a status
// change. With hard set the row is removed and a DELETE event is recorded.
func (s *assetService) DeleteAsset(ctx context.Context, actor, id string, hard bool) error {
	assetID, err := parseID(id)
	if err != nil {
		return err
	}

	old, err := s.assetRepo.GetByID(ctx, assetID)
	if err != nil {
		return err
	}

	if hard {
		if err := s.assetRepo.Delete(ctx, assetID); err != nil {
			log.WithError(err).WithField("asset_id", assetID).Error("Failed to delete asset")
			return err
		}
		s.recordDeletion(ctx, assetTarget(old, actor), old.Snapshot())
		return nil
	}

	inactive := domain.AssetStatusInactive
	asset, err := s.assetRepo.Update(ctx, assetID, domain.AssetFields{Status: &inactive})
	if err != nil {
		log.WithError(err).WithField("asset_id", assetID).Error("Failed to deactivate asset")
		return err
	}

	s.record(ctx, assetTarget(asset, actor), old.Snapshot(), asset.Snapshot())
	return nil
}

func assetTarget(asset *domain.Asset, actor string) audit.Target {
	return audit.Target{
		Kind:  domain.KindAsset,
		ID:    strconv.FormatInt(asset.ID, 10),
		Label: asset.Tag,
		Actor: actor,
	}
}

func assetFields(req domain.UpdateAssetRequest) (domain.AssetFields, error) {
	fields := domain.AssetFields{
		Type:              req.Type,
		Brand:             req.Brand,
		Model:             req.Model,
		SerialNumber:      req.SerialNumber,
		Branch:            req.Branch,
		Sector:            req.Sector,
		Owner:             req.Owner,
		Status:            req.Status,
		InstalledSoftware: req.InstalledSoftware,
		Notes:             req.Notes,
		Value:             req.Value,
		Supplier:          req.Supplier,
		AnyDesk:           req.AnyDesk,
	}

	if req.Type != nil {
		if err := domain.ValidateAssetType(*req.Type); err != nil {
			return fields, err
		}
	}
	if req.Status != nil {
		if err := domain.ValidateAssetStatus(*req.Status); err != nil {
			return fields, err
		}
	}
	if err := domain.ValidateAssetValue(req.Value); err != nil {
		return fields, err
	}
	if req.InstalledSoftware != nil && *req.InstalledSoftware == nil {
		empty := []string{}
		fields.InstalledSoftware = &empty
	}
	if req.PurchaseDate != nil {
		date, err := domain.ParseDate(*req.PurchaseDate)
		if err != nil {
			return fields, err
		}
		fields.PurchaseDate = domain.OptionalDate{Set: true, Value: date}
	}
	if req.WarrantyDate != nil {
		date, err := domain.ParseDate(*req.WarrantyDate)
		if err != nil {
			return fields, err
		}
		fields.WarrantyDate = domain.OptionalDate{Set: true, Value: date}
	}
	return fields, nil
}
