package service

import (
	"context"
	"strconv"
	"strings"

	"inventory-audit/internal/audit"
	"inventory-audit/internal/domain"

	log "github.com/sirupsen/logrus"
)

type SoftwareRepository interface {
	ListSoftware(ctx context.Context, filter domain.SoftwareFilter, limit, offset int) ([]domain.Software, error)
	GetByID(ctx context.Context, id int64) (*domain.Software, error)
	Create(ctx context.Context, sw *domain.Software) (*domain.Software, error)
	Update(ctx context.Context, id int64, fields domain.SoftwareFields) (*domain.Software, error)
}

type softwareService struct {
	auditTrail
	softwareRepo SoftwareRepository
}

func NewSoftwareService(softwareRepo SoftwareRepository, auditor AuditRecorder) *softwareService {
	return &softwareService{
		auditTrail:   auditTrail{auditor: auditor},
		softwareRepo: softwareRepo,
	}
}

func (s *softwareService) ListSoftware(ctx context.Context, filter domain.SoftwareFilter, limit, offset int) ([]domain.Software, error) {
	limit, offset = pageBounds(limit, offset)
	return s.softwareRepo.ListSoftware(ctx, filter, limit, offset)
}

func (s *softwareService) GetSoftwareByID(ctx context.Context, id string) (*domain.Software, error) {
	softwareID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.softwareRepo.GetByID(ctx, softwareID)
}

func (s *softwareService) CreateSoftware(ctx context.Context, actor string, req domain.CreateSoftwareRequest) (*domain.Software, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := domain.ValidateSoftwareName(req.Name); err != nil {
		return nil, err
	}
	if req.AssetID <= 0 {
		return nil, domain.ErrUnknownAsset
	}
	if err := domain.ValidateCost(req.AnnualCost); err != nil {
		return nil, err
	}
	installedAt, err := domain.ParseDate(req.InstalledAt)
	if err != nil {
		return nil, err
	}
	expiresAt, err := domain.ParseDate(req.ExpiresAt)
	if err != nil {
		return nil, err
	}

	sw, err := s.softwareRepo.Create(ctx, &domain.Software{
		Name:        req.Name,
		Version:     req.Version,
		AssetID:     req.AssetID,
		LicenseType: req.LicenseType,
		LicenseKey:  req.LicenseKey,
		InstalledAt: installedAt,
		ExpiresAt:   expiresAt,
		AnnualCost:  req.AnnualCost,
		AutoRenew:   req.AutoRenew,
		Notes:       req.Notes,
		Active:      true,
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, softwareTarget(sw, actor), nil, sw.Snapshot())
	return sw, nil
}

func (s *softwareService) UpdateSoftware(ctx context.Context, actor, id string, req domain.UpdateSoftwareRequest) (*domain.Software, error) {
	softwareID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	fields := domain.SoftwareFields{
		Name:        trimmed(req.Name),
		Version:     req.Version,
		AssetID:     req.AssetID,
		LicenseType: req.LicenseType,
		LicenseKey:  req.LicenseKey,
		AnnualCost:  req.AnnualCost,
		AutoRenew:   req.AutoRenew,
		Notes:       req.Notes,
		Active:      req.Active,
	}
	if fields.Name != nil {
		if err := domain.ValidateSoftwareName(*fields.Name); err != nil {
			return nil, err
		}
	}
	if req.AssetID != nil && *req.AssetID <= 0 {
		return nil, domain.ErrUnknownAsset
	}
	if err := domain.ValidateCost(req.AnnualCost); err != nil {
		return nil, err
	}
	if req.InstalledAt != nil {
		date, err := domain.ParseDate(*req.InstalledAt)
		if err != nil {
			return nil, err
		}
		fields.InstalledAt = domain.OptionalDate{Set: true, Value: date}
	}
	if req.ExpiresAt != nil {
		date, err := domain.ParseDate(*req.ExpiresAt)
		if err != nil {
			return nil, err
		}
		fields.ExpiresAt = domain.OptionalDate{Set: true, Value: date}
	}

	old, err := s.softwareRepo.GetByID(ctx, softwareID)
	if err != nil {
		return nil, err
	}

	sw, err := s.softwareRepo.Update(ctx, softwareID, fields)
	if err != nil {
		log.WithError(err).WithField("software_id", softwareID).Error("Failed to update software")
		return nil, err
	}

	s.record(ctx, softwareTarget(sw, actor), old.Snapshot(), sw.Snapshot())
	return sw, nil
}

// DeleteSoftware deactivates the license.
func (s *softwareService) DeleteSoftware(ctx context.Context, actor, id string) error {
	softwareID, err := parseID(id)
	if err != nil {
		return err
	}

	old, err := s.softwareRepo.GetByID(ctx, softwareID)
	if err != nil {
		return err
	}

	inactive := false
	sw, err := s.softwareRepo.Update(ctx, softwareID, domain.SoftwareFields{Active: &inactive})
	if err != nil {
		log.WithError(err).WithField("software_id", softwareID).Error("Failed to deactivate software")
		return err
	}

	s.record(ctx, softwareTarget(sw, actor), old.Snapshot(), sw.Snapshot())
	return nil
}

func softwareTarget(sw *domain.Software, actor string) audit.Target {
	return audit.Target{
		Kind:  domain.KindSoftware,
		ID:    strconv.FormatInt(sw.ID, 10),
		Label: sw.Name,
		Actor: actor,
	}
}
