package service

import (
	"context"
	"strconv"
	"strings"

	"inventory-audit/internal/audit"
	"inventory-audit/internal/domain"

	log "github.com/sirupsen/logrus"
)

type PhoneRepository interface {
	ListPhones(ctx context.Context, filter domain.PhoneFilter, limit, offset int) ([]domain.Phone, error)
	GetByID(ctx context.Context, id int64) (*domain.Phone, error)
	Create(ctx context.Context, phone *domain.Phone) (*domain.Phone, error)
	Update(ctx context.Context, id int64, fields domain.PhoneFields) (*domain.Phone, error)
}

type phoneService struct {
	auditTrail
	phoneRepo PhoneRepository
}

func NewPhoneService(phoneRepo PhoneRepository, auditor AuditRecorder) *phoneService {
	return &phoneService{
		auditTrail: auditTrail{auditor: auditor},
		phoneRepo:  phoneRepo,
	}
}

func (s *phoneService) ListPhones(ctx context.Context, filter domain.PhoneFilter, limit, offset int) ([]domain.Phone, error) {
	limit, offset = pageBounds(limit, offset)
	return s.phoneRepo.ListPhones(ctx, filter, limit, offset)
}

func (s *phoneService) GetPhoneByID(ctx context.Context, id string) (*domain.Phone, error) {
	phoneID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.phoneRepo.GetByID(ctx, phoneID)
}

func (s *phoneService) CreatePhone(ctx context.Context, actor string, req domain.CreatePhoneRequest) (*domain.Phone, error) {
	req.Tag = strings.TrimSpace(req.Tag)
	req.Branch = strings.TrimSpace(req.Branch)
	if err := domain.ValidatePhoneTag(req.Tag); err != nil {
		return nil, err
	}
	if req.Branch == "" {
		return nil, domain.ErrPhoneBranchEmpty
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

	phone, err := s.phoneRepo.Create(ctx, &domain.Phone{
		Tag:          req.Tag,
		Branch:       req.Branch,
		Model:        req.Model,
		IMEI:         strings.TrimSpace(req.IMEI),
		Number:       req.Number,
		Carrier:      req.Carrier,
		Owner:        req.Owner,
		Status:       req.Status,
		Notes:        req.Notes,
		PurchaseDate: purchaseDate,
		Value:        req.Value,
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, phoneTarget(phone, actor), nil, phone.Snapshot())
	return phone, nil
}

func (s *phoneService) UpdatePhone(ctx context.Context, actor, id string, req domain.UpdatePhoneRequest) (*domain.Phone, error) {
	phoneID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	fields := domain.PhoneFields{
		Branch:  trimmed(req.Branch),
		Model:   req.Model,
		IMEI:    trimmed(req.IMEI),
		Number:  req.Number,
		Carrier: req.Carrier,
		Owner:   req.Owner,
		Status:  req.Status,
		Notes:   req.Notes,
		Value:   req.Value,
	}
	if fields.Branch != nil && *fields.Branch == "" {
		return nil, domain.ErrPhoneBranchEmpty
	}
	if req.Status != nil {
		if err := domain.ValidateAssetStatus(*req.Status); err != nil {
			return nil, err
		}
	}
	if err := domain.ValidateAssetValue(req.Value); err != nil {
		return nil, err
	}
	if req.PurchaseDate != nil {
		date, err := domain.ParseDate(*req.PurchaseDate)
		if err != nil {
			return nil, err
		}
		fields.PurchaseDate = domain.OptionalDate{Set: true, Value: date}
	}

	old, err := s.phoneRepo.GetByID(ctx, phoneID)
	if err != nil {
		return nil, err
	}

	phone, err := s.phoneRepo.Update(ctx, phoneID, fields)
	if err != nil {
		log.WithError(err).WithField("phone_id", phoneID).Error("Failed to update phone")
		return nil, err
	}

	s.record(ctx, phoneTarget(phone, actor), old.Snapshot(), phone.Snapshot())
	return phone, nil
}

// DeletePhone deactivates the phone. Phones are never removed.
func (s *phoneService) DeletePhone(ctx context.Context, actor, id string) error {
	phoneID, err := parseID(id)
	if err != nil {
		return err
	}

	old, err := s.phoneRepo.GetByID(ctx, phoneID)
	if err != nil {
		return err
	}

	inactive := domain.AssetStatusInactive
	phone, err := s.phoneRepo.Update(ctx, phoneID, domain.PhoneFields{Status: &inactive})
	if err != nil {
		log.WithError(err).WithField("phone_id", phoneID).Error("Failed to deactivate phone")
		return err
	}

	s.record(ctx, phoneTarget(phone, actor), old.Snapshot(), phone.Snapshot())
	return nil
}

func phoneTarget(phone *domain.Phone, actor string) audit.Target {
	return audit.Target{
		Kind:  domain.KindPhone,
		ID:    strconv.FormatInt(phone.ID, 10),
		Label: phone.Tag,
		Actor: actor,
	}
}
