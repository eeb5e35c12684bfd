package service

import (
	"context"
	"strconv"

	"inventory-audit/internal/audit"
	"inventory-audit/internal/domain"

	log "github.com/sirupsen/logrus"
)

type EmailRepository interface {
	ListEmails(ctx context.Context, filter domain.EmailFilter, limit, offset int) ([]domain.Email, error)
	GetByID(ctx context.Context, id int64) (*domain.Email, error)
	Create(ctx context.Context, email *domain.Email) (*domain.Email, error)
	Update(ctx context.Context, id int64, fields domain.EmailFields) (*domain.Email, error)
}

type emailService struct {
	auditTrail
	emailRepo EmailRepository
}

func NewEmailService(emailRepo EmailRepository, auditor AuditRecorder) *emailService {
	return &emailService{
		auditTrail: auditTrail{auditor: auditor},
		emailRepo:  emailRepo,
	}
}

func (s *emailService) ListEmails(ctx context.Context, filter domain.EmailFilter, limit, offset int) ([]domain.Email, error) {
	limit, offset = pageBounds(limit, offset)
	return s.emailRepo.ListEmails(ctx, filter, limit, offset)
}

func (s *emailService) GetEmailByID(ctx context.Context, id string) (*domain.Email, error) {
	emailID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.emailRepo.GetByID(ctx, emailID)
}

func (s *emailService) CreateEmail(ctx context.Context, actor string, req domain.CreateEmailRequest) (*domain.Email, error) {
	address, err := domain.NormalizeEmailAddress(req.Address)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateEmailType(req.Type); err != nil {
		return nil, err
	}
	if req.AssetID == nil || *req.AssetID <= 0 {
		return nil, domain.ErrEmailAssetRequired
	}

	email, err := s.emailRepo.Create(ctx, &domain.Email{
		Address:  address,
		Type:     req.Type,
		AssetID:  req.AssetID,
		User:     req.User,
		Recovery: req.Recovery,
		Notes:    req.Notes,
		Active:   true,
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, emailTarget(email, actor), nil, email.Snapshot())
	return email, nil
}

func (s *emailService) UpdateEmail(ctx context.Context, actor, id string, req domain.UpdateEmailRequest) (*domain.Email, error) {
	emailID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	fields := domain.EmailFields{
		Type:     trimmed(req.Type),
		AssetID:  req.AssetID,
		User:     req.User,
		Recovery: req.Recovery,
		Notes:    req.Notes,
		Active:   req.Active,
	}
	if fields.Type != nil {
		if err := domain.ValidateEmailType(*fields.Type); err != nil {
			return nil, err
		}
	}
	if req.AssetID != nil && *req.AssetID <= 0 {
		return nil, domain.ErrEmailAssetRequired
	}

	old, err := s.emailRepo.GetByID(ctx, emailID)
	if err != nil {
		return nil, err
	}

	email, err := s.emailRepo.Update(ctx, emailID, fields)
	if err != nil {
		log.WithError(err).WithField("email_id", emailID).Error("Failed to update email")
		return nil, err
	}

	s.record(ctx, emailTarget(email, actor), old.Snapshot(), email.Snapshot())
	return email, nil
}

// DeleteEmail deactivates the account.
func (s *emailService) DeleteEmail(ctx context.Context, actor, id string) error {
	emailID, err := parseID(id)
	if err != nil {
		return err
	}

	old, err := s.emailRepo.GetByID(ctx, emailID)
	if err != nil {
		return err
	}

	inactive := false
	email, err := s.emailRepo.Update(ctx, emailID, domain.EmailFields{Active: &inactive})
	if err != nil {
		log.WithError(err).WithField("email_id", emailID).Error("Failed to deactivate email")
		return err
	}

	s.record(ctx, emailTarget(email, actor), old.Snapshot(), email.Snapshot())
	return nil
}

func emailTarget(email *domain.Email, actor string) audit.Target {
	return audit.Target{
		Kind:  domain.KindEmail,
		ID:    strconv.FormatInt(email.ID, 10),
		Label: email.Address,
		Actor: actor,
	}
}
