package service

import (
	"context"
	"strconv"
	"strings"

	"inventory-audit/internal/audit"
	"inventory-audit/internal/domain"

	log "github.com/sirupsen/logrus"
)

type BranchRepository interface {
	ListBranches(ctx context.Context, onlyActive bool) ([]domain.Branch, error)
	GetByID(ctx context.Context, id int64) (*domain.Branch, error)
	Create(ctx context.Context, req domain.CreateBranchRequest) (*domain.Branch, error)
	Update(ctx context.Context, id int64, req domain.UpdateBranchRequest) (*domain.Branch, error)
	Delete(ctx context.Context, id int64) error
}

type branchService struct {
	branchRepo BranchRepository
	auditor    AuditRecorder
}

func NewBranchService(branchRepo BranchRepository, auditor AuditRecorder) *branchService {
	return &branchService{
		branchRepo: branchRepo,
		auditor:    auditor,
	}
}

func (s *branchService) ListBranches(ctx context.Context, onlyActive bool) ([]domain.Branch, error) {
	branches, err := s.branchRepo.ListBranches(ctx, onlyActive)
	if err != nil {
		log.WithError(err).Error("Failed to list branches")
		return nil, err
	}
	return branches, nil
}

func (s *branchService) GetBranchByID(ctx context.Context, id string) (*domain.Branch, error) {
	branchID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.branchRepo.GetByID(ctx, branchID)
}

func (s *branchService) CreateBranch(ctx context.Context, actor string, req domain.CreateBranchRequest) (*domain.Branch, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := domain.ValidateBranchName(req.Name); err != nil {
		return nil, err
	}
	if err := domain.ValidateState(req.State); err != nil {
		return nil, err
	}
	req.State = strings.ToUpper(req.State)

	branch, err := s.branchRepo.Create(ctx, req)
	if err != nil {
		log.WithError(err).WithField("name", req.Name).Error("Failed to create branch")
		return nil, err
	}

	s.record(ctx, branchTarget(branch, actor), nil, branch.Snapshot())
	return branch, nil
}

func (s *branchService) UpdateBranch(ctx context.Context, actor, id string, req domain.UpdateBranchRequest) (*domain.Branch, error) {
	branchID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if err := domain.ValidateBranchName(name); err != nil {
			return nil, err
		}
		req.Name = &name
	}
	if req.State != nil {
		if err := domain.ValidateState(*req.State); err != nil {
			return nil, err
		}
		state := strings.ToUpper(*req.State)
		req.State = &state
	}

	old, err := s.branchRepo.GetByID(ctx, branchID)
	if err != nil {
		return nil, err
	}

	branch, err := s.branchRepo.Update(ctx, branchID, req)
	if err != nil {
		log.WithError(err).WithField("branch_id", branchID).Error("Failed to update branch")
		return nil, err
	}

	s.record(ctx, branchTarget(branch, actor), old.Snapshot(), branch.Snapshot())
	return branch, nil
}

func (s *branchService) DeleteBranch(ctx context.Context, actor, id string) error {
	branchID, err := parseID(id)
	if err != nil {
		return err
	}

	old, err := s.branchRepo.GetByID(ctx, branchID)
	if err != nil {
		return err
	}

	if err := s.branchRepo.Delete(ctx, branchID); err != nil {
		log.WithError(err).WithField("branch_id", branchID).Error("Failed to delete branch")
		return err
	}

	if s.auditor != nil {
		if _, err := s.auditor.RecordDeletion(ctx, branchTarget(old, actor), old.Snapshot()); err != nil {
			log.WithError(err).WithField("branch_id", branchID).Error("Failed to record audit deletion")
		}
	}
	return nil
}

func (s *branchService) record(ctx context.Context, target audit.Target, old, current *domain.Snapshot) {
	if s.auditor == nil {
		return
	}
	if _, err := s.auditor.Record(ctx, target, old, current); err != nil {
		log.WithError(err).WithField("branch_id", target.ID).Error("Failed to record audit events")
	}
}

func branchTarget(branch *domain.Branch, actor string) audit.Target {
	return audit.Target{
		Kind:  domain.KindBranch,
		ID:    strconv.FormatInt(branch.ID, 10),
		Label: branch.Name,
		Actor: actor,
	}
}
