package service

import (
	"context"
	"strings"

	"inventory-audit/internal/audit"
	"inventory-audit/internal/domain"

	log "github.com/sirupsen/logrus"
)

// AuditRecorder is the write side of the audit trail used by the CRUD services.
type AuditRecorder interface {
	Record(ctx context.Context, target audit.Target, old, current *domain.Snapshot) ([]domain.AuditEvent, error)
	RecordDeletion(ctx context.Context, target audit.Target, last *domain.Snapshot) (*domain.AuditEvent, error)
}

// auditTrail records the mutations of one CRUD service. Failures are logged;
// the mutation they describe has already been committed.
type auditTrail struct {
	auditor AuditRecorder
}

func (t auditTrail) record(ctx context.Context, target audit.Target, old, current *domain.Snapshot) {
	if t.auditor == nil {
		return
	}
	if _, err := t.auditor.Record(ctx, target, old, current); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"entity_kind": target.Kind,
			"entity_id":   target.ID,
		}).Error("Failed to record audit events")
	}
}

func (t auditTrail) recordDeletion(ctx context.Context, target audit.Target, last *domain.Snapshot) {
	if t.auditor == nil {
		return
	}
	if _, err := t.auditor.RecordDeletion(ctx, target, last); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"entity_kind": target.Kind,
			"entity_id":   target.ID,
		}).Error("Failed to record audit deletion")
	}
}

func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = domain.DefaultListLimit
	}
	if limit > domain.MaxListLimit {
		limit = domain.MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func parseID(id string) (int64, error) {
	parsed, ok := domain.ParseEntityID(id)
	if !ok || *parsed <= 0 {
		return 0, domain.ErrInvalidID
	}
	return *parsed, nil
}

// trimmed trims *s in place when set.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
