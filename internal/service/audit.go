package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"inventory-audit/internal/audit"
	"inventory-audit/internal/domain"
	"inventory-audit/internal/metrics"

	log "github.com/sirupsen/logrus"
)

const (
	defaultAuditListLimit = 100
	maxAuditListLimit     = 1000

	defaultPublishQueue = 256
	publishTimeout      = 10 * time.Second
)

type AuditRepository interface {
	Append(ctx context.Context, events []domain.AuditEvent) error
	ListForEntity(ctx context.Context, kind domain.EntityKind, entityID int64, limit int) ([]domain.AuditEvent, error)
	ListAll(ctx context.Context, actor string, limit int) ([]domain.AuditEvent, error)
	Statistics(ctx context.Context) (*domain.AuditStats, error)
}

// AuditPublisher mirrors one persisted batch to the message broker.
type AuditPublisher interface {
	Publish(ctx context.Context, events []domain.AuditEvent) error
}

// AuditService runs the audit engine for the CRUD services and serves the
// audit trail back to readers.
type AuditService struct {
	repo         AuditRepository
	publisher    AuditPublisher
	classifier   *audit.Classifier
	builder      *audit.Builder
	metrics      *metrics.AuditMetrics
	defaultLimit int
	maxLimit     int

	queueSize int
	mu        sync.RWMutex
	closed    bool
	mirror    chan []domain.AuditEvent
	wg        sync.WaitGroup
}

type AuditOption func(*AuditService)

// WithPublisher mirrors every persisted batch to publisher from a background
// worker. Call Close to drain it.
func WithPublisher(publisher AuditPublisher) AuditOption {
	return func(s *AuditService) {
		s.publisher = publisher
	}
}

// WithPublishQueue bounds the number of batches waiting to be mirrored.
// Batches arriving at a full queue are dropped.
func WithPublishQueue(size int) AuditOption {
	return func(s *AuditService) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

func WithClassifier(classifier *audit.Classifier) AuditOption {
	return func(s *AuditService) {
		s.classifier = classifier
	}
}

func WithBuilder(builder *audit.Builder) AuditOption {
	return func(s *AuditService) {
		s.builder = builder
	}
}

func WithMetrics(m *metrics.AuditMetrics) AuditOption {
	return func(s *AuditService) {
		s.metrics = m
	}
}

func WithListLimits(defaultLimit, maxLimit int) AuditOption {
	return func(s *AuditService) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

func NewAuditService(repo AuditRepository, opts ...AuditOption) *AuditService {
	s := &AuditService{
		repo:         repo,
		classifier:   audit.NewClassifier(),
		builder:      audit.NewBuilder(),
		defaultLimit: defaultAuditListLimit,
		maxLimit:     maxAuditListLimit,
		queueSize:    defaultPublishQueue,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultLimit > s.maxLimit {
		s.defaultLimit = s.maxLimit
	}
	if s.publisher != nil {
		s.mirror = make(chan []domain.AuditEvent, s.queueSize)
		s.wg.Add(1)
		go s.runMirror()
	}
	return s
}

// Close stops accepting batches for mirroring and waits until the queued
// ones are published.
func (s *AuditService) Close() {
	if s == nil || s.mirror == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.mirror)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *AuditService) runMirror() {
	defer s.wg.Done()

	for events := range s.mirror {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := s.publisher.Publish(ctx, events)
		cancel()
		if err != nil {
			s.metrics.ObservePublishFailure()
			log.WithError(err).WithFields(log.Fields{
				"entity_kind": events[0].EntityKind,
				"events":      len(events),
			}).Warn("Failed to publish audit events")
		}
	}
}

func (s *AuditService) enqueueMirror(events []domain.AuditEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}
	select {
	case s.mirror <- append([]domain.AuditEvent(nil), events...):
	default:
		s.metrics.ObservePublishFailure()
		log.WithFields(log.Fields{
			"entity_kind": events[0].EntityKind,
			"events":      len(events),
		}).Warn("Audit publish queue is full, dropping batch")
	}
}

// Record classifies the change from old to current and appends the resulting
// events. A nil old snapshot records a creation.
func (s *AuditService) Record(ctx context.Context, target audit.Target, old, current *domain.Snapshot) ([]domain.AuditEvent, error) {
	if s == nil || s.repo == nil {
		return nil, nil
	}
	if err := domain.ValidateSnapshot(target.Kind, old); err != nil {
		return nil, err
	}
	if err := domain.ValidateSnapshot(target.Kind, current); err != nil {
		return nil, err
	}

	changes := s.classifier.Classify(old, current)
	events := s.builder.Build(target, changes, current)
	if err := s.persist(ctx, target, events); err != nil {
		return nil, err
	}
	return events, nil
}

// RecordDeletion appends the single DELETE event of a hard delete.
func (s *AuditService) RecordDeletion(ctx context.Context, target audit.Target, last *domain.Snapshot) (*domain.AuditEvent, error) {
	if s == nil || s.repo == nil {
		return nil, nil
	}
	if err := domain.ValidateSnapshot(target.Kind, last); err != nil {
		return nil, err
	}

	event := s.builder.BuildDelete(target, last)
	if err := s.persist(ctx, target, []domain.AuditEvent{event}); err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *AuditService) persist(ctx context.Context, target audit.Target, events []domain.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	if _, ok := domain.ParseEntityID(target.ID); !ok {
		log.WithFields(log.Fields{
			"entity_kind": target.Kind,
			"entity_id":   target.ID,
		}).Warn("Entity id is not an integer key, storing audit events without it")
		s.metrics.ObserveUnparsedID(target.Kind)
	}

	if err := s.repo.Append(ctx, events); err != nil {
		s.metrics.ObserveAppendFailure(target.Kind)
		return fmt.Errorf("failed to append audit events: %w", err)
	}
	s.metrics.ObserveAppended(events)

	if s.mirror != nil {
		s.enqueueMirror(events)
	}
	return nil
}

// ListForEntity returns the history of one entity, newest first. kind may be
// empty or "any" to match every kind. An id that is not an integer key yields
// an empty history.
func (s *AuditService) ListForEntity(ctx context.Context, kind, entityID string, limit int) ([]domain.AuditEvent, error) {
	var entityKind domain.EntityKind
	if k := strings.TrimSpace(kind); k != "" && !strings.EqualFold(k, "any") {
		parsed, err := domain.ParseEntityKind(k)
		if err != nil {
			return nil, err
		}
		entityKind = parsed
	}

	id, ok := domain.ParseEntityID(entityID)
	if !ok {
		return []domain.AuditEvent{}, nil
	}

	events, err := s.repo.ListForEntity(ctx, entityKind, *id, s.clampLimit(limit))
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"entity_kind": entityKind,
			"entity_id":   *id,
		}).Error("Failed to list audit events for entity")
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	return events, nil
}

func (s *AuditService) ListAll(ctx context.Context, actor string, limit int) ([]domain.AuditEvent, error) {
	events, err := s.repo.ListAll(ctx, strings.TrimSpace(actor), s.clampLimit(limit))
	if err != nil {
		log.WithError(err).WithField("actor", actor).Error("Failed to list audit events")
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	return events, nil
}

func (s *AuditService) Statistics(ctx context.Context) (*domain.AuditStats, error) {
	stats, err := s.repo.Statistics(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to compute audit statistics")
		return nil, fmt.Errorf("failed to compute audit statistics: %w", err)
	}
	return stats, nil
}

func (s *AuditService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.defaultLimit
	}
	if limit > s.maxLimit {
		return s.maxLimit
	}
	return limit
}
