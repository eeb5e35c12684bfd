package repository

import (
	"context"
	"sort"
	"sync"

	"inventory-audit/internal/domain"
)

type storedEvent struct {
	seq   int64
	event domain.AuditEvent
}

// InMemoryAuditRepository keeps audit events in process memory, for callers
// that run without a database.
type InMemoryAuditRepository struct {
	mu     sync.RWMutex
	seq    int64
	events []storedEvent
}

func NewInMemoryAuditRepository() *InMemoryAuditRepository {
	return &InMemoryAuditRepository{}
}

func (r *InMemoryAuditRepository) Append(_ context.Context, events []domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ev := range events {
		r.seq++
		r.events = append(r.events, storedEvent{seq: r.seq, event: ev})
	}
	return nil
}

func (r *InMemoryAuditRepository) ListForEntity(_ context.Context, kind domain.EntityKind, entityID int64, limit int) ([]domain.AuditEvent, error) {
	return r.newestFirst(limit, func(ev domain.AuditEvent) bool {
		if ev.EntityID == nil || *ev.EntityID != entityID {
			return false
		}
		return kind == "" || ev.EntityKind == kind
	}), nil
}

func (r *InMemoryAuditRepository) ListAll(_ context.Context, actor string, limit int) ([]domain.AuditEvent, error) {
	return r.newestFirst(limit, func(ev domain.AuditEvent) bool {
		return actor == "" || ev.Actor == actor
	}), nil
}

func (r *InMemoryAuditRepository) Statistics(_ context.Context) (*domain.AuditStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &domain.AuditStats{
		TotalCount:     int64(len(r.events)),
		Actors:         []string{},
		Actions:        []string{},
		CountPerAction: map[string]int64{},
	}

	actors := map[string]struct{}{}
	for _, se := range r.events {
		if se.event.Actor != "" {
			actors[se.event.Actor] = struct{}{}
		}
		stats.CountPerAction[string(se.event.Action)]++
	}
	for actor := range actors {
		stats.Actors = append(stats.Actors, actor)
	}
	for action := range stats.CountPerAction {
		stats.Actions = append(stats.Actions, action)
	}
	sort.Strings(stats.Actors)
	sort.Strings(stats.Actions)

	return stats, nil
}

func (r *InMemoryAuditRepository) newestFirst(limit int, match func(domain.AuditEvent) bool) []domain.AuditEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var selected []storedEvent
	for _, se := range r.events {
		if match(se.event) {
			selected = append(selected, se)
		}
	}

	sort.Slice(selected, func(i, j int) bool {
		ti, tj := selected[i].event.Timestamp, selected[j].event.Timestamp
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return selected[i].seq > selected[j].seq
	})

	if limit > 0 && len(selected) > limit {
		selected = selected[:limit]
	}

	events := make([]domain.AuditEvent, len(selected))
	for i, se := range selected {
		events[i] = se.event
	}
	return events
}
