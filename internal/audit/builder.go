package audit

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"inventory-audit/internal/domain"

	"github.com/google/uuid"
)

const (
	summaryFieldsKey = "changed_fields"
	listFieldKey     = "field"
	listItemsKey     = "items"
	missingLabel     = "N/A"

	// MaxActorLength caps the recorded actor name, in runes.
	MaxActorLength = 200
)

// Target identifies the entity and the actor of one audited mutation.
type Target struct {
	Kind  domain.EntityKind
	ID    string
	Label string
	Actor string
}

func (t Target) actor() string {
	a := strings.TrimSpace(t.Actor)
	if a == "" {
		return domain.SystemActor
	}
	if runes := []rune(a); len(runes) > MaxActorLength {
		return string(runes[:MaxActorLength])
	}
	return a
}

func (t Target) label() string {
	if t.Label == "" {
		return missingLabel
	}
	return t.Label
}

type Builder struct {
	mu    sync.Mutex
	now   func() time.Time
	last  time.Time
	newID func() string
}

type BuilderOption func(*Builder)

func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

func WithIDGenerator(newID func() string) BuilderOption {
	return func(b *Builder) {
		b.newID = newID
	}
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// timestamp never goes backwards within one builder, even if the wall clock does.
func (b *Builder) timestamp() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()

	ts := b.now()
	if ts.Before(b.last) {
		ts = b.last
	}
	b.last = ts
	return ts
}

func (b *Builder) event(t Target, action domain.Action, description string, before, after *domain.Snapshot) domain.AuditEvent {
	entityID, _ := domain.ParseEntityID(t.ID)
	return domain.AuditEvent{
		ID:          b.newID(),
		EntityKind:  t.Kind,
		EntityID:    entityID,
		Action:      action,
		Actor:       t.actor(),
		Description: description,
		Before:      before,
		After:       after,
		Timestamp:   b.timestamp(),
	}
}

// Build turns classified changes into audit events. current is the entity's
// state after the mutation. A CREATE record yields exactly one event; any other
// non-empty set of changes is followed by one UPDATE_SUMMARY event.
func (b *Builder) Build(t Target, changes []ChangeRecord, current *domain.Snapshot) []domain.AuditEvent {
	var (
		events  []domain.AuditEvent
		changed []string
	)

	for _, ch := range changes {
		switch ch.Kind {
		case domain.ActionCreate:
			events = append(events, b.event(t, domain.ActionCreate,
				fmt.Sprintf("%s %s cadastrado no sistema", t.Kind, t.label()),
				nil, current.Clone()))

		case domain.ActionListAdd:
			events = append(events, b.event(t, domain.ActionListAdd,
				fmt.Sprintf("%s: adicionado %s", ch.Field, renderValue(ch.Items)),
				nil, listFragment(ch)))
			changed = append(changed, ch.Field+" (+)")

		case domain.ActionListRemove:
			events = append(events, b.event(t, domain.ActionListRemove,
				fmt.Sprintf("%s: removido %s", ch.Field, renderValue(ch.Items)),
				listFragment(ch), nil))
			changed = append(changed, ch.Field+" (-)")

		case domain.ActionFieldChange:
			events = append(events, b.event(t, domain.ActionFieldChange,
				fmt.Sprintf("%s alterado de %s para %s", ch.Field, renderValue(ch.OldValue), renderValue(ch.NewValue)),
				domain.NewSnapshot().Set(ch.Field, ch.OldValue),
				domain.NewSnapshot().Set(ch.Field, ch.NewValue)))
			changed = append(changed, ch.Field)
		}
	}

	if len(changed) > 0 {
		events = append(events, b.event(t, domain.ActionUpdateSummary,
			fmt.Sprintf("%s %s atualizado: %s", t.Kind, t.label(), strings.Join(changed, ", ")),
			domain.NewSnapshot().Set(summaryFieldsKey, changed),
			current.Clone()))
	}

	return events
}

// BuildDelete records a hard delete. last is the entity's final known state.
func (b *Builder) BuildDelete(t Target, last *domain.Snapshot) domain.AuditEvent {
	return b.event(t, domain.ActionDelete,
		fmt.Sprintf("%s %s excluído do sistema", t.Kind, t.label()),
		last.Clone(), nil)
}

func listFragment(ch ChangeRecord) *domain.Snapshot {
	return domain.NewSnapshot().
		Set(listFieldKey, ch.Field).
		Set(listItemsKey, ch.Items)
}
