// Package audit holds the change-audit engine: a classifier that compares two
// snapshots of an entity and a builder that turns the classified changes into
// audit events. Both are pure and perform no I/O; persistence belongs to the caller.
package audit

import "inventory-audit/internal/domain"

// ChangeRecord is one classified difference between two snapshots.
type ChangeRecord struct {
	Kind domain.Action

	// Fields lists every key of the new snapshot. Set for CREATE only.
	Fields []string

	Field    string
	OldValue any
	NewValue any

	// Items holds the added or removed list elements for LIST_ADD and LIST_REMOVE.
	Items []any
}

type Classifier struct {
	detectRemoved bool
}

type ClassifierOption func(*Classifier)

// WithRemovedFields makes the classifier report fields present in the old
// snapshot but missing from the new one as a FIELD_CHANGE to nil.
func WithRemovedFields() ClassifierOption {
	return func(c *Classifier) {
		c.detectRemoved = true
	}
}

func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultClassifier = NewClassifier()

// Classify compares old and current with the default classifier.
func Classify(old, current *domain.Snapshot) []ChangeRecord {
	return defaultClassifier.Classify(old, current)
}

// Classify walks current in insertion order and reports what changed since old.
// A nil old snapshot means the entity was just created.
func (c *Classifier) Classify(old, current *domain.Snapshot) []ChangeRecord {
	if current == nil {
		return nil
	}
	if old == nil {
		return []ChangeRecord{{Kind: domain.ActionCreate, Fields: current.Keys()}}
	}

	var changes []ChangeRecord
	for _, field := range current.Keys() {
		if domain.IsReservedField(field) {
			continue
		}

		newValue, _ := current.Get(field)
		oldValue, _ := old.Get(field)
		if equalValues(oldValue, newValue) {
			continue
		}

		oldItems, oldIsList := asList(normalize(oldValue))
		newItems, newIsList := asList(normalize(newValue))
		if oldIsList && newIsList {
			// Membership only: [a, a] -> [a] is not a change.
			if added := difference(newItems, oldItems); len(added) > 0 {
				changes = append(changes, ChangeRecord{Kind: domain.ActionListAdd, Field: field, Items: added})
			}
			if removed := difference(oldItems, newItems); len(removed) > 0 {
				changes = append(changes, ChangeRecord{Kind: domain.ActionListRemove, Field: field, Items: removed})
			}
			continue
		}

		changes = append(changes, ChangeRecord{
			Kind:     domain.ActionFieldChange,
			Field:    field,
			OldValue: oldValue,
			NewValue: newValue,
		})
	}

	if c.detectRemoved {
		for _, field := range old.Keys() {
			if domain.IsReservedField(field) || current.Has(field) {
				continue
			}
			oldValue, _ := old.Get(field)
			if normalize(oldValue) == nil {
				continue
			}
			changes = append(changes, ChangeRecord{
				Kind:     domain.ActionFieldChange,
				Field:    field,
				OldValue: oldValue,
			})
		}
	}

	return changes
}
