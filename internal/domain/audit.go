package domain

import "time"

type Action string

const (
	ActionCreate        Action = "CREATE"
	ActionFieldChange   Action = "FIELD_CHANGE"
	ActionListAdd       Action = "LIST_ADD"
	ActionListRemove    Action = "LIST_REMOVE"
	ActionUpdateSummary Action = "UPDATE_SUMMARY"
	ActionDelete        Action = "DELETE"
)

// SystemActor is recorded when the caller does not know who triggered a mutation.
const SystemActor = "System"

// AuditEvent is one immutable entry of an entity's history.
type AuditEvent struct {
	ID          string     `json:"id"`
	EntityKind  EntityKind `json:"entity_kind"`
	EntityID    *int64     `json:"entity_id"`
	Action      Action     `json:"action"`
	Actor       string     `json:"actor"`
	Description string     `json:"description"`
	Before      *Snapshot  `json:"before"`
	After       *Snapshot  `json:"after"`
	Timestamp   time.Time  `json:"timestamp"`
}

type AuditStats struct {
	TotalCount     int64            `json:"total_count"`
	Actors         []string         `json:"distinct_actors"`
	Actions        []string         `json:"distinct_actions"`
	CountPerAction map[string]int64 `json:"count_per_action"`
}
