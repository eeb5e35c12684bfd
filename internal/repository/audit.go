package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"inventory-audit/internal/domain"

	log "github.com/sirupsen/logrus"
)

const auditColumns = `id, entity_kind, entity_id, action, actor, description, before_data, after_data, timestamp`

type postgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) *postgresAuditRepository {
	return &postgresAuditRepository{db: db}
}

// Append writes a batch of events in its own transaction, independent of the
// transaction that changed the audited entity.
func (r *postgresAuditRepository) Append(ctx context.Context, events []domain.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO audit_logs (`+auditColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare audit insert: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		before, err := snapshotParam(ev.Before)
		if err != nil {
			return err
		}
		after, err := snapshotParam(ev.After)
		if err != nil {
			return err
		}

		var entityID sql.NullInt64
		if ev.EntityID != nil {
			entityID = sql.NullInt64{Int64: *ev.EntityID, Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			ev.ID,
			string(ev.EntityKind),
			entityID,
			string(ev.Action),
			ev.Actor,
			ev.Description,
			before,
			after,
			ev.Timestamp,
		); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"event_id":    ev.ID,
				"entity_kind": ev.EntityKind,
				"action":      ev.Action,
			}).Error("Failed to insert audit event")
			return fmt.Errorf("failed to insert audit event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit audit events: %w", err)
	}

	log.WithFields(log.Fields{
		"count":       len(events),
		"entity_kind": events[0].EntityKind,
	}).Debug("Audit events appended")
	return nil
}

// ListForEntity returns the history of one entity, newest first. An empty kind
// matches any kind; limit <= 0 returns everything.
func (r *postgresAuditRepository) ListForEntity(ctx context.Context, kind domain.EntityKind, entityID int64, limit int) ([]domain.AuditEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var query strings.Builder
	args := []interface{}{entityID}
	argPos := 2

	query.WriteString(`SELECT ` + auditColumns + ` FROM audit_logs WHERE entity_id = $1`)

	if kind != "" {
		query.WriteString(fmt.Sprintf(" AND entity_kind = $%d", argPos))
		args = append(args, string(kind))
		argPos++
	}

	query.WriteString(" ORDER BY timestamp DESC, seq DESC")
	if limit > 0 {
		query.WriteString(fmt.Sprintf(" LIMIT $%d", argPos))
		args = append(args, limit)
	}

	return r.query(ctx, query.String(), args...)
}

// ListAll returns the newest events across all entities, optionally only those
// of one actor.
func (r *postgresAuditRepository) ListAll(ctx context.Context, actor string, limit int) ([]domain.AuditEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var query strings.Builder
	args := []interface{}{}
	argPos := 1

	query.WriteString(`SELECT ` + auditColumns + ` FROM audit_logs WHERE 1=1`)

	if actor != "" {
		query.WriteString(fmt.Sprintf(" AND actor = $%d", argPos))
		args = append(args, actor)
		argPos++
	}

	query.WriteString(" ORDER BY timestamp DESC, seq DESC")
	query.WriteString(fmt.Sprintf(" LIMIT $%d", argPos))
	args = append(args, limit)

	return r.query(ctx, query.String(), args...)
}

// Statistics is computed over the whole table on every call.
func (r *postgresAuditRepository) Statistics(ctx context.Context) (*domain.AuditStats, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	stats := &domain.AuditStats{
		Actors:         []string{},
		Actions:        []string{},
		CountPerAction: map[string]int64{},
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`).Scan(&stats.TotalCount); err != nil {
		log.WithError(err).Error("Failed to count audit events")
		return nil, fmt.Errorf("failed to count audit events: %w", err)
	}

	actorRows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT actor FROM audit_logs
		WHERE actor <> ''
		ORDER BY actor
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit actors: %w", err)
	}
	defer actorRows.Close()

	for actorRows.Next() {
		var actor string
		if err := actorRows.Scan(&actor); err != nil {
			return nil, fmt.Errorf("failed to scan audit actor: %w", err)
		}
		stats.Actors = append(stats.Actors, actor)
	}
	if err := actorRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over audit actors: %w", err)
	}

	actionRows, err := r.db.QueryContext(ctx, `
		SELECT action, COUNT(*) FROM audit_logs
		GROUP BY action
		ORDER BY action
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count audit actions: %w", err)
	}
	defer actionRows.Close()

	for actionRows.Next() {
		var (
			action string
			count  int64
		)
		if err := actionRows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("failed to scan audit action count: %w", err)
		}
		stats.Actions = append(stats.Actions, action)
		stats.CountPerAction[action] = count
	}
	if err := actionRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over audit actions: %w", err)
	}

	return stats, nil
}

func (r *postgresAuditRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.WithError(err).Error("Failed to query audit events")
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer rows.Close()

	events := []domain.AuditEvent{}
	for rows.Next() {
		var (
			ev            domain.AuditEvent
			kind, action  string
			entityID      sql.NullInt64
			before, after []byte
		)
		if err := rows.Scan(
			&ev.ID,
			&kind,
			&entityID,
			&action,
			&ev.Actor,
			&ev.Description,
			&before,
			&after,
			&ev.Timestamp,
		); err != nil {
			log.WithError(err).Error("Failed to scan audit event row")
			return nil, fmt.Errorf("failed to scan audit event row: %w", err)
		}

		ev.EntityKind = domain.EntityKind(kind)
		ev.Action = domain.Action(action)
		if entityID.Valid {
			id := entityID.Int64
			ev.EntityID = &id
		}
		if ev.Before, err = decodeSnapshot(before); err != nil {
			return nil, err
		}
		if ev.After, err = decodeSnapshot(after); err != nil {
			return nil, err
		}

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over audit event rows: %w", err)
	}
	return events, nil
}

// snapshotParam encodes a snapshot for a JSONB column. lib/pq sends []byte as
// bytea, so the JSON goes over the wire as text.
func snapshotParam(s *domain.Snapshot) (sql.NullString, error) {
	if s == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal audit snapshot: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeSnapshot(data []byte) (*domain.Snapshot, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	s := domain.NewSnapshot()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to decode audit snapshot: %w", err)
	}
	return s, nil
}
