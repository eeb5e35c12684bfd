package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"inventory-audit/internal/domain"

	log "github.com/sirupsen/logrus"
)

const emailSelect = `SELECT e.id, e.address, e.type, e.asset_id, COALESCE(a.tag, ''), e."user", e.recovery,
	e.notes, e.active, e.created_at, e.updated_at`

const emailFrom = ` FROM emails e LEFT JOIN assets a ON a.id = e.asset_id`

type postgresEmailRepository struct {
	db *sql.DB
}

func NewPostgresEmailRepository(db *sql.DB) *postgresEmailRepository {
	return &postgresEmailRepository{db: db}
}

func scanEmail(row rowScanner) (*domain.Email, error) {
	var (
		email   domain.Email
		assetID sql.NullInt64
	)

	err := row.Scan(
		&email.ID,
		&email.Address,
		&email.Type,
		&assetID,
		&email.AssetTag,
		&email.User,
		&email.Recovery,
		&email.Notes,
		&email.Active,
		&email.CreatedAt,
		&email.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assetID.Valid {
		email.AssetID = &assetID.Int64
	}
	return &email, nil
}

func (r *postgresEmailRepository) ListEmails(ctx context.Context, filter domain.EmailFilter, limit, offset int) ([]domain.Email, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var query strings.Builder
	args := []interface{}{}
	argPos := 1

	query.WriteString(emailSelect + emailFrom + ` WHERE 1=1`)

	if filter.AssetID > 0 {
		query.WriteString(fmt.Sprintf(" AND e.asset_id = $%d", argPos))
		args = append(args, filter.AssetID)
		argPos++
	}
	if filter.Type != "" {
		query.WriteString(fmt.Sprintf(" AND e.type = $%d", argPos))
		args = append(args, filter.Type)
		argPos++
	}
	if filter.OnlyActive {
		query.WriteString(" AND e.active = TRUE")
	}

	query.WriteString(" ORDER BY e.address ASC")
	query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		log.WithError(err).Error("Failed to list emails")
		return nil, err
	}
	defer rows.Close()

	emails := []domain.Email{}
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan email row")
			return nil, err
		}
		emails = append(emails, *email)
	}

	return emails, rows.Err()
}

func (r *postgresEmailRepository) GetByID(ctx context.Context, id int64) (*domain.Email, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	email, err := scanEmail(r.db.QueryRowContext(ctx, emailSelect+emailFrom+` WHERE e.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrEmailNotFound
	}
	if err != nil {
		log.WithError(err).WithField("email_id", id).Error("Failed to get email by ID")
		return nil, err
	}
	return email, nil
}

func (r *postgresEmailRepository) Create(ctx context.Context, email *domain.Email) (*domain.Email, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	log.WithFields(log.Fields{
		"address": email.Address,
		"type":    email.Type,
	}).Info("Creating new email")

	query := `WITH e AS (
	              INSERT INTO emails (address, type, asset_id, "user", recovery, notes)
	              VALUES ($1, $2, $3, $4, $5, $6)
	              RETURNING *
	          ) ` + emailSelect + ` FROM e LEFT JOIN assets a ON a.id = e.asset_id`

	created, err := scanEmail(r.db.QueryRowContext(ctx, query,
		email.Address,
		email.Type,
		email.AssetID,
		email.User,
		email.Recovery,
		email.Notes,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrEmailExists
		}
		if isForeignKeyViolation(err) {
			return nil, domain.ErrUnknownAsset
		}
		log.WithError(err).WithField("address", email.Address).Error("Failed to create email")
		return nil, err
	}
	return created, nil
}

func (r *postgresEmailRepository) Update(ctx context.Context, id int64, fields domain.EmailFields) (*domain.Email, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	setParts := []string{}
	args := []interface{}{}
	argPos := 1

	set := func(column string, value interface{}) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if fields.Type != nil {
		set("type", *fields.Type)
	}
	if fields.AssetID != nil {
		set("asset_id", *fields.AssetID)
	}
	if fields.User != nil {
		set(`"user"`, *fields.User)
	}
	if fields.Recovery != nil {
		set("recovery", *fields.Recovery)
	}
	if fields.Notes != nil {
		set("notes", *fields.Notes)
	}
	if fields.Active != nil {
		set("active", *fields.Active)
	}

	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}

	setParts = append(setParts, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`WITH e AS (UPDATE emails SET %s WHERE id = $%d RETURNING *) %s FROM e LEFT JOIN assets a ON a.id = e.asset_id`,
		strings.Join(setParts, ", "), argPos, emailSelect)

	email, err := scanEmail(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, domain.ErrEmailNotFound
	}
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrUnknownAsset
		}
		log.WithError(err).WithField("email_id", id).Error("Failed to update email")
		return nil, err
	}
	return email, nil
}
