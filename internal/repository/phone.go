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

const phoneColumns = `id, tag, branch, model, imei, number, carrier, owner, status, notes,
	purchase_date, value, created_at, updated_at`

type postgresPhoneRepository struct {
	db *sql.DB
}

func NewPostgresPhoneRepository(db *sql.DB) *postgresPhoneRepository {
	return &postgresPhoneRepository{db: db}
}

func scanPhone(row rowScanner) (*domain.Phone, error) {
	var (
		phone        domain.Phone
		imei         sql.NullString
		purchaseDate sql.NullTime
		value        sql.NullFloat64
	)

	err := row.Scan(
		&phone.ID,
		&phone.Tag,
		&phone.Branch,
		&phone.Model,
		&imei,
		&phone.Number,
		&phone.Carrier,
		&phone.Owner,
		&phone.Status,
		&phone.Notes,
		&purchaseDate,
		&value,
		&phone.CreatedAt,
		&phone.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	phone.IMEI = imei.String
	if purchaseDate.Valid {
		phone.PurchaseDate = &purchaseDate.Time
	}
	if value.Valid {
		phone.Value = &value.Float64
	}
	return &phone, nil
}

// nullIfEmpty keeps optional unique columns NULL instead of colliding on "".
func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *postgresPhoneRepository) ListPhones(ctx context.Context, filter domain.PhoneFilter, limit, offset int) ([]domain.Phone, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var query strings.Builder
	args := []interface{}{}
	argPos := 1

	query.WriteString(`SELECT ` + phoneColumns + ` FROM phones WHERE 1=1`)

	if filter.Branch != "" {
		query.WriteString(fmt.Sprintf(" AND branch = $%d", argPos))
		args = append(args, filter.Branch)
		argPos++
	}
	if filter.Status != "" {
		query.WriteString(fmt.Sprintf(" AND status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}

	query.WriteString(" ORDER BY created_at DESC")
	query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		log.WithError(err).Error("Failed to list phones")
		return nil, err
	}
	defer rows.Close()

	phones := []domain.Phone{}
	for rows.Next() {
		phone, err := scanPhone(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan phone row")
			return nil, err
		}
		phones = append(phones, *phone)
	}

	return phones, rows.Err()
}

func (r *postgresPhoneRepository) GetByID(ctx context.Context, id int64) (*domain.Phone, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	phone, err := scanPhone(r.db.QueryRowContext(ctx, `SELECT `+phoneColumns+` FROM phones WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrPhoneNotFound
	}
	if err != nil {
		log.WithError(err).WithField("phone_id", id).Error("Failed to get phone by ID")
		return nil, err
	}
	return phone, nil
}

func (r *postgresPhoneRepository) Create(ctx context.Context, phone *domain.Phone) (*domain.Phone, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	log.WithFields(log.Fields{
		"tag":    phone.Tag,
		"branch": phone.Branch,
	}).Info("Creating new phone")

	query := `INSERT INTO phones (tag, branch, model, imei, number, carrier, owner, status, notes, purchase_date, value)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	          RETURNING ` + phoneColumns

	created, err := scanPhone(r.db.QueryRowContext(ctx, query,
		phone.Tag,
		phone.Branch,
		phone.Model,
		nullIfEmpty(phone.IMEI),
		phone.Number,
		phone.Carrier,
		phone.Owner,
		phone.Status,
		phone.Notes,
		phone.PurchaseDate,
		phone.Value,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrPhoneExists
		}
		log.WithError(err).WithField("tag", phone.Tag).Error("Failed to create phone")
		return nil, err
	}
	return created, nil
}

func (r *postgresPhoneRepository) Update(ctx context.Context, id int64, fields domain.PhoneFields) (*domain.Phone, error) {
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

	if fields.Branch != nil {
		set("branch", *fields.Branch)
	}
	if fields.Model != nil {
		set("model", *fields.Model)
	}
	if fields.IMEI != nil {
		set("imei", nullIfEmpty(*fields.IMEI))
	}
	if fields.Number != nil {
		set("number", *fields.Number)
	}
	if fields.Carrier != nil {
		set("carrier", *fields.Carrier)
	}
	if fields.Owner != nil {
		set("owner", *fields.Owner)
	}
	if fields.Status != nil {
		set("status", *fields.Status)
	}
	if fields.Notes != nil {
		set("notes", *fields.Notes)
	}
	if fields.PurchaseDate.Set {
		set("purchase_date", fields.PurchaseDate.Value)
	}
	if fields.Value != nil {
		set("value", *fields.Value)
	}

	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}

	setParts = append(setParts, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE phones SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setParts, ", "), argPos, phoneColumns)

	phone, err := scanPhone(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, domain.ErrPhoneNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrPhoneExists
		}
		log.WithError(err).WithField("phone_id", id).Error("Failed to update phone")
		return nil, err
	}
	return phone, nil
}
