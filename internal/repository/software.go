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

// softwareSelect reads a software row aliased s joined to its asset a.
const softwareSelect = `SELECT s.id, s.name, s.version, s.asset_id, COALESCE(a.tag, ''), s.license_type,
	s.license_key, s.installed_at, s.expires_at, s.annual_cost, s.auto_renew, s.notes, s.active,
	s.created_at, s.updated_at`

const softwareFrom = ` FROM software s LEFT JOIN assets a ON a.id = s.asset_id`

type postgresSoftwareRepository struct {
	db *sql.DB
}

func NewPostgresSoftwareRepository(db *sql.DB) *postgresSoftwareRepository {
	return &postgresSoftwareRepository{db: db}
}

func scanSoftware(row rowScanner) (*domain.Software, error) {
	var (
		sw                     domain.Software
		installedAt, expiresAt sql.NullTime
		cost                   sql.NullFloat64
	)

	err := row.Scan(
		&sw.ID,
		&sw.Name,
		&sw.Version,
		&sw.AssetID,
		&sw.AssetTag,
		&sw.LicenseType,
		&sw.LicenseKey,
		&installedAt,
		&expiresAt,
		&cost,
		&sw.AutoRenew,
		&sw.Notes,
		&sw.Active,
		&sw.CreatedAt,
		&sw.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if installedAt.Valid {
		sw.InstalledAt = &installedAt.Time
	}
	if expiresAt.Valid {
		sw.ExpiresAt = &expiresAt.Time
	}
	if cost.Valid {
		sw.AnnualCost = &cost.Float64
	}
	return &sw, nil
}

func (r *postgresSoftwareRepository) ListSoftware(ctx context.Context, filter domain.SoftwareFilter, limit, offset int) ([]domain.Software, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var query strings.Builder
	args := []interface{}{}
	argPos := 1

	query.WriteString(softwareSelect + softwareFrom + ` WHERE 1=1`)

	if filter.AssetID > 0 {
		query.WriteString(fmt.Sprintf(" AND s.asset_id = $%d", argPos))
		args = append(args, filter.AssetID)
		argPos++
	}
	if filter.OnlyActive {
		query.WriteString(" AND s.active = TRUE")
	}
	if filter.ExpiresBefore != nil {
		query.WriteString(fmt.Sprintf(" AND s.expires_at <= $%d", argPos))
		args = append(args, *filter.ExpiresBefore)
		argPos++
	}

	query.WriteString(" ORDER BY s.expires_at ASC NULLS LAST, s.id ASC")
	query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		log.WithError(err).Error("Failed to list software")
		return nil, err
	}
	defer rows.Close()

	items := []domain.Software{}
	for rows.Next() {
		sw, err := scanSoftware(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan software row")
			return nil, err
		}
		items = append(items, *sw)
	}

	return items, rows.Err()
}

func (r *postgresSoftwareRepository) GetByID(ctx context.Context, id int64) (*domain.Software, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	sw, err := scanSoftware(r.db.QueryRowContext(ctx, softwareSelect+softwareFrom+` WHERE s.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrSoftwareNotFound
	}
	if err != nil {
		log.WithError(err).WithField("software_id", id).Error("Failed to get software by ID")
		return nil, err
	}
	return sw, nil
}

func (r *postgresSoftwareRepository) Create(ctx context.Context, sw *domain.Software) (*domain.Software, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	log.WithFields(log.Fields{
		"name":     sw.Name,
		"asset_id": sw.AssetID,
	}).Info("Creating new software")

	query := `WITH s AS (
	              INSERT INTO software (name, version, asset_id, license_type, license_key, installed_at,
	                  expires_at, annual_cost, auto_renew, notes)
	              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	              RETURNING *
	          ) ` + softwareSelect + ` FROM s LEFT JOIN assets a ON a.id = s.asset_id`

	created, err := scanSoftware(r.db.QueryRowContext(ctx, query,
		sw.Name,
		sw.Version,
		sw.AssetID,
		sw.LicenseType,
		sw.LicenseKey,
		sw.InstalledAt,
		sw.ExpiresAt,
		sw.AnnualCost,
		sw.AutoRenew,
		sw.Notes,
	))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrUnknownAsset
		}
		log.WithError(err).WithField("name", sw.Name).Error("Failed to create software")
		return nil, err
	}
	return created, nil
}

func (r *postgresSoftwareRepository) Update(ctx context.Context, id int64, fields domain.SoftwareFields) (*domain.Software, error) {
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

	if fields.Name != nil {
		set("name", *fields.Name)
	}
	if fields.Version != nil {
		set("version", *fields.Version)
	}
	if fields.AssetID != nil {
		set("asset_id", *fields.AssetID)
	}
	if fields.LicenseType != nil {
		set("license_type", *fields.LicenseType)
	}
	if fields.LicenseKey != nil {
		set("license_key", *fields.LicenseKey)
	}
	if fields.InstalledAt.Set {
		set("installed_at", fields.InstalledAt.Value)
	}
	if fields.ExpiresAt.Set {
		set("expires_at", fields.ExpiresAt.Value)
	}
	if fields.AnnualCost != nil {
		set("annual_cost", *fields.AnnualCost)
	}
	if fields.AutoRenew != nil {
		set("auto_renew", *fields.AutoRenew)
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

	query := fmt.Sprintf(`WITH s AS (UPDATE software SET %s WHERE id = $%d RETURNING *) %s FROM s LEFT JOIN assets a ON a.id = s.asset_id`,
		strings.Join(setParts, ", "), argPos, softwareSelect)

	sw, err := scanSoftware(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, domain.ErrSoftwareNotFound
	}
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrUnknownAsset
		}
		log.WithError(err).WithField("software_id", id).Error("Failed to update software")
		return nil, err
	}
	return sw, nil
}
