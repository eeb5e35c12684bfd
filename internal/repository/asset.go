package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"inventory-audit/internal/domain"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

const assetColumns = `id, tag, type, brand, model, serial_number, branch, sector, owner, status,
	installed_software, notes, purchase_date, warranty_date, value, supplier, anydesk, created_at, updated_at`

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type rowScanner interface {
	Scan(dest ...any) error
}

type postgresAssetRepository struct {
	db *sql.DB
}

func NewPostgresAssetRepository(db *sql.DB) *postgresAssetRepository {
	return &postgresAssetRepository{db: db}
}

func scanAsset(row rowScanner) (*domain.Asset, error) {
	var (
		asset                      domain.Asset
		purchaseDate, warrantyDate sql.NullTime
		value                      sql.NullFloat64
	)

	err := row.Scan(
		&asset.ID,
		&asset.Tag,
		&asset.Type,
		&asset.Brand,
		&asset.Model,
		&asset.SerialNumber,
		&asset.Branch,
		&asset.Sector,
		&asset.Owner,
		&asset.Status,
		pq.Array(&asset.InstalledSoftware),
		&asset.Notes,
		&purchaseDate,
		&warrantyDate,
		&value,
		&asset.Supplier,
		&asset.AnyDesk,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if purchaseDate.Valid {
		asset.PurchaseDate = &purchaseDate.Time
	}
	if warrantyDate.Valid {
		asset.WarrantyDate = &warrantyDate.Time
	}
	if value.Valid {
		asset.Value = &value.Float64
	}
	if asset.InstalledSoftware == nil {
		asset.InstalledSoftware = []string{}
	}
	return &asset, nil
}

func (r *postgresAssetRepository) ListAssets(ctx context.Context, filter domain.AssetFilter, limit, offset int) ([]domain.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var query strings.Builder
	args := []interface{}{}
	argPos := 1

	query.WriteString(`SELECT ` + assetColumns + ` FROM assets WHERE 1=1`)

	if filter.Status != "" {
		query.WriteString(fmt.Sprintf(" AND status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}

	if filter.Branch != "" {
		query.WriteString(fmt.Sprintf(" AND branch = $%d", argPos))
		args = append(args, filter.Branch)
		argPos++
	}

	query.WriteString(" ORDER BY created_at DESC")
	query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1))
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		log.WithError(err).Error("Failed to list assets")
		return nil, err
	}
	defer rows.Close()

	assets := []domain.Asset{}
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			log.WithError(err).Error("Failed to scan asset row")
			return nil, err
		}
		assets = append(assets, *asset)
	}

	return assets, rows.Err()
}

func (r *postgresAssetRepository) GetByID(ctx context.Context, id int64) (*domain.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	asset, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrAssetNotFound
	}
	if err != nil {
		log.WithError(err).WithField("asset_id", id).Error("Failed to get asset by ID")
		return nil, err
	}
	return asset, nil
}

func (r *postgresAssetRepository) GetByTag(ctx context.Context, tag string) (*domain.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT ` + assetColumns + ` FROM assets WHERE tag = $1`

	asset, err := scanAsset(r.db.QueryRowContext(ctx, query, tag))
	if err == sql.ErrNoRows {
		return nil, domain.ErrAssetNotFound
	}
	if err != nil {
		log.WithError(err).WithField("tag", tag).Error("Failed to get asset by tag")
		return nil, err
	}
	return asset, nil
}

func (r *postgresAssetRepository) Create(ctx context.Context, asset *domain.Asset) (*domain.Asset, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	log.WithFields(log.Fields{
		"tag":  asset.Tag,
		"type": asset.Type,
	}).Info("Creating new asset")

	query := `INSERT INTO assets (tag, type, brand, model, serial_number, branch, sector, owner, status,
	              installed_software, notes, purchase_date, warranty_date, value, supplier, anydesk)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	          RETURNING ` + assetColumns

	created, err := scanAsset(r.db.QueryRowContext(ctx, query,
		asset.Tag,
		asset.Type,
		asset.Brand,
		asset.Model,
		asset.SerialNumber,
		asset.Branch,
		asset.Sector,
		asset.Owner,
		asset.Status,
		pq.Array(asset.InstalledSoftware),
		asset.Notes,
		asset.PurchaseDate,
		asset.WarrantyDate,
		asset.Value,
		asset.Supplier,
		asset.AnyDesk,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAssetTagExists
		}
		log.WithError(err).WithField("tag", asset.Tag).Error("Failed to create asset")
		return nil, err
	}

	return created, nil
}

// Update applies the non-nil fields of fields and returns the stored row.
func (r *postgresAssetRepository) Update(ctx context.Context, id int64, fields domain.AssetFields) (*domain.Asset, error) {
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
	if fields.Brand != nil {
		set("brand", *fields.Brand)
	}
	if fields.Model != nil {
		set("model", *fields.Model)
	}
	if fields.SerialNumber != nil {
		set("serial_number", *fields.SerialNumber)
	}
	if fields.Branch != nil {
		set("branch", *fields.Branch)
	}
	if fields.Sector != nil {
		set("sector", *fields.Sector)
	}
	if fields.Owner != nil {
		set("owner", *fields.Owner)
	}
	if fields.Status != nil {
		set("status", *fields.Status)
	}
	if fields.InstalledSoftware != nil {
		set("installed_software", pq.Array(*fields.InstalledSoftware))
	}
	if fields.Notes != nil {
		set("notes", *fields.Notes)
	}
	if fields.PurchaseDate.Set {
		set("purchase_date", fields.PurchaseDate.Value)
	}
	if fields.WarrantyDate.Set {
		set("warranty_date", fields.WarrantyDate.Value)
	}
	if fields.Value != nil {
		set("value", *fields.Value)
	}
	if fields.Supplier != nil {
		set("supplier", *fields.Supplier)
	}
	if fields.AnyDesk != nil {
		set("anydesk", *fields.AnyDesk)
	}

	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}

	setParts = append(setParts, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE assets SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setParts, ", "), argPos, assetColumns)

	asset, err := scanAsset(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, domain.ErrAssetNotFound
	}
	if err != nil {
		log.WithError(err).WithField("asset_id", id).Error("Failed to update asset")
		return nil, err
	}
	return asset, nil
}

func (r *postgresAssetRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	log.WithField("asset_id", id).Info("Deleting asset")

	result, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		log.WithError(err).WithField("asset_id", id).Error("Failed to delete asset")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrAssetNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
