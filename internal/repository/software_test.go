package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"inventory-audit/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var softwareRowColumns = []string{
	"id", "name", "version", "asset_id", "asset_tag", "license_type", "license_key", "installed_at",
	"expires_at", "annual_cost", "auto_renew", "notes", "active", "created_at", "updated_at",
}

func softwareRow(id int64, name string, active bool) *sqlmock.Rows {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	expires := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(softwareRowColumns).AddRow(
		id, name, "2024", int64(3), "NB-003", "subscription", "", nil, expires, nil, true, "", active, now, now,
	)
}

func TestSoftwareRepository_CreateJoinsAssetTag(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresSoftwareRepository(db)

	mock.ExpectQuery(`WITH s AS \(\s*INSERT INTO software`).
		WillReturnRows(softwareRow(1, "Office", true))

	sw, err := repo.Create(context.Background(), &domain.Software{Name: "Office", AssetID: 3})
	require.NoError(t, err)
	assert.Equal(t, "NB-003", sw.AssetTag)
	require.NotNil(t, sw.ExpiresAt)
	assert.Nil(t, sw.InstalledAt)
	assert.Nil(t, sw.AnnualCost)
}

func TestSoftwareRepository_CreateUnknownAsset(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresSoftwareRepository(db)

	mock.ExpectQuery("INSERT INTO software").
		WillReturnError(&pq.Error{Code: "23503"})

	_, err := repo.Create(context.Background(), &domain.Software{Name: "Office", AssetID: 99})
	assert.ErrorIs(t, err, domain.ErrUnknownAsset)
}

func TestSoftwareRepository_Deactivate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresSoftwareRepository(db)
	inactive := false

	mock.ExpectQuery(regexp.QuoteMeta("WITH s AS (UPDATE software SET active = $1, updated_at = NOW() WHERE id = $2 RETURNING *)")).
		WithArgs(false, int64(5)).
		WillReturnRows(softwareRow(5, "Office", false))

	sw, err := repo.Update(context.Background(), 5, domain.SoftwareFields{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, sw.Active)
}

func TestSoftwareRepository_ListExpiring(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresSoftwareRepository(db)
	before := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND s.asset_id = $1 AND s.active = TRUE AND s.expires_at <= $2")).
		WithArgs(int64(3), before, 10, 0).
		WillReturnRows(softwareRow(1, "Office", true))

	items, err := repo.ListSoftware(context.Background(), domain.SoftwareFilter{AssetID: 3, OnlyActive: true, ExpiresBefore: &before}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
