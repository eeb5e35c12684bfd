package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrSoftwareNotFound    = errors.New("software not found")
	ErrInvalidSoftwareName = errors.New("invalid software name")
	ErrUnknownAsset        = errors.New("referenced asset does not exist")
	ErrInvalidCost         = errors.New("invalid annual cost")
)

// Software is a license installed on one asset.
type Software struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Version     string     `json:"version,omitempty"`
	AssetID     int64      `json:"asset_id"`
	AssetTag    string     `json:"asset_tag,omitempty"`
	LicenseType string     `json:"license_type,omitempty"`
	LicenseKey  string     `json:"license_key,omitempty"`
	InstalledAt *time.Time `json:"installed_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	AnnualCost  *float64   `json:"annual_cost,omitempty"`
	AutoRenew   bool       `json:"auto_renew"`
	Notes       string     `json:"notes,omitempty"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (s *Software) Snapshot() *Snapshot {
	var cost any
	if s.AnnualCost != nil {
		cost = *s.AnnualCost
	}

	return NewSnapshot().
		Set("id", s.ID).
		Set("name", s.Name).
		Set("version", s.Version).
		Set("asset_id", s.AssetID).
		Set("asset_tag", s.AssetTag).
		Set("license_type", s.LicenseType).
		Set("license_key", s.LicenseKey).
		Set("installed_at", formatDate(s.InstalledAt)).
		Set("expires_at", formatDate(s.ExpiresAt)).
		Set("annual_cost", cost).
		Set("auto_renew", s.AutoRenew).
		Set("notes", s.Notes).
		Set("active", s.Active).
		Set(FieldCreatedAt, s.CreatedAt).
		Set(FieldUpdatedAt, s.UpdatedAt)
}

type CreateSoftwareRequest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	AssetID     int64    `json:"asset_id"`
	LicenseType string   `json:"license_type"`
	LicenseKey  string   `json:"license_key"`
	InstalledAt string   `json:"installed_at"`
	ExpiresAt   string   `json:"expires_at"`
	AnnualCost  *float64 `json:"annual_cost"`
	AutoRenew   bool     `json:"auto_renew"`
	Notes       string   `json:"notes"`
}

type UpdateSoftwareRequest struct {
	Name        *string  `json:"name,omitempty"`
	Version     *string  `json:"version,omitempty"`
	AssetID     *int64   `json:"asset_id,omitempty"`
	LicenseType *string  `json:"license_type,omitempty"`
	LicenseKey  *string  `json:"license_key,omitempty"`
	InstalledAt *string  `json:"installed_at,omitempty"`
	ExpiresAt   *string  `json:"expires_at,omitempty"`
	AnnualCost  *float64 `json:"annual_cost,omitempty"`
	AutoRenew   *bool    `json:"auto_renew,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
	Active      *bool    `json:"active,omitempty"`
}

// SoftwareFields is a validated partial update of a software license.
type SoftwareFields struct {
	Name        *string
	Version     *string
	AssetID     *int64
	LicenseType *string
	LicenseKey  *string
	InstalledAt OptionalDate
	ExpiresAt   OptionalDate
	AnnualCost  *float64
	AutoRenew   *bool
	Notes       *string
	Active      *bool
}

type SoftwareFilter struct {
	AssetID    int64
	OnlyActive bool
	// ExpiresBefore keeps licenses expiring on or before the date.
	ExpiresBefore *time.Time
}

func ValidateSoftwareName(name string) error {
	if strings.TrimSpace(name) == "" || len(name) > 120 {
		return ErrInvalidSoftwareName
	}
	return nil
}

func ValidateCost(v *float64) error {
	if v != nil && *v < 0 {
		return ErrInvalidCost
	}
	return nil
}
