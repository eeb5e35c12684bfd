package domain

import (
	"errors"
	"strings"
	"time"
)

const (
	maxAssetTagLength  = 50
	maxAssetTypeLength = 50
	dateLayout         = "2006-01-02"
)

const (
	AssetStatusActive   = "Active"
	AssetStatusInactive = "Inactive"
)

var (
	ErrAssetNotFound     = errors.New("asset not found")
	ErrAssetTagExists    = errors.New("asset tag already exists")
	ErrInvalidAssetTag   = errors.New("invalid asset tag")
	ErrInvalidAssetType  = errors.New("invalid asset type")
	ErrInvalidStatus     = errors.New("invalid asset status")
	ErrInvalidDate       = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidAssetValue = errors.New("invalid asset value")
)

type Asset struct {
	ID                int64      `json:"id"`
	Tag               string     `json:"tag"`
	Type              string     `json:"type"`
	Brand             string     `json:"brand,omitempty"`
	Model             string     `json:"model,omitempty"`
	SerialNumber      string     `json:"serial_number,omitempty"`
	Branch            string     `json:"branch,omitempty"`
	Sector            string     `json:"sector,omitempty"`
	Owner             string     `json:"owner,omitempty"`
	Status            string     `json:"status"`
	InstalledSoftware []string   `json:"installed_software"`
	Notes             string     `json:"notes,omitempty"`
	PurchaseDate      *time.Time `json:"purchase_date,omitempty"`
	WarrantyDate      *time.Time `json:"warranty_date,omitempty"`
	Value             *float64   `json:"value,omitempty"`
	Supplier          string     `json:"supplier,omitempty"`
	AnyDesk           string     `json:"anydesk,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// Snapshot captures the asset as the audit trail sees it.
func (a *Asset) Snapshot() *Snapshot {
	software := append([]string{}, a.InstalledSoftware...)

	var value any
	if a.Value != nil {
		value = *a.Value
	}

	return NewSnapshot().
		Set("id", a.ID).
		Set("tag", a.Tag).
		Set("type", a.Type).
		Set("brand", a.Brand).
		Set("model", a.Model).
		Set("serial_number", a.SerialNumber).
		Set("branch", a.Branch).
		Set("sector", a.Sector).
		Set("owner", a.Owner).
		Set("status", a.Status).
		Set("installed_software", software).
		Set("notes", a.Notes).
		Set("purchase_date", formatDate(a.PurchaseDate)).
		Set("warranty_date", formatDate(a.WarrantyDate)).
		Set("value", value).
		Set("supplier", a.Supplier).
		Set("anydesk", a.AnyDesk).
		Set(FieldCreatedAt, a.CreatedAt).
		Set(FieldUpdatedAt, a.UpdatedAt)
}

type CreateAssetRequest struct {
	Tag               string   `json:"tag"`
	Type              string   `json:"type"`
	Brand             string   `json:"brand"`
	Model             string   `json:"model"`
	SerialNumber      string   `json:"serial_number"`
	Branch            string   `json:"branch"`
	Sector            string   `json:"sector"`
	Owner             string   `json:"owner"`
	Status            string   `json:"status"`
	InstalledSoftware []string `json:"installed_software"`
	Notes             string   `json:"notes"`
	PurchaseDate      string   `json:"purchase_date"`
	WarrantyDate      string   `json:"warranty_date"`
	Value             *float64 `json:"value"`
	Supplier          string   `json:"supplier"`
	AnyDesk           string   `json:"anydesk"`
}

type UpdateAssetRequest struct {
	Type              *string   `json:"type,omitempty"`
	Brand             *string   `json:"brand,omitempty"`
	Model             *string   `json:"model,omitempty"`
	SerialNumber      *string   `json:"serial_number,omitempty"`
	Branch            *string   `json:"branch,omitempty"`
	Sector            *string   `json:"sector,omitempty"`
	Owner             *string   `json:"owner,omitempty"`
	Status            *string   `json:"status,omitempty"`
	InstalledSoftware *[]string `json:"installed_software,omitempty"`
	Notes             *string   `json:"notes,omitempty"`
	PurchaseDate      *string   `json:"purchase_date,omitempty"`
	WarrantyDate      *string   `json:"warranty_date,omitempty"`
	Value             *float64  `json:"value,omitempty"`
	Supplier          *string   `json:"supplier,omitempty"`
	AnyDesk           *string   `json:"anydesk,omitempty"`
}

// OptionalDate tells "leave unchanged" (Set false) apart from "clear" (Set true, Value nil).
type OptionalDate struct {
	Set   bool
	Value *time.Time
}

// AssetFields is a validated partial update of an asset.
type AssetFields struct {
	Type              *string
	Brand             *string
	Model             *string
	SerialNumber      *string
	Branch            *string
	Sector            *string
	Owner             *string
	Status            *string
	InstalledSoftware *[]string
	Notes             *string
	PurchaseDate      OptionalDate
	WarrantyDate      OptionalDate
	Value             *float64
	Supplier          *string
	AnyDesk           *string
}

type AssetFilter struct {
	Status string
	Branch string
}

func ValidateAssetTag(tag string) error {
	if tag == "" || len(tag) > maxAssetTagLength {
		return ErrInvalidAssetTag
	}
	if strings.ContainsAny(tag, " \t\n") {
		return ErrInvalidAssetTag
	}
	return nil
}

func ValidateAssetType(t string) error {
	if strings.TrimSpace(t) == "" || len(t) > maxAssetTypeLength {
		return ErrInvalidAssetType
	}
	return nil
}

func ValidateAssetStatus(status string) error {
	switch status {
	case AssetStatusActive, AssetStatusInactive:
		return nil
	}
	return ErrInvalidStatus
}

func ValidateAssetValue(v *float64) error {
	if v != nil && *v < 0 {
		return ErrInvalidAssetValue
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD date. An empty string means no date.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return &t, nil
}

func formatDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dateLayout)
}
