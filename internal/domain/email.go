package domain

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrEmailNotFound      = errors.New("email not found")
	ErrEmailExists        = errors.New("email address already exists")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidEmailType   = errors.New("invalid email type")
	ErrEmailAssetRequired = errors.New("email asset_id is required")
)

// Email is a mailbox account bound to an asset. Credentials are not stored.
type Email struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	Type      string    `json:"type"`
	AssetID   *int64    `json:"asset_id"`
	AssetTag  string    `json:"asset_tag,omitempty"`
	User      string    `json:"user,omitempty"`
	Recovery  string    `json:"recovery,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Email) Snapshot() *Snapshot {
	var assetID any
	if e.AssetID != nil {
		assetID = *e.AssetID
	}

	return NewSnapshot().
		Set("id", e.ID).
		Set("address", e.Address).
		Set("type", e.Type).
		Set("asset_id", assetID).
		Set("asset_tag", e.AssetTag).
		Set("user", e.User).
		Set("recovery", e.Recovery).
		Set("notes", e.Notes).
		Set("active", e.Active).
		Set(FieldCreatedAt, e.CreatedAt).
		Set(FieldUpdatedAt, e.UpdatedAt)
}

type CreateEmailRequest struct {
	Address  string `json:"address"`
	Type     string `json:"type"`
	AssetID  *int64 `json:"asset_id"`
	User     string `json:"user"`
	Recovery string `json:"recovery"`
	Notes    string `json:"notes"`
}

type UpdateEmailRequest struct {
	Type     *string `json:"type,omitempty"`
	AssetID  *int64  `json:"asset_id,omitempty"`
	User     *string `json:"user,omitempty"`
	Recovery *string `json:"recovery,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

type EmailFields struct {
	Type     *string
	AssetID  *int64
	User     *string
	Recovery *string
	Notes    *string
	Active   *bool
}

type EmailFilter struct {
	AssetID    int64
	Type       string
	OnlyActive bool
}

// NormalizeEmailAddress lowercases a bare address and rejects display-name forms.
func NormalizeEmailAddress(address string) (string, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	parsed, err := mail.ParseAddress(address)
	if err != nil || parsed.Address != address {
		return "", ErrInvalidEmail
	}
	return address, nil
}

func ValidateEmailType(t string) error {
	if strings.TrimSpace(t) == "" || len(t) > 50 {
		return ErrInvalidEmailType
	}
	return nil
}
