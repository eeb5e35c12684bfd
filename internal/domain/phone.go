package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrPhoneNotFound    = errors.New("phone not found")
	ErrPhoneExists      = errors.New("phone tag or IMEI already exists")
	ErrInvalidPhoneTag  = errors.New("invalid phone tag")
	ErrPhoneBranchEmpty = errors.New("phone branch is required")
)

type Phone struct {
	ID           int64      `json:"id"`
	Tag          string     `json:"tag"`
	Branch       string     `json:"branch"`
	Model        string     `json:"model,omitempty"`
	IMEI         string     `json:"imei,omitempty"`
	Number       string     `json:"number,omitempty"`
	Carrier      string     `json:"carrier,omitempty"`
	Owner        string     `json:"owner,omitempty"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	PurchaseDate *time.Time `json:"purchase_date,omitempty"`
	Value        *float64   `json:"value,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (p *Phone) Snapshot() *Snapshot {
	var value any
	if p.Value != nil {
		value = *p.Value
	}

	return NewSnapshot().
		Set("id", p.ID).
		Set("tag", p.Tag).
		Set("branch", p.Branch).
		Set("model", p.Model).
		Set("imei", p.IMEI).
		Set("number", p.Number).
		Set("carrier", p.Carrier).
		Set("owner", p.Owner).
		Set("status", p.Status).
		Set("notes", p.Notes).
		Set("purchase_date", formatDate(p.PurchaseDate)).
		Set("value", value).
		Set(FieldCreatedAt, p.CreatedAt).
		Set(FieldUpdatedAt, p.UpdatedAt)
}

type CreatePhoneRequest struct {
	Tag          string   `json:"tag"`
	Branch       string   `json:"branch"`
	Model        string   `json:"model"`
	IMEI         string   `json:"imei"`
	Number       string   `json:"number"`
	Carrier      string   `json:"carrier"`
	Owner        string   `json:"owner"`
	Status       string   `json:"status"`
	Notes        string   `json:"notes"`
	PurchaseDate string   `json:"purchase_date"`
	Value        *float64 `json:"value"`
}

type UpdatePhoneRequest struct {
	Branch       *string  `json:"branch,omitempty"`
	Model        *string  `json:"model,omitempty"`
	IMEI         *string  `json:"imei,omitempty"`
	Number       *string  `json:"number,omitempty"`
	Carrier      *string  `json:"carrier,omitempty"`
	Owner        *string  `json:"owner,omitempty"`
	Status       *string  `json:"status,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
	PurchaseDate *string  `json:"purchase_date,omitempty"`
	Value        *float64 `json:"value,omitempty"`
}

// PhoneFields is a validated partial update of a phone.
type PhoneFields struct {
	Branch       *string
	Model        *string
	IMEI         *string
	Number       *string
	Carrier      *string
	Owner        *string
	Status       *string
	Notes        *string
	PurchaseDate OptionalDate
	Value        *float64
}

type PhoneFilter struct {
	Branch string
	Status string
}

func ValidatePhoneTag(tag string) error {
	if tag == "" || len(tag) > maxAssetTagLength || strings.ContainsAny(tag, " \t\n") {
		return ErrInvalidPhoneTag
	}
	return nil
}
