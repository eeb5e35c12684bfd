package domain

import (
	"errors"
	"strings"
	"time"
)

const maxBranchNameLength = 100

var (
	ErrBranchNotFound    = errors.New("branch not found")
	ErrBranchNameExists  = errors.New("branch name already exists")
	ErrInvalidBranchName = errors.New("invalid branch name")
	ErrInvalidState      = errors.New("invalid state, expected two letters")
)

type Branch struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Branch) Snapshot() *Snapshot {
	return NewSnapshot().
		Set("id", b.ID).
		Set("name", b.Name).
		Set("address", b.Address).
		Set("city", b.City).
		Set("state", b.State).
		Set("phone", b.Phone).
		Set("active", b.Active).
		Set(FieldCreatedAt, b.CreatedAt).
		Set(FieldUpdatedAt, b.UpdatedAt)
}

type CreateBranchRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Phone   string `json:"phone"`
}

type UpdateBranchRequest struct {
	Name    *string `json:"name,omitempty"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	State   *string `json:"state,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Active  *bool   `json:"active,omitempty"`
}

func ValidateBranchName(name string) error {
	if strings.TrimSpace(name) == "" || len(name) > maxBranchNameLength {
		return ErrInvalidBranchName
	}
	return nil
}

// ValidateState accepts an empty state or a two letter code.
func ValidateState(state string) error {
	if state == "" {
		return nil
	}
	if len(state) != 2 {
		return ErrInvalidState
	}
	for _, r := range state {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return ErrInvalidState
		}
	}
	return nil
}
