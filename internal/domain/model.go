package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

var (
	ErrInvalidID         = errors.New("invalid id")
	ErrUnknownEntityKind = errors.New("unknown entity kind")
	ErrUnknownField      = errors.New("field not allowed for entity kind")
)

// EntityKind names the tracked entity type an audit event concerns.
type EntityKind string

const (
	KindAsset    EntityKind = "asset"
	KindPhone    EntityKind = "phone"
	KindSoftware EntityKind = "software"
	KindEmail    EntityKind = "email"
	KindUser     EntityKind = "user"
	KindBranch   EntityKind = "branch"
)

// Bookkeeping fields present on every snapshot. They never produce change events.
const (
	FieldCreatedAt = "created_at"
	FieldUpdatedAt = "updated_at"
)

func IsReservedField(field string) bool {
	return field == FieldCreatedAt || field == FieldUpdatedAt
}

var entityFields = map[EntityKind][]string{
	KindAsset: {
		"id", "tag", "type", "brand", "model", "serial_number", "branch", "sector", "owner",
		"status", "installed_software", "notes", "purchase_date", "warranty_date", "value",
		"supplier", "anydesk",
	},
	KindPhone: {
		"id", "tag", "branch", "model", "imei", "number", "carrier", "owner", "status",
		"notes", "purchase_date", "value",
	},
	KindSoftware: {
		"id", "name", "version", "asset_id", "asset_tag", "license_type", "license_key",
		"installed_at", "expires_at", "annual_cost", "auto_renew", "notes", "active",
	},
	KindEmail: {
		"id", "address", "type", "asset_id", "asset_tag", "user", "recovery", "notes", "active",
	},
	KindUser: {
		"id", "username", "name", "email", "branch", "permissions", "active",
	},
	KindBranch: {
		"id", "name", "address", "city", "state", "phone", "active",
	},
}

// ParseEntityKind accepts the kind names case-insensitively.
func ParseEntityKind(s string) (EntityKind, error) {
	kind := EntityKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := entityFields[kind]; !ok {
		return "", ErrUnknownEntityKind
	}
	return kind, nil
}

// ValidateSnapshot checks every field of snap against the allowlist of kind.
func ValidateSnapshot(kind EntityKind, snap *Snapshot) error {
	fields, ok := entityFields[kind]
	if !ok {
		return ErrUnknownEntityKind
	}
	if snap == nil {
		return nil
	}

	allowed := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		allowed[f] = struct{}{}
	}
	for _, key := range snap.Keys() {
		if IsReservedField(key) {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, kind, key)
		}
	}
	return nil
}

// ParseEntityID coerces an opaque identifier to the integer key used by the audit store.
func ParseEntityID(raw string) (*int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, false
	}
	return &id, true
}
