package models

import "time"

// SettingType defines supported types for setting values.
type SettingType string

const (
	SettingTypeInteger SettingType = "INTEGER"
	SettingTypeFloat   SettingType = "FLOAT"
)

// Setting represents a persisted runtime-tunable configuration entry.
type Setting struct {
	Key         string      `db:"key" json:"key"`
	Value       string      `db:"value" json:"value"`
	Type        SettingType `db:"type" json:"type"`
	Description *string     `db:"description" json:"description,omitempty"`
	UpdatedBy   *string     `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}
