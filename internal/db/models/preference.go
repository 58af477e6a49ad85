// Package models contains the database models of the local preference store
package models

import (
	"time"
)

// PreferenceKeyField is the column the preference key is stored in
const PreferenceKeyField = "key"

// Preference is a single persisted user setting
type Preference struct {
	Key       string    `json:"key" gorm:"primaryKey;size:64"`
	Value     string    `json:"value" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}
