package models

import "time"

// TrialUse marks an anonymous identity as having consumed its free generation.
// Rows are insert-only.
type TrialUse struct {
	IdentityKey string    `gorm:"primarykey;size:160" json:"identity_key"`
	IPHash      string    `gorm:"size:64;index" json:"ip_hash"`
	UAHash      string    `gorm:"size:64" json:"ua_hash"`
	CreatedAt   time.Time `json:"created_at"`
}
