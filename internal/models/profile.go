package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tier is an account's entitlement level.
type Tier string

const (
	TierNone Tier = "none"
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

// Profile is the per-account entitlement record. GenerationsUsed only
// carries meaning while Tier is paid and is reset whenever a plan activates.
type Profile struct {
	ID              uuid.UUID  `gorm:"type:varchar(36);primarykey" json:"id"`
	Email           string     `gorm:"size:320;not null;uniqueIndex" json:"email"`
	Tier            Tier       `gorm:"size:16;not null;default:'none'" json:"plan"`
	GenerationsUsed int        `gorm:"not null;default:0;check:generations_used >= 0" json:"tries"`
	SubscribedOn    *time.Time `json:"subscribed_on"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BeforeCreate assigns an ID and normalizes the email.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Email = NormalizeEmail(p.Email)
	if p.Tier == "" {
		p.Tier = TierNone
	}
	return nil
}

// NormalizeEmail lowercases and trims an account identifier.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
