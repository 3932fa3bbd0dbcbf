package service

import (
	"context"
	"fmt"

	"github.com/pageza/mealplango/backend/internal/identity"
	"github.com/pageza/mealplango/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TrialService is the durable trial ledger
type TrialService struct {
	db *gorm.DB
}

var _ ITrialLedger = (*TrialService)(nil)

// NewTrialService creates a new TrialService instance
func NewTrialService(db *gorm.DB) *TrialService {
	return &TrialService{db: db}
}

// HasUsed reports whether the identity has a trial record.
func (s *TrialService) HasUsed(ctx context.Context, key identity.Key) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.TrialUse{}).
		Where("identity_key = ?", key.String()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check trial: %w", err)
	}
	return count > 0, nil
}

// RecordUse inserts the identity if absent. Only the call that actually
// inserted the row gets true.
func (s *TrialService) RecordUse(ctx context.Context, key identity.Key) (bool, error) {
	row := models.TrialUse{
		IdentityKey: key.String(),
		IPHash:      key.IPHash,
		UAHash:      key.UAHash,
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return false, fmt.Errorf("failed to record trial: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}
