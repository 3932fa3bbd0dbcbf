package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pageza/mealplango/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileService handles account profile persistence
type ProfileService struct {
	db *gorm.DB
}

// Ensure ProfileService implements IProfileStore
var _ IProfileStore = (*ProfileService)(nil)

// NewProfileService creates a new ProfileService instance
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{
		db: db,
	}
}

// GetProfile retrieves a profile by email. A missing profile is (nil, nil).
func (s *ProfileService) GetProfile(ctx context.Context, account string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ctx).
		Where("email = ?", models.NormalizeEmail(account)).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &profile, nil
}

// IncrementUsage adds one generation to the account in a single UPDATE.
func (s *ProfileService) IncrementUsage(ctx context.Context, account string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("email = ?", models.NormalizeEmail(account)).
		UpdateColumns(map[string]interface{}{
			"generations_used": gorm.Expr("generations_used + ?", 1),
			"updated_at":       time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to increment usage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// ActivatePlan moves the account onto the paid tier with a fresh counter.
// Accounts that look like an email get a profile created when none exists;
// any other identifier must match an existing profile id.
func (s *ProfileService) ActivatePlan(ctx context.Context, account string, at time.Time) (bool, error) {
	account = strings.TrimSpace(account)
	isEmail := strings.Contains(account, "@")

	column, value := "id", account
	if isEmail {
		column, value = "email", models.NormalizeEmail(account)
	}

	result := s.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where(column+" = ?", value).
		Updates(map[string]interface{}{
			"tier":             models.TierPaid,
			"generations_used": 0,
			"subscribed_on":    at,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to activate plan: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return true, nil
	}
	if !isEmail {
		return false, nil
	}

	profile := models.Profile{
		Email:        value,
		Tier:         models.TierPaid,
		SubscribedOn: &at,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"tier", "generations_used", "subscribed_on", "updated_at"}),
		}).
		Create(&profile).Error
	if err != nil {
		return false, fmt.Errorf("failed to create paid profile: %w", err)
	}
	return true, nil
}
