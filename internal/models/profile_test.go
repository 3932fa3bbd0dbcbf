package models

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.AutoMigrate(&Profile{}, &TrialUse{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func TestCreateProfileNormalizesEmail(t *testing.T) {
	db := setupTestDB(t)

	profile := &Profile{Email: "  Cook@Example.COM "}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("Failed to create profile: %v", err)
	}
	if profile.ID == uuid.Nil {
		t.Error("Profile ID should be set after creation")
	}
	if profile.Email != "cook@example.com" {
		t.Errorf("expected normalized email, got %q", profile.Email)
	}
	if profile.Tier != TierNone {
		t.Errorf("expected default tier none, got %q", profile.Tier)
	}
}

func TestProfileEmailIsUnique(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Create(&Profile{Email: "a@example.com"}).Error; err != nil {
		t.Fatalf("Failed to create profile: %v", err)
	}
	if err := db.Create(&Profile{Email: "A@example.com"}).Error; err == nil {
		t.Error("expected duplicate email to be rejected")
	}
}

func TestTrialUsePrimaryKey(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Create(&TrialUse{IdentityKey: "k1"}).Error; err != nil {
		t.Fatalf("Failed to create trial use: %v", err)
	}
	if err := db.Create(&TrialUse{IdentityKey: "k1"}).Error; err == nil {
		t.Error("expected duplicate identity key to be rejected")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail(" X@Y.Z "); got != "x@y.z" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}
