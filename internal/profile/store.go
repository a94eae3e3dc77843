package profile

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/allergen-scan/internal/catalog"
)

// AllergyProfile is a user's declared allergen set. At most one per user; a
// user may never have created one, and an existing profile may be empty.
// Both mean "no declared allergies".
type AllergyProfile struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	UserID    string             `gorm:"column:user_id;uniqueIndex;size:64;not null" json:"user_id"`
	Allergens []catalog.Allergen `gorm:"many2many:profile_allergens" json:"allergens"`
}

// TableName overrides the default table name.
func (AllergyProfile) TableName() string {
	return "allergy_profiles"
}

// AllergenNames returns the declared allergen names with duplicates removed.
func (p *AllergyProfile) AllergenNames() []string {
	if p == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(p.Allergens))
	names := make([]string, 0, len(p.Allergens))
	for _, a := range p.Allergens {
		if _, ok := seen[a.Name]; ok {
			continue
		}
		seen[a.Name] = struct{}{}
		names = append(names, a.Name)
	}
	return names
}

// Store provides lookup and maintenance of allergy profiles.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a new profile store.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger.Named("profile")}
}

// AutoMigrate ensures the profile schema is available.
func (s *Store) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&AllergyProfile{})
}

// Get returns the user's profile, or (nil, nil) when none exists. An absent
// profile is an ordinary state; only genuine store failures return an error.
func (s *Store) Get(ctx context.Context, userID string) (*AllergyProfile, error) {
	var prof AllergyProfile
	err := s.db.WithContext(ctx).
		Preload("Allergens").
		Where("user_id = ?", userID).
		First(&prof).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prof, nil
}

// Upsert creates the user's profile if missing and replaces its declared
// allergen set.
func (s *Store) Upsert(ctx context.Context, userID string, allergens []catalog.Allergen) (*AllergyProfile, error) {
	var prof AllergyProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(AllergyProfile{UserID: userID}).FirstOrCreate(&prof).Error; err != nil {
			return err
		}
		return tx.Model(&prof).Association("Allergens").Replace(allergens)
	})
	if err != nil {
		return nil, err
	}
	prof.Allergens = allergens
	return &prof, nil
}

// Count returns the number of declared profiles, for the admin dashboard.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&AllergyProfile{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
