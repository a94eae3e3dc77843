package catalog

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Repository provides read access for the decision pipeline and the CRUD
// operations the admin surface curates the reference data with.
type Repository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Counts holds catalog totals for the admin dashboard.
type Counts struct {
	Foods     int64 `json:"foods"`
	Allergens int64 `json:"allergens"`
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB, logger *zap.Logger) *Repository {
	return &Repository{db: db, logger: logger.Named("catalog")}
}

// AutoMigrate ensures the catalog schema is available.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&Allergen{}, &Food{})
}

// FindFoodByName resolves a predicted label against the catalog with a
// case-insensitive exact match. A miss is (nil, nil), not an error.
func (r *Repository) FindFoodByName(ctx context.Context, name string) (*Food, error) {
	var food Food
	err := r.db.WithContext(ctx).
		Preload("Allergens").
		Where("LOWER(name) = LOWER(?)", strings.TrimSpace(name)).
		First(&food).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &food, nil
}

// ListFoodsExcluding returns every catalog food except the given one,
// allergens preloaded. This is the candidate pool for alternatives.
func (r *Repository) ListFoodsExcluding(ctx context.Context, foodID uint) ([]Food, error) {
	var foods []Food
	err := r.db.WithContext(ctx).
		Preload("Allergens").
		Where("id <> ?", foodID).
		Find(&foods).Error
	if err != nil {
		return nil, err
	}
	return foods, nil
}

// ListFoods returns the whole catalog ordered by name.
func (r *Repository) ListFoods(ctx context.Context) ([]Food, error) {
	var foods []Food
	err := r.db.WithContext(ctx).
		Preload("Allergens").
		Order("name").
		Find(&foods).Error
	if err != nil {
		return nil, err
	}
	return foods, nil
}

// GetFood loads a single food by primary key.
func (r *Repository) GetFood(ctx context.Context, id uint) (*Food, error) {
	var food Food
	if err := r.db.WithContext(ctx).Preload("Allergens").First(&food, id).Error; err != nil {
		return nil, err
	}
	return &food, nil
}

// CreateFood inserts a food with its allergen associations.
func (r *Repository) CreateFood(ctx context.Context, food *Food) error {
	food.Name = strings.TrimSpace(food.Name)
	return r.db.WithContext(ctx).Create(food).Error
}

// UpdateFood saves food attributes and replaces its allergen set.
func (r *Repository) UpdateFood(ctx context.Context, food *Food) error {
	food.Name = strings.TrimSpace(food.Name)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(food).Updates(map[string]interface{}{
			"name":        food.Name,
			"ingredients": food.Ingredients,
		}).Error; err != nil {
			return err
		}
		return tx.Model(food).Association("Allergens").Replace(food.Allergens)
	})
}

// DeleteFood removes a food and clears its allergen associations.
func (r *Repository) DeleteFood(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		food := Food{ID: id}
		if err := tx.Model(&food).Association("Allergens").Clear(); err != nil {
			return err
		}
		return tx.Delete(&food).Error
	})
}

// ListAllergens returns all allergens ordered by name.
func (r *Repository) ListAllergens(ctx context.Context) ([]Allergen, error) {
	var allergens []Allergen
	if err := r.db.WithContext(ctx).Order("name").Find(&allergens).Error; err != nil {
		return nil, err
	}
	return allergens, nil
}

// FindAllergensByName resolves allergen names to catalog rows. Names with no
// catalog entry are reported so callers can reject unknown declarations.
func (r *Repository) FindAllergensByName(ctx context.Context, names []string) ([]Allergen, []string, error) {
	trimmed := make([]string, 0, len(names))
	for _, name := range names {
		if n := strings.TrimSpace(name); n != "" {
			trimmed = append(trimmed, n)
		}
	}
	if len(trimmed) == 0 {
		return []Allergen{}, nil, nil
	}

	var allergens []Allergen
	if err := r.db.WithContext(ctx).Where("name IN ?", trimmed).Find(&allergens).Error; err != nil {
		return nil, nil, err
	}

	found := make(map[string]struct{}, len(allergens))
	for _, a := range allergens {
		found[a.Name] = struct{}{}
	}
	var missing []string
	for _, name := range trimmed {
		if _, ok := found[name]; !ok {
			missing = append(missing, name)
		}
	}
	return allergens, missing, nil
}

// CreateAllergen inserts a new allergen with a normalized name.
func (r *Repository) CreateAllergen(ctx context.Context, allergen *Allergen) error {
	allergen.Name = strings.TrimSpace(allergen.Name)
	return r.db.WithContext(ctx).Create(allergen).Error
}

// UpdateAllergen renames an allergen.
func (r *Repository) UpdateAllergen(ctx context.Context, allergen *Allergen) error {
	allergen.Name = strings.TrimSpace(allergen.Name)
	return r.db.WithContext(ctx).Model(allergen).Update("name", allergen.Name).Error
}

// DeleteAllergen removes an allergen along with its food and profile
// associations.
func (r *Repository) DeleteAllergen(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM food_allergens WHERE allergen_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM profile_allergens WHERE allergen_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&Allergen{ID: id}).Error
	})
}

// Counts returns catalog totals for the admin dashboard.
func (r *Repository) Counts(ctx context.Context) (*Counts, error) {
	var counts Counts
	if err := r.db.WithContext(ctx).Model(&Food{}).Count(&counts.Foods).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&Allergen{}).Count(&counts.Allergens).Error; err != nil {
		return nil, err
	}
	return &counts, nil
}
