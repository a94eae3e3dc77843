package catalog

// Allergen is immutable reference data curated by staff. Names are unique
// and matched by exact equality everywhere in the decision pipeline.
type Allergen struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:50;not null" json:"name"`
}

// TableName overrides the default table name.
func (Allergen) TableName() string {
	return "allergens"
}

// Food is a catalog entry. Name lookup is case-insensitive; Ingredients is
// informational free text the engine never parses. An empty allergen set
// means "no known allergens", which is different from the food being absent
// from the catalog altogether.
type Food struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Ingredients string     `gorm:"type:text" json:"ingredients"`
	Allergens   []Allergen `gorm:"many2many:food_allergens" json:"allergens"`
}

// TableName overrides the default table name.
func (Food) TableName() string {
	return "foods"
}

// AllergenNames returns the food's allergen names with duplicates removed.
func (f *Food) AllergenNames() []string {
	if f == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(f.Allergens))
	names := make([]string, 0, len(f.Allergens))
	for _, a := range f.Allergens {
		if _, ok := seen[a.Name]; ok {
			continue
		}
		seen[a.Name] = struct{}{}
		names = append(names, a.Name)
	}
	return names
}
