package catalog

import (
	"sort"
	"testing"
)

func TestAllergenNamesDeduplicates(t *testing.T) {
	food := &Food{
		Name: "Apple Pie",
		Allergens: []Allergen{
			{ID: 1, Name: "Gluten"},
			{ID: 2, Name: "Egg"},
			{ID: 1, Name: "Gluten"},
		},
	}

	names := food.AllergenNames()
	if len(names) != 2 {
		t.Fatalf("expected 2 unique names, got %d: %v", len(names), names)
	}
	sort.Strings(names)
	if names[0] != "Egg" || names[1] != "Gluten" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestAllergenNamesEmptySet(t *testing.T) {
	food := &Food{Name: "Rice"}
	if names := food.AllergenNames(); len(names) != 0 {
		t.Fatalf("expected no names for allergen-free food, got %v", names)
	}
}

func TestAllergenNamesNilFood(t *testing.T) {
	var food *Food
	if names := food.AllergenNames(); names != nil {
		t.Fatalf("expected nil for nil food, got %v", names)
	}
}
