package engine

import (
	"github.com/example/allergen-scan/internal/catalog"
)

// Status discriminates the four terminal shapes an evaluation can take.
// Only classifier failures are errors; everything here is a normal outcome.
type Status string

const (
	// StatusDetected means the matched food shares at least one allergen
	// with the user's declared profile.
	StatusDetected Status = "detected"
	// StatusSafe means a catalog match was found and the intersection with
	// the declared profile is empty.
	StatusSafe Status = "safe"
	// StatusLowConfidence means the prediction fell below the confidence
	// threshold and no catalog or profile lookup was attempted.
	StatusLowConfidence Status = "low_confidence"
	// StatusUnknownFood means the prediction was confident but the label has
	// no catalog entry.
	StatusUnknownFood Status = "unknown_food"
)

// Outcome is the structured result of one evaluation. FoodName and
// ConfidencePct are always populated, even for low-confidence predictions.
// Food and TriggeringAllergens are only set when the catalog resolved the
// label; Alternatives only accompany a detection (and may still be empty when
// no safe food exists).
type Outcome struct {
	Status              Status        `json:"status"`
	ScanID              string        `json:"scan_id"`
	FoodName            string        `json:"food_name"`
	ConfidencePct       float64       `json:"confidence_pct"`
	Food                *catalog.Food `json:"food,omitempty"`
	TriggeringAllergens []string      `json:"triggering_allergens"`
	Alternatives        []string      `json:"alternatives"`
	Message             string        `json:"message,omitempty"`
}
