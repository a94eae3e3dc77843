package scan

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/allergen-scan/internal/catalog"
	"github.com/example/allergen-scan/internal/logging"
)

// ErrAlreadyFinalized is returned when a record's outcome is written twice.
var ErrAlreadyFinalized = errors.New("scan record already finalized")

// ErrNotFound is returned when no record matches the scan id.
var ErrNotFound = errors.New("scan record not found")

// ScanRecord is one classification event. It is created without a prediction
// and finalized exactly once; FoodID stays nil when the prediction never
// resolved to a catalog entry (low confidence or unknown label).
type ScanRecord struct {
	ID               uint          `gorm:"primaryKey" json:"-"`
	ScanID           string        `gorm:"column:scan_id;uniqueIndex;size:64;not null" json:"scan_id"`
	UserID           string        `gorm:"column:user_id;index;size:64;not null" json:"user_id"`
	ImageRef         string        `gorm:"column:image_ref;size:255" json:"image_ref"`
	FoodID           *uint         `gorm:"column:food_id" json:"food_id,omitempty"`
	Food             *catalog.Food `gorm:"foreignKey:FoodID" json:"food,omitempty"`
	PredictedLabel   string        `gorm:"column:predicted_label;size:100" json:"predicted_label"`
	AllergenDetected bool          `gorm:"column:allergen_detected" json:"allergen_detected"`
	Confidence       float64       `gorm:"column:confidence" json:"confidence"`
	FinalizedAt      *time.Time    `gorm:"column:finalized_at" json:"finalized_at,omitempty"`
	CreatedAt        time.Time     `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the default table name.
func (ScanRecord) TableName() string {
	return "scan_records"
}

// Finalization is the terminal state written onto a pending record. Label is
// the classifier's display name, kept even when it matched no catalog entry.
type Finalization struct {
	FoodID        *uint
	Label         string
	ConfidencePct float64
	Detected      bool
}

// Stats aggregates scan history for the admin dashboard.
type Stats struct {
	TotalScans int64           `json:"total_scans"`
	Alerts     int64           `json:"alerts"`
	TopFoods   []FoodScanCount `json:"top_foods"`
}

// FoodScanCount is one row of the most-scanned-foods listing.
type FoodScanCount struct {
	Name  string `json:"name"`
	Scans int64  `json:"scans"`
}

// Sink persists scan records. Writes ride a small retry loop so transient
// store hiccups do not lose audit rows.
type Sink struct {
	db     *gorm.DB
	logger *zap.Logger
	retry  *logging.Retryer
}

// NewSink creates a new scan record sink.
func NewSink(db *gorm.DB, logger *zap.Logger) *Sink {
	sinkLogger := logger.Named("scan_sink")
	return &Sink{
		db:     db,
		logger: sinkLogger,
		retry: &logging.Retryer{
			Logger:         sinkLogger,
			Attempts:       3,
			InitialBackoff: 50 * time.Millisecond,
			MaxBackoff:     time.Second,
			Retryable:      retryableStoreError,
		},
	}
}

// retryableStoreError keeps the finalize guard errors out of the retry loop;
// they are terminal answers, not infrastructure failures.
func retryableStoreError(err error) bool {
	if errors.Is(err, ErrAlreadyFinalized) || errors.Is(err, ErrNotFound) {
		return false
	}
	return logging.IsTransientError(err)
}

// AutoMigrate ensures the scan schema is available.
func (s *Sink) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&ScanRecord{})
}

// CreatePending inserts a record with no prediction and returns its scan id.
func (s *Sink) CreatePending(ctx context.Context, userID, imageRef string) (string, error) {
	record := &ScanRecord{
		ScanID:    uuid.NewString(),
		UserID:    userID,
		ImageRef:  imageRef,
		CreatedAt: time.Now().UTC(),
	}
	err := s.retry.Execute(ctx, "scan.create_pending", record.ScanID, func() error {
		return s.db.WithContext(ctx).Create(record).Error
	})
	if err != nil {
		return "", err
	}
	return record.ScanID, nil
}

// Finalize writes the terminal outcome exactly once. A second call surfaces
// ErrAlreadyFinalized instead of overwriting the audit trail.
func (s *Sink) Finalize(ctx context.Context, scanID string, fin Finalization) error {
	return s.retry.Execute(ctx, "scan.finalize", scanID, func() error {
		now := time.Now().UTC()
		result := s.db.WithContext(ctx).
			Model(&ScanRecord{}).
			Where("scan_id = ? AND finalized_at IS NULL", scanID).
			Updates(map[string]interface{}{
				"food_id":           fin.FoodID,
				"predicted_label":   fin.Label,
				"confidence":        fin.ConfidencePct,
				"allergen_detected": fin.Detected,
				"finalized_at":      now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := s.db.WithContext(ctx).Model(&ScanRecord{}).Where("scan_id = ?", scanID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrNotFound
			}
			return ErrAlreadyFinalized
		}
		return nil
	})
}

// GetByScanIDAndUser loads a record, enforcing ownership.
func (s *Sink) GetByScanIDAndUser(ctx context.Context, scanID, userID string) (*ScanRecord, error) {
	var record ScanRecord
	err := s.db.WithContext(ctx).
		Preload("Food.Allergens").
		Where("scan_id = ? AND user_id = ?", scanID, userID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByUser returns the user's scan history, newest first.
func (s *Sink) ListByUser(ctx context.Context, userID string) ([]ScanRecord, error) {
	var records []ScanRecord
	err := s.db.WithContext(ctx).
		Preload("Food").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListRecent returns the newest records across all users, for the admin view.
func (s *Sink) ListRecent(ctx context.Context, limit int) ([]ScanRecord, error) {
	var records []ScanRecord
	err := s.db.WithContext(ctx).
		Preload("Food").
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes a record by scan id (admin only).
func (s *Sink) Delete(ctx context.Context, scanID string) error {
	result := s.db.WithContext(ctx).Where("scan_id = ?", scanID).Delete(&ScanRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates totals, alert counts, and the most-scanned foods.
func (s *Sink) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{TopFoods: []FoodScanCount{}}
	if err := s.db.WithContext(ctx).Model(&ScanRecord{}).Count(&stats.TotalScans).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&ScanRecord{}).Where("allergen_detected = ?", true).Count(&stats.Alerts).Error; err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).
		Table("scan_records").
		Select("foods.name AS name, COUNT(scan_records.id) AS scans").
		Joins("JOIN foods ON foods.id = scan_records.food_id").
		Where("scan_records.food_id IS NOT NULL").
		Group("foods.name").
		Order("scans DESC").
		Limit(5).
		Scan(&stats.TopFoods).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
