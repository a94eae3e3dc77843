package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/allergen-scan/internal/catalog"
	"github.com/example/allergen-scan/internal/classifier"
	"github.com/example/allergen-scan/internal/logging"
	"github.com/example/allergen-scan/internal/profile"
	"github.com/example/allergen-scan/internal/scan"
)

// DefaultConfidenceThreshold is the production gate below which a prediction
// is reported but never acted on.
const DefaultConfidenceThreshold = 0.40

// DefaultMaxAlternatives caps the safe foods offered alongside a detection.
const DefaultMaxAlternatives = 3

// ErrEvaluationPending is returned by GetResult for records whose evaluation
// never reached a terminal state (the classifier failed mid-flight).
var ErrEvaluationPending = errors.New("scan evaluation is not finalized")

// Catalog is the read-only reference data the engine resolves predictions
// against.
type Catalog interface {
	FindFoodByName(ctx context.Context, name string) (*catalog.Food, error)
	ListFoodsExcluding(ctx context.Context, foodID uint) ([]catalog.Food, error)
}

// ProfileStore fetches a user's declared allergens. An absent profile is
// (nil, nil); errors mean the store itself failed.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*profile.AllergyProfile, error)
}

// Sink persists scan records.
type Sink interface {
	CreatePending(ctx context.Context, userID, imageRef string) (string, error)
	Finalize(ctx context.Context, scanID string, fin scan.Finalization) error
	GetByScanIDAndUser(ctx context.Context, scanID, userID string) (*scan.ScanRecord, error)
}

// Engine implements the allergen-matching decision pipeline: confidence
// gate, catalog resolution, allergen intersection, and alternative selection.
type Engine struct {
	classifier classifier.Client
	catalog    Catalog
	profiles   ProfileStore
	sink       Sink
	cache      Cache
	logger     *zap.Logger

	threshold       float64
	maxAlternatives int

	mu  sync.Mutex
	rng *rand.Rand

	retry *logging.Retryer
}

// Option customizes engine construction.
type Option func(*Engine)

// WithThreshold overrides the confidence gate.
func WithThreshold(threshold float64) Option {
	return func(e *Engine) { e.threshold = threshold }
}

// WithMaxAlternatives overrides the alternative-selection cap.
func WithMaxAlternatives(n int) Option {
	return func(e *Engine) { e.maxAlternatives = n }
}

// WithRand injects a seeded randomness source so tests can pin the sampling.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// New constructs a decision engine around its five collaborators.
func New(cls classifier.Client, cat Catalog, profiles ProfileStore, sink Sink, cache Cache, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		classifier:      cls,
		catalog:         cat,
		profiles:        profiles,
		sink:            sink,
		cache:           cache,
		logger:          logger.Named("engine"),
		threshold:       DefaultConfidenceThreshold,
		maxAlternatives: DefaultMaxAlternatives,
	}
	e.retry = &logging.Retryer{
		Logger:         e.logger,
		Attempts:       3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     time.Second,
		Retryable:      retryableCacheError,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

type cachedOutcome struct {
	UserID  string  `json:"user_id"`
	Outcome Outcome `json:"outcome"`
}

// Evaluate runs one image through the full pipeline and returns its outcome.
// Classifier and store failures abort the evaluation; low confidence, unknown
// labels, absent profiles, and empty alternative pools are ordinary variants.
func (e *Engine) Evaluate(ctx context.Context, userID string, image []byte, imageRef string) (*Outcome, error) {
	scanID, err := e.sink.CreatePending(ctx, userID, imageRef)
	if err != nil {
		return nil, logging.NewOperationError("engine.create_pending", "", err)
	}
	opLogger := logging.WithOperation(e.logger, "engine.evaluate", scanID)

	if err := e.retry.Execute(ctx, "cache.set.processing", scanID, func() error {
		return e.cache.Set(ctx, cacheKey(scanID), "processing", time.Minute)
	}); err != nil {
		opLogger.Warn("failed to set processing flag", zap.Error(err))
	}

	pred, err := e.classifier.Classify(ctx, image)
	if err != nil {
		// The pending record deliberately stays pre-prediction: finalizing
		// here would assert "not detected" for an image that was never
		// classified.
		if !classifier.IsClassificationError(err) {
			err = classifier.NewError("engine.classify", err)
		}
		opLogger.Error("classification failed", zap.Error(err))
		return nil, err
	}

	confidencePct := roundPct(pred.Confidence)
	out := &Outcome{
		ScanID:              scanID,
		FoodName:            pred.Label,
		ConfidencePct:       confidencePct,
		TriggeringAllergens: []string{},
		Alternatives:        []string{},
	}
	opLogger.Info("prediction received",
		zap.String("label", pred.Label),
		zap.Float64("confidence_pct", confidencePct))

	if pred.Confidence < e.threshold {
		out.Status = StatusLowConfidence
		out.Message = fmt.Sprintf("prediction confidence %.2f%% is below the %.2f%% threshold", confidencePct, e.threshold*100)
		return e.conclude(ctx, userID, out, nil, false)
	}

	food, err := e.catalog.FindFoodByName(ctx, pred.Label)
	if err != nil {
		return nil, logging.NewOperationError("engine.catalog_lookup", scanID, err)
	}
	if food == nil {
		out.Status = StatusUnknownFood
		out.Message = fmt.Sprintf("'%s' is not supported yet.", pred.Label)
		return e.conclude(ctx, userID, out, nil, false)
	}

	prof, err := e.profiles.Get(ctx, userID)
	if err != nil {
		// A store failure is not the same as "no profile declared"; reporting
		// safe here would silently upgrade a partial result.
		opLogger.Error("profile lookup failed", zap.Error(err))
		return nil, logging.NewOperationError("engine.profile_lookup", scanID, err)
	}
	declared := prof.AllergenNames()

	triggering := intersect(declared, food.AllergenNames())
	detected := len(triggering) > 0

	out.Food = food
	out.TriggeringAllergens = triggering
	if !detected {
		out.Status = StatusSafe
		return e.conclude(ctx, userID, out, &food.ID, false)
	}

	out.Status = StatusDetected
	candidates, err := e.catalog.ListFoodsExcluding(ctx, food.ID)
	if err != nil {
		return nil, logging.NewOperationError("engine.list_alternatives", scanID, err)
	}
	out.Alternatives = e.sample(safeNames(candidates, declared))

	return e.conclude(ctx, userID, out, &food.ID, true)
}

// GetResult returns a previously evaluated outcome, from cache when the
// entry is still warm, otherwise rebuilt from the persisted record.
func (e *Engine) GetResult(ctx context.Context, userID, scanID string) (*Outcome, error) {
	key := cacheKey(scanID)
	if cached, err := e.withCacheGet(ctx, scanID, "cache.get.result", key); err == nil {
		var payload cachedOutcome
		if cached == "processing" {
			return nil, ErrEvaluationPending
		}
		if err := json.Unmarshal([]byte(cached), &payload); err != nil {
			logging.WithOperation(e.logger, "engine.get_result", scanID).Warn("failed to decode cached outcome", zap.Error(err))
		} else if payload.UserID == userID {
			return &payload.Outcome, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logging.WithOperation(e.logger, "engine.get_result", scanID).Warn("failed to read cache", zap.Error(err))
	}

	record, err := e.sink.GetByScanIDAndUser(ctx, scanID, userID)
	if err != nil {
		return nil, err
	}
	return e.outcomeFromRecord(ctx, userID, record)
}

// outcomeFromRecord rebuilds an outcome from the persisted record. The
// triggering set is not stored, so it is recomputed from the preloaded food
// allergens and the user's current profile.
func (e *Engine) outcomeFromRecord(ctx context.Context, userID string, record *scan.ScanRecord) (*Outcome, error) {
	if record.FinalizedAt == nil {
		return nil, ErrEvaluationPending
	}
	out := &Outcome{
		ScanID:              record.ScanID,
		FoodName:            record.PredictedLabel,
		ConfidencePct:       record.Confidence,
		Food:                record.Food,
		TriggeringAllergens: []string{},
		Alternatives:        []string{},
	}
	if record.Food != nil {
		if out.FoodName == "" {
			out.FoodName = record.Food.Name
		}
		prof, err := e.profiles.Get(ctx, userID)
		if err != nil {
			return nil, logging.NewOperationError("engine.profile_lookup", record.ScanID, err)
		}
		out.TriggeringAllergens = intersect(prof.AllergenNames(), record.Food.AllergenNames())
	}
	switch {
	case record.Food != nil && record.AllergenDetected:
		out.Status = StatusDetected
	case record.Food != nil:
		out.Status = StatusSafe
	case record.Confidence < e.threshold*100:
		out.Status = StatusLowConfidence
	default:
		out.Status = StatusUnknownFood
	}
	return out, nil
}

// conclude finalizes the record, caches the outcome, and hands it back.
func (e *Engine) conclude(ctx context.Context, userID string, out *Outcome, foodID *uint, detected bool) (*Outcome, error) {
	err := e.sink.Finalize(ctx, out.ScanID, scan.Finalization{
		FoodID:        foodID,
		Label:         out.FoodName,
		ConfidencePct: out.ConfidencePct,
		Detected:      detected,
	})
	if err != nil {
		return nil, logging.NewOperationError("engine.finalize", out.ScanID, err)
	}

	payload, err := json.Marshal(cachedOutcome{UserID: userID, Outcome: *out})
	if err != nil {
		logging.WithOperation(e.logger, "engine.evaluate", out.ScanID).Warn("failed to serialize outcome", zap.Error(err))
		return out, nil
	}
	if err := e.retry.Execute(ctx, "cache.set.result", out.ScanID, func() error {
		return e.cache.Set(ctx, cacheKey(out.ScanID), string(payload), 5*time.Minute)
	}); err != nil {
		logging.WithOperation(e.logger, "engine.evaluate", out.ScanID).Warn("failed to cache outcome", zap.Error(err))
	}
	return out, nil
}

// sample picks up to maxAlternatives names uniformly without replacement.
func (e *Engine) sample(names []string) []string {
	if len(names) <= e.maxAlternatives {
		return append([]string{}, names...)
	}
	e.mu.Lock()
	perm := e.rng.Perm(len(names))
	e.mu.Unlock()

	picked := make([]string, 0, e.maxAlternatives)
	for _, idx := range perm[:e.maxAlternatives] {
		picked = append(picked, names[idx])
	}
	return picked
}

func cacheKey(scanID string) string {
	return fmt.Sprintf("scan:%s", scanID)
}

func roundPct(confidence float64) float64 {
	return math.Round(confidence*100*100) / 100
}

// intersect returns the sorted set intersection of two name slices.
func intersect(a, b []string) []string {
	inA := make(map[string]struct{}, len(a))
	for _, name := range a {
		inA[name] = struct{}{}
	}
	seen := make(map[string]struct{})
	out := []string{}
	for _, name := range b {
		if _, ok := inA[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// safeNames filters the candidate pool down to foods whose allergen set has
// no overlap with the user's full declared set.
func safeNames(candidates []catalog.Food, declared []string) []string {
	declaredSet := make(map[string]struct{}, len(declared))
	for _, name := range declared {
		declaredSet[name] = struct{}{}
	}
	safe := []string{}
	for i := range candidates {
		conflict := false
		for _, name := range candidates[i].AllergenNames() {
			if _, ok := declaredSet[name]; ok {
				conflict = true
				break
			}
		}
		if !conflict {
			safe = append(safe, candidates[i].Name)
		}
	}
	return safe
}
