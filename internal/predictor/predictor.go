// Package predictor scores habit maintenance probabilities, caching
// results per (habit, day, horizon) so batch re-runs and API reads stay
// idempotent.
package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitcoach/internal/logger"
	"github.com/julianstephens/habitcoach/internal/ml"
	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/storage"
)

// Store is the slice of persistence the predictor needs.
type Store interface {
	GetAllActiveHabits() ([]models.Habit, error)
	GetAllEntries(habitID string) ([]models.Entry, error)
	GetPrediction(habitID, day string, horizonDays int) (models.Prediction, error)
	AddPrediction(models.Prediction) error
}

// Scorer produces a probability with attributions from a feature
// vector. *ml.Model satisfies it.
type Scorer interface {
	Predict(features map[string]float64) (float64, []models.FeatureAttribution, string)
}

type Service struct {
	store Store
	model Scorer
}

func New(store Store, model Scorer) *Service {
	return &Service{store: store, model: model}
}

// Predict returns the maintenance probability for a habit as of day
// over horizonDays. An already stored prediction for the same
// (habit, day, horizon) is returned as-is instead of recomputing.
func (s *Service) Predict(habit models.Habit, day string, horizonDays int) (models.Prediction, error) {
	existing, err := s.store.GetPrediction(habit.ID, day, horizonDays)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.Prediction{}, fmt.Errorf("failed to look up prediction: %w", err)
	}

	entries, err := s.store.GetAllEntries(habit.ID)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("failed to load entries for habit %s: %w", habit.ID, err)
	}
	history := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Day <= day {
			history = append(history, e)
		}
	}

	prob, explanation, source := s.model.Predict(ml.Features(habit, history, day))

	explanationJSON, err := json.Marshal(explanation)
	if err != nil {
		return models.Prediction{}, fmt.Errorf("failed to encode explanation: %w", err)
	}

	prediction := models.Prediction{
		ID:          uuid.NewString(),
		HabitID:     habit.ID,
		UserID:      habit.UserID,
		Day:         day,
		HorizonDays: horizonDays,
		Probability: prob,
		Explanation: string(explanationJSON),
		Source:      source,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.store.AddPrediction(prediction); err != nil {
		return models.Prediction{}, fmt.Errorf("failed to save prediction: %w", err)
	}
	return prediction, nil
}

// BatchFailure records one habit/horizon pair that could not be scored.
type BatchFailure struct {
	HabitID     string `json:"habit_id"`
	HorizonDays int    `json:"horizon_days"`
	Error       string `json:"error"`
}

// BatchResult summarizes one batch run.
type BatchResult struct {
	Day      string         `json:"day"`
	Written  int            `json:"written"`
	Cached   int            `json:"cached"`
	Failures []BatchFailure `json:"failures,omitempty"`
}

// RunBatch scores every active habit for each horizon as of day. A
// failing habit is recorded and skipped; it never aborts the rest of
// the batch. Re-running the same day adds nothing new.
func (s *Service) RunBatch(day string, horizons []int) (BatchResult, error) {
	result := BatchResult{Day: day}

	habits, err := s.store.GetAllActiveHabits()
	if err != nil {
		return result, fmt.Errorf("failed to load habits for batch: %w", err)
	}

	for _, habit := range habits {
		for _, horizon := range horizons {
			if _, err := s.store.GetPrediction(habit.ID, day, horizon); err == nil {
				result.Cached++
				continue
			} else if !errors.Is(err, storage.ErrNotFound) {
				result.Failures = append(result.Failures, BatchFailure{
					HabitID: habit.ID, HorizonDays: horizon, Error: err.Error(),
				})
				continue
			}

			if _, err := s.Predict(habit, day, horizon); err != nil {
				logger.Error("Batch prediction failed", "habit_id", habit.ID, "horizon_days", horizon, "error", err)
				result.Failures = append(result.Failures, BatchFailure{
					HabitID: habit.ID, HorizonDays: horizon, Error: err.Error(),
				})
				continue
			}
			result.Written++
		}
	}

	logger.Info("Prediction batch finished",
		"day", day, "written", result.Written, "cached", result.Cached, "failures", len(result.Failures))
	return result, nil
}
