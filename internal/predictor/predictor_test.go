package predictor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/ml"
	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/storage"
)

type fakeStore struct {
	habits      []models.Habit
	entries     map[string][]models.Entry
	predictions map[string]models.Prediction
	failEntries map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries:     map[string][]models.Entry{},
		predictions: map[string]models.Prediction{},
		failEntries: map[string]error{},
	}
}

func predictionKey(habitID, day string, horizonDays int) string {
	return fmt.Sprintf("%s|%s|%d", habitID, day, horizonDays)
}

func (f *fakeStore) GetAllActiveHabits() ([]models.Habit, error) { return f.habits, nil }

func (f *fakeStore) GetAllEntries(habitID string) ([]models.Entry, error) {
	if err := f.failEntries[habitID]; err != nil {
		return nil, err
	}
	return f.entries[habitID], nil
}

func (f *fakeStore) GetPrediction(habitID, day string, horizonDays int) (models.Prediction, error) {
	p, ok := f.predictions[predictionKey(habitID, day, horizonDays)]
	if !ok {
		return models.Prediction{}, storage.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) AddPrediction(p models.Prediction) error {
	f.predictions[predictionKey(p.HabitID, p.Day, p.HorizonDays)] = p
	return nil
}

func testHabit(id string) models.Habit {
	return models.Habit{ID: id, UserID: "u1", Type: constants.HabitTypeBinary, Active: true}
}

func TestPredictUsesFallbackWithoutModel(t *testing.T) {
	store := newFakeStore()
	store.entries["h1"] = []models.Entry{
		{HabitID: "h1", Day: "2025-06-04", Completed: true},
		{HabitID: "h1", Day: "2025-06-05", Completed: true},
	}
	svc := New(store, ml.NewModel())

	p, err := svc.Predict(testHabit("h1"), "2025-06-05", 7)
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	if p.Source != ml.SourceFallback {
		t.Errorf("source = %q, want %q", p.Source, ml.SourceFallback)
	}
	if p.Probability < 0 || p.Probability > 1 {
		t.Errorf("probability = %v, want within [0,1]", p.Probability)
	}
	if p.Explanation == "" {
		t.Error("explanation not recorded")
	}
	if p.UserID != "u1" || p.Day != "2025-06-05" || p.HorizonDays != 7 {
		t.Errorf("prediction row mislabeled: %+v", p)
	}
}

func TestPredictReturnsCachedRow(t *testing.T) {
	store := newFakeStore()
	svc := New(store, ml.NewModel())

	first, err := svc.Predict(testHabit("h1"), "2025-06-05", 7)
	if err != nil {
		t.Fatalf("Predict() error: %v", err)
	}
	second, err := svc.Predict(testHabit("h1"), "2025-06-05", 7)
	if err != nil {
		t.Fatalf("second Predict() error: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("same day/horizon produced distinct predictions: %s vs %s", first.ID, second.ID)
	}
	if len(store.predictions) != 1 {
		t.Errorf("store holds %d predictions, want 1", len(store.predictions))
	}
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	store := newFakeStore()
	for i := 1; i <= 10; i++ {
		store.habits = append(store.habits, testHabit(fmt.Sprintf("h%d", i)))
	}
	store.failEntries["h4"] = errors.New("disk on fire")

	svc := New(store, ml.NewModel())
	result, err := svc.RunBatch("2025-06-05", []int{7})
	if err != nil {
		t.Fatalf("RunBatch() error: %v", err)
	}

	if result.Written != 9 {
		t.Errorf("Written = %d, want 9", result.Written)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("got %d failures, want 1", len(result.Failures))
	}
	if result.Failures[0].HabitID != "h4" {
		t.Errorf("failed habit = %s, want h4", result.Failures[0].HabitID)
	}
}

func TestRunBatchRerunIsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.habits = []models.Habit{testHabit("h1"), testHabit("h2")}
	svc := New(store, ml.NewModel())

	first, err := svc.RunBatch("2025-06-05", constants.Horizons)
	if err != nil {
		t.Fatalf("RunBatch() error: %v", err)
	}
	if first.Written != 6 {
		t.Errorf("first run Written = %d, want 6", first.Written)
	}

	second, err := svc.RunBatch("2025-06-05", constants.Horizons)
	if err != nil {
		t.Fatalf("second RunBatch() error: %v", err)
	}
	if second.Written != 0 || second.Cached != 6 {
		t.Errorf("re-run wrote %d and reused %d, want 0 and 6", second.Written, second.Cached)
	}
	if len(store.predictions) != 6 {
		t.Errorf("store holds %d predictions, want 6", len(store.predictions))
	}
}
