package report

import (
	"errors"
	"testing"
	"time"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/models"
)

type fakeStore struct {
	habits  []models.Habit
	entries map[string][]models.Entry
}

func (f *fakeStore) GetHabits(userID string, activeOnly bool) ([]models.Habit, error) {
	return f.habits, nil
}

func (f *fakeStore) GetAllEntries(habitID string) ([]models.Entry, error) {
	return f.entries[habitID], nil
}

type fakePredictor struct {
	probs map[string]float64
	fail  map[string]bool
}

func (f *fakePredictor) Predict(habit models.Habit, day string, horizonDays int) (models.Prediction, error) {
	if f.fail[habit.ID] {
		return models.Prediction{}, errors.New("no features")
	}
	return models.Prediction{HabitID: habit.ID, Probability: f.probs[habit.ID]}, nil
}

func TestBuildWeekly(t *testing.T) {
	store := &fakeStore{
		habits: []models.Habit{
			{ID: "h1", UserID: "u1", Name: "Meditate", Type: constants.HabitTypeBinary, Active: true},
			{ID: "h2", UserID: "u1", Name: "Run", Type: constants.HabitTypeBinary, Active: true},
		},
		entries: map[string][]models.Entry{
			// 7/7 for h1, 1/7 for h2 in the week of 2025-06-02.
			"h1": weekEntries("h1", 7),
			"h2": weekEntries("h2", 1),
		},
	}
	pred := &fakePredictor{probs: map[string]float64{"h1": 0.9, "h2": 0.2}}

	report, err := NewBuilder(store, pred).BuildWeekly("u1", "2025-06-02")
	if err != nil {
		t.Fatalf("BuildWeekly() error: %v", err)
	}

	if report.WeekEnd != "2025-06-08" {
		t.Errorf("WeekEnd = %s, want 2025-06-08", report.WeekEnd)
	}
	if len(report.Habits) != 2 {
		t.Fatalf("got %d habit lines, want 2", len(report.Habits))
	}

	h1, h2 := report.Habits[0], report.Habits[1]
	if h1.WeekRate != 1 {
		t.Errorf("h1 WeekRate = %v, want 1", h1.WeekRate)
	}
	if want := 1.0 / 7; h2.WeekRate != want {
		t.Errorf("h2 WeekRate = %v, want %v", h2.WeekRate, want)
	}
	if h1.AtRisk {
		t.Error("h1 flagged at risk with probability 0.9")
	}
	if !h2.AtRisk {
		t.Error("h2 not flagged at risk with probability 0.2")
	}
	if report.AtRiskCount != 1 {
		t.Errorf("AtRiskCount = %d, want 1", report.AtRiskCount)
	}
	if want := (1.0 + 1.0/7) / 2; report.OverallRate != want {
		t.Errorf("OverallRate = %v, want %v", report.OverallRate, want)
	}
}

func TestBuildWeeklyNoHabits(t *testing.T) {
	report, err := NewBuilder(&fakeStore{}, &fakePredictor{}).BuildWeekly("u1", "2025-06-02")
	if err != nil {
		t.Fatalf("BuildWeekly() error: %v", err)
	}
	if report.OverallRate != 0 || report.AtRiskCount != 0 || len(report.Habits) != 0 {
		t.Errorf("empty report not empty: %+v", report)
	}
}

func TestBuildWeeklyPredictionFailureFlagsAtRisk(t *testing.T) {
	store := &fakeStore{
		habits:  []models.Habit{{ID: "h1", UserID: "u1", Name: "Read", Type: constants.HabitTypeBinary}},
		entries: map[string][]models.Entry{"h1": weekEntries("h1", 3)},
	}
	pred := &fakePredictor{fail: map[string]bool{"h1": true}}

	report, err := NewBuilder(store, pred).BuildWeekly("u1", "2025-06-02")
	if err != nil {
		t.Fatalf("BuildWeekly() error: %v", err)
	}
	if len(report.Habits) != 1 || !report.Habits[0].AtRisk {
		t.Errorf("habit with failed prediction not flagged at risk: %+v", report.Habits)
	}
}

func TestWeekStartFor(t *testing.T) {
	tests := []struct {
		name string
		day  time.Time
		want string
	}{
		{"monday maps to itself", time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC), "2025-06-02"},
		{"thursday maps back", time.Date(2025, 6, 5, 8, 0, 0, 0, time.UTC), "2025-06-02"},
		{"sunday maps back six days", time.Date(2025, 6, 8, 8, 0, 0, 0, time.UTC), "2025-06-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekStartFor(tt.day); got != tt.want {
				t.Errorf("WeekStartFor(%s) = %s, want %s", tt.day.Format(constants.DateFormat), got, tt.want)
			}
		})
	}
}

func weekEntries(habitID string, completed int) []models.Entry {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	entries := make([]models.Entry, 0, 7)
	for i := 0; i < 7; i++ {
		entries = append(entries, models.Entry{
			HabitID:   habitID,
			Day:       start.AddDate(0, 0, i).Format(constants.DateFormat),
			Completed: i < completed,
		})
	}
	return entries
}
