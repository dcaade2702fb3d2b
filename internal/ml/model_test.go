package ml

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/models"
)

func TestFallbackStaysInBounds(t *testing.T) {
	tests := []struct {
		name     string
		features map[string]float64
	}{
		{"empty", map[string]float64{}},
		{"perfect", map[string]float64{
			"rolling_7d_completion":  1,
			"rolling_30d_completion": 1,
			"current_streak":         365,
		}},
		{"negative junk", map[string]float64{
			"rolling_7d_completion":  -5,
			"rolling_30d_completion": -5,
			"current_streak":         -10,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prob, explanation := Fallback(tt.features)
			if prob < 0 || prob > 1 {
				t.Errorf("Fallback() = %v, want within [0,1]", prob)
			}
			if len(explanation) != 3 {
				t.Errorf("explanation has %d attributions, want 3", len(explanation))
			}
		})
	}
}

func TestFallbackOrdersByAdherence(t *testing.T) {
	strong, _ := Fallback(map[string]float64{
		"rolling_7d_completion":  1,
		"rolling_30d_completion": 0.9,
		"current_streak":         20,
	})
	weak, _ := Fallback(map[string]float64{
		"rolling_7d_completion":  0.1,
		"rolling_30d_completion": 0.2,
		"current_streak":         0,
	})

	if strong <= weak {
		t.Errorf("strong habit scored %v, weak habit %v", strong, weak)
	}
}

func TestPredictWithoutArtifactFallsBack(t *testing.T) {
	m := NewModel()
	if m.Loaded() {
		t.Fatal("Loaded() = true before any artifact")
	}

	prob, explanation, source := m.Predict(map[string]float64{"rolling_7d_completion": 0.8})
	if source != SourceFallback {
		t.Errorf("source = %q, want %q", source, SourceFallback)
	}
	if prob < 0 || prob > 1 {
		t.Errorf("probability = %v, want within [0,1]", prob)
	}
	if len(explanation) == 0 {
		t.Error("expected a non-empty explanation")
	}
}

func TestLoadMissingArtifactIsNotAnError(t *testing.T) {
	m := NewModel()
	loaded, err := m.Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded || m.Loaded() {
		t.Error("missing artifact reported as loaded")
	}
}

func TestSaveAndLoadArtifact(t *testing.T) {
	dir := t.TempDir()
	artifact := &Artifact{
		Weights:      map[string]float64{"rolling_7d_completion": 2.5, "current_streak": 0.1},
		Bias:         -1,
		FeatureNames: []string{"rolling_7d_completion", "current_streak"},
		Metrics:      map[string]float64{"auc": 0.8},
		TrainedAt:    time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC),
	}

	path, err := SaveArtifact(artifact, dir)
	if err != nil {
		t.Fatalf("SaveArtifact() error: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("artifact written to %s, want under %s", path, dir)
	}

	m := NewModel()
	loaded, err := m.Load(LatestArtifactPath(dir))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !loaded || !m.Loaded() {
		t.Fatal("artifact not loaded from latest pointer")
	}

	prob, explanation, source := m.Predict(map[string]float64{
		"rolling_7d_completion": 1,
		"current_streak":        5,
	})
	if source != SourceModel {
		t.Errorf("source = %q, want %q", source, SourceModel)
	}
	if prob < 0 || prob > 1 {
		t.Errorf("probability = %v, want within [0,1]", prob)
	}
	if len(explanation) == 0 {
		t.Error("expected a non-empty explanation")
	}
	if explanation[0].Feature != "rolling_7d_completion" {
		t.Errorf("top attribution = %q, want the heaviest weight", explanation[0].Feature)
	}
}

func TestFeaturesVector(t *testing.T) {
	habit := models.Habit{
		ID:          "h1",
		Type:        constants.HabitTypeNumeric,
		TargetValue: 10,
		Difficulty:  constants.DifficultyHard,
		CreatedAt:   time.Date(2025, 5, 26, 12, 0, 0, 0, time.UTC),
	}
	entries := []models.Entry{
		{HabitID: "h1", Day: "2025-06-03", Completed: true, Value: 12},
		{HabitID: "h1", Day: "2025-06-04", Completed: true, Value: 4},
		{HabitID: "h1", Day: "2025-06-05", Completed: true, Value: 15},
	}

	features := Features(habit, entries, "2025-06-05")

	for _, name := range FeatureNames {
		if _, ok := features[name]; !ok {
			t.Errorf("feature %q missing from vector", name)
		}
	}
	if got := features["is_numeric"]; got != 1 {
		t.Errorf("is_numeric = %v, want 1", got)
	}
	if got := features["difficulty"]; got != 1 {
		t.Errorf("difficulty = %v, want 1 for hard", got)
	}
	if got := features["total_entries"]; got != 3 {
		t.Errorf("total_entries = %v, want 3", got)
	}
	// 2 of 3 entries hit the numeric target.
	if want := 2.0 / 3.0; features["rolling_7d_completion"] != want {
		t.Errorf("rolling_7d_completion = %v, want %v", features["rolling_7d_completion"], want)
	}
	// 2025-06-05 is a Thursday.
	if got := features["day_of_week"]; got != float64(time.Thursday) {
		t.Errorf("day_of_week = %v, want %v", got, float64(time.Thursday))
	}
}
