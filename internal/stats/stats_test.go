package stats

import (
	"testing"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/models"
)

func binaryHabit() models.Habit {
	return models.Habit{ID: "h1", Type: constants.HabitTypeBinary}
}

func entry(day string, completed bool) models.Entry {
	return models.Entry{HabitID: "h1", Day: day, Completed: completed}
}

func TestComputeZeroEntries(t *testing.T) {
	s := Compute(binaryHabit(), nil, "2025-06-05")

	if s.CurrentStreak != 0 {
		t.Errorf("CurrentStreak = %d, want 0", s.CurrentStreak)
	}
	if s.BestStreak != 0 {
		t.Errorf("BestStreak = %d, want 0", s.BestStreak)
	}
	if s.Rate7d != 0 || s.Rate30d != 0 {
		t.Errorf("rates = %v/%v, want 0/0", s.Rate7d, s.Rate30d)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	entries := []models.Entry{
		entry("2025-06-01", true),
		entry("2025-06-02", true),
		entry("2025-06-03", false),
		entry("2025-06-04", true),
	}

	first := Compute(binaryHabit(), entries, "2025-06-04")
	second := Compute(binaryHabit(), entries, "2025-06-04")

	if first != second {
		t.Errorf("repeated computation differs: %+v vs %+v", first, second)
	}
}

func TestStreakScenarioMonToThu(t *testing.T) {
	// Mon done, Tue done, Wed missed, Thu done, today = Thu.
	entries := []models.Entry{
		entry("2025-06-02", true),
		entry("2025-06-03", true),
		entry("2025-06-04", false),
		entry("2025-06-05", true),
	}

	s := Compute(binaryHabit(), entries, "2025-06-05")

	if s.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d, want 1", s.CurrentStreak)
	}
	if s.BestStreak != 2 {
		t.Errorf("BestStreak = %d, want 2", s.BestStreak)
	}
}

func TestMissedDayResetsStreak(t *testing.T) {
	entries := []models.Entry{
		entry("2025-06-01", true),
		entry("2025-06-02", true),
		entry("2025-06-03", false),
	}

	s := Compute(binaryHabit(), entries, "2025-06-03")
	if s.CurrentStreak != 0 {
		t.Errorf("CurrentStreak after miss = %d, want 0", s.CurrentStreak)
	}
}

func TestTodayNotYetCheckedInKeepsStreak(t *testing.T) {
	// No entry for today yet; the run ending yesterday still counts.
	entries := []models.Entry{
		entry("2025-06-03", true),
		entry("2025-06-04", true),
	}

	s := Compute(binaryHabit(), entries, "2025-06-05")
	if s.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", s.CurrentStreak)
	}
}

func TestGapBreaksBestStreak(t *testing.T) {
	// Two completed days separated by an uncheck-in day are two runs.
	entries := []models.Entry{
		entry("2025-06-01", true),
		entry("2025-06-03", true),
		entry("2025-06-04", true),
	}

	s := Compute(binaryHabit(), entries, "2025-06-04")
	if s.BestStreak != 2 {
		t.Errorf("BestStreak = %d, want 2", s.BestStreak)
	}
}

func TestNumericHabitTargetRule(t *testing.T) {
	habit := models.Habit{ID: "h1", Type: constants.HabitTypeNumeric, TargetValue: 10}

	tests := []struct {
		name  string
		value float64
		want  bool
	}{
		{"below target", 5, false},
		{"meets target", 10, true},
		{"exceeds target", 12, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := models.Entry{Day: "2025-06-05", Value: tt.value, Completed: true}
			if got := Qualifies(habit, e); got != tt.want {
				t.Errorf("Qualifies(value=%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestRollingRates(t *testing.T) {
	// 4 entries in the last 7 days, 3 completed.
	entries := []models.Entry{
		entry("2025-06-01", true),
		entry("2025-06-02", false),
		entry("2025-06-03", true),
		entry("2025-06-05", true),
	}

	s := Compute(binaryHabit(), entries, "2025-06-05")
	if want := 0.75; s.Rate7d != want {
		t.Errorf("Rate7d = %v, want %v", s.Rate7d, want)
	}
	if want := 0.75; s.Rate30d != want {
		t.Errorf("Rate30d = %v, want %v", s.Rate30d, want)
	}
}

func TestRate7dIgnoresOldEntries(t *testing.T) {
	entries := []models.Entry{
		entry("2025-05-01", false), // outside both windows (30d window starts 2025-05-07)
		entry("2025-06-05", true),
	}

	s := Compute(binaryHabit(), entries, "2025-06-05")
	if s.Rate7d != 1 {
		t.Errorf("Rate7d = %v, want 1", s.Rate7d)
	}
	if s.Rate30d != 1 {
		t.Errorf("Rate30d = %v, want 1", s.Rate30d)
	}
}

func TestConsecutiveMisses(t *testing.T) {
	entries := []models.Entry{
		entry("2025-06-01", true),
		entry("2025-06-02", false),
	}

	if got := ConsecutiveMisses(binaryHabit(), entries, "2025-06-04"); got != 3 {
		t.Errorf("ConsecutiveMisses = %d, want 3", got)
	}
	if got := ConsecutiveMisses(binaryHabit(), nil, "2025-06-04"); got != 0 {
		t.Errorf("ConsecutiveMisses with no entries = %d, want 0", got)
	}
}
