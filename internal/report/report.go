// Package report assembles the weekly adherence summary sent to each
// user: per-habit completion, streaks, maintenance probabilities, and
// which habits look at risk of lapsing.
package report

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/logger"
	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/stats"
)

// Store is the slice of persistence the report builder needs.
type Store interface {
	GetHabits(userID string, activeOnly bool) ([]models.Habit, error)
	GetAllEntries(habitID string) ([]models.Entry, error)
}

// Predictor scores a habit's maintenance probability.
type Predictor interface {
	Predict(habit models.Habit, day string, horizonDays int) (models.Prediction, error)
}

// HabitReport is one habit's line in the weekly summary.
type HabitReport struct {
	HabitID       string  `json:"habit_id"`
	Name          string  `json:"name"`
	WeekRate      float64 `json:"week_rate"`
	CurrentStreak int     `json:"current_streak"`
	BestStreak    int     `json:"best_streak"`
	Probability   float64 `json:"probability"`
	AtRisk        bool    `json:"at_risk"`
}

// WeeklyReport covers the seven days starting at WeekStart (a Monday).
type WeeklyReport struct {
	UserID      string        `json:"user_id"`
	WeekStart   string        `json:"week_start"`
	WeekEnd     string        `json:"week_end"`
	Habits      []HabitReport `json:"habits"`
	OverallRate float64       `json:"overall_rate"`
	AtRiskCount int           `json:"at_risk_count"`
	GeneratedAt time.Time     `json:"generated_at"`
}

type Builder struct {
	store     Store
	predictor Predictor
}

func NewBuilder(store Store, predictor Predictor) *Builder {
	return &Builder{store: store, predictor: predictor}
}

// BuildWeekly summarizes the user's active habits over the week
// starting at weekStart. A habit whose prediction fails is still
// reported, flagged at risk with a zero probability.
func (b *Builder) BuildWeekly(userID, weekStart string) (WeeklyReport, error) {
	start, err := time.Parse(constants.DateFormat, weekStart)
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("failed to parse week start %q: %w", weekStart, err)
	}
	weekEnd := start.AddDate(0, 0, 6).Format(constants.DateFormat)

	report := WeeklyReport{
		UserID:      userID,
		WeekStart:   weekStart,
		WeekEnd:     weekEnd,
		GeneratedAt: time.Now().UTC(),
	}

	habits, err := b.store.GetHabits(userID, true)
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("failed to load habits for report: %w", err)
	}

	var rateSum float64
	for _, habit := range habits {
		entries, err := b.store.GetAllEntries(habit.ID)
		if err != nil {
			return WeeklyReport{}, fmt.Errorf("failed to load entries for habit %s: %w", habit.ID, err)
		}

		summary := stats.Compute(habit, entries, weekEnd)
		line := HabitReport{
			HabitID:       habit.ID,
			Name:          habit.Name,
			WeekRate:      weekRate(habit, entries, weekStart, weekEnd),
			CurrentStreak: summary.CurrentStreak,
			BestStreak:    summary.BestStreak,
		}

		prediction, err := b.predictor.Predict(habit, weekEnd, constants.HorizonDefault)
		if err != nil {
			logger.Warn("Report prediction failed, flagging habit at risk",
				"habit_id", habit.ID, "error", err)
			line.AtRisk = true
		} else {
			line.Probability = prediction.Probability
			line.AtRisk = prediction.Probability < constants.AtRiskThreshold
		}

		if line.AtRisk {
			report.AtRiskCount++
		}
		rateSum += line.WeekRate
		report.Habits = append(report.Habits, line)
	}

	if len(report.Habits) > 0 {
		report.OverallRate = rateSum / float64(len(report.Habits))
	}
	return report, nil
}

// weekRate is qualifying days out of the seven in the report window.
func weekRate(habit models.Habit, entries []models.Entry, weekStart, weekEnd string) float64 {
	completed := 0
	for _, e := range entries {
		if e.Day < weekStart || e.Day > weekEnd {
			continue
		}
		if stats.Qualifies(habit, e) {
			completed++
		}
	}
	return float64(completed) / 7
}

// WeekStartFor returns the Monday of the week containing day.
func WeekStartFor(day time.Time) string {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset).Format(constants.DateFormat)
}
