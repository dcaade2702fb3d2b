package ml

import (
	"time"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/stats"
)

// FeatureNames is the canonical feature ordering. Artifacts record the
// ordering they were trained with, so adding a feature never silently
// shifts columns in an old model.
var FeatureNames = []string{
	"rolling_7d_completion",
	"rolling_14d_completion",
	"rolling_30d_completion",
	"current_streak",
	"consecutive_misses",
	"day_of_week",
	"time_since_creation",
	"difficulty",
	"is_numeric",
	"best_streak",
	"total_entries",
	"completion_rate_all_time",
}

var featureDescriptions = map[string]string{
	"rolling_7d_completion":    "7-day completion rate",
	"rolling_14d_completion":   "14-day completion rate",
	"rolling_30d_completion":   "30-day completion rate",
	"current_streak":           "Current streak length",
	"consecutive_misses":       "Consecutive missed days",
	"day_of_week":              "Day of week",
	"time_since_creation":      "Days since habit creation",
	"difficulty":               "Habit difficulty level",
	"is_numeric":               "Numeric habit",
	"best_streak":              "Best streak length",
	"total_entries":            "Total check-ins",
	"completion_rate_all_time": "All-time completion rate",
}

// Features builds the feature vector for a habit as of asOf. Entries
// dated after asOf must already be filtered out by the caller.
func Features(habit models.Habit, entries []models.Entry, asOf string) map[string]float64 {
	summary := stats.Compute(habit, entries, asOf)
	asOfDay, _ := time.Parse(constants.DateFormat, asOf)

	features := map[string]float64{
		"rolling_7d_completion":  summary.Rate7d,
		"rolling_14d_completion": rollingRate(habit, entries, asOf, 14),
		"rolling_30d_completion": summary.Rate30d,
		"current_streak":         float64(summary.CurrentStreak),
		"consecutive_misses":     float64(stats.ConsecutiveMisses(habit, entries, asOf)),
		"day_of_week":            float64(asOfDay.Weekday()),
		"time_since_creation":    daysSince(habit.CreatedAt, asOfDay),
		"difficulty":             encodeDifficulty(habit.Difficulty),
		"is_numeric":             boolFeature(habit.Type == constants.HabitTypeNumeric),
		"best_streak":            float64(summary.BestStreak),
		"total_entries":          float64(len(entries)),
	}

	completed := 0
	for _, e := range entries {
		if stats.Qualifies(habit, e) {
			completed++
		}
	}
	if len(entries) > 0 {
		features["completion_rate_all_time"] = float64(completed) / float64(len(entries))
	} else {
		features["completion_rate_all_time"] = 0
	}

	return features
}

// rollingRate mirrors the stats windowed rate for window sizes the
// Summary does not carry.
func rollingRate(habit models.Habit, entries []models.Entry, asOf string, days int) float64 {
	asOfDay, err := time.Parse(constants.DateFormat, asOf)
	if err != nil {
		return 0
	}
	start := asOfDay.AddDate(0, 0, -(days - 1))

	total, completed := 0, 0
	for _, e := range entries {
		day, err := time.Parse(constants.DateFormat, e.Day)
		if err != nil || day.Before(start) || day.After(asOfDay) {
			continue
		}
		total++
		if stats.Qualifies(habit, e) {
			completed++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total)
}

func encodeDifficulty(difficulty string) float64 {
	switch difficulty {
	case constants.DifficultyEasy:
		return 0
	case constants.DifficultyHard:
		return 1
	default:
		return 0.5
	}
}

func daysSince(created time.Time, asOf time.Time) float64 {
	days := asOf.Sub(created.Truncate(24*time.Hour)).Hours() / 24
	if days < 0 {
		return 0
	}
	return float64(int(days))
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
