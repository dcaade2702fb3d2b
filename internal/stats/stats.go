// Package stats derives streaks and rolling completion rates from a
// habit's entry history. Every function is a pure computation over the
// entries it is handed: the same input always yields the same result.
package stats

import (
	"time"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/models"
)

// Summary holds the derived statistics for a habit as of a given day.
type Summary struct {
	CurrentStreak int     `json:"current_streak"`
	BestStreak    int     `json:"best_streak"`
	Rate7d        float64 `json:"rate_7d"`
	Rate30d       float64 `json:"rate_30d"`
}

// Qualifies reports whether an entry satisfies the habit's completion
// rule: binary habits use the completed flag, numeric habits must meet
// or exceed the target value.
func Qualifies(habit models.Habit, entry models.Entry) bool {
	if habit.Type == constants.HabitTypeNumeric && habit.TargetValue > 0 {
		return entry.Value >= habit.TargetValue
	}
	return entry.Completed
}

// Compute derives the full summary for a habit as of asOf (YYYY-MM-DD).
// Entries may arrive in any order; days without an entry count as not
// completed. A habit with no entries yields the zero Summary.
func Compute(habit models.Habit, entries []models.Entry, asOf string) Summary {
	byDay := indexByDay(habit, entries)
	asOfDay, err := time.Parse(constants.DateFormat, asOf)
	if err != nil {
		return Summary{}
	}

	return Summary{
		CurrentStreak: currentStreak(byDay, asOfDay),
		BestStreak:    bestStreak(byDay),
		Rate7d:        rollingRate(byDay, asOfDay, 7),
		Rate30d:       rollingRate(byDay, asOfDay, 30),
	}
}

// ConsecutiveMisses counts missed days walking backward from asOf. Days
// without an entry count as misses until the first qualifying day.
func ConsecutiveMisses(habit models.Habit, entries []models.Entry, asOf string) int {
	byDay := indexByDay(habit, entries)
	asOfDay, err := time.Parse(constants.DateFormat, asOf)
	if err != nil || len(byDay) == 0 {
		return 0
	}

	earliest := earliestDay(byDay)
	misses := 0
	for day := asOfDay; !day.Before(earliest); day = day.AddDate(0, 0, -1) {
		if byDay[day.Format(constants.DateFormat)] {
			break
		}
		misses++
	}
	return misses
}

// indexByDay maps each entry day to whether it qualifies as complete.
// Upsert semantics guarantee at most one entry per day.
func indexByDay(habit models.Habit, entries []models.Entry) map[string]bool {
	byDay := make(map[string]bool, len(entries))
	for _, e := range entries {
		byDay[e.Day] = Qualifies(habit, e)
	}
	return byDay
}

// currentStreak counts consecutive qualifying days ending at asOf. The
// asOf day itself may be missing without breaking the run (the user may
// simply not have checked in yet today); any earlier gap or
// non-qualifying day ends the streak.
func currentStreak(byDay map[string]bool, asOf time.Time) int {
	anchor := asOf
	if _, ok := byDay[anchor.Format(constants.DateFormat)]; !ok {
		anchor = anchor.AddDate(0, 0, -1)
	}

	streak := 0
	for day := anchor; ; day = day.AddDate(0, 0, -1) {
		if !byDay[day.Format(constants.DateFormat)] {
			break
		}
		streak++
	}
	return streak
}

// bestStreak finds the longest run of calendar-consecutive qualifying
// days anywhere in the history. Missing days break runs.
func bestStreak(byDay map[string]bool) int {
	best := 0
	for day, qualified := range byDay {
		if !qualified {
			continue
		}
		// Only count runs from their first day.
		d, err := time.Parse(constants.DateFormat, day)
		if err != nil {
			continue
		}
		if byDay[d.AddDate(0, 0, -1).Format(constants.DateFormat)] {
			continue
		}

		run := 0
		for cur := d; byDay[cur.Format(constants.DateFormat)]; cur = cur.AddDate(0, 0, 1) {
			run++
		}
		if run > best {
			best = run
		}
	}
	return best
}

// rollingRate computes qualifying days / days-with-entries over the
// trailing window of `days` days ending at asOf. A window with no
// entries yields 0, not an error.
func rollingRate(byDay map[string]bool, asOf time.Time, days int) float64 {
	start := asOf.AddDate(0, 0, -(days - 1))

	total, completed := 0, 0
	for day := start; !day.After(asOf); day = day.AddDate(0, 0, 1) {
		qualified, ok := byDay[day.Format(constants.DateFormat)]
		if !ok {
			continue
		}
		total++
		if qualified {
			completed++
		}
	}

	if total == 0 {
		return 0
	}
	return float64(completed) / float64(total)
}

func earliestDay(byDay map[string]bool) time.Time {
	var earliest time.Time
	for day := range byDay {
		d, err := time.Parse(constants.DateFormat, day)
		if err != nil {
			continue
		}
		if earliest.IsZero() || d.Before(earliest) {
			earliest = d
		}
	}
	return earliest
}
