package models

import "time"

// Habit represents a recurring practice to track. Binary habits are
// done/not-done; numeric habits carry a per-day target value.
type Habit struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Type          string    `json:"type"` // binary or numeric
	TargetValue   float64   `json:"target_value,omitempty"`
	Schedule      string    `json:"schedule,omitempty"`       // JSON, e.g. {"frequency":"daily","days":[1,2,3,4,5]}
	ReminderTimes string    `json:"reminder_times,omitempty"` // JSON array of HH:MM strings
	Difficulty    string    `json:"difficulty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
}

// Entry represents a single day's check-in for a habit. There is at
// most one entry per (habit, day); check-ins upsert.
type Entry struct {
	ID        string    `json:"id"`
	HabitID   string    `json:"habit_id"`
	UserID    string    `json:"user_id"`
	Day       string    `json:"day"` // YYYY-MM-DD format
	Completed bool      `json:"completed"`
	Value     float64   `json:"value,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatSnapshot holds precomputed statistics for a habit on a day.
// Snapshots are recomputed on every check-in for that day.
type StatSnapshot struct {
	ID            string    `json:"id"`
	HabitID       string    `json:"habit_id"`
	Day           string    `json:"day"`
	CurrentStreak int       `json:"current_streak"`
	BestStreak    int       `json:"best_streak"`
	Rate7d        float64   `json:"rate_7d"`
	Rate30d       float64   `json:"rate_30d"`
	CreatedAt     time.Time `json:"created_at"`
}
