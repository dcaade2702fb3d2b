package models

import "time"

// Prediction is a point-in-time maintenance-probability estimate for a
// habit. Rows are append-only: newer predictions supersede older ones,
// they never overwrite them.
type Prediction struct {
	ID          string    `json:"id"`
	HabitID     string    `json:"habit_id"`
	UserID      string    `json:"user_id"`
	Day         string    `json:"day"` // predict date, YYYY-MM-DD
	HorizonDays int       `json:"horizon_days"`
	Probability float64   `json:"probability"`
	Explanation string    `json:"explanation,omitempty"` // JSON array of feature attributions
	Source      string    `json:"source"`                // model or fallback
	CreatedAt   time.Time `json:"created_at"`
}

// FeatureAttribution explains one feature's contribution to a
// prediction.
type FeatureAttribution struct {
	Feature     string  `json:"feature"`
	Importance  float64 `json:"importance"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
}
