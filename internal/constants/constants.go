package constants

import "time"

const (
	AppName            = "habitcoach"
	DefaultKeyringUser = "secret-key"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Habit types
	HabitTypeBinary  = "binary"
	HabitTypeNumeric = "numeric"

	// Difficulty levels
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"

	// Notification types
	NotificationReminder = "reminder"
	NotificationReport   = "report"
	NotificationAlert    = "alert"

	// Token lifetimes
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
	RefreshCookie   = "refresh_token"

	// Prediction horizons in days
	HorizonShort   = 3
	HorizonDefault = 7
	HorizonLong    = 14

	// AtRiskThreshold marks a habit as at-risk when its maintenance
	// probability drops below this value.
	AtRiskThreshold = 0.4

	// Training thresholds
	MinTrainingHabits  = 100
	MinTrainingSamples = 100
	MinHabitHistory    = 7

	// DispatchBatchSize caps how many due notifications a single
	// dispatch run picks up.
	DispatchBatchSize = 100

	// Model artifact names
	LatestModelName = "latest_model.json"
	RegistryName    = "registry.json"
)

// Horizons lists every prediction horizon the nightly batch covers.
var Horizons = []int{HorizonShort, HorizonDefault, HorizonLong}
