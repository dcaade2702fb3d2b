// Package validation checks API request payloads before they reach
// storage. Each validator returns every problem it finds, not just the
// first one, so clients can fix a form in one pass.
package validation

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/julianstephens/habitcoach/internal/constants"
)

// Problems is a list of human-readable field errors.
type Problems []string

// Ok reports whether no problems were found.
func (p Problems) Ok() bool {
	return len(p) == 0
}

const (
	minPasswordLength = 8
	maxNameLength     = 120
)

// ValidateRegistration checks a signup payload.
func ValidateRegistration(email, password, timezone string) Problems {
	var problems Problems

	if email == "" {
		problems = append(problems, "email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		problems = append(problems, fmt.Sprintf("invalid email address: %s", email))
	}

	if len(password) < minPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			problems = append(problems, fmt.Sprintf("unknown timezone: %s", timezone))
		}
	}

	return problems
}

// ValidateHabit checks a habit create/update payload.
func ValidateHabit(name, habitType string, targetValue float64, difficulty string, reminderTimes []string) Problems {
	var problems Problems

	if name == "" {
		problems = append(problems, "name is required")
	} else if len(name) > maxNameLength {
		problems = append(problems, fmt.Sprintf("name must be at most %d characters", maxNameLength))
	}

	switch habitType {
	case constants.HabitTypeBinary:
		// no target needed
	case constants.HabitTypeNumeric:
		if targetValue <= 0 {
			problems = append(problems, "numeric habits need a positive target_value")
		}
	default:
		problems = append(problems, fmt.Sprintf("type must be %s or %s", constants.HabitTypeBinary, constants.HabitTypeNumeric))
	}

	switch difficulty {
	case "", constants.DifficultyEasy, constants.DifficultyMedium, constants.DifficultyHard:
	default:
		problems = append(problems, fmt.Sprintf("difficulty must be %s, %s, or %s",
			constants.DifficultyEasy, constants.DifficultyMedium, constants.DifficultyHard))
	}

	for _, reminder := range reminderTimes {
		if !isValidClockTime(reminder) {
			problems = append(problems, fmt.Sprintf("invalid reminder time: %s (want HH:MM)", reminder))
		}
	}

	return problems
}

// ValidateCheckIn checks a check-in payload. today caps the entry day:
// back-filling history is allowed, logging the future is not.
func ValidateCheckIn(day, today string, habitType string, value float64) Problems {
	var problems Problems

	parsed, err := time.Parse(constants.DateFormat, day)
	if err != nil {
		problems = append(problems, fmt.Sprintf("invalid day: %s (want YYYY-MM-DD)", day))
		return problems
	}
	if parsed.Format(constants.DateFormat) != day {
		problems = append(problems, fmt.Sprintf("invalid day: %s (want YYYY-MM-DD)", day))
		return problems
	}

	if day > today {
		problems = append(problems, "cannot check in for a future day")
	}

	if habitType == constants.HabitTypeNumeric && value < 0 {
		problems = append(problems, "value must not be negative")
	}

	return problems
}

// ValidateHorizon checks a prediction horizon query parameter.
func ValidateHorizon(days int) Problems {
	for _, h := range constants.Horizons {
		if days == h {
			return nil
		}
	}
	return Problems{fmt.Sprintf("horizon_days must be one of %v", constants.Horizons)}
}

func isValidClockTime(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}
