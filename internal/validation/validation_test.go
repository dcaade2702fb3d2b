package validation

import (
	"strings"
	"testing"

	"github.com/julianstephens/habitcoach/internal/constants"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		timezone string
		wantOk   bool
	}{
		{"valid", "ada@example.com", "longenough", "America/New_York", true},
		{"valid without timezone", "ada@example.com", "longenough", "", true},
		{"missing email", "", "longenough", "", false},
		{"malformed email", "not-an-email", "longenough", "", false},
		{"short password", "ada@example.com", "short", "", false},
		{"bad timezone", "ada@example.com", "longenough", "Mars/Olympus", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := ValidateRegistration(tt.email, tt.password, tt.timezone)
			if problems.Ok() != tt.wantOk {
				t.Errorf("Ok() = %v, want %v (problems: %v)", problems.Ok(), tt.wantOk, problems)
			}
		})
	}
}

func TestValidateRegistrationReportsEveryProblem(t *testing.T) {
	problems := ValidateRegistration("", "x", "Mars/Olympus")
	if len(problems) != 3 {
		t.Errorf("got %d problems, want 3: %v", len(problems), problems)
	}
}

func TestValidateHabit(t *testing.T) {
	tests := []struct {
		name       string
		habitName  string
		habitType  string
		target     float64
		difficulty string
		reminders  []string
		wantOk     bool
	}{
		{"valid binary", "Meditate", constants.HabitTypeBinary, 0, constants.DifficultyEasy, []string{"08:00"}, true},
		{"valid numeric", "Pushups", constants.HabitTypeNumeric, 20, "", nil, true},
		{"missing name", "", constants.HabitTypeBinary, 0, "", nil, false},
		{"overlong name", strings.Repeat("x", 121), constants.HabitTypeBinary, 0, "", nil, false},
		{"unknown type", "Meditate", "weekly", 0, "", nil, false},
		{"numeric without target", "Pushups", constants.HabitTypeNumeric, 0, "", nil, false},
		{"unknown difficulty", "Meditate", constants.HabitTypeBinary, 0, "brutal", nil, false},
		{"bad reminder time", "Meditate", constants.HabitTypeBinary, 0, "", []string{"25:99"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := ValidateHabit(tt.habitName, tt.habitType, tt.target, tt.difficulty, tt.reminders)
			if problems.Ok() != tt.wantOk {
				t.Errorf("Ok() = %v, want %v (problems: %v)", problems.Ok(), tt.wantOk, problems)
			}
		})
	}
}

func TestValidateCheckIn(t *testing.T) {
	tests := []struct {
		name   string
		day    string
		value  float64
		wantOk bool
	}{
		{"today", "2025-06-05", 5, true},
		{"backfill", "2025-06-01", 5, true},
		{"future day", "2025-06-06", 5, false},
		{"garbage day", "June 5th", 5, false},
		{"non-normalized day", "2025-6-5", 5, false},
		{"negative value", "2025-06-05", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := ValidateCheckIn(tt.day, "2025-06-05", constants.HabitTypeNumeric, tt.value)
			if problems.Ok() != tt.wantOk {
				t.Errorf("Ok() = %v, want %v (problems: %v)", problems.Ok(), tt.wantOk, problems)
			}
		})
	}
}

func TestValidateHorizon(t *testing.T) {
	for _, h := range constants.Horizons {
		if problems := ValidateHorizon(h); !problems.Ok() {
			t.Errorf("ValidateHorizon(%d) = %v, want ok", h, problems)
		}
	}
	if problems := ValidateHorizon(5); problems.Ok() {
		t.Error("ValidateHorizon(5) accepted an unsupported horizon")
	}
}
