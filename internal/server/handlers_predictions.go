package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/logger"
	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/report"
	"github.com/julianstephens/habitcoach/internal/validation"
)

type predictionResponse struct {
	HabitID     string                      `json:"habit_id"`
	Day         string                      `json:"day"`
	HorizonDays int                         `json:"horizon_days"`
	Probability float64                     `json:"probability"`
	AtRisk      bool                        `json:"at_risk"`
	Source      string                      `json:"source"`
	Explanation []models.FeatureAttribution `json:"explanation,omitempty"`
	CreatedAt   time.Time                   `json:"created_at"`
}

// handleHabitPrediction returns today's prediction for a habit,
// computing and caching it on first request.
func (s *Server) handleHabitPrediction(w http.ResponseWriter, r *http.Request) {
	habit, err := s.store.GetHabit(r.PathValue("id"), userID(r))
	if err != nil {
		writeStorageError(w, err)
		return
	}

	horizon := constants.HorizonDefault
	if raw := r.URL.Query().Get("horizon_days"); raw != "" {
		horizon, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "horizon_days must be an integer")
			return
		}
	}
	if problems := validation.ValidateHorizon(horizon); !problems.Ok() {
		writeProblems(w, problems)
		return
	}

	day := time.Now().UTC().Format(constants.DateFormat)
	prediction, err := s.predictions.Predict(habit, day, horizon)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPredictionResponse(prediction))
}

func toPredictionResponse(p models.Prediction) predictionResponse {
	resp := predictionResponse{
		HabitID:     p.HabitID,
		Day:         p.Day,
		HorizonDays: p.HorizonDays,
		Probability: p.Probability,
		AtRisk:      p.Probability < constants.AtRiskThreshold,
		Source:      p.Source,
		CreatedAt:   p.CreatedAt,
	}
	if p.Explanation != "" {
		// Stored explanations are trusted JSON; a decode failure just
		// drops them from the response.
		_ = json.Unmarshal([]byte(p.Explanation), &resp.Explanation)
	}
	return resp
}

// handleListPredictions returns the caller's stored predictions,
// optionally filtered by date and horizon.
func (s *Server) handleListPredictions(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day != "" {
		if _, err := time.Parse(constants.DateFormat, day); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date (want YYYY-MM-DD)")
			return
		}
	}

	horizon := 0
	if raw := r.URL.Query().Get("horizon"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "horizon must be an integer")
			return
		}
		if problems := validation.ValidateHorizon(parsed); !problems.Ok() {
			writeProblems(w, problems)
			return
		}
		horizon = parsed
	}

	predictions, err := s.store.GetPredictions(userID(r), day, horizon)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	resp := make([]predictionResponse, 0, len(predictions))
	for _, p := range predictions {
		resp = append(resp, toPredictionResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleWeeklyReport builds the report for the week containing
// week_start (defaulting to the current week's Monday).
func (s *Server) handleWeeklyReport(w http.ResponseWriter, r *http.Request) {
	weekStart := r.URL.Query().Get("week_start")
	if weekStart == "" {
		weekStart = report.WeekStartFor(time.Now().UTC())
	} else if _, err := time.Parse(constants.DateFormat, weekStart); err != nil {
		writeError(w, http.StatusBadRequest, "invalid week_start date (want YYYY-MM-DD)")
		return
	}

	weekly, err := s.reports.BuildWeekly(userID(r), weekStart)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weekly)
}

// handleEmailWeeklyReport builds the caller's weekly report and queues
// it for email delivery.
func (s *Server) handleEmailWeeklyReport(w http.ResponseWriter, r *http.Request) {
	weekStart := r.URL.Query().Get("week_start")
	if weekStart == "" {
		weekStart = report.WeekStartFor(time.Now().UTC())
	} else if _, err := time.Parse(constants.DateFormat, weekStart); err != nil {
		writeError(w, http.StatusBadRequest, "invalid week_start date (want YYYY-MM-DD)")
		return
	}

	user, err := s.store.GetUser(userID(r))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	weekly, err := s.reports.BuildWeekly(user.ID, weekStart)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	go func() {
		if err := s.mail.SendWeeklyReport(user.Email, user.Name, weekly); err != nil {
			logger.Error("Failed to email weekly report", "user_id", user.ID, "error", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "week_start": weekStart})
}
