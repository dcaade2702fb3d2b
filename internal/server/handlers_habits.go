package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/stats"
	"github.com/julianstephens/habitcoach/internal/validation"
)

type habitRequest struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Type          string          `json:"type"`
	TargetValue   float64         `json:"target_value"`
	Schedule      json.RawMessage `json:"schedule"`
	ReminderTimes []string        `json:"reminder_times"`
	Difficulty    string          `json:"difficulty"`
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var req habitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Type == "" {
		req.Type = constants.HabitTypeBinary
	}
	if problems := validation.ValidateHabit(req.Name, req.Type, req.TargetValue, req.Difficulty, req.ReminderTimes); !problems.Ok() {
		writeProblems(w, problems)
		return
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = constants.DifficultyMedium
	}
	habit := models.Habit{
		ID:          uuid.NewString(),
		UserID:      userID(r),
		Name:        req.Name,
		Description: req.Description,
		Type:        req.Type,
		TargetValue: req.TargetValue,
		Schedule:    string(req.Schedule),
		Difficulty:  difficulty,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}
	if len(req.ReminderTimes) > 0 {
		data, err := json.Marshal(req.ReminderTimes)
		if err != nil {
			writeStorageError(w, err)
			return
		}
		habit.ReminderTimes = string(data)
	}

	if err := s.store.AddHabit(habit); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, habit)
}

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") != "false"
	habits, err := s.store.GetHabits(userID(r), activeOnly)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	if habits == nil {
		habits = []models.Habit{}
	}
	writeJSON(w, http.StatusOK, habits)
}

func (s *Server) handleGetHabit(w http.ResponseWriter, r *http.Request) {
	habit, err := s.store.GetHabit(r.PathValue("id"), userID(r))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

type habitPatch struct {
	Name          *string         `json:"name"`
	Description   *string         `json:"description"`
	Type          *string         `json:"type"`
	TargetValue   *float64        `json:"target_value"`
	Schedule      json.RawMessage `json:"schedule"`
	ReminderTimes []string        `json:"reminder_times"`
	Difficulty    *string         `json:"difficulty"`
}

// handleUpdateHabit applies a partial update; omitted fields keep their
// stored values.
func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	habit, err := s.store.GetHabit(r.PathValue("id"), userID(r))
	if err != nil {
		writeStorageError(w, err)
		return
	}

	var req habitPatch
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Name != nil {
		habit.Name = *req.Name
	}
	if req.Description != nil {
		habit.Description = *req.Description
	}
	if req.Type != nil {
		habit.Type = *req.Type
	}
	if req.TargetValue != nil {
		habit.TargetValue = *req.TargetValue
	}
	if req.Difficulty != nil {
		habit.Difficulty = *req.Difficulty
	}
	if problems := validation.ValidateHabit(habit.Name, habit.Type, habit.TargetValue, habit.Difficulty, req.ReminderTimes); !problems.Ok() {
		writeProblems(w, problems)
		return
	}

	if req.Schedule != nil {
		habit.Schedule = string(req.Schedule)
	}
	if req.ReminderTimes != nil {
		data, err := json.Marshal(req.ReminderTimes)
		if err != nil {
			writeStorageError(w, err)
			return
		}
		habit.ReminderTimes = string(data)
	}

	if err := s.store.UpdateHabit(habit); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habit)
}

// handleDeleteHabit soft-deletes: the habit and its history survive,
// but it disappears from active lists, batches, and reports, and its
// pending reminders are cancelled.
func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeactivateHabit(r.PathValue("id"), userID(r)); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type checkInRequest struct {
	Day       string  `json:"day"`
	Completed *bool   `json:"completed"`
	Value     float64 `json:"value"`
	Note      string  `json:"note"`
}

type checkInResponse struct {
	Entry models.Entry  `json:"entry"`
	Stats stats.Summary `json:"stats"`
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	habit, err := s.store.GetHabit(r.PathValue("id"), userID(r))
	if err != nil {
		writeStorageError(w, err)
		return
	}

	var req checkInRequest
	if !decodeBody(w, r, &req) {
		return
	}

	today := time.Now().UTC().Format(constants.DateFormat)
	if req.Day == "" {
		req.Day = today
	}
	if problems := validation.ValidateCheckIn(req.Day, today, habit.Type, req.Value); !problems.Ok() {
		writeProblems(w, problems)
		return
	}

	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}
	now := time.Now().UTC()
	entry := models.Entry{
		ID:        uuid.NewString(),
		HabitID:   habit.ID,
		UserID:    habit.UserID,
		Day:       req.Day,
		Completed: completed,
		Value:     req.Value,
		Note:      req.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}

	updated, err := s.store.UpsertEntry(entry)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	stored, err := s.store.GetEntry(habit.ID, req.Day)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	summary, err := s.snapshotStats(habit, req.Day)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	status := http.StatusCreated
	if updated {
		status = http.StatusOK
	}
	writeJSON(w, status, checkInResponse{Entry: stored, Stats: summary})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	habit, err := s.store.GetHabit(r.PathValue("id"), userID(r))
	if err != nil {
		writeStorageError(w, err)
		return
	}

	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")

	var entries []models.Entry
	if from != "" || to != "" {
		if to == "" {
			to = time.Now().UTC().Format(constants.DateFormat)
		}
		entries, err = s.store.GetEntries(habit.ID, from, to)
	} else {
		entries, err = s.store.GetAllEntries(habit.ID)
	}
	if err != nil {
		writeStorageError(w, err)
		return
	}
	if entries == nil {
		entries = []models.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

type statsResponse struct {
	HabitID string                `json:"habit_id"`
	AsOf    string                `json:"as_of"`
	Stats   stats.Summary         `json:"stats"`
	History []models.StatSnapshot `json:"history,omitempty"`
}

func (s *Server) handleHabitStats(w http.ResponseWriter, r *http.Request) {
	habit, err := s.store.GetHabit(r.PathValue("id"), userID(r))
	if err != nil {
		writeStorageError(w, err)
		return
	}

	asOf := r.URL.Query().Get("as_of")
	if asOf == "" {
		asOf = time.Now().UTC().Format(constants.DateFormat)
	} else if _, err := time.Parse(constants.DateFormat, asOf); err != nil {
		writeError(w, http.StatusBadRequest, "invalid as_of date (want YYYY-MM-DD)")
		return
	}

	entries, err := s.store.GetAllEntries(habit.ID)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	resp := statsResponse{
		HabitID: habit.ID,
		AsOf:    asOf,
		Stats:   stats.Compute(habit, entries, asOf),
	}

	// An optional range adds the persisted per-day snapshots trailing
	// back from as_of.
	if rng := r.URL.Query().Get("range"); rng != "" {
		from, ok := rangeStart(asOf, rng)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid range (want 7d, 30d, 90d, or all)")
			return
		}
		resp.History, err = s.store.GetStatSnapshots(habit.ID, from, asOf)
		if err != nil {
			writeStorageError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// rangeStart returns the first day of a trailing window ending at asOf.
// "all" yields an empty lower bound, which matches every day.
func rangeStart(asOf, rng string) (string, bool) {
	days := map[string]int{"7d": 7, "30d": 30, "90d": 90}[rng]
	if days == 0 {
		return "", rng == "all"
	}
	end, err := time.Parse(constants.DateFormat, asOf)
	if err != nil {
		return "", false
	}
	return end.AddDate(0, 0, -(days - 1)).Format(constants.DateFormat), true
}

// snapshotStats recomputes and persists the habit's stats for day.
func (s *Server) snapshotStats(habit models.Habit, day string) (stats.Summary, error) {
	entries, err := s.store.GetAllEntries(habit.ID)
	if err != nil {
		return stats.Summary{}, err
	}

	summary := stats.Compute(habit, entries, day)
	snapshot := models.StatSnapshot{
		ID:            uuid.NewString(),
		HabitID:       habit.ID,
		Day:           day,
		CurrentStreak: summary.CurrentStreak,
		BestStreak:    summary.BestStreak,
		Rate7d:        summary.Rate7d,
		Rate30d:       summary.Rate30d,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.SaveStatSnapshot(snapshot); err != nil {
		return stats.Summary{}, err
	}
	return summary, nil
}
