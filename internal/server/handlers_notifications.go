package server

import (
	"net/http"
	"time"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/notify"
)

type notificationRequest struct {
	HabitID     string         `json:"habit_id"`
	Type        string         `json:"type"`
	Payload     notify.Payload `json:"payload"`
	ScheduledAt time.Time      `json:"scheduled_at"`
}

func (s *Server) handleCreateNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	switch req.Type {
	case "":
		req.Type = constants.NotificationReminder
	case constants.NotificationReminder, constants.NotificationReport, constants.NotificationAlert:
	default:
		writeError(w, http.StatusBadRequest, "unknown notification type")
		return
	}
	if req.ScheduledAt.IsZero() {
		writeError(w, http.StatusBadRequest, "scheduled_at is required")
		return
	}

	// A habit reference must belong to the caller.
	if req.HabitID != "" {
		if _, err := s.store.GetHabit(req.HabitID, userID(r)); err != nil {
			writeStorageError(w, err)
			return
		}
	}

	n, err := s.notifier.Schedule(userID(r), req.HabitID, req.Type, req.Payload, req.ScheduledAt)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	status := models.NotificationStatus(r.URL.Query().Get("status"))
	switch status {
	case "", models.StatusScheduled, models.StatusSent, models.StatusDismissed, models.StatusCancelled:
	default:
		writeError(w, http.StatusBadRequest, "unknown notification status")
		return
	}

	notifications, err := s.store.GetNotifications(userID(r), status)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleDismissNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.notifier.Dismiss(r.PathValue("id"), userID(r)); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleCancelNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.notifier.Cancel(r.PathValue("id"), userID(r)); err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
