package server

import "net/http"

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/admin/health", s.requireAuth(s.handleHealth))

	mux.HandleFunc("POST /api/v1/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/v1/auth/logout", s.requireAuth(s.handleLogout))
	mux.HandleFunc("GET /api/v1/auth/me", s.requireAuth(s.handleMe))

	mux.HandleFunc("POST /api/v1/habits", s.requireAuth(s.handleCreateHabit))
	mux.HandleFunc("GET /api/v1/habits", s.requireAuth(s.handleListHabits))
	mux.HandleFunc("GET /api/v1/habits/{id}", s.requireAuth(s.handleGetHabit))
	mux.HandleFunc("PATCH /api/v1/habits/{id}", s.requireAuth(s.handleUpdateHabit))
	mux.HandleFunc("DELETE /api/v1/habits/{id}", s.requireAuth(s.handleDeleteHabit))

	mux.HandleFunc("POST /api/v1/habits/{id}/checkin", s.requireAuth(s.handleCheckIn))
	mux.HandleFunc("GET /api/v1/habits/{id}/entries", s.requireAuth(s.handleListEntries))
	mux.HandleFunc("GET /api/v1/habits/{id}/stats", s.requireAuth(s.handleHabitStats))
	mux.HandleFunc("GET /api/v1/habits/{id}/prediction", s.requireAuth(s.handleHabitPrediction))

	mux.HandleFunc("GET /api/v1/predictions", s.requireAuth(s.handleListPredictions))
	mux.HandleFunc("POST /api/v1/predictions/batch", s.requireAuth(s.handleRunBatch))

	mux.HandleFunc("GET /api/v1/reports/weekly", s.requireAuth(s.handleWeeklyReport))
	mux.HandleFunc("POST /api/v1/reports/weekly/email", s.requireAuth(s.handleEmailWeeklyReport))

	mux.HandleFunc("POST /api/v1/notifications", s.requireAuth(s.handleCreateNotification))
	mux.HandleFunc("GET /api/v1/notifications", s.requireAuth(s.handleListNotifications))
	mux.HandleFunc("POST /api/v1/notifications/{id}/dismiss", s.requireAuth(s.handleDismissNotification))
	mux.HandleFunc("POST /api/v1/notifications/{id}/cancel", s.requireAuth(s.handleCancelNotification))

	mux.HandleFunc("POST /api/v1/admin/train", s.requireAuth(s.handleTrain))
	mux.HandleFunc("GET /api/v1/admin/train/status", s.requireAuth(s.handleTrainStatus))
	mux.HandleFunc("POST /api/v1/admin/reload-model", s.requireAuth(s.handleReloadModel))

	return logRequests(mux)
}
