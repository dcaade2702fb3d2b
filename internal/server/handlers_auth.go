package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitcoach/internal/auth"
	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/logger"
	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/storage"
	"github.com/julianstephens/habitcoach/internal/validation"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"`
	User        models.User `json:"user"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if problems := validation.ValidateRegistration(req.Email, req.Password, req.Timezone); !problems.Ok() {
		writeProblems(w, problems)
		return
	}

	if _, err := s.store.GetUserByEmail(req.Email); err == nil {
		writeError(w, http.StatusConflict, "email already registered")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		writeStorageError(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	user := models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Timezone:     timezone,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.AddUser(user); err != nil {
		writeStorageError(w, err)
		return
	}

	s.audit("user.signup", user.ID, nil)
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := s.store.GetUserByEmail(req.Email)
	if err != nil || !user.Active || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	access, err := s.auth.NewAccessToken(user.ID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	refresh, err := s.auth.NewRefreshToken(user.ID)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	now := time.Now().UTC()
	user.LastLogin = &now
	user.RefreshTokenHash = auth.HashToken(refresh)
	if err := s.store.UpdateUser(user); err != nil {
		writeStorageError(w, err)
		return
	}

	s.setRefreshCookie(w, refresh)
	s.audit("user.login", user.ID, nil)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int(constants.AccessTokenTTL.Seconds()),
		User:        user,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	// Browser clients carry the token in the HttpOnly cookie; non-browser
	// clients may send it in the body instead.
	var token string
	if cookie, err := r.Cookie(constants.RefreshCookie); err == nil {
		token = cookie.Value
	} else {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		token = req.RefreshToken
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}

	id, err := s.auth.ValidateRefreshToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, err := s.store.GetUser(id)
	if err != nil || !user.Active || user.RefreshTokenHash != auth.HashToken(token) {
		// A rotated or logged-out token is no longer honored.
		writeError(w, http.StatusUnauthorized, "refresh token revoked")
		return
	}

	access, err := s.auth.NewAccessToken(user.ID)
	if err != nil {
		writeStorageError(w, err)
		return
	}
	refresh, err := s.auth.NewRefreshToken(user.ID)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	user.RefreshTokenHash = auth.HashToken(refresh)
	if err := s.store.UpdateUser(user); err != nil {
		writeStorageError(w, err)
		return
	}

	s.setRefreshCookie(w, refresh)
	s.audit("user.refresh", user.ID, nil)
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int(constants.AccessTokenTTL.Seconds()),
		User:        user,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(userID(r))
	if err != nil {
		writeStorageError(w, err)
		return
	}

	user.RefreshTokenHash = ""
	if err := s.store.UpdateUser(user); err != nil {
		writeStorageError(w, err)
		return
	}

	s.clearRefreshCookie(w)
	s.audit("user.logout", user.ID, nil)
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.GetUser(userID(r))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.RefreshCookie,
		Value:    token,
		Path:     "/api/v1/auth",
		MaxAge:   int(constants.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.RefreshCookie,
		Value:    "",
		Path:     "/api/v1/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	})
}

// audit records a security event; failures are logged, never surfaced.
func (s *Server) audit(eventType, userID string, payload any) {
	entry := models.AuditLog{
		ID:        uuid.NewString(),
		EventType: eventType,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if payload != nil {
		if data, err := json.Marshal(payload); err == nil {
			entry.Payload = string(data)
		}
	}
	if err := s.store.AddAuditLog(entry); err != nil {
		logger.Error("Failed to write audit log", "event_type", eventType, "error", err)
	}
}
