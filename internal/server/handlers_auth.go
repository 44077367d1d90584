package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spacesedan/sentigate/internal/auth"
	"github.com/spacesedan/sentigate/internal/db"
	"github.com/spacesedan/sentigate/internal/models"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "invalid request body", nil)
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("[Server] Failed to hash password",
			slog.String("error", err.Error()))
		writeError(w, r, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		CreatedAt:    time.Now().Unix(),
	}
	if err := s.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrUserExists) {
			writeError(w, r, http.StatusConflict, CodeConflict, "username already taken", nil)
			return
		}
		slog.Error("[Server] Failed to create user",
			slog.String("error", err.Error()))
		writeError(w, r, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, CodeValidationError, "invalid request body", nil)
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, r, err)
		return
	}

	user, err := s.users.GetUser(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, db.ErrUserNotFound) {
			slog.Error("[Server] Failed to look up user",
				slog.String("error", err.Error()))
		}
		// Same response for unknown user and bad password.
		writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "invalid username or password", nil)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "invalid username or password", nil)
		return
	}
	if user.Disabled {
		writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "account disabled", nil)
		return
	}

	token, expiresIn, err := s.tokens.Issue(user.Username)
	if err != nil {
		slog.Error("[Server] Failed to issue token",
			slog.String("error", err.Error()))
		writeError(w, r, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
		return
	}

	respondJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   expiresIn,
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	username := UsernameFromContext(r.Context())

	user, err := s.users.GetUser(r.Context(), username)
	if err != nil {
		// A valid token for a user that no longer exists.
		writeError(w, r, http.StatusUnauthorized, CodeUnauthorized, "missing or invalid credentials", nil)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
