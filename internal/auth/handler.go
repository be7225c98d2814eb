package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"flightdeck/internal/api"
)

type authResponse struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	ExpiresIn int64  `json:"expires_in"`
}

func newAuthResponse(user *User, token string, ttl time.Duration) authResponse {
	return authResponse{
		Token:     token,
		Type:      "Bearer",
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		ExpiresIn: int64(ttl.Seconds()),
	}
}

type RegisterHandler struct {
	Service *Service
	Logger  *slog.Logger
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     Role   `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Name == "" || payload.Email == "" || payload.Password == "" {
		api.WriteError(w, http.StatusBadRequest, "name, email and password are required")
		return
	}
	if payload.Role == "" {
		payload.Role = RoleCustomer
	}
	if !payload.Role.Valid() {
		api.WriteError(w, http.StatusBadRequest, "unknown role")
		return
	}
	user, token, err := h.Service.Register(r.Context(), payload.Name, payload.Email, payload.Password, payload.Role)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			api.WriteError(w, http.StatusConflict, "email already registered")
			return
		}
		h.Logger.Error("register user", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	api.Write(w, http.StatusCreated, "user registered", newAuthResponse(user, token, h.Service.Tokens().TTL()))
}

type LoginHandler struct {
	Service *Service
	Logger  *slog.Logger
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Email == "" || payload.Password == "" {
		api.WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	user, token, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			api.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.Logger.Error("login user", "err", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	api.Write(w, http.StatusOK, "login successful", newAuthResponse(user, token, h.Service.Tokens().TTL()))
}
