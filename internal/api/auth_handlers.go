package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ENACT/enact/internal/auth"
	"log/slog"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	config       auth.Config
	passwordHash string
	logger       *slog.Logger
}

// NewAuthHandler creates a new authentication handler. The configured admin
// password is hashed once here so the plaintext never sits in memory past
// startup.
func NewAuthHandler(config auth.Config, logger *slog.Logger) (*AuthHandler, error) {
	hash, err := auth.HashPassword(config.AdminPassword)
	if err != nil {
		return nil, err
	}
	config.AdminPassword = ""

	return &AuthHandler{
		config:       config,
		passwordHash: hash,
		logger:       logger,
	}, nil
}

// LoginRequest represents a login request
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if !auth.CheckPassword(req.Password, h.passwordHash) {
		h.logger.Warn("failed login attempt", "ip", r.RemoteAddr)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken("admin", h.config.JWTSecret, h.config.TokenDuration)
	if err != nil {
		h.logger.Error("failed to generate token", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("successful login", "ip", r.RemoteAddr)

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(h.config.TokenDuration),
	}, h.logger)
}

// ValidateToken handles GET /api/auth/validate. The middleware has already
// verified the token by the time this runs.
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, _ := auth.GetUserIDFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":  true,
		"userID": userID,
	}, h.logger)
}
