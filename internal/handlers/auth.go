package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"pixchat-backend/internal/middleware"
	"pixchat-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const maxImageUploadBytes = 10 << 20 // 10 MiB

// AuthHandler handles signup, login and profile HTTP requests.
type AuthHandler struct {
	userService *services.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		log.Error().Err(err).Str("username", req.Username).Msg("Signup failed")
		respondAppError(w, err)
		return
	}

	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User registered")
	respondJSON(w, http.StatusCreated, map[string]any{"token": token, "user": user})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.Login(r.Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		respondAppError(w, err)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User logged in")
	respondJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userService.Me(r.Context(), userID)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

// GetUser handles GET /api/v1/auth/user/{id}
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Update handles PUT /api/v1/auth/update
func (h *AuthHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req services.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Update(r.Context(), userID, req)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Profile update failed")
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

// UpdateProfileImage handles POST /api/v1/auth/update-profile-image
func (h *AuthHandler) UpdateProfileImage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	image, contentType, err := readImageFile(r, "image")
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.userService.UpdateProfileImage(r.Context(), userID, image, contentType)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Avatar update failed")
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Search handles GET /api/v1/auth/user/search?username=
func (h *AuthHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	query := r.URL.Query().Get("username")

	users, err := h.userService.Search(r.Context(), userID, query)
	if err != nil {
		respondAppError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"users": users})
}

// readImageFile extracts an uploaded image part from a multipart request.
func readImageFile(r *http.Request, field string) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		return nil, "", err
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageUploadBytes))
	if err != nil {
		return nil, "", err
	}
	return data, header.Header.Get("Content-Type"), nil
}
