package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pixchat-backend/internal/apperr"
	"pixchat-backend/internal/models"
	"pixchat-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost      = 10
	searchMinLength = 2
	searchLimit     = 20
)

// ErrInvalidCredentials is returned when a login's password does not match.
var ErrInvalidCredentials = apperr.Invalid("invalid credentials")

// UserService handles registration, login, token validation and profile
// maintenance.
type UserService struct {
	users     UserStore
	relations RelationStore
	images    ImageStore
	jwtSecret string
	tokenTTL  time.Duration
}

// NewUserService creates a new user service
func NewUserService(users UserStore, relations RelationStore, images ImageStore, jwtSecret string, tokenTTL time.Duration) *UserService {
	return &UserService{
		users:     users,
		relations: relations,
		images:    images,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Register creates an account with a unique username and email. Username
// and email are stored lowercase.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" || password == "" {
		return nil, "", apperr.Invalid("username, email and password are required")
	}

	usernameTaken, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, "", apperr.Upstream("failed to check username", err)
	}
	emailTaken, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, "", apperr.Upstream("failed to check email", err)
	}
	switch {
	case usernameTaken && emailTaken:
		return nil, "", apperr.Conflict("username and email already taken")
	case usernameTaken:
		return nil, "", apperr.Conflict("username already taken")
	case emailTaken:
		return nil, "", apperr.Conflict("email already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", apperr.Upstream("failed to hash password", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", apperr.Upstream("failed to create user", err)
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", apperr.Upstream("failed to issue token", err)
	}
	return user, token, nil
}

// Login authenticates by username or email plus password.
func (s *UserService) Login(ctx context.Context, usernameOrEmail, password string) (*models.User, string, error) {
	if usernameOrEmail == "" || password == "" {
		return nil, "", apperr.Invalid("credentials are required")
	}

	user, err := s.users.GetByUsernameOrEmail(ctx, usernameOrEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, "", apperr.NotFound("user not found")
		}
		return nil, "", apperr.Upstream("failed to load user", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", apperr.Upstream("failed to issue token", err)
	}
	return user, token, nil
}

// GetByID retrieves a user's public record.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Upstream("failed to load user", err)
	}
	return user, nil
}

// Me returns the caller's record with the three relation id-sets attached.
func (s *UserService) Me(ctx context.Context, selfID string) (*models.User, error) {
	user, err := s.GetByID(ctx, selfID)
	if err != nil {
		return nil, err
	}

	if user.Friends, err = s.relations.ListIDs(ctx, selfID, models.RelationFriend); err != nil {
		return nil, apperr.Upstream("failed to list friends", err)
	}
	if user.SentRequests, err = s.relations.ListIDs(ctx, selfID, models.RelationSent); err != nil {
		return nil, apperr.Upstream("failed to list sent requests", err)
	}
	if user.PendingRequests, err = s.relations.ListIDs(ctx, selfID, models.RelationPending); err != nil {
		return nil, apperr.Upstream("failed to list pending requests", err)
	}
	return user, nil
}

// UpdateRequest carries the mutable profile fields; empty fields are left
// unchanged.
type UpdateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	ImageURL string `json:"profile_image"`
}

// Update changes the caller's username, email or image reference.
func (s *UserService) Update(ctx context.Context, selfID string, req UpdateRequest) (*models.User, error) {
	user, err := s.GetByID(ctx, selfID)
	if err != nil {
		return nil, err
	}

	if username := strings.ToLower(strings.TrimSpace(req.Username)); username != "" && username != user.Username {
		taken, err := s.users.UsernameExists(ctx, username)
		if err != nil {
			return nil, apperr.Upstream("failed to check username", err)
		}
		if taken {
			return nil, apperr.Conflict("username already taken")
		}
		user.Username = username
	}

	if email := strings.ToLower(strings.TrimSpace(req.Email)); email != "" && email != user.Email {
		taken, err := s.users.EmailExists(ctx, email)
		if err != nil {
			return nil, apperr.Upstream("failed to check email", err)
		}
		if taken {
			return nil, apperr.Conflict("email already taken")
		}
		user.Email = email
	}

	if req.ImageURL != "" {
		user.ProfileImageURL = req.ImageURL
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperr.Upstream("failed to update user", err)
	}
	return user, nil
}

// UpdateProfileImage replaces the caller's avatar, deleting the previous
// object from storage.
func (s *UserService) UpdateProfileImage(ctx context.Context, selfID string, image []byte, contentType string) (*models.User, error) {
	if len(image) == 0 {
		return nil, apperr.Invalid("image is required")
	}
	if contentType == "" {
		contentType = "image/jpeg"
	}

	user, err := s.GetByID(ctx, selfID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("avatars/%s/%s", selfID, uuid.New().String())
	stored, err := s.images.Upload(ctx, key, image, contentType)
	if err != nil {
		return nil, apperr.Upstream("failed to upload avatar", err)
	}

	previous := user.ProfileImageID
	user.ProfileImageURL = stored.URL
	user.ProfileImageID = stored.Key
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperr.Upstream("failed to update user", err)
	}

	if previous != "" {
		if err := s.images.Delete(ctx, previous); err != nil {
			log.Warn().Err(err).Str("user_id", selfID).Msg("Failed to delete previous avatar")
		}
	}
	return user, nil
}

// Search finds users by case-insensitive username substring, excluding the
// caller. Queries shorter than two characters are rejected.
func (s *UserService) Search(ctx context.Context, selfID, query string) ([]models.Profile, error) {
	query = strings.TrimSpace(query)
	if len(query) < searchMinLength {
		return nil, apperr.Invalid("search query must be at least 2 characters")
	}
	profiles, err := s.users.Search(ctx, query, selfID, searchLimit)
	if err != nil {
		return nil, apperr.Upstream("failed to search users", err)
	}
	return profiles, nil
}

// GenerateJWT generates a signed token carrying the user id.
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(s.tokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateJWT validates a token and returns the user id it carries.
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}
	return userID, nil
}
