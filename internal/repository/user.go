package repository

import (
	"context"
	"errors"
	"fmt"

	"pixchat-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoRows is returned by lookups when the row does not exist, so callers
// can distinguish absence from a database failure.
var ErrNoRows = pgx.ErrNoRows

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, profile_image_url, profile_image_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.ProfileImageURL, user.ProfileImageID, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, profile_image_url, profile_image_id, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// GetByUsernameOrEmail retrieves a user matching either the username or the
// email, both compared lowercase.
func (r *UserRepository) GetByUsernameOrEmail(ctx context.Context, usernameOrEmail string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, profile_image_url, profile_image_id, created_at
		FROM users
		WHERE username = lower($1) OR email = lower($1)
	`
	return r.scanOne(r.db.QueryRow(ctx, query, usernameOrEmail))
}

func (r *UserRepository) scanOne(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.ProfileImageURL, &user.ProfileImageID, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UsernameExists checks if a username is already taken
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = lower($1))`
	var exists bool
	if err := r.db.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return exists, nil
}

// EmailExists checks if an email is already taken
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = lower($1))`
	var exists bool
	if err := r.db.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// Update overwrites the mutable profile fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = $1, email = $2, profile_image_url = $3, profile_image_id = $4
		WHERE id = $5
	`
	result, err := r.db.Exec(ctx, query,
		user.Username, user.Email, user.ProfileImageURL, user.ProfileImageID, user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// Search finds users whose username contains the query, case-insensitive,
// excluding the searching user.
func (r *UserRepository) Search(ctx context.Context, query, excludeID string, limit int) ([]models.Profile, error) {
	sql := `
		SELECT id, username, profile_image_url
		FROM users
		WHERE username LIKE '%' || lower($1) || '%' AND id <> $2
		ORDER BY username
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, sql, query, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	return scanProfiles(rows)
}

// GetProfiles resolves a set of user ids to profile summaries. Missing ids
// are silently skipped.
func (r *UserRepository) GetProfiles(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return []models.Profile{}, nil
	}
	query := `
		SELECT id, username, profile_image_url
		FROM users
		WHERE id = ANY($1)
		ORDER BY username
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}
	defer rows.Close()

	return scanProfiles(rows)
}

func scanProfiles(rows pgx.Rows) ([]models.Profile, error) {
	profiles := []models.Profile{}
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.ProfileImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return profiles, nil
}
