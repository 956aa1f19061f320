package repository

import (
	"context"
	"fmt"
	"time"

	"pixchat-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RelationRepository handles the per-owner relation rows that make up each
// user's friends / sent-request / pending-request sets. Every statement
// touches a single owner's rows; two-sided mutations are two independent
// calls, with the reconciler repairing a failed second write.
type RelationRepository struct {
	db *pgxpool.Pool
}

// NewRelationRepository creates a new relation repository
func NewRelationRepository(db *pgxpool.Pool) *RelationRepository {
	return &RelationRepository{db: db}
}

// Add inserts one relation row for owner. Inserting an existing row is a
// no-op rather than an error; strictness on the addition side is enforced
// by the relationship engine before writing.
func (r *RelationRepository) Add(ctx context.Context, ownerID, otherID string, kind models.RelationKind) error {
	query := `
		INSERT INTO relations (owner_id, other_id, kind, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, other_id, kind) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, ownerID, otherID, kind, time.Now())
	if err != nil {
		return fmt.Errorf("failed to add %s relation: %w", kind, err)
	}
	return nil
}

// Remove deletes one relation row for owner. Removing an absent row is a
// silent no-op, which keeps reject/remove retries safe.
func (r *RelationRepository) Remove(ctx context.Context, ownerID, otherID string, kind models.RelationKind) error {
	query := `DELETE FROM relations WHERE owner_id = $1 AND other_id = $2 AND kind = $3`
	_, err := r.db.Exec(ctx, query, ownerID, otherID, kind)
	if err != nil {
		return fmt.Errorf("failed to remove %s relation: %w", kind, err)
	}
	return nil
}

// Exists reports whether the relation row is present.
func (r *RelationRepository) Exists(ctx context.Context, ownerID, otherID string, kind models.RelationKind) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM relations WHERE owner_id = $1 AND other_id = $2 AND kind = $3)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, ownerID, otherID, kind).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s relation: %w", kind, err)
	}
	return exists, nil
}

// ListIDs returns the other-side ids of one of owner's sets.
func (r *RelationRepository) ListIDs(ctx context.Context, ownerID string, kind models.RelationKind) ([]string, error) {
	query := `SELECT other_id FROM relations WHERE owner_id = $1 AND kind = $2 ORDER BY created_at`
	rows, err := r.db.Query(ctx, query, ownerID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s relations: %w", kind, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan relation: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating relations: %w", err)
	}
	return ids, nil
}

// ListProfiles resolves one of owner's sets to profile summaries.
func (r *RelationRepository) ListProfiles(ctx context.Context, ownerID string, kind models.RelationKind) ([]models.Profile, error) {
	query := `
		SELECT u.id, u.username, u.profile_image_url
		FROM relations r
		JOIN users u ON u.id = r.other_id
		WHERE r.owner_id = $1 AND r.kind = $2
		ORDER BY r.created_at
	`
	rows, err := r.db.Query(ctx, query, ownerID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s profiles: %w", kind, err)
	}
	defer rows.Close()

	return scanProfiles(rows)
}

// Edge is one directed relation row, as surfaced by the asymmetry scans.
type Edge struct {
	OwnerID string
	OtherID string
	Kind    models.RelationKind
}

// FindAsymmetricFriendEdges returns friend rows whose mirror row is missing,
// i.e. A lists B as a friend but B does not list A.
func (r *RelationRepository) FindAsymmetricFriendEdges(ctx context.Context, limit int) ([]Edge, error) {
	query := `
		SELECT a.owner_id, a.other_id
		FROM relations a
		LEFT JOIN relations b
		  ON b.owner_id = a.other_id AND b.other_id = a.owner_id AND b.kind = 'friend'
		WHERE a.kind = 'friend' AND b.owner_id IS NULL
		LIMIT $1
	`
	return r.queryEdges(ctx, query, models.RelationFriend, limit)
}

// FindDanglingSentEdges returns sent rows with no matching pending row on
// the target's side.
func (r *RelationRepository) FindDanglingSentEdges(ctx context.Context, limit int) ([]Edge, error) {
	query := `
		SELECT a.owner_id, a.other_id
		FROM relations a
		LEFT JOIN relations b
		  ON b.owner_id = a.other_id AND b.other_id = a.owner_id AND b.kind = 'pending'
		WHERE a.kind = 'sent' AND b.owner_id IS NULL
		LIMIT $1
	`
	return r.queryEdges(ctx, query, models.RelationSent, limit)
}

// FindDanglingPendingEdges returns pending rows with no matching sent row on
// the requester's side.
func (r *RelationRepository) FindDanglingPendingEdges(ctx context.Context, limit int) ([]Edge, error) {
	query := `
		SELECT a.owner_id, a.other_id
		FROM relations a
		LEFT JOIN relations b
		  ON b.owner_id = a.other_id AND b.other_id = a.owner_id AND b.kind = 'sent'
		WHERE a.kind = 'pending' AND b.owner_id IS NULL
		LIMIT $1
	`
	return r.queryEdges(ctx, query, models.RelationPending, limit)
}

func (r *RelationRepository) queryEdges(ctx context.Context, query string, kind models.RelationKind, limit int) ([]Edge, error) {
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for asymmetric edges: %w", err)
	}
	defer rows.Close()

	edges := []Edge{}
	for rows.Next() {
		e := Edge{Kind: kind}
		if err := rows.Scan(&e.OwnerID, &e.OtherID); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}
	return edges, nil
}
