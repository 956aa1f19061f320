package services

import (
	"context"
	"time"

	"pixchat-backend/internal/models"
	"pixchat-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

const sweepBatchSize = 500

// ReconcileStore is the scan/repair surface of the relation repository.
type ReconcileStore interface {
	Add(ctx context.Context, ownerID, otherID string, kind models.RelationKind) error
	Remove(ctx context.Context, ownerID, otherID string, kind models.RelationKind) error
	FindAsymmetricFriendEdges(ctx context.Context, limit int) ([]repository.Edge, error)
	FindDanglingSentEdges(ctx context.Context, limit int) ([]repository.Edge, error)
	FindDanglingPendingEdges(ctx context.Context, limit int) ([]repository.Edge, error)
}

// Reconciler is the background sweep that repairs relation edges left
// asymmetric by a failed second write. Friendships are repaired as the
// union of both sides (the missing mirror row is added); half-open request
// edges are dropped, since the request never became visible to its target.
type Reconciler struct {
	relations ReconcileStore
	interval  time.Duration
}

// NewReconciler creates a reconciler sweeping at the given interval.
func NewReconciler(relations ReconcileStore, interval time.Duration) *Reconciler {
	return &Reconciler{relations: relations, interval: interval}
}

// Run sweeps on a ticker until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	log.Info().Dur("interval", r.interval).Msg("Relation reconciler started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Relation reconciler stopped")
			return
		case <-ticker.C:
			repaired, err := r.SweepOnce(ctx)
			if err != nil {
				log.Error().Err(err).Msg("Reconciliation sweep failed")
				continue
			}
			if repaired > 0 {
				log.Warn().Int("repaired", repaired).Msg("Repaired asymmetric relation edges")
			}
		}
	}
}

// SweepOnce scans for asymmetric edges and repairs them. Returns the number
// of edges touched.
func (r *Reconciler) SweepOnce(ctx context.Context) (int, error) {
	repaired := 0

	friendEdges, err := r.relations.FindAsymmetricFriendEdges(ctx, sweepBatchSize)
	if err != nil {
		return repaired, err
	}
	for _, e := range friendEdges {
		if err := r.relations.Add(ctx, e.OtherID, e.OwnerID, models.RelationFriend); err != nil {
			return repaired, err
		}
		log.Info().
			Str("owner_id", e.OwnerID).
			Str("other_id", e.OtherID).
			Msg("Completed one-sided friendship")
		repaired++
	}

	sentEdges, err := r.relations.FindDanglingSentEdges(ctx, sweepBatchSize)
	if err != nil {
		return repaired, err
	}
	for _, e := range sentEdges {
		if err := r.relations.Remove(ctx, e.OwnerID, e.OtherID, models.RelationSent); err != nil {
			return repaired, err
		}
		repaired++
	}

	pendingEdges, err := r.relations.FindDanglingPendingEdges(ctx, sweepBatchSize)
	if err != nil {
		return repaired, err
	}
	for _, e := range pendingEdges {
		if err := r.relations.Remove(ctx, e.OwnerID, e.OtherID, models.RelationPending); err != nil {
			return repaired, err
		}
		repaired++
	}

	return repaired, nil
}
