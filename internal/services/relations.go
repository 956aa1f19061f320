package services

import (
	"context"
	"errors"

	"pixchat-backend/internal/apperr"
	"pixchat-backend/internal/models"
	"pixchat-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// RelationService is the relationship engine: it validates and executes the
// send/accept/reject/remove transitions against the per-user relation sets.
//
// Every two-sided mutation is two independent single-owner writes with no
// transaction. Validation happens before the first write; a failure between
// the writes leaves the edge asymmetric and is logged as a reconciliation
// event for the background sweep to repair. Removal is idempotent, addition
// is strict.
type RelationService struct {
	users     UserStore
	relations RelationStore
}

// NewRelationService creates a new relation service
func NewRelationService(users UserStore, relations RelationStore) *RelationService {
	return &RelationService{users: users, relations: relations}
}

// RelationResult carries the two profiles of a completed transition: the
// acting user and the counterpart. Handlers feed it to the dispatcher.
type RelationResult struct {
	Self  models.Profile
	Other models.Profile
}

// loadPair resolves both sides of an operation, rejecting self-targeting
// and unknown counterparts.
func (s *RelationService) loadPair(ctx context.Context, selfID, otherID string) (*models.User, *models.User, error) {
	if otherID == "" {
		return nil, nil, apperr.Invalid("user id is required")
	}
	if otherID == selfID {
		return nil, nil, apperr.Invalid("cannot target yourself")
	}

	other, err := s.users.GetByID(ctx, otherID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, nil, apperr.NotFound("user not found")
		}
		return nil, nil, apperr.Upstream("failed to load user", err)
	}

	self, err := s.users.GetByID(ctx, selfID)
	if err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return nil, nil, apperr.NotFound("user not found")
		}
		return nil, nil, apperr.Upstream("failed to load user", err)
	}

	return self, other, nil
}

// SendRequest records a directed friend request from self to target.
func (s *RelationService) SendRequest(ctx context.Context, selfID, targetID string) (*RelationResult, error) {
	self, target, err := s.loadPair(ctx, selfID, targetID)
	if err != nil {
		return nil, err
	}

	alreadyFriends, err := s.relations.Exists(ctx, selfID, targetID, models.RelationFriend)
	if err != nil {
		return nil, apperr.Upstream("failed to check friendship", err)
	}
	if alreadyFriends {
		return nil, apperr.Conflict("already friends")
	}

	alreadySent, err := s.relations.Exists(ctx, selfID, targetID, models.RelationSent)
	if err != nil {
		return nil, apperr.Upstream("failed to check sent requests", err)
	}
	if alreadySent {
		return nil, apperr.Conflict("friend request already sent")
	}

	reciprocal, err := s.relations.Exists(ctx, selfID, targetID, models.RelationPending)
	if err != nil {
		return nil, apperr.Upstream("failed to check pending requests", err)
	}
	if reciprocal {
		return nil, apperr.Conflict("this user already sent you a request, accept it instead")
	}

	if err := s.relations.Add(ctx, selfID, targetID, models.RelationSent); err != nil {
		return nil, apperr.Upstream("failed to record sent request", err)
	}
	if err := s.relations.Add(ctx, targetID, selfID, models.RelationPending); err != nil {
		s.logReconcileNeeded("send_request", selfID, targetID, err)
		return nil, apperr.Upstream("failed to record pending request", err)
	}

	return &RelationResult{Self: self.Profile(), Other: target.Profile()}, nil
}

// AcceptRequest turns a pending request from requester into a friendship.
// The request rows are removed no-op-safe, so a retry after a partial
// failure still converges.
func (s *RelationService) AcceptRequest(ctx context.Context, selfID, requesterID string) (*RelationResult, error) {
	self, requester, err := s.loadPair(ctx, selfID, requesterID)
	if err != nil {
		return nil, err
	}

	alreadyFriends, err := s.relations.Exists(ctx, selfID, requesterID, models.RelationFriend)
	if err != nil {
		return nil, apperr.Upstream("failed to check friendship", err)
	}
	if alreadyFriends {
		return nil, apperr.Conflict("already friends")
	}

	if err := s.clearRequestPair(ctx, selfID, requesterID); err != nil {
		return nil, err
	}

	if err := s.relations.Add(ctx, selfID, requesterID, models.RelationFriend); err != nil {
		return nil, apperr.Upstream("failed to record friendship", err)
	}
	if err := s.relations.Add(ctx, requesterID, selfID, models.RelationFriend); err != nil {
		s.logReconcileNeeded("accept_request", selfID, requesterID, err)
		return nil, apperr.Upstream("failed to record friendship", err)
	}

	return &RelationResult{Self: self.Profile(), Other: requester.Profile()}, nil
}

// RejectRequest drops a pending request from requester without creating a
// friendship. Rejecting an absent request is a no-op success.
func (s *RelationService) RejectRequest(ctx context.Context, selfID, requesterID string) (*RelationResult, error) {
	self, requester, err := s.loadPair(ctx, selfID, requesterID)
	if err != nil {
		return nil, err
	}

	if err := s.clearRequestPair(ctx, selfID, requesterID); err != nil {
		return nil, err
	}

	return &RelationResult{Self: self.Profile(), Other: requester.Profile()}, nil
}

// clearRequestPair removes the pending row on self's side and the sent row
// on the requester's side, tolerating absence of either.
func (s *RelationService) clearRequestPair(ctx context.Context, selfID, requesterID string) error {
	if err := s.relations.Remove(ctx, selfID, requesterID, models.RelationPending); err != nil {
		return apperr.Upstream("failed to clear pending request", err)
	}
	if err := s.relations.Remove(ctx, requesterID, selfID, models.RelationSent); err != nil {
		s.logReconcileNeeded("clear_request", selfID, requesterID, err)
		return apperr.Upstream("failed to clear sent request", err)
	}
	return nil
}

// RemoveFriend dissolves an existing friendship symmetrically.
func (s *RelationService) RemoveFriend(ctx context.Context, selfID, targetID string) (*RelationResult, error) {
	self, target, err := s.loadPair(ctx, selfID, targetID)
	if err != nil {
		return nil, err
	}

	isFriend, err := s.relations.Exists(ctx, selfID, targetID, models.RelationFriend)
	if err != nil {
		return nil, apperr.Upstream("failed to check friendship", err)
	}
	if !isFriend {
		return nil, apperr.Conflict("not friends with this user")
	}

	if err := s.relations.Remove(ctx, selfID, targetID, models.RelationFriend); err != nil {
		return nil, apperr.Upstream("failed to remove friendship", err)
	}
	if err := s.relations.Remove(ctx, targetID, selfID, models.RelationFriend); err != nil {
		s.logReconcileNeeded("remove_friend", selfID, targetID, err)
		return nil, apperr.Upstream("failed to remove friendship", err)
	}

	return &RelationResult{Self: self.Profile(), Other: target.Profile()}, nil
}

// ListRelations returns the caller's three sets resolved to profiles.
func (s *RelationService) ListRelations(ctx context.Context, selfID string) (*models.Relations, error) {
	friends, err := s.relations.ListProfiles(ctx, selfID, models.RelationFriend)
	if err != nil {
		return nil, apperr.Upstream("failed to list friends", err)
	}
	sent, err := s.relations.ListProfiles(ctx, selfID, models.RelationSent)
	if err != nil {
		return nil, apperr.Upstream("failed to list sent requests", err)
	}
	pending, err := s.relations.ListProfiles(ctx, selfID, models.RelationPending)
	if err != nil {
		return nil, apperr.Upstream("failed to list pending requests", err)
	}

	return &models.Relations{
		Friends:         friends,
		SentRequests:    sent,
		PendingRequests: pending,
	}, nil
}

// Friends returns the caller's friend list.
func (s *RelationService) Friends(ctx context.Context, selfID string) ([]models.Profile, error) {
	friends, err := s.relations.ListProfiles(ctx, selfID, models.RelationFriend)
	if err != nil {
		return nil, apperr.Upstream("failed to list friends", err)
	}
	return friends, nil
}

// PendingRequests returns the caller's incoming requests.
func (s *RelationService) PendingRequests(ctx context.Context, selfID string) ([]models.Profile, error) {
	pending, err := s.relations.ListProfiles(ctx, selfID, models.RelationPending)
	if err != nil {
		return nil, apperr.Upstream("failed to list pending requests", err)
	}
	return pending, nil
}

// AreFriends is the read path the chat access gate consumes.
func (s *RelationService) AreFriends(ctx context.Context, selfID, otherID string) (bool, error) {
	ok, err := s.relations.Exists(ctx, selfID, otherID, models.RelationFriend)
	if err != nil {
		return false, apperr.Upstream("failed to check friendship", err)
	}
	return ok, nil
}

// logReconcileNeeded records a failed second write of a two-sided mutation.
// The first write is not rolled back; the sweep repairs the edge later.
func (s *RelationService) logReconcileNeeded(op, selfID, otherID string, err error) {
	log.Error().
		Err(err).
		Str("op", op).
		Str("user_id", selfID).
		Str("other_id", otherID).
		Msg("Second relation write failed, edge left asymmetric until reconciliation")
}
