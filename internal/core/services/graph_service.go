package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/ports"
)

type graphService struct {
	repo      ports.GraphRepository
	users     ports.UserRepository
	publisher ports.EventPublisher
}

func NewGraphService(repo ports.GraphRepository, users ports.UserRepository, pub ports.EventPublisher) *graphService {
	return &graphService{repo: repo, users: users, publisher: pub}
}

func (s *graphService) validate(ctx context.Context, actorID, targetID string) error {
	if actorID == "" {
		return domain.ErrUnauthorized
	}
	if targetID == "" {
		return fmt.Errorf("%w: target is required", domain.ErrValidation)
	}
	if actorID == targetID {
		return fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrCannotFollowSelf)
	}
	// La cible doit exister côté identité
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return err
	}
	return nil
}

func (s *graphService) FollowUser(ctx context.Context, actorID, targetID string) error {
	if err := s.validate(ctx, actorID, targetID); err != nil {
		return err
	}
	if err := s.repo.CreateRelation(ctx, actorID, targetID); err != nil {
		return err
	}
	if err := s.publisher.PublishUserFollowed(ctx, actorID, targetID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish user.followed", "actor_id", actorID, "error", err)
	}
	return nil
}

func (s *graphService) UnfollowUser(ctx context.Context, actorID, targetID string) error {
	if err := s.validate(ctx, actorID, targetID); err != nil {
		return err
	}
	return s.repo.DeleteRelation(ctx, actorID, targetID)
}

// ToggleFollow : même contrat que les likes, read-modify-write, retourne l'état final
func (s *graphService) ToggleFollow(ctx context.Context, actorID, targetID string) (bool, error) {
	if err := s.validate(ctx, actorID, targetID); err != nil {
		return false, err
	}
	status, err := s.repo.GetRelationStatus(ctx, actorID, targetID)
	if err != nil {
		return false, err
	}
	if status.IsFollowing {
		return false, s.repo.DeleteRelation(ctx, actorID, targetID)
	}
	if err := s.FollowUser(ctx, actorID, targetID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *graphService) CheckRelation(ctx context.Context, actorID, targetID string) (*domain.RelationStatus, error) {
	return s.repo.GetRelationStatus(ctx, actorID, targetID)
}

func (s *graphService) ListFollowers(ctx context.Context, userID string) ([]string, error) {
	return s.repo.ListFollowerIDs(ctx, userID)
}

func (s *graphService) ListFollowing(ctx context.Context, userID string) ([]string, error) {
	return s.repo.ListFollowingIDs(ctx, userID)
}
