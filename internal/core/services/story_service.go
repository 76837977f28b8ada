package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/domain"
	"github.com/jupiterclapton/cenackle/services/blog-service/internal/core/ports"
)

const storyMediaPrefix = "stories"

type storyService struct {
	repo      ports.StoryRepository
	storage   ports.MediaStorage
	publisher ports.EventPublisher
	now       func() time.Time
}

func NewStoryService(repo ports.StoryRepository, storage ports.MediaStorage, pub ports.EventPublisher) *storyService {
	return &storyService{
		repo:      repo,
		storage:   storage,
		publisher: pub,
		now:       time.Now,
	}
}

func (s *storyService) CreateStory(ctx context.Context, viewer domain.Viewer, image *domain.Upload) (*domain.Story, error) {
	if !viewer.IsAuthenticated() {
		return nil, domain.ErrUnauthorized
	}
	// Fail fast : pas d'image, pas d'upload
	if image.IsEmpty() {
		return nil, fmt.Errorf("%w: story image is required", domain.ErrValidation)
	}

	media, err := s.storage.Put(ctx, storyMediaPrefix, image)
	if err != nil {
		return nil, fmt.Errorf("store story image: %w", err)
	}

	story, err := domain.NewStory(viewer.UserID, media, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, story); err != nil {
		// L'objet S3 devient orphelin sinon
		if delErr := s.storage.Delete(ctx, media.Key); delErr != nil {
			slog.WarnContext(ctx, "Failed to remove orphan story image", "key", media.Key, "error", delErr)
		}
		return nil, fmt.Errorf("save story: %w", err)
	}

	if err := s.publisher.PublishStoryCreated(ctx, story); err != nil {
		slog.ErrorContext(ctx, "Failed to publish story.created", "story_id", story.ID, "error", err)
	}

	return story, nil
}

func (s *storyService) IsActive(story *domain.Story, at time.Time) bool {
	return story.IsActive(at)
}
