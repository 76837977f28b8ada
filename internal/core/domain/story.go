package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StoryLifetime est fixe : une story vit exactement 24h.
const StoryLifetime = 24 * time.Hour

// Story est un post éphémère. ExpiresAt est calculé à la création et ne bouge plus.
type Story struct {
	ID        string
	AuthorID  string
	Image     Media
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewStory est le SEUL constructeur : c'est ici que l'expiration est posée.
func NewStory(authorID string, image Media, now time.Time) (*Story, error) {
	if strings.TrimSpace(authorID) == "" {
		return nil, fmt.Errorf("%w: author is required", ErrValidation)
	}
	if image.IsZero() {
		return nil, fmt.Errorf("%w: story image is required", ErrValidation)
	}

	createdAt := now.UTC()
	image.Type = MediaTypeImage
	return &Story{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Image:     image,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(StoryLifetime),
	}, nil
}

// IsActive : visible tant que at < ExpiresAt (la borne est exclue).
func (s *Story) IsActive(at time.Time) bool {
	return at.Before(s.ExpiresAt)
}
